package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"rental-booking/internal/logger"
	"rental-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedBooking() (models.Booking, models.Equipment) {
	b := models.Booking{
		ID:            7,
		EquipmentID:   3,
		CustomerName:  "Ana López",
		CustomerEmail: "ana@example.com",
		StartDate:     models.NewDate(2024, time.January, 10),
		EndDate:       models.NewDate(2024, time.January, 12),
		TotalPrice:    300,
		Status:        models.StatusConfirmed,
	}
	eq := models.Equipment{ID: 3, Name: "Sony FX3", PricePerDay: 100}
	return b, eq
}

func TestMessage(t *testing.T) {
	n := NewSendGridNotifier(SendGridConfig{APIKey: "k", FromEmail: "rentas@example.com", FromName: "Rentas"}, logger.Discard())
	b, eq := confirmedBooking()

	msg, err := n.Message(b, eq)
	require.NoError(t, err)
	assert.Equal(t, "Reserva #7 confirmada: Sony FX3", msg.Subject)
	assert.Equal(t, "rentas@example.com", msg.From.Address)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "ana@example.com", msg.Personalizations[0].To[0].Address)
	require.Len(t, msg.Content, 2)
	assert.Contains(t, msg.Content[0].Value, "Hasta: 2024-01-12 (3 días)")
	assert.Contains(t, msg.Content[1].Value, "Total: $300.00")
}

func TestBookingConfirmed_SendsThroughSendGrid(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewSendGridNotifier(SendGridConfig{APIKey: "key", FromEmail: "rentas@example.com", Host: server.URL}, logger.Discard())
	n.BookingConfirmed(confirmedBooking())
	n.Wait()

	require.NotNil(t, payload)
	assert.Equal(t, "Reserva #7 confirmada: Sony FX3", payload["subject"])
}

func TestBookingConfirmed_UnconfiguredSkips(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	n := NewSendGridNotifier(SendGridConfig{FromEmail: "rentas@example.com", Host: server.URL}, logger.Discard())
	n.BookingConfirmed(confirmedBooking())
	n.Wait()

	assert.Zero(t, hits.Load())
}

func TestBookingConfirmed_FailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"forbidden"}]}`, http.StatusForbidden)
	}))
	defer server.Close()

	n := NewSendGridNotifier(SendGridConfig{APIKey: "key", FromEmail: "rentas@example.com", Host: server.URL}, logger.Discard())
	assert.NotPanics(t, func() {
		n.BookingConfirmed(confirmedBooking())
		n.Wait()
	})
}
