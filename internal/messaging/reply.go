package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"rental-booking/internal/database"
	"rental-booking/internal/models"
)

const (
	replyAskEquipmentName = "Por favor, dime el nombre del equipo para darte el precio."
	replyAvailability     = "Puedes ver la disponibilidad de todos nuestros equipos en tiempo real en el calendario de nuestro sitio web."
	replyGreeting         = "¡Hola! Gracias por contactarnos. Puedes ver nuestro catálogo, precios y disponibilidad en nuestro sitio web."
	replyFallback         = "No entendí tu consulta. Un agente humano te responderá pronto."
)

var (
	priceKeywords        = []string{"precio", "costo", "cuánto"}
	availabilityKeywords = []string{"disponible", "disponibilidad"}
	greetingKeywords     = []string{"hola", "info", "saludos"}
)

// Catalog is the read-only lookup the price reply needs.
type Catalog interface {
	FindEquipmentByName(ctx context.Context, fragment string) (*models.Equipment, error)
}

// Replier picks a canned answer for an inbound message.
type Replier struct {
	catalog Catalog
	log     *slog.Logger
}

func NewReplier(catalog Catalog, log *slog.Logger) *Replier {
	return &Replier{catalog: catalog, log: log}
}

// Reply matches, in order: price, availability, greeting, fallback.
func (r *Replier) Reply(ctx context.Context, text string) string {
	text = strings.ToLower(text)

	switch {
	case containsAny(text, priceKeywords):
		eq := r.lookupEquipment(ctx, strings.Fields(text))
		if eq == nil {
			return replyAskEquipmentName
		}
		return priceReply(eq)
	case containsAny(text, availabilityKeywords):
		return replyAvailability
	case containsAny(text, greetingKeywords):
		return replyGreeting
	default:
		return replyFallback
	}
}

// lookupEquipment returns the match for the first word that names any
// equipment.
func (r *Replier) lookupEquipment(ctx context.Context, words []string) *models.Equipment {
	for _, word := range words {
		eq, err := r.catalog.FindEquipmentByName(ctx, word)
		if errors.Is(err, database.ErrNotFound) {
			continue
		}
		if err != nil {
			r.log.Error("equipment lookup failed", "word", word, "error", err)
			continue
		}
		return eq
	}
	return nil
}

func priceReply(eq *models.Equipment) string {
	return fmt.Sprintf("¡Hola! El precio de '%s' es de $%.2f por día.", eq.Name, eq.PricePerDay)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
