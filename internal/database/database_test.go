package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rental-booking/internal/logger"
	"rental-booking/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var equipmentCols = []string{"id", "name", "category", "description", "price_per_day", "image_url"}

func newMockService(t *testing.T) (*service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &service{db: db, log: logger.Discard()}, mock
}

func TestGetEquipment(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(equipmentCols).
			AddRow(int64(3), "Sony FX3", "Cámaras", "Full frame", 100.0, "https://img.example/fx3.jpg"))

	eq, err := s.GetEquipment(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Sony FX3", eq.Name)
	assert.Equal(t, 100.0, eq.PricePerDay)
	require.NotNil(t, eq.ImageURL)
	assert.Equal(t, "https://img.example/fx3.jpg", *eq.ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEquipment_NotFound(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(equipmentCols))

	_, err := s.GetEquipment(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEquipment(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM equipment ORDER BY id OFFSET \$1 LIMIT \$2`).
		WithArgs(10, 2).
		WillReturnRows(sqlmock.NewRows(equipmentCols).
			AddRow(int64(11), "Aputure 300d", "Iluminación", nil, 45.5, nil).
			AddRow(int64(12), "Rode NTG3", "Sonido", nil, 20.0, nil))

	list, err := s.ListEquipment(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(11), list[0].ID)
	assert.Nil(t, list[0].Description)
	assert.Equal(t, "Rode NTG3", list[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEquipment_EmptyIsNotNil(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM equipment`).
		WithArgs(0, 100).
		WillReturnRows(sqlmock.NewRows(equipmentCols))

	list, err := s.ListEquipment(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestFindEquipmentByName_EscapesWildcards(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE name ILIKE \$1`).
		WithArgs(`%50\%\_%`).
		WillReturnRows(sqlmock.NewRows(equipmentCols))

	_, err := s.FindEquipmentByName(context.Background(), "50%_")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEquipment(t *testing.T) {
	s, mock := newMockService(t)

	desc := "50mm prime"
	eq := &models.Equipment{Name: "Sigma 50mm", Category: "Lentes", Description: &desc, PricePerDay: 30}

	mock.ExpectQuery(`INSERT INTO equipment (.+) RETURNING id, name, category, description, price_per_day, image_url`).
		WithArgs("Sigma 50mm", "Lentes", &desc, 30.0, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(equipmentCols).AddRow(int64(5), "Sigma 50mm", "Lentes", desc, 30.0, nil))

	require.NoError(t, s.CreateEquipment(context.Background(), eq))
	assert.Equal(t, int64(5), eq.ID)
	assert.Nil(t, eq.ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEquipment_ReturnsStoredRow(t *testing.T) {
	s, mock := newMockService(t)

	eq := &models.Equipment{Name: "Rode NTG", Category: "Sonido", PricePerDay: 33.334}

	// NUMERIC(12,2) keeps two decimals; the caller sees what was stored.
	mock.ExpectQuery(`INSERT INTO equipment`).
		WithArgs("Rode NTG", "Sonido", sqlmock.AnyArg(), 33.334, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(equipmentCols).AddRow(int64(6), "Rode NTG", "Sonido", nil, 33.33, nil))

	require.NoError(t, s.CreateEquipment(context.Background(), eq))
	assert.Equal(t, int64(6), eq.ID)
	assert.Equal(t, 33.33, eq.PricePerDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookings(t *testing.T) {
	s, mock := newMockService(t)

	start := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs(0, 100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "equipment_id", "customer_name", "customer_email", "start_date", "end_date", "total_price", "status"}).
			AddRow(int64(1), int64(3), "Ana", "ana@example.com", start, end, 300.0, "confirmed"))

	bookings, err := s.ListBookings(context.Background(), 0, 100)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.NewDate(2024, time.January, 10), bookings[0].StartDate)
	assert.Equal(t, models.NewDate(2024, time.January, 12), bookings[0].EndDate)
	assert.Equal(t, 300.0, bookings[0].TotalPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitsBookingStatements(t *testing.T) {
	s, mock := newMockService(t)

	start := models.NewDate(2024, time.January, 10)
	end := models.NewDate(2024, time.January, 12)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(equipmentCols).
			AddRow(int64(3), "Sony FX3", "Cámaras", nil, 100.0, nil))
	mock.ExpectQuery(`SELECT COUNT\(1\)\s+FROM bookings\s+WHERE equipment_id = \$1\s+AND status = 'confirmed'\s+AND end_date >= \$2\s+AND start_date <= \$3`).
		WithArgs(int64(3), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(3), "Ana", "ana@example.com", start, end, 300.0, models.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	booking := &models.Booking{
		EquipmentID:   3,
		CustomerName:  "Ana",
		CustomerEmail: "ana@example.com",
		StartDate:     start,
		EndDate:       end,
		TotalPrice:    300,
		Status:        models.StatusConfirmed,
	}
	err := s.WithTx(context.Background(), func(tx Tx) error {
		eq, err := tx.LockEquipment(context.Background(), 3)
		if err != nil {
			return err
		}
		assert.Equal(t, "Sony FX3", eq.Name)
		n, err := tx.CountOverlappingBookings(context.Background(), 3, start, end)
		if err != nil {
			return err
		}
		assert.Zero(t, n)
		return tx.InsertBooking(context.Background(), booking)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM equipment WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(equipmentCols))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.LockEquipment(context.Background(), 8)
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	s, mock := newMockService(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	called := false
	err := s.WithTx(context.Background(), func(tx Tx) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestIsOverlapViolation(t *testing.T) {
	overlap := &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	assert.True(t, IsOverlapViolation(overlap))
	assert.True(t, IsOverlapViolation(fmt.Errorf("insert booking: %w", overlap)))
	assert.False(t, IsOverlapViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsOverlapViolation(errors.New("boom")))
}
