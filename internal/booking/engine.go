package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"rental-booking/internal/database"
	"rental-booking/internal/models"
)

// Store is the persistence the engine runs against. database.Service
// satisfies it.
type Store interface {
	CreateEquipment(ctx context.Context, eq *models.Equipment) error
	ListEquipment(ctx context.Context, skip, limit int) ([]models.Equipment, error)
	GetEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	ListBookings(ctx context.Context, skip, limit int) ([]models.Booking, error)
	WithTx(ctx context.Context, fn func(tx database.Tx) error) error
}

type CreateBookingRequest struct {
	EquipmentID   int64       `json:"equipment_id" validate:"required,gt=0"`
	CustomerName  string      `json:"customer_name" validate:"required,max=200"`
	CustomerEmail string      `json:"customer_email" validate:"required,email"`
	StartDate     models.Date `json:"start_date" validate:"required"`
	EndDate       models.Date `json:"end_date" validate:"required"`
}

// Confirmation is a created booking together with the equipment it reserves.
type Confirmation struct {
	Booking   models.Booking
	Equipment models.Equipment
}

type Engine struct {
	store Store
	log   *slog.Logger
}

func NewEngine(store Store, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// CreateBooking validates the request against existing reservations, prices
// it and persists it. The equipment row stays locked from the existence check
// through the insert, so two overlapping requests for the same equipment
// cannot both pass the overlap check.
func (e *Engine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Confirmation, error) {
	var out *Confirmation

	err := e.store.WithTx(ctx, func(tx database.Tx) error {
		eq, err := tx.LockEquipment(ctx, req.EquipmentID)
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if req.StartDate.After(req.EndDate) {
			return ErrInvalidRange
		}

		overlapping, err := tx.CountOverlappingBookings(ctx, req.EquipmentID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrConflict
		}

		b := models.Booking{
			EquipmentID:   req.EquipmentID,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			TotalPrice:    Price(req.StartDate, req.EndDate, eq.PricePerDay),
			Status:        models.StatusConfirmed,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			if database.IsOverlapViolation(err) {
				return ErrConflict
			}
			return err
		}

		out = &Confirmation{Booking: b, Equipment: *eq}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("booking confirmed",
		"booking_id", out.Booking.ID,
		"equipment_id", out.Booking.EquipmentID,
		"start_date", out.Booking.StartDate.String(),
		"end_date", out.Booking.EndDate.String(),
		"total_price", out.Booking.TotalPrice,
	)
	return out, nil
}

// Days is the inclusive number of days in [start, end].
func Days(start, end models.Date) int {
	return end.DaysSince(start) + 1
}

// Price charges pricePerDay for every day in the inclusive range, rounded to cents.
func Price(start, end models.Date, pricePerDay float64) float64 {
	total := float64(Days(start, end)) * pricePerDay
	return math.Round(total*100) / 100
}

func (e *Engine) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	if err := e.store.CreateEquipment(ctx, eq); err != nil {
		return err
	}
	e.log.Info("equipment created", "equipment_id", eq.ID, "name", eq.Name)
	return nil
}

func (e *Engine) ListEquipment(ctx context.Context, skip, limit int) ([]models.Equipment, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPage
	}
	return e.store.ListEquipment(ctx, skip, limit)
}

func (e *Engine) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	eq, err := e.store.GetEquipment(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment %d: %w", id, err)
	}
	return eq, nil
}

func (e *Engine) ListBookings(ctx context.Context, skip, limit int) ([]models.Booking, error) {
	if skip < 0 || limit < 0 {
		return nil, ErrInvalidPage
	}
	return e.store.ListBookings(ctx, skip, limit)
}
