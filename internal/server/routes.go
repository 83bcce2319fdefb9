package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"rental-booking/internal/booking"
	"rental-booking/internal/messaging"
	"rental-booking/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
)

const (
	defaultSkip  = 0
	defaultLimit = 100

	maxWebhookBody = 1 << 20
)

// RegisterRoutes sets up the router with all endpoints.
func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", s.rootHandler)
	r.Get("/health", s.healthHandler)

	// Webhook deliveries are never throttled.
	r.Get("/webhook", s.VerifyWebhookHandler)
	r.Post("/webhook", s.ReceiveWebhookHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)

		r.Post("/equipment", s.CreateEquipmentHandler)
		r.Get("/equipment", s.ListEquipmentHandler)
		r.Get("/equipment/{id}", s.GetEquipmentHandler)

		r.Post("/bookings", s.CreateBookingHandler)
		r.Get("/bookings", s.GetAllBookingsHandler)
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)
	return cors(r)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bienvenido a la API del Sistema de Rentas"})
}

// healthHandler provides health information.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.db.Health())
}

// CreateEquipmentHandler adds an item to the catalog.
func (s *Server) CreateEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	var eq models.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		s.log.Info("invalid equipment data", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := s.validate.Struct(eq); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := s.engine.CreateEquipment(r.Context(), &eq); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

func (s *Server) ListEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	equipment, err := s.engine.ListEquipment(r.Context(), skip, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, equipment)
}

func (s *Server) GetEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "equipment id must be an integer")
		return
	}
	eq, err := s.engine.GetEquipment(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eq)
}

// CreateBookingHandler handles booking creation.
func (s *Server) CreateBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req booking.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Info("invalid booking data", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	confirmation, err := s.engine.CreateBooking(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.notifier.BookingConfirmed(confirmation.Booking, confirmation.Equipment)
	writeJSON(w, http.StatusOK, confirmation.Booking)
}

// GetAllBookingsHandler retrieves bookings page by page.
func (s *Server) GetAllBookingsHandler(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := parsePage(w, r)
	if !ok {
		return
	}
	bookings, err := s.engine.ListBookings(r.Context(), skip, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// VerifyWebhookHandler answers the subscription handshake.
func (s *Server) VerifyWebhookHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, err := s.verifier.Verify(q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if err != nil {
		s.log.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
		writeError(w, http.StatusForbidden, "Verification failed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, challenge)
}

// ReceiveWebhookHandler always acknowledges with 200.
func (s *Server) ReceiveWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.log.Warn("error reading webhook body", "error", err)
	} else {
		s.webhook.Handle(r.Context(), body)
	}
	w.WriteHeader(http.StatusOK)
}

// fail maps engine errors to status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidRange), errors.Is(err, booking.ErrInvalidPage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, messaging.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		s.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// parsePage reads skip and limit, writing a 400 when either is malformed.
func parsePage(w http.ResponseWriter, r *http.Request) (skip, limit int, ok bool) {
	q := r.URL.Query()
	skip, err := queryInt(q.Get("skip"), defaultSkip)
	if err != nil || skip < 0 {
		writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
		return 0, 0, false
	}
	limit, err = queryInt(q.Get("limit"), defaultLimit)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, 0, false
	}
	return skip, limit, true
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request payload"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
