package server

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"rental-booking/internal/booking"
	"rental-booking/internal/config"
	"rental-booking/internal/database"
	"rental-booking/internal/messaging"
	"rental-booking/internal/notify"

	"github.com/go-playground/validator/v10"
)

type Server struct {
	db       database.Service
	engine   *booking.Engine
	verifier *messaging.Verifier
	webhook  *messaging.Handler
	notifier notify.Notifier
	limiter  *visitorLimiter
	validate *validator.Validate
	log      *slog.Logger
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	DB       database.Service
	Sender   messaging.Sender
	Notifier notify.Notifier
	Log      *slog.Logger
}

func New(cfg *config.Config, deps Deps) *Server {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Server{
		db:       deps.DB,
		engine:   booking.NewEngine(deps.DB, deps.Log),
		verifier: messaging.NewVerifier(cfg.VerifyToken),
		webhook:  messaging.NewHandler(messaging.NewReplier(deps.DB, deps.Log), deps.Sender, deps.Log),
		notifier: notifier,
		limiter:  newVisitorLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		validate: newValidator(),
		log:      deps.Log,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("cents", validateCents)
	return v
}

// validateCents accepts amounts with at most two decimal places.
func validateCents(fl validator.FieldLevel) bool {
	cents := fl.Field().Float() * 100
	return math.Abs(cents-math.Round(cents)) < 1e-3
}

// NewServer wires the routes into an *http.Server listening on cfg.Port.
func NewServer(cfg *config.Config, deps Deps) *http.Server {
	s := New(cfg, deps)
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
