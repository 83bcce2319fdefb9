package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"rental-booking/internal/models"

	"github.com/jackc/pgx/v5/pgconn"

	// PostgreSQL driver
	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	CreateEquipment(ctx context.Context, eq *models.Equipment) error
	ListEquipment(ctx context.Context, skip, limit int) ([]models.Equipment, error)
	GetEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	// FindEquipmentByName returns the first equipment, by id, whose name
	// contains fragment case-insensitively.
	FindEquipmentByName(ctx context.Context, fragment string) (*models.Equipment, error)

	ListBookings(ctx context.Context, skip, limit int) ([]models.Booking, error)

	// WithTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of statements a booking needs to run atomically.
type Tx interface {
	// LockEquipment loads the equipment row and holds a row lock on it until
	// the transaction ends, serializing bookings for that equipment.
	LockEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	CountOverlappingBookings(ctx context.Context, equipmentID int64, start, end models.Date) (int, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type service struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens a pgx-backed *sql.DB and verifies it answers a ping.
func New(ctx context.Context, dsn string, log *slog.Logger) (Service, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewWithDB(db, log), nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB, log *slog.Logger) Service {
	return &service{db: db, log: log}
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		s.log.Error("database health check failed", "error", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	if dbStats.OpenConnections > 100 {
		stats["message"] = "The database is experiencing heavy load."
	}

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	s.log.Info("disconnected from database")
	return s.db.Close()
}

func (s *service) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	query := `
		INSERT INTO equipment (name, category, description, price_per_day, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + equipmentColumns
	stored, err := scanEquipment(s.db.QueryRowContext(ctx, query,
		eq.Name,
		eq.Category,
		eq.Description,
		eq.PricePerDay,
		eq.ImageURL,
	))
	if err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}
	// The column rounds to cents; hand back what was stored.
	*eq = *stored
	return nil
}

const equipmentColumns = `id, name, category, description, price_per_day, image_url`

func scanEquipment(row interface{ Scan(dest ...any) error }) (*models.Equipment, error) {
	var eq models.Equipment
	err := row.Scan(
		&eq.ID,
		&eq.Name,
		&eq.Category,
		&eq.Description,
		&eq.PricePerDay,
		&eq.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func (s *service) ListEquipment(ctx context.Context, skip, limit int) ([]models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY id OFFSET $1 LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	equipment := []models.Equipment{}
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		equipment = append(equipment, *eq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	return equipment, nil
}

func (s *service) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`
	return getEquipment(ctx, s.db, query, id)
}

func (s *service) FindEquipmentByName(ctx context.Context, fragment string) (*models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE name ILIKE $1 ESCAPE '\' ORDER BY id LIMIT 1`
	return getEquipment(ctx, s.db, query, "%"+escapeLike(fragment)+"%")
}

func getEquipment(ctx context.Context, q querier, query string, arg any) (*models.Equipment, error) {
	eq, err := scanEquipment(q.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get equipment: %w", err)
	}
	return eq, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *service) ListBookings(ctx context.Context, skip, limit int) ([]models.Booking, error) {
	query := `
		SELECT id, equipment_id, customer_name, customer_email, start_date, end_date, total_price, status
		FROM bookings
		ORDER BY id
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.EquipmentID,
			&booking.CustomerName,
			&booking.CustomerEmail,
			&booking.StartDate,
			&booking.EndDate,
			&booking.TotalPrice,
			&booking.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func (s *service) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txn{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) LockEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1 FOR UPDATE`
	return getEquipment(ctx, t.tx, query, id)
}

func (t *txn) CountOverlappingBookings(ctx context.Context, equipmentID int64, start, end models.Date) (int, error) {
	query := `
		SELECT COUNT(1)
		FROM bookings
		WHERE equipment_id = $1
		  AND status = 'confirmed'
		  AND end_date >= $2
		  AND start_date <= $3
	`
	var n int
	if err := t.tx.QueryRowContext(ctx, query, equipmentID, start, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n, nil
}

func (t *txn) InsertBooking(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (equipment_id, customer_name, customer_email, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query,
		b.EquipmentID,
		b.CustomerName,
		b.CustomerEmail,
		b.StartDate,
		b.EndDate,
		b.TotalPrice,
		b.Status,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// exclusion_violation, raised by bookings_no_overlap.
const exclusionViolation = "23P01"

// IsOverlapViolation reports whether err came from the bookings overlap
// exclusion constraint.
func IsOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == exclusionViolation
}
