// Package sqlite persists community incident reports and simulation runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/sweet-meenu/urbanpulse-sub000/internal/domain"
)

const defaultListLimit = 50

// timeLayout is fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements domain.ReportRepository and domain.SimulationRepository on SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates a SQLite database at path. ":memory:" is accepted for tests.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS incident_reports (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		category    TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		lat         REAL NOT NULL,
		lon         REAL NOT NULL,
		status      TEXT NOT NULL DEFAULT 'open',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON incident_reports(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_reports_position ON incident_reports(lat, lon);

	CREATE TABLE IF NOT EXISTS simulations (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		origin_lat REAL NOT NULL,
		origin_lon REAL NOT NULL,
		dest_lat   REAL NOT NULL,
		dest_lon   REAL NOT NULL,
		status     TEXT NOT NULL,
		result     TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_simulations_owner ON simulations(owner_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) newID() string {
	return ulid.Make().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// CreateReport stores a new report, assigning id, status and timestamps
func (s *Store) CreateReport(ctx context.Context, r *domain.IncidentReport) error {
	now := s.now().UTC()
	r.ID = s.newID()
	if r.Status == "" {
		r.Status = domain.ReportOpen
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO incident_reports (id, owner_id, category, description, lat, lon, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Category, r.Description, r.Lat, r.Lon, string(r.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReports returns the newest reports, optionally restricted to box
func (s *Store) ListReports(ctx context.Context, box *domain.BoundingBox, limit int) ([]domain.IncidentReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, owner_id, category, description, lat, lon, status, created_at, updated_at FROM incident_reports`
	var args []any
	if box != nil {
		query += ` WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`
		args = append(args, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.IncidentReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

// UpdateReportStatus changes the status of a report owned by ownerID
func (s *Store) UpdateReportStatus(ctx context.Context, id, ownerID string, status domain.ReportStatus) (*domain.IncidentReport, error) {
	r, err := s.getReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: report %s belongs to another user", domain.ErrUnauthorized, id)
	}

	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`UPDATE incident_reports SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(now), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	r.Status = status
	r.UpdatedAt = now
	return r, nil
}

func (s *Store) getReport(ctx context.Context, id string) (*domain.IncidentReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category, description, lat, lon, status, created_at, updated_at FROM incident_reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*domain.IncidentReport, error) {
	var (
		r                    domain.IncidentReport
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Category, &r.Description, &r.Lat, &r.Lon, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r.Status = domain.ReportStatus(status)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// SaveSimulation stores a simulation run, assigning id and timestamp
func (s *Store) SaveSimulation(ctx context.Context, sim *domain.Simulation) error {
	sim.ID = s.newID()
	sim.CreatedAt = s.now().UTC()
	result := string(sim.Result)
	if result == "" {
		result = "null"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO simulations (id, owner_id, origin_lat, origin_lon, dest_lat, dest_lon, status, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sim.ID, sim.OwnerID, sim.Origin.Lat, sim.Origin.Lon, sim.Destination.Lat, sim.Destination.Lon,
		string(sim.Status), result, formatTime(sim.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}
	return nil
}

// ListSimulations returns the owner's newest simulations
func (s *Store) ListSimulations(ctx context.Context, ownerID string, limit int) ([]domain.Simulation, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, origin_lat, origin_lon, dest_lat, dest_lon, status, result, created_at
		 FROM simulations WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query simulations: %w", err)
	}
	defer rows.Close()

	sims := []domain.Simulation{}
	for rows.Next() {
		var (
			sim               domain.Simulation
			status, createdAt string
			result            string
		)
		if err := rows.Scan(&sim.ID, &sim.OwnerID, &sim.Origin.Lat, &sim.Origin.Lon,
			&sim.Destination.Lat, &sim.Destination.Lon, &status, &result, &createdAt); err != nil {
			return nil, err
		}
		sim.Status = domain.SimulationStatus(status)
		sim.Result = []byte(result)
		sim.CreatedAt = parseTime(createdAt)
		sims = append(sims, sim)
	}
	return sims, rows.Err()
}
