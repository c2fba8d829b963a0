package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	apperrors "lzpending/internal/errors"
	"lzpending/internal/migrations"
	"lzpending/internal/models"
	"lzpending/internal/retry"
	"lzpending/internal/validation"

	"github.com/sirupsen/logrus"
)

// DefaultListLimit caps ListSightings when the caller passes no limit.
const DefaultListLimit = 200

// Database is the SQLite-backed sighting store.
type Database struct {
	db      *sql.DB
	logger  *logrus.Logger
	backoff *retry.Backoff
}

// New opens (creating if needed) the sighting store at dbPath and applies
// the schema.
func New(dbPath string) (*Database, error) {
	return NewWithLogger(dbPath, logrus.New())
}

// NewWithLogger is New with an explicit logger for retry warnings.
func NewWithLogger(dbPath string, logger *logrus.Logger) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	// Validate database path to prevent directory traversal
	if err := validation.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if logger == nil {
		logger = logrus.New()
	}
	d := &Database{db: db, logger: logger}
	d.backoff = newBackoff(d)

	ctx := context.Background()
	if err := d.retryableDBOperation(ctx, "ping", func() error { return db.PingContext(ctx) }); err != nil {
		return nil, closeOnError(db, "failed to ping database", err)
	}

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		return nil, closeOnError(db, "failed to read schema", err)
	}

	if err := d.retryableDBOperation(ctx, "initialize schema", func() error {
		_, err := db.ExecContext(ctx, schema)
		return err
	}); err != nil {
		return nil, closeOnError(db, "failed to initialize schema", err)
	}

	return d, nil
}

func closeOnError(db *sql.DB, msg string, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return fmt.Errorf("%s: %w (close error: %v)", msg, err, closeErr)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (d *Database) Close() error {
	return d.db.Close()
}

// HealthCheck pings the underlying database.
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// UpsertSighting records a sighting. An existing row for the same owner and
// transaction keeps its first_seen and has its seen_count incremented.
func (d *Database) UpsertSighting(ctx context.Context, s *models.Sighting) error {
	if s == nil || s.Owner == "" || s.SrcTxHash == "" {
		return apperrors.NewValidationError("sighting", "", "owner and srcTxHash are required")
	}

	return d.retryableDBOperation(ctx, "upsert sighting", func() error {
		_, err := d.db.ExecContext(ctx, UpsertSightingQuery,
			s.Owner,
			s.SrcTxHash,
			s.DstEid,
			s.Status,
			s.LzTxPage,
			s.FirstSeen.UTC().UnixMilli(),
			s.LastSeen.UTC().UnixMilli(),
			s.LastScanID,
		)
		return err
	})
}

// GetSighting returns the sighting for owner and txHash, or a NOT_FOUND
// AppError.
func (d *Database) GetSighting(ctx context.Context, owner, txHash string) (*models.Sighting, error) {
	row := d.db.QueryRowContext(ctx, SelectSightingQuery, owner, txHash)

	s, err := scanSighting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("sighting", txHash)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get sighting", err)
	}
	return s, nil
}

// ListSightings returns the owner's sightings, most recently seen first.
func (d *Database) ListSightings(ctx context.Context, owner string, limit int) ([]models.Sighting, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := d.db.QueryContext(ctx, ListSightingsQuery, owner, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list sightings", err)
	}
	defer func() { _ = rows.Close() }()

	sightings := make([]models.Sighting, 0)
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("list sightings", err)
		}
		sightings = append(sightings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list sightings", err)
	}
	return sightings, nil
}

// PruneSightingsBefore deletes sightings last seen before cutoff and returns
// how many were removed.
func (d *Database) PruneSightingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var pruned int64
	err := d.retryableDBOperation(ctx, "prune sightings", func() error {
		res, err := d.db.ExecContext(ctx, PruneSightingsQuery, cutoff.UTC().UnixMilli())
		if err != nil {
			return err
		}
		pruned, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

// CountSightings returns the number of stored sightings across all owners.
func (d *Database) CountSightings(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, CountSightingsQuery).Scan(&n); err != nil {
		return 0, apperrors.NewDatabaseError("count sightings", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSighting(row rowScanner) (*models.Sighting, error) {
	var (
		s                   models.Sighting
		firstSeen, lastSeen int64
	)
	err := row.Scan(
		&s.ID,
		&s.Owner,
		&s.SrcTxHash,
		&s.DstEid,
		&s.Status,
		&s.LzTxPage,
		&firstSeen,
		&lastSeen,
		&s.LastScanID,
		&s.SeenCount,
	)
	if err != nil {
		return nil, err
	}
	s.FirstSeen = time.UnixMilli(firstSeen).UTC()
	s.LastSeen = time.UnixMilli(lastSeen).UTC()
	return &s, nil
}
