package poi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultQueryLimit caps rows per query when the caller sets no limit
const defaultQueryLimit = 500

// AirportSchema creates the OurAirports table the postgres source reads
const AirportSchema = `
CREATE TABLE IF NOT EXISTS airport (
	ident         TEXT PRIMARY KEY,
	type          TEXT NOT NULL,
	name          TEXT NOT NULL,
	latitude_deg  DOUBLE PRECISION NOT NULL,
	longitude_deg DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS airport_position_idx ON airport (longitude_deg, latitude_deg);
`

// querier is the subset of pgxpool.Pool the source needs
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSource serves airports from an OurAirports table in PostgreSQL
type PostgresSource struct {
	db    querier
	pool  *pgxpool.Pool
	types []string
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string, types []string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	src := newPostgresSource(pool, types)
	src.pool = pool
	return src, nil
}

func newPostgresSource(db querier, types []string) *PostgresSource {
	if len(types) == 0 {
		types = DefaultAirportTypes
	}
	return &PostgresSource{db: db, types: types}
}

// Close releases the connection pool
func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the airport table if it does not exist
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, AirportSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Import upserts airports in a single batch
func (s *PostgresSource) Import(ctx context.Context, airports []Place) error {
	if len(airports) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range airports {
		batch.Queue(`
			INSERT INTO airport (ident, type, name, latitude_deg, longitude_deg)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (ident) DO UPDATE
			SET type = EXCLUDED.type, name = EXCLUDED.name,
			    latitude_deg = EXCLUDED.latitude_deg, longitude_deg = EXCLUDED.longitude_deg
		`, a.Ident, a.Kind, a.Name, a.Point.Lat, a.Point.Lon)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range airports {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}

	slog.Info("imported airports", "count", len(airports))
	return nil
}

// Places returns airports inside q.Bounds, most important first. Other
// categories are not stored in the database and yield nothing.
func (s *PostgresSource) Places(ctx context.Context, q Query) ([]Place, error) {
	if q.Category != CategoryAirport {
		return nil, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT ident, name, type, longitude_deg, latitude_deg
		FROM airport
		WHERE type = ANY($1)
		  AND longitude_deg BETWEEN $2 AND $3
		  AND latitude_deg BETWEEN $4 AND $5
		ORDER BY CASE type
			WHEN 'large_airport' THEN 0
			WHEN 'medium_airport' THEN 1
			ELSE 2 END, ident
		LIMIT $6
	`, s.types, q.Bounds.MinLon, q.Bounds.MaxLon, q.Bounds.MinLat, q.Bounds.MaxLat, limit)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer rows.Close()

	var out []Place
	for rows.Next() {
		p := Place{Category: CategoryAirport}
		if err := rows.Scan(&p.Ident, &p.Name, &p.Kind, &p.Point.Lon, &p.Point.Lat); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		p.Rank = airportRank[p.Kind]
		out = append(out, p)
	}
	return out, rows.Err()
}

// Locate resolves an airport by ident, regardless of the type filter
func (s *PostgresSource) Locate(ctx context.Context, ident string) (Place, error) {
	p := Place{Category: CategoryAirport}
	err := s.db.QueryRow(ctx, `
		SELECT ident, name, type, longitude_deg, latitude_deg
		FROM airport WHERE upper(ident) = upper($1)
	`, ident).Scan(&p.Ident, &p.Name, &p.Kind, &p.Point.Lon, &p.Point.Lat)
	if errors.Is(err, pgx.ErrNoRows) {
		return Place{}, ErrNotFound
	}
	if err != nil {
		return Place{}, fmt.Errorf("locate %s: %w", ident, err)
	}
	p.Rank = airportRank[p.Kind]
	return p, nil
}
