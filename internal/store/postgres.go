package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faviy/demandcast/internal/contracts"
)

// PostgresStore keeps forecasts in PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the forecast tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS demand_forecast_runs (
			product        TEXT PRIMARY KEY,
			method         TEXT NOT NULL,
			fitted_through DATE NOT NULL,
			horizon        INTEGER NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS demand_forecasts (
			product     TEXT NOT NULL REFERENCES demand_forecast_runs(product) ON DELETE CASCADE,
			ds          DATE NOT NULL,
			predicted   DOUBLE PRECISION NOT NULL,
			lower_bound DOUBLE PRECISION NOT NULL,
			upper_bound DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (product, ds),
			CHECK (lower_bound <= predicted AND predicted <= upper_bound)
		);
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure forecast schema: %w", err)
	}
	return nil
}

// Save replaces the product's forecast in one transaction
func (s *PostgresStore) Save(ctx context.Context, product string, forecast contracts.ForecastSeries) error {
	if err := checkForecast(product, forecast); err != nil {
		return err
	}

	// Begin transaction
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Upsert run row
	_, err = tx.Exec(ctx, `
		INSERT INTO demand_forecast_runs (product, method, fitted_through, horizon, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (product) DO UPDATE SET
			method = EXCLUDED.method,
			fitted_through = EXCLUDED.fitted_through,
			horizon = EXCLUDED.horizon,
			created_at = NOW()
	`, product, forecast.Method, forecast.FittedThrough, forecast.Horizon)
	if err != nil {
		return fmt.Errorf("upsert forecast run: %w", err)
	}

	// Delete existing rows for the product
	if _, err := tx.Exec(ctx, "DELETE FROM demand_forecasts WHERE product = $1", product); err != nil {
		return fmt.Errorf("delete forecast rows: %w", err)
	}

	// Batch insert new rows
	batch := &pgx.Batch{}
	for _, p := range forecast.Points {
		batch.Queue(`
			INSERT INTO demand_forecasts (product, ds, predicted, lower_bound, upper_bound)
			VALUES ($1, $2, $3, $4, $5)
		`, product, p.Date, p.Predicted, p.LowerBound, p.UpperBound)
	}

	br := tx.SendBatch(ctx, batch)
	for range forecast.Points {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert forecast row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads the run row and all forecast rows in one statement
func (s *PostgresStore) Load(ctx context.Context, product string) (contracts.ForecastSeries, error) {
	query := `
		SELECT r.method, r.fitted_through, r.horizon, f.ds, f.predicted, f.lower_bound, f.upper_bound
		FROM demand_forecast_runs r
		JOIN demand_forecasts f ON f.product = r.product
		WHERE r.product = $1
		ORDER BY f.ds
	`

	rows, err := s.pool.Query(ctx, query, product)
	if err != nil {
		return contracts.ForecastSeries{}, fmt.Errorf("query forecast %s: %w", product, err)
	}
	defer rows.Close()

	forecast := contracts.ForecastSeries{Product: product}
	for rows.Next() {
		var (
			fittedThrough time.Time
			p             contracts.ForecastPoint
		)
		if err := rows.Scan(&forecast.Method, &fittedThrough, &forecast.Horizon,
			&p.Date, &p.Predicted, &p.LowerBound, &p.UpperBound); err != nil {
			return contracts.ForecastSeries{}, fmt.Errorf("scan forecast row: %w", err)
		}
		forecast.FittedThrough = contracts.Day(fittedThrough)
		p.Date = contracts.Day(p.Date)
		forecast.Points = append(forecast.Points, p)
	}
	if err := rows.Err(); err != nil {
		return contracts.ForecastSeries{}, fmt.Errorf("iterate forecast rows: %w", err)
	}

	if len(forecast.Points) == 0 {
		return contracts.ForecastSeries{}, fmt.Errorf("forecast %s: %w", product, contracts.ErrNotFound)
	}
	return forecast, nil
}

// List returns stored products in key order
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT product FROM demand_forecast_runs ORDER BY product")
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}
	defer rows.Close()

	products, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}
	return products, nil
}
