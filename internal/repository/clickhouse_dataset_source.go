package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	applogger "FinCast/pkg/logger"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHDatasetSource derives daily closing prices from a ClickHouse tick table
// with (ts, symbol, price) columns. Each symbol is one entity.
type CHDatasetSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.DatasetSource = (*CHDatasetSource)(nil)

func NewCHDatasetSource(db *sql.DB, table string) (*CHDatasetSource, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	return &CHDatasetSource{db: db, table: table, l: applogger.Nop()}, nil
}

// SetLogger injects a structured logger.
func (s *CHDatasetSource) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHDatasetSource) Discover(ctx context.Context) ([]models.Dataset, error) {
	q := fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse discover query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("discover symbols: %w", err)
	}
	defer rows.Close()

	var out []models.Dataset
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		if !ValidKey(sym) {
			s.l.Warn("skipping symbol unusable as entity key", applogger.String("symbol", sym))
			continue
		}
		out = append(out, models.Dataset{Key: sym, Location: s.table + "?symbol=" + sym})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Load takes the last traded price of each day as that day's close.
func (s *CHDatasetSource) Load(ctx context.Context, ds models.Dataset) ([]models.Observation, error) {
	start := time.Now()
	const qtpl = `
        SELECT toDate(ts) AS day, argMax(price, ts) AS close
        FROM %s
        WHERE symbol = ?
        GROUP BY day
        ORDER BY day ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), ds.Key)
	if err != nil {
		s.l.Error("clickhouse daily_close query error",
			applogger.String("table", s.table),
			applogger.String("symbol", ds.Key),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("daily close: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			day   time.Time
			close float64
		)
		if err := rows.Scan(&day, &close); err != nil {
			return nil, fmt.Errorf("scan daily close: %w", err)
		}
		if v, ok := finite(close); ok {
			out = append(out, models.Observation{Date: day, Close: v})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	out = CleanObservations(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", ds.Location, ErrNoObservations)
	}
	s.l.Debug("clickhouse daily_close ok",
		applogger.String("symbol", ds.Key),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
