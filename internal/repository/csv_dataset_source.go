package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/util"
)

var ErrNoObservations = errors.New("no usable observations")

// CSVSourceConfig describes where price histories live and which columns to read.
type CSVSourceConfig struct {
	Dir         string
	Extension   string
	DateColumn  string
	CloseColumn string
}

// CSVDatasetSource reads one closing-price history per file. The entity key
// is the file name without its extension.
type CSVDatasetSource struct {
	cfg CSVSourceConfig
	l   *applogger.Logger
}

var _ domrepo.DatasetSource = (*CSVDatasetSource)(nil)

func NewCSVDatasetSource(cfg CSVSourceConfig) *CSVDatasetSource {
	if cfg.Extension == "" {
		cfg.Extension = ".csv"
	}
	if cfg.DateColumn == "" {
		cfg.DateColumn = "Date"
	}
	if cfg.CloseColumn == "" {
		cfg.CloseColumn = "Close"
	}
	return &CSVDatasetSource{cfg: cfg, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CSVDatasetSource) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Discover lists dataset files in name order.
func (s *CSVDatasetSource) Discover(_ context.Context) ([]models.Dataset, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("discover datasets in %s: %w", s.cfg.Dir, err)
	}
	out := make([]models.Dataset, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), s.cfg.Extension) {
			continue
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		if key == "" {
			continue
		}
		out = append(out, models.Dataset{Key: key, Location: filepath.Join(s.cfg.Dir, name)})
	}
	return out, nil
}

// Load reads ds and cleans it: rows with an unparseable date or close are
// dropped, the rest are sorted by date, and a repeated date keeps its last row.
func (s *CSVDatasetSource) Load(ctx context.Context, ds models.Dataset) ([]models.Observation, error) {
	f, err := os.Open(ds.Location)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	obs, dropped, err := s.parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Location, err)
	}
	if dropped > 0 {
		s.l.Debug("dropped unusable rows",
			applogger.String("dataset", ds.Key),
			applogger.Int("dropped", dropped),
		)
	}
	obs = CleanObservations(obs)
	if len(obs) == 0 {
		return nil, fmt.Errorf("%s: %w", ds.Location, ErrNoObservations)
	}
	return obs, nil
}

func (s *CSVDatasetSource) parse(ctx context.Context, r io.Reader) ([]models.Observation, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, ErrNoObservations
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	dateIdx, closeIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, s.cfg.DateColumn):
			dateIdx = i
		case strings.EqualFold(h, s.cfg.CloseColumn):
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, 0, fmt.Errorf("missing column %q or %q in header", s.cfg.DateColumn, s.cfg.CloseColumn)
	}

	var (
		out     []models.Observation
		dropped int
	)
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}
		if dateIdx >= len(rec) || closeIdx >= len(rec) {
			dropped++
			continue
		}
		d, ok := util.ParseDayFirst(rec[dateIdx])
		if !ok {
			dropped++
			continue
		}
		v, ok := ParseClose(rec[closeIdx])
		if !ok {
			dropped++
			continue
		}
		out = append(out, models.Observation{Date: d, Close: v})
	}
	return out, dropped, nil
}

// ParseClose reads a closing value, tolerating thousands separators and
// surrounding quotes or spaces. Non-finite values are rejected.
func ParseClose(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return finite(d.InexactFloat64())
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CleanObservations sorts by date and collapses repeated dates to the last
// row seen for that date. Times of day are discarded.
func CleanObservations(obs []models.Observation) []models.Observation {
	for i := range obs {
		obs[i].Date = util.DateOf(obs[i].Date)
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	out := obs[:0]
	for i, o := range obs {
		if i+1 < len(obs) && obs[i+1].Date.Equal(o.Date) {
			continue
		}
		out = append(out, o)
	}
	return out
}
