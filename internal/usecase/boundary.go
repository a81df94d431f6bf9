package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/adapter/geo"
	"go.ngs.io/wave-boundary/internal/adapter/spectral"
	"go.ngs.io/wave-boundary/internal/adapter/store"
	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
)

// Grid is the model grid the boundary is prepared for.
type Grid interface {
	// OffshorePoint returns the middle of the offshore edge in the grid CRS.
	OffshorePoint() geo.Point
}

// Stats kinds.
const (
	StatsSpectral = "spectral"
	StatsParam    = "param"
)

// BoundaryConfig configures a station boundary.
type BoundaryConfig struct {
	Coords     dataset.Coords
	SelMethod  string
	SelKwargs  map[string]any
	CropData   bool
	TimeBuffer [2]int
	Mode       Mode
	Dbtc       float64
	Jonswap    domain.JonswapOptions
	Writer     RecordWriter
	Log        logrus.FieldLogger
}

// Boundary builds XBeach JONSWAP boundaries from a station source.
type Boundary struct {
	source     store.Source
	data       *dataset.Dataset
	selector   *Selector
	stats      StatsCalculator
	emitter    *Emitter
	cropData   bool
	timeBuffer [2]int
	log        logrus.FieldLogger
}

// NewBoundary opens the source and checks the configuration against it.
// All configuration errors are reported here, before any extraction.
func NewBoundary(src store.Source, stats StatsCalculator, cfg BoundaryConfig) (*Boundary, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source must be set", domain.ErrConfig)
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: stats calculator must be set", domain.ErrConfig)
	}
	if _, err := geo.Parse(src.CRS()); err != nil {
		return nil, fmt.Errorf("%w: source crs: %v", domain.ErrConfig, err)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	selector, err := NewSelector(cfg.Coords, cfg.SelMethod, cfg.SelKwargs)
	if err != nil {
		return nil, err
	}
	selector.Log = log

	mode := cfg.Mode
	if mode == "" {
		mode = ModeSequence
	}
	dbtc := cfg.Dbtc
	if dbtc == 0 {
		dbtc = DefaultDbtc
	}
	emitter := &Emitter{Mode: mode, Dbtc: dbtc, Options: cfg.Jonswap, Writer: cfg.Writer, Log: log}
	if err := emitter.Validate(); err != nil {
		return nil, err
	}

	buffer := cfg.TimeBuffer
	if buffer == [2]int{} {
		buffer = DefaultTimeBuffer
	}
	if buffer[0] < 0 || buffer[1] < 0 {
		return nil, fmt.Errorf("%w: time buffer must not be negative, got %v", domain.ErrConfig, buffer)
	}

	ds, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	if err := selector.Validate(ds); err != nil {
		return nil, err
	}
	if v, ok := stats.(Validator); ok {
		if err := v.Validate(ds); err != nil {
			return nil, err
		}
	}

	return &Boundary{
		source:     src,
		data:       ds,
		selector:   selector,
		stats:      stats,
		emitter:    emitter,
		cropData:   cfg.CropData,
		timeBuffer: buffer,
		log:        log,
	}, nil
}

// Mode returns the emission mode.
func (b *Boundary) Mode() Mode { return b.emitter.Mode }

// WithMode returns a copy of b emitting in mode m. The source data is
// shared, it is never modified.
func (b *Boundary) WithMode(m Mode) (*Boundary, error) {
	e := *b.emitter
	e.Mode = m
	if err := e.Validate(); err != nil {
		return nil, err
	}
	out := *b
	out.emitter = &e
	return &out, nil
}

// Series returns the boundary series that Get derives the boundary from: the
// series at the offshore point of g, reduced to the start of tr in single
// mode or padded to exactly tr in sequence mode. A nil tr keeps the whole
// series in sequence mode and is an error in single mode.
func (b *Boundary) Series(g Grid, tr *domain.TimeRange) (*dataset.Dataset, error) {
	if b.emitter.Mode == ModeSingle && tr == nil {
		return nil, fmt.Errorf("%w: single mode needs a time range", domain.ErrConfig)
	}

	ds := b.data
	if tr != nil {
		if err := ValidateTime(ds, *tr); err != nil {
			return nil, err
		}
		if b.cropData {
			cropped, err := FilterTime(ds, *tr, b.timeBuffer)
			if err != nil {
				return nil, err
			}
			ds = cropped
		}
	}

	pt, err := g.OffshorePoint().Reproject(b.source.CRS())
	if err != nil {
		return nil, fmt.Errorf("%w: boundary point: %v", domain.ErrConfig, err)
	}
	b.log.WithFields(logrus.Fields{
		"x":      pt.X,
		"y":      pt.Y,
		"crs":    pt.CRS,
		"method": b.selector.Method,
	}).Debug("selecting boundary point")

	sel, err := b.selector.Select(ds, pt)
	if err != nil {
		return nil, err
	}

	switch {
	case tr == nil:
		return sel, nil
	case b.emitter.Mode == ModeSingle:
		return sel.InterpTime([]time.Time{tr.Start})
	default:
		return AdjustTime(sel, *tr)
	}
}

// Get writes the boundary for grid g into destdir and returns the namelist
// entry referencing it: {"bcfile": name} in single mode or
// {"filelist": name} in sequence mode.
func (b *Boundary) Get(destdir string, g Grid, tr *domain.TimeRange) (map[string]string, error) {
	series, err := b.Series(g, tr)
	if err != nil {
		return nil, err
	}
	table, err := b.stats.CalculateStats(series)
	if err != nil {
		return nil, err
	}
	out, err := b.emitter.Emit(destdir, table)
	if err != nil {
		return nil, err
	}
	return out.Namelist(), nil
}

// NewStatsCalculator returns the deriver for kind: "spectral" or "param".
func NewStatsCalculator(kind string, param ParamStats, names spectral.Names) (StatsCalculator, error) {
	switch strings.ToLower(kind) {
	case StatsParam, "":
		return param, nil
	case StatsSpectral:
		return NewSpectralStats(names), nil
	default:
		return nil, fmt.Errorf("%w: unknown stats kind %q (expected %s or %s)", domain.ErrConfig, kind, StatsSpectral, StatsParam)
	}
}
