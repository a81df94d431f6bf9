package usecase

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/adapter/bcfile"
	"go.ngs.io/wave-boundary/internal/domain"
)

// Mode selects how the boundary is emitted.
type Mode string

// Emission modes.
const (
	// ModeSingle writes one bcfile for the start of the requested range.
	ModeSingle Mode = "single"
	// ModeSequence writes one bcfile per instant and a filelist.
	ModeSequence Mode = "sequence"
)

// XBeach limits on the boundary condition timestep.
const (
	DefaultDbtc = 1.0
	MinDbtc     = 0.1
	MaxDbtc     = 2.0
)

// ParseMode parses a mode name. An empty name selects the sequence mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeSequence, "":
		return ModeSequence, nil
	default:
		return "", fmt.Errorf("%w: unknown output mode %q (expected %s or %s)", domain.ErrConfig, s, ModeSingle, ModeSequence)
	}
}

// RecordWriter persists records and filelists.
type RecordWriter interface {
	WriteRecord(dir string, r *domain.Record) (string, error)
	WriteFileList(dir string, entries []bcfile.Entry) (string, error)
}

// FileWriter writes XBeach text files.
type FileWriter struct{}

// WriteRecord implements RecordWriter.
func (FileWriter) WriteRecord(dir string, r *domain.Record) (string, error) {
	return bcfile.WriteJonswap(dir, r)
}

// WriteFileList implements RecordWriter.
func (FileWriter) WriteFileList(dir string, entries []bcfile.Entry) (string, error) {
	return bcfile.WriteFileList(dir, entries)
}

// Emitter turns a statistics table into boundary files.
type Emitter struct {
	Mode    Mode
	Dbtc    float64
	Options domain.JonswapOptions
	Writer  RecordWriter
	Log     logrus.FieldLogger
}

// Validate checks the emitter settings.
func (e *Emitter) Validate() error {
	if e.Mode != ModeSingle && e.Mode != ModeSequence {
		return fmt.Errorf("%w: unknown output mode %q", domain.ErrConfig, e.Mode)
	}
	if math.IsNaN(e.Dbtc) || e.Dbtc < MinDbtc || e.Dbtc > MaxDbtc {
		return fmt.Errorf("%w: dbtc %v outside [%g, %g]", domain.ErrConfig, e.Dbtc, MinDbtc, MaxDbtc)
	}
	return e.Options.Validate()
}

// Plan is the validated output of one emission, built before any I/O.
type Plan struct {
	Records   []*domain.Record
	Durations []float64 // Sequence mode only, seconds.
}

// Build validates every record the emission needs. In single mode the
// table must hold exactly one instant. In sequence mode every instant but
// the last becomes a record lasting until the next instant.
func (e *Emitter) Build(table *domain.StatsTable) (*Plan, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	n := table.Len()
	switch e.Mode {
	case ModeSingle:
		if n != 1 {
			return nil, fmt.Errorf("%w: single mode needs exactly one instant, got %d", domain.ErrRange, n)
		}
		r, err := domain.NewRecord(table.Row(0), e.Options)
		if err != nil {
			return nil, err
		}
		return &Plan{Records: []*domain.Record{r}}, nil

	default:
		if n < 2 {
			return nil, fmt.Errorf("%w: sequence mode needs at least two instants, got %d", domain.ErrRange, n)
		}
		plan := &Plan{
			Records:   make([]*domain.Record, 0, n-1),
			Durations: make([]float64, 0, n-1),
		}
		for i := 0; i < n-1; i++ {
			r, err := domain.NewRecord(table.Row(i), e.Options)
			if err != nil {
				return nil, err
			}
			plan.Records = append(plan.Records, r)
			plan.Durations = append(plan.Durations, table.Times[i+1].Sub(table.Times[i]).Seconds())
		}
		return plan, nil
	}
}

// Emit writes the boundary for table into destdir. Records are built and
// validated first; if any write fails, files already written by this call
// are removed.
func (e *Emitter) Emit(destdir string, table *domain.StatsTable) (domain.BCFile, error) {
	plan, err := e.Build(table)
	if err != nil {
		return domain.BCFile{}, err
	}
	if err := os.MkdirAll(destdir, 0o755); err != nil {
		return domain.BCFile{}, fmt.Errorf("failed to create destination %s: %w", destdir, err)
	}

	w := e.Writer
	if w == nil {
		w = FileWriter{}
	}
	var written []string
	cleanup := func(cause error) error {
		var errs []error
		for _, path := range written {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			e.log().WithError(errors.Join(errs...)).Warn("failed to remove partial boundary output")
		}
		return cause
	}

	entries := make([]bcfile.Entry, 0, len(plan.Records))
	for i, r := range plan.Records {
		e.log().WithFields(logrus.Fields{
			"time": r.Time(),
			"file": r.FileName(),
		}).Debug("creating boundary")
		path, err := w.WriteRecord(destdir, r)
		if err != nil {
			return domain.BCFile{}, cleanup(fmt.Errorf("writing %s: %w", r.FileName(), err))
		}
		written = append(written, path)
		if e.Mode == ModeSequence {
			entries = append(entries, bcfile.Entry{Duration: plan.Durations[i], Dbtc: e.Dbtc, BCFile: r.FileName()})
		}
	}

	if e.Mode == ModeSingle {
		e.log().WithField("bcfile", written[0]).Info("wrote boundary")
		return domain.NewBCFile(written[0], "")
	}

	path, err := w.WriteFileList(destdir, entries)
	if err != nil {
		return domain.BCFile{}, cleanup(fmt.Errorf("writing filelist: %w", err))
	}
	e.log().WithFields(logrus.Fields{
		"filelist": path,
		"bcfiles":  len(entries),
	}).Info("wrote boundary")
	return domain.NewBCFile("", path)
}

func (e *Emitter) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}
