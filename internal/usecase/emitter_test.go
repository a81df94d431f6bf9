package usecase

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.ngs.io/wave-boundary/internal/adapter/bcfile"
	"go.ngs.io/wave-boundary/internal/domain"
)

var errDiskFull = errors.New("disk full")

// failingWriter writes real files but fails on the record with index failAt,
// or on the filelist when failAt is negative.
type failingWriter struct {
	failAt int
	calls  int
}

func (w *failingWriter) WriteRecord(dir string, r *domain.Record) (string, error) {
	defer func() { w.calls++ }()
	if w.calls == w.failAt {
		return "", errDiskFull
	}
	return bcfile.WriteJonswap(dir, r)
}

func (w *failingWriter) WriteFileList(dir string, entries []bcfile.Entry) (string, error) {
	if w.failAt < 0 {
		return "", errDiskFull
	}
	return bcfile.WriteFileList(dir, entries)
}

func hourlyTable(n int) *domain.StatsTable {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = day0.Add(time.Duration(i) * time.Hour)
	}
	table := domain.NewStatsTable(times)
	table.Fill(domain.ParamHm0, 1)
	table.Fill(domain.ParamTp, 10)
	table.Fill(domain.ParamMainAng, 270)
	return table
}

func TestEmitter_Sequence(t *testing.T) {
	e := &Emitter{Mode: ModeSequence, Dbtc: 0.5, Log: quietLogger()}
	dir := filepath.Join(t.TempDir(), "run")
	out, err := e.Emit(dir, hourlyTable(4))
	if err != nil {
		t.Fatal(err)
	}
	if out.BCFile != "" || filepath.Base(out.FileList) != bcfile.FileListName {
		t.Fatalf("unexpected descriptor %+v", out)
	}
	entries, err := bcfile.ReadFileList(out.FileList)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, en := range entries {
		if en.Duration != 3600 || en.Dbtc != 0.5 {
			t.Errorf("entry %d = %+v", i, en)
		}
		if en.BCFile != domain.RecordFileName(day0.Add(time.Duration(i)*time.Hour)) {
			t.Errorf("entry %d file = %s", i, en.BCFile)
		}
	}
	// The last instant only closes the last duration.
	if _, err := os.Stat(filepath.Join(dir, domain.RecordFileName(day0.Add(3*time.Hour)))); !os.IsNotExist(err) {
		t.Error("last instant written as a record")
	}
}

func TestEmitter_BuildErrors(t *testing.T) {
	nan := hourlyTable(3)
	_ = nan.Set(domain.ParamTp, []float64{10, math.NaN(), 10})

	tests := []struct {
		name  string
		e     Emitter
		table *domain.StatsTable
		want  error
	}{
		{"single needs one row", Emitter{Mode: ModeSingle, Dbtc: 1}, hourlyTable(2), domain.ErrRange},
		{"sequence needs two rows", Emitter{Mode: ModeSequence, Dbtc: 1}, hourlyTable(1), domain.ErrRange},
		{"NaN parameter", Emitter{Mode: ModeSequence, Dbtc: 1}, nan, domain.ErrDataQuality},
		{"bad dbtc", Emitter{Mode: ModeSequence, Dbtc: 0.01}, hourlyTable(3), domain.ErrConfig},
		{"bad mode", Emitter{Mode: "both", Dbtc: 1}, hourlyTable(3), domain.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			e := tt.e
			e.Log = quietLogger()
			_, err := e.Emit(dir, tt.table)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if entries, _ := os.ReadDir(dir); len(entries) != 0 {
				t.Errorf("failed build wrote %d files", len(entries))
			}
		})
	}
}

func TestEmitter_WriteFailureRemovesOutput(t *testing.T) {
	for _, failAt := range []int{0, 2, -1} {
		dir := t.TempDir()
		e := &Emitter{Mode: ModeSequence, Dbtc: 1, Writer: &failingWriter{failAt: failAt}, Log: quietLogger()}
		_, err := e.Emit(dir, hourlyTable(5))
		if !errors.Is(err, errDiskFull) {
			t.Fatalf("failAt %d: got %v, want the write error", failAt, err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("failAt %d: %d files left behind", failAt, len(entries))
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"single": ModeSingle, "SEQUENCE": ModeSequence, "": ModeSequence} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("filelist"); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}
