package usecase

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/adapter/bcfile"
	"go.ngs.io/wave-boundary/internal/adapter/store"
	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
	"go.ngs.io/wave-boundary/internal/grid"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// stations builds an hourly series over 2024-01-01T00 - 2024-01-02T00 at
// three sites. hs = 1 + 0.1*hour + site, tp = 10 + site, dpm = 250.
func stations(t *testing.T) *dataset.Dataset {
	t.Helper()
	const nt, ns = 25, 3
	times := make([]time.Time, nt)
	for i := range times {
		times[i] = day0.Add(time.Duration(i) * time.Hour)
	}
	hs := make([]float64, nt*ns)
	tp := make([]float64, nt*ns)
	dpm := make([]float64, nt*ns)
	for i := 0; i < nt; i++ {
		for s := 0; s < ns; s++ {
			hs[i*ns+s] = 1 + 0.1*float64(i) + float64(s)
			tp[i*ns+s] = 10 + float64(s)
			dpm[i*ns+s] = 250
		}
	}
	ds := dataset.New()
	must(t, ds.SetTimes("time", times))
	must(t, ds.AddDim("site", ns))
	must(t, ds.AddVar("lon", []string{"site"}, []float64{115.0, 116.0, 115.0}))
	must(t, ds.AddVar("lat", []string{"site"}, []float64{-32.0, -32.0, -33.0}))
	must(t, ds.AddVar("hs", []string{"time", "site"}, hs))
	must(t, ds.AddVar("tp", []string{"time", "site"}, tp))
	must(t, ds.AddVar("dpm", []string{"time", "site"}, dpm))
	return ds
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// offshoreGrid has its offshore midpoint at (115.1, -32.0), next to site 0.
func offshoreGrid() grid.RegularGrid {
	return grid.RegularGrid{X0: 115.1, Y0: -32.1, Dx: 0.01, Dy: 0.01, Nx: 10, Ny: 21, CRS: "EPSG:4326"}
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

func newBoundary(t *testing.T, ds *dataset.Dataset, stats StatsCalculator, cfg BoundaryConfig) *Boundary {
	t.Helper()
	if cfg.SelMethod == "" {
		cfg.SelMethod = MethodNearest
	}
	cfg.Log = quietLogger()
	b, err := NewBoundary(store.NewDatasetSource(ds, "EPSG:4326"), stats, cfg)
	if err != nil {
		t.Fatalf("NewBoundary: %v", err)
	}
	return b
}

func readJonswap(t *testing.T, path string) map[string]float64 {
	t.Helper()
	kv, err := bcfile.ReadJonswap(path)
	if err != nil {
		t.Fatal(err)
	}
	return kv
}

func TestBoundary_SequenceScenario(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{Mode: ModeSequence})
	tr := &domain.TimeRange{
		Start: day0.Add(30 * time.Minute),
		End:   day0.Add(23*time.Hour + 30*time.Minute),
	}

	series, err := b.Series(offshoreGrid(), tr)
	if err != nil {
		t.Fatal(err)
	}
	if len(series.Times) != 25 {
		t.Fatalf("padded series has %d instants, want 25", len(series.Times))
	}
	if !series.Times[0].Equal(tr.Start) || !series.Times[24].Equal(tr.End) {
		t.Errorf("padded series spans %v - %v, want %s", series.Times[0], series.Times[24], tr)
	}

	dir := t.TempDir()
	nl, err := b.Get(dir, offshoreGrid(), tr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(nl) != 1 || nl["filelist"] != bcfile.FileListName {
		t.Fatalf("unexpected namelist %v", nl)
	}

	entries, err := bcfile.ReadFileList(filepath.Join(dir, nl["filelist"]))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 24 {
		t.Fatalf("filelist has %d entries, want 24", len(entries))
	}
	// 00:30 -> 01:00.
	if entries[0].Duration != 1800 {
		t.Errorf("first duration = %v, want 1800", entries[0].Duration)
	}
	if entries[1].Duration != 3600 {
		t.Errorf("second duration = %v, want 3600", entries[1].Duration)
	}
	total := 0.0
	for _, e := range entries {
		total += e.Duration
		if e.Dbtc != DefaultDbtc {
			t.Errorf("dbtc = %v, want %v", e.Dbtc, DefaultDbtc)
		}
	}
	if total != tr.End.Sub(tr.Start).Seconds() {
		t.Errorf("durations sum to %v, want %v", total, tr.End.Sub(tr.Start).Seconds())
	}
	if entries[0].BCFile != "jons-20240101T003000.txt" {
		t.Errorf("first bcfile = %s", entries[0].BCFile)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "jons-*.txt"))
	if len(files) != 24 {
		t.Errorf("wrote %d bcfiles, want 24", len(files))
	}
	first := readJonswap(t, filepath.Join(dir, entries[0].BCFile))
	if math.Abs(first["Hm0"]-1.05) > 1e-9 || first["Tp"] != 10 || first["mainang"] != 250 {
		t.Errorf("unexpected first record %v", first)
	}
	if _, ok := first["s"]; ok {
		t.Error("s written without a configured spread")
	}
}

func TestBoundary_SingleScenario(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{Mode: ModeSingle})
	tr := &domain.TimeRange{Start: day0.Add(30 * time.Minute), End: day0.Add(23 * time.Hour)}

	dir := t.TempDir()
	nl, err := b.Get(dir, offshoreGrid(), tr)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := "jons-20240101T003000.txt"
	if len(nl) != 1 || nl["bcfile"] != want {
		t.Fatalf("namelist = %v, want bcfile %s", nl, want)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("wrote %d files, want 1", len(entries))
	}
	kv := readJonswap(t, filepath.Join(dir, want))
	if math.Abs(kv["Hm0"]-1.05) > 1e-9 {
		t.Errorf("Hm0 = %v, want 1.05", kv["Hm0"])
	}

	if _, err := b.Get(dir, offshoreGrid(), nil); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("single mode without time: got %v, want ErrConfig", err)
	}
}

func TestBoundary_ConstantHeight(t *testing.T) {
	stats := DefaultParamStats()
	stats.Hm0 = FromValue(1.0)
	stats.Dspr = FromValue(30)
	b := newBoundary(t, stations(t), stats, BoundaryConfig{Mode: ModeSequence})
	tr := &domain.TimeRange{Start: day0.Add(2 * time.Hour), End: day0.Add(8 * time.Hour)}

	dir := t.TempDir()
	if _, err := b.Get(dir, offshoreGrid(), tr); err != nil {
		t.Fatal(err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "jons-*.txt"))
	if len(files) != 6 {
		t.Fatalf("wrote %d bcfiles, want 6", len(files))
	}
	wantS, _ := domain.DsprToS(30)
	for _, f := range files {
		kv := readJonswap(t, f)
		if kv["Hm0"] != 1.0 {
			t.Errorf("%s: Hm0 = %v, want 1", filepath.Base(f), kv["Hm0"])
		}
		if math.Abs(kv["s"]-wantS) > 1e-9*wantS {
			t.Errorf("%s: s = %v, want %v", filepath.Base(f), kv["s"], wantS)
		}
	}
}

func TestBoundary_JonswapOptions(t *testing.T) {
	fnyq, dfj := 0.5, 0.005
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{
		Mode:    ModeSingle,
		Jonswap: domain.JonswapOptions{Fnyq: &fnyq, Dfj: &dfj},
	})
	dir := t.TempDir()
	nl, err := b.Get(dir, offshoreGrid(), &domain.TimeRange{Start: day0, End: day0.Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	kv := readJonswap(t, filepath.Join(dir, nl["bcfile"]))
	if kv["fnyq"] != 0.5 || kv["dfj"] != 0.005 {
		t.Errorf("unexpected options in %v", kv)
	}
}

func TestNewBoundary_ConfigErrors(t *testing.T) {
	gridded := func(t *testing.T) *dataset.Dataset {
		ds := dataset.New()
		must(t, ds.SetTimes("time", []time.Time{day0, day0.Add(time.Hour)}))
		must(t, ds.AddDim("site", 2))
		must(t, ds.AddDim("lon", 2))
		must(t, ds.AddVar("lon", []string{"lon"}, []float64{115, 116}))
		must(t, ds.AddVar("lat", []string{"site"}, []float64{-32, -32}))
		return ds
	}
	missingVar := DefaultParamStats()
	missingVar.Tp = FromVar("fp")
	badDbtc := BoundaryConfig{Dbtc: 5}
	badFnyq := 0.1

	tests := []struct {
		name  string
		ds    func(*testing.T) *dataset.Dataset
		stats StatsCalculator
		cfg   BoundaryConfig
	}{
		{"longitude as dimension", gridded, DefaultParamStats(), BoundaryConfig{}},
		{"missing variable", stations, missingVar, BoundaryConfig{}},
		{"spectral without spectra", stations, NewSpectralStats(spectralDefaults()), BoundaryConfig{}},
		{"dbtc out of range", stations, DefaultParamStats(), badDbtc},
		{"fnyq out of range", stations, DefaultParamStats(), BoundaryConfig{Jonswap: domain.JonswapOptions{Fnyq: &badFnyq}}},
		{"unknown method", stations, DefaultParamStats(), BoundaryConfig{SelMethod: "bilinear"}},
		{"unknown option", stations, DefaultParamStats(), BoundaryConfig{SelMethod: MethodNearest, SelKwargs: map[string]any{"power": 2}}},
		{"negative buffer", stations, DefaultParamStats(), BoundaryConfig{TimeBuffer: [2]int{-1, 1}}},
		{"renamed time", stations, DefaultParamStats(), BoundaryConfig{Coords: dataset.Coords{T: "valid_time"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Log = quietLogger()
			_, err := NewBoundary(store.NewDatasetSource(tt.ds(t), "EPSG:4326"), tt.stats, cfg)
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("got %v, want ErrConfig", err)
			}
		})
	}
}

func TestBoundary_RangeError(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{})
	tr := &domain.TimeRange{Start: day0.Add(-time.Hour), End: day0.Add(time.Hour)}
	dir := t.TempDir()
	_, err := b.Get(dir, offshoreGrid(), tr)
	if !errors.Is(err, domain.ErrRange) {
		t.Fatalf("got %v, want ErrRange", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("range error left %d files behind", len(entries))
	}
}

func TestBoundary_NaNAbortsWithoutOutput(t *testing.T) {
	ds := stations(t)
	hs, _ := ds.Var("hs")
	hs.Data[5*3] = math.NaN() // site 0 at 05:00
	b := newBoundary(t, ds, DefaultParamStats(), BoundaryConfig{})

	dir := t.TempDir()
	_, err := b.Get(dir, offshoreGrid(), &domain.TimeRange{Start: day0, End: day0.Add(10 * time.Hour)})
	if !errors.Is(err, domain.ErrDataQuality) {
		t.Fatalf("got %v, want ErrDataQuality", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("NaN left %d files behind", len(entries))
	}
}

func TestBoundary_CropData(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{CropData: true})
	tr := &domain.TimeRange{Start: day0.Add(90 * time.Minute), End: day0.Add(4 * time.Hour)}
	series, err := b.Series(offshoreGrid(), tr)
	if err != nil {
		t.Fatal(err)
	}
	// 01:30 (interpolated), 02:00, 03:00, 04:00.
	if len(series.Times) != 4 || !series.Times[0].Equal(tr.Start) || !series.Times[3].Equal(tr.End) {
		t.Errorf("unexpected series times %v", series.Times)
	}
	v, _ := series.Series("hs")
	if math.Abs(v[0]-1.15) > 1e-9 {
		t.Errorf("hs at start = %v, want 1.15", v[0])
	}
}

func TestBoundary_WholeSeriesWithoutTime(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{})
	dir := t.TempDir()
	if _, err := b.Get(dir, offshoreGrid(), nil); err != nil {
		t.Fatal(err)
	}
	entries, err := bcfile.ReadFileList(filepath.Join(dir, bcfile.FileListName))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 24 {
		t.Errorf("got %d entries, want 24", len(entries))
	}
}

func TestNewStatsCalculator(t *testing.T) {
	if c, err := NewStatsCalculator("param", DefaultParamStats(), spectralDefaults()); err != nil {
		t.Error(err)
	} else if _, ok := c.(ParamStats); !ok {
		t.Errorf("param kind gave %T", c)
	}
	if c, err := NewStatsCalculator("spectral", ParamStats{}, spectralDefaults()); err != nil {
		t.Error(err)
	} else if _, ok := c.(*SpectralStats); !ok {
		t.Errorf("spectral kind gave %T", c)
	}
	if _, err := NewStatsCalculator("wavelet", ParamStats{}, spectralDefaults()); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}

func TestBoundary_WithMode(t *testing.T) {
	b := newBoundary(t, stations(t), DefaultParamStats(), BoundaryConfig{Mode: ModeSequence})
	single, err := b.WithMode(ModeSingle)
	if err != nil {
		t.Fatal(err)
	}
	if single.Mode() != ModeSingle || b.Mode() != ModeSequence {
		t.Errorf("modes = %s, %s", single.Mode(), b.Mode())
	}
	if _, err := b.WithMode("both"); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}
