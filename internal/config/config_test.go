package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"go.ngs.io/wave-boundary/internal/adapter/bcfile"
	"go.ngs.io/wave-boundary/internal/domain"
	"go.ngs.io/wave-boundary/internal/usecase"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// stationCSV writes two sites with hourly data over six hours.
func stationCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,site,lon,lat,hs,tp,dpm\n")
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for h := 0; h <= 6; h++ {
		ts := t0.Add(time.Duration(h) * time.Hour).Format(time.RFC3339)
		b.WriteString(ts + ",north,115.0,-31.5,1.5,9,260\n")
		b.WriteString(ts + ",south,115.0,-32.5,2.5,11,240\n")
	}
	return writeFile(t, dir, "stations.csv", b.String())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SelMethod != usecase.MethodIDW || cfg.Stats != usecase.StatsParam || cfg.Mode != "sequence" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Coords.X != "lon" || cfg.Spectral.Efth != "efth" || cfg.Dbtc != 1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Fnyq != nil || cfg.Dfj != nil {
		t.Error("jonswap options should be unset by default")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wavebc.yaml", `
source:
  type: csv
  path: stations.csv
  crs: EPSG:4326
sel_method: nearest
sel_method_kwargs:
  tolerance: 0.5
hm0: 1.0
dspr: 25
fnyq: 0.4
mode: single
start: "2024-01-01T01:30:00Z"
end: "2024-01-01T04:00:00Z"
`)
	t.Setenv("WAVEBC_DBTC", "0.5")

	v := New()
	if err := ReadFile(v, path); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.Type != "csv" || cfg.SelMethod != "nearest" || cfg.Mode != "single" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Dbtc != 0.5 {
		t.Errorf("dbtc = %v, want env override 0.5", cfg.Dbtc)
	}
	if cfg.Fnyq == nil || *cfg.Fnyq != 0.4 {
		t.Errorf("fnyq = %v", cfg.Fnyq)
	}

	stats, err := cfg.ParamStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Hm0.Value == nil || *stats.Hm0.Value != 1 || stats.Tp.Var != "tp" || stats.Dspr.Value == nil {
		t.Errorf("unexpected param stats %+v", stats)
	}

	tr, err := cfg.TimeRange()
	if err != nil {
		t.Fatal(err)
	}
	if tr.End.Sub(tr.Start) != 150*time.Minute {
		t.Errorf("unexpected time range %s", tr)
	}
}

func TestParamStats_NumericStrings(t *testing.T) {
	cfg := &Config{Hm0: "1.25", Tp: "tp", MainAng: 270}
	stats, err := cfg.ParamStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Hm0.Value == nil || *stats.Hm0.Value != 1.25 {
		t.Errorf("hm0 = %v", stats.Hm0)
	}
	if stats.MainAng.Value == nil || *stats.MainAng.Value != 270 {
		t.Errorf("mainang = %v", stats.MainAng)
	}
	if stats.GammaJsp.IsSet() {
		t.Error("gammajsp should be unset")
	}

	cfg.Tp = []string{"a"}
	if _, err := cfg.ParamStats(); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantNil bool
		wantErr bool
	}{
		{"unset", "", "", true, false},
		{"rfc3339", "2024-01-01T00:30:00Z", "2024-01-01T23:30:00Z", false, false},
		{"date only", "2024-01-01", "2024-01-02", false, false},
		{"half set", "2024-01-01", "", false, true},
		{"garbage", "soon", "2024-01-02", false, true},
		{"reversed", "2024-01-02", "2024-01-01", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := (&Config{Start: tt.start, End: tt.end}).TimeRange()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (tr == nil) != tt.wantNil {
				t.Errorf("range = %v, wantNil %v", tr, tt.wantNil)
			}
		})
	}
}

func TestBoundaryConfig_TimeBuffer(t *testing.T) {
	cfg := &Config{TimeBuffer: []int{2, 3}}
	bc, err := cfg.BoundaryConfig(nil)
	if err != nil {
		t.Fatal(err)
	}
	if bc.TimeBuffer != [2]int{2, 3} || bc.Mode != usecase.ModeSequence {
		t.Errorf("unexpected boundary config %+v", bc)
	}
	cfg.TimeBuffer = []int{1}
	if _, err := cfg.BoundaryConfig(nil); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("got %v, want ErrConfig", err)
	}
}

func TestBoundary_FromCSV(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.Set("source.type", "csv")
	v.Set("source.path", stationCSV(t, dir))
	v.Set("sel_method", "idw")
	v.Set("grid.x0", 115.0)
	v.Set("grid.y0", -32.1)
	v.Set("grid.dx", 0.01)
	v.Set("grid.dy", 0.01)
	v.Set("grid.nx", 5)
	v.Set("grid.ny", 21)
	v.Set("start", "2024-01-01T00:30:00Z")
	v.Set("end", "2024-01-01T05:30:00Z")
	v.Set("log_level", "warning")

	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cfg.Boundary(log)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := cfg.TimeRange()
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	nl, err := b.Get(out, cfg.Grid, tr)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := bcfile.ReadFileList(filepath.Join(out, nl["filelist"]))
	if err != nil {
		t.Fatal(err)
	}
	// 00:30, 01:00 ... 05:00, 05:30.
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}
	// The offshore point (115.0, -32.0) lies between both sites.
	kv, err := bcfile.ReadJonswap(filepath.Join(out, entries[0].BCFile))
	if err != nil {
		t.Fatal(err)
	}
	if d := kv["Hm0"] - 2.0; d > 1e-9 || d < -1e-9 {
		t.Errorf("Hm0 = %v, want the blended 2.0", kv["Hm0"])
	}
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	log, err := cfg.Logger(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		t.Error("debug level not enabled")
	}
	if _, err := (&Config{LogLevel: "loud"}).Logger(nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := (&Config{LogLevel: "info", LogFormat: "xml"}).Logger(nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
