// Package config loads wave boundary settings from a configuration file,
// environment variables and command-line flags.
package config

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"go.ngs.io/wave-boundary/internal/adapter/spectral"
	"go.ngs.io/wave-boundary/internal/adapter/store"
	"go.ngs.io/wave-boundary/internal/dataset"
	"go.ngs.io/wave-boundary/internal/domain"
	"go.ngs.io/wave-boundary/internal/grid"
	"go.ngs.io/wave-boundary/internal/usecase"
)

// EnvPrefix prefixes environment variables, e.g. WAVEBC_SOURCE_PATH.
const EnvPrefix = "WAVEBC"

// Config is the full boundary configuration.
type Config struct {
	Source          store.Config     `mapstructure:"source"`
	Coords          dataset.Coords   `mapstructure:"coords"`
	Grid            grid.RegularGrid `mapstructure:"grid"`
	SelMethod       string           `mapstructure:"sel_method"`
	SelMethodKwargs map[string]any   `mapstructure:"sel_method_kwargs"`
	CropData        bool             `mapstructure:"crop_data"`
	TimeBuffer      []int            `mapstructure:"time_buffer"`

	// Stats is "param" or "spectral".
	Stats    string         `mapstructure:"stats"`
	Spectral spectral.Names `mapstructure:"spectral"`
	Hm0      any            `mapstructure:"hm0"`
	Tp       any            `mapstructure:"tp"`
	MainAng  any            `mapstructure:"mainang"`
	GammaJsp any            `mapstructure:"gammajsp"`
	Dspr     any            `mapstructure:"dspr"`

	Mode string   `mapstructure:"mode"`
	Dbtc float64  `mapstructure:"dbtc"`
	Fnyq *float64 `mapstructure:"fnyq"`
	Dfj  *float64 `mapstructure:"dfj"`

	Start   string `mapstructure:"start"`
	End     string `mapstructure:"end"`
	DestDir string `mapstructure:"destdir"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := dataset.DefaultCoords()
	n := spectral.DefaultNames()
	defaults := map[string]any{
		"source.type":   store.TypeNetCDF,
		"source.path":   "",
		"source.crs":    "EPSG:4326",
		"coords.x":      d.X,
		"coords.y":      d.Y,
		"coords.t":      d.T,
		"coords.s":      d.S,
		"grid.crs":      "EPSG:4326",
		"sel_method":    usecase.MethodIDW,
		"crop_data":     false,
		"time_buffer":   usecase.DefaultTimeBuffer[:],
		"stats":         usecase.StatsParam,
		"spectral.efth": n.Efth,
		"spectral.freq": n.Freq,
		"spectral.dir":  n.Dir,
		"hm0":           "hs",
		"tp":            "tp",
		"mainang":       "dpm",
		"mode":          string(usecase.ModeSequence),
		"dbtc":          usecase.DefaultDbtc,
		"destdir":       ".",
		"log_level":     "info",
		"log_format":    "text",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load decodes the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		timeToString,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("%w: decoding configuration: %v", domain.ErrConfig, err)
	}
	return &cfg, nil
}

// timeToString keeps YAML timestamps as text so they parse like any other
// start or end value.
func timeToString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if t, ok := data.(time.Time); ok && to.Kind() == reflect.String {
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return data, nil
}

// ReadFile loads a configuration file into v. The format follows the file
// extension (yaml, json or toml).
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("problem reading configuration file %s: %w", path, err)
	}
	return nil
}

// TimeRange parses start and end. It returns nil when neither is set.
func (c *Config) TimeRange() (*domain.TimeRange, error) {
	if c.Start == "" && c.End == "" {
		return nil, nil
	}
	if c.Start == "" || c.End == "" {
		return nil, fmt.Errorf("%w: start and end must be set together", domain.ErrConfig)
	}
	start, err := parseTime(c.Start)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start: %v", domain.ErrConfig, err)
	}
	end, err := parseTime(c.End)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid end: %v", domain.ErrConfig, err)
	}
	tr := &domain.TimeRange{Start: start, End: end}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return tr, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}

// ParamStats builds the parametric deriver.
func (c *Config) ParamStats() (usecase.ParamStats, error) {
	var out usecase.ParamStats
	fields := []struct {
		name string
		raw  any
		dst  *usecase.ParamSource
	}{
		{"hm0", c.Hm0, &out.Hm0},
		{"tp", c.Tp, &out.Tp},
		{"mainang", c.MainAng, &out.MainAng},
		{"gammajsp", c.GammaJsp, &out.GammaJsp},
		{"dspr", c.Dspr, &out.Dspr},
	}
	for _, f := range fields {
		raw := f.raw
		// Environment variables always arrive as strings.
		if s, ok := raw.(string); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				raw = v
			}
		}
		src, err := usecase.ParseParamSource(raw)
		if err != nil {
			return out, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = src
	}
	return out, nil
}

// StatsCalculator builds the configured deriver.
func (c *Config) StatsCalculator() (usecase.StatsCalculator, error) {
	param, err := c.ParamStats()
	if err != nil {
		return nil, err
	}
	return usecase.NewStatsCalculator(c.Stats, param, c.Spectral)
}

// BoundaryConfig builds the pipeline settings.
func (c *Config) BoundaryConfig(log logrus.FieldLogger) (usecase.BoundaryConfig, error) {
	mode, err := usecase.ParseMode(c.Mode)
	if err != nil {
		return usecase.BoundaryConfig{}, err
	}
	var buffer [2]int
	switch len(c.TimeBuffer) {
	case 0:
		buffer = usecase.DefaultTimeBuffer
	case 2:
		buffer = [2]int{c.TimeBuffer[0], c.TimeBuffer[1]}
	default:
		return usecase.BoundaryConfig{}, fmt.Errorf("%w: time_buffer needs two values, got %v", domain.ErrConfig, c.TimeBuffer)
	}
	return usecase.BoundaryConfig{
		Coords:     c.Coords,
		SelMethod:  c.SelMethod,
		SelKwargs:  c.SelMethodKwargs,
		CropData:   c.CropData,
		TimeBuffer: buffer,
		Mode:       mode,
		Dbtc:       c.Dbtc,
		Jonswap:    domain.JonswapOptions{Fnyq: c.Fnyq, Dfj: c.Dfj},
		Log:        log,
	}, nil
}

// Boundary opens the source and builds the boundary pipeline.
func (c *Config) Boundary(log logrus.FieldLogger) (*usecase.Boundary, error) {
	src, err := store.New(c.Source, c.Coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	stats, err := c.StatsCalculator()
	if err != nil {
		return nil, err
	}
	bc, err := c.BoundaryConfig(log)
	if err != nil {
		return nil, err
	}
	return usecase.NewBoundary(src, stats, bc)
}

// Logger returns a logger set up from log_level and log_format.
func (c *Config) Logger(out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(out)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	log.SetLevel(level)
	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", domain.ErrConfig, c.LogFormat)
	}
	return log, nil
}
