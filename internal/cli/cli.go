// Package cli holds the wavebc command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go.ngs.io/wave-boundary/internal/adapter/bcfile"
	"go.ngs.io/wave-boundary/internal/adapter/store/netcdf"
	"go.ngs.io/wave-boundary/internal/config"
	"go.ngs.io/wave-boundary/internal/domain"
	"go.ngs.io/wave-boundary/internal/usecase"
)

// Version is the wavebc version.
const Version = "0.1.0"

// option is a command-line flag bound to a configuration key.
type option struct {
	name, usage, shorthand string
	defaultVal             any
	flagset                *pflag.FlagSet
}

// NewRoot builds the wavebc command tree around its own configuration.
func NewRoot() *cobra.Command {
	cfg := config.New()

	root := &cobra.Command{
		Use:   "wavebc",
		Short: "Prepare offshore wave boundary conditions.",
		Long: `wavebc extracts offshore wave boundary conditions for a model grid from
station wave data, writing JONSWAP boundary files and, for time-varying
boundaries, the file list that sequences them.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'WAVEBC_var' where 'var' is
the name of the variable to be set, with dots replaced by underscores
(for example WAVEBC_SOURCE_PATH).`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.ReadFile(cfg, cfg.GetString("config"))
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wavebc v%s\n", Version)
		},
		DisableAutoGenTag: true,
	}

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Write the boundary files for a grid.",
		Long: `extract selects the station data at the offshore midpoint of the grid,
derives the JONSWAP parameters and writes the boundary files to destdir.
The namelist entry to add to the model parameter file is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			nl, err := r.boundary.Get(r.cfg.DestDir, r.cfg.Grid, r.tr)
			if err != nil {
				return err
			}
			printNamelist(cmd.OutOrStdout(), nl)
			return nil
		},
		DisableAutoGenTag: true,
	}

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Write the selected station series to NetCDF.",
		Long: `select runs the site selection and time adjustment steps only, writing the
single-site series that would feed the boundary to a NetCDF file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			series, err := r.boundary.Series(r.cfg.Grid, r.tr)
			if err != nil {
				return err
			}
			out := cfg.GetString("select.output")
			if err := netcdf.WriteFile(out, series); err != nil {
				return err
			}
			r.log.WithFields(logrus.Fields{
				"file":  out,
				"times": len(series.Times),
			}).Info("wrote selected series")
			return nil
		},
		DisableAutoGenTag: true,
	}

	filelistCmd := &cobra.Command{
		Use:   "filelist [path]",
		Short: "Summarise a boundary file list.",
		Long: `filelist reads a FILELIST boundary file and prints its entries along with
the total boundary duration. Every referenced boundary file must exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return summariseFileList(cmd.OutOrStdout(), args[0])
		},
		DisableAutoGenTag: true,
	}

	root.AddCommand(versionCmd, extractCmd, selectCmd, filelistCmd)

	persistent := root.PersistentFlags()
	options := []option{
		{name: "config", usage: "configuration file location", defaultVal: "", flagset: persistent},
		{name: "source.type", usage: "station source type (netcdf or csv)", defaultVal: cfg.GetString("source.type"), flagset: persistent},
		{name: "source.path", usage: "station source file", shorthand: "i", defaultVal: "", flagset: persistent},
		{name: "source.crs", usage: "CRS of the station coordinates", defaultVal: cfg.GetString("source.crs"), flagset: persistent},
		{name: "sel_method", usage: "site selection method (nearest or idw)", defaultVal: cfg.GetString("sel_method"), flagset: persistent},
		{name: "crop_data", usage: "crop the source to the requested time range before selecting", defaultVal: false, flagset: persistent},
		{name: "start", usage: "boundary start time (RFC 3339)", defaultVal: "", flagset: persistent},
		{name: "end", usage: "boundary end time (RFC 3339)", defaultVal: "", flagset: persistent},
		{name: "mode", usage: "output mode (single or sequence)", defaultVal: cfg.GetString("mode"), flagset: persistent},
		{name: "log_level", usage: "log level (debug, info, warning, error)", defaultVal: cfg.GetString("log_level"), flagset: persistent},
		{name: "stats", usage: "parameter derivation (param or spectral)", defaultVal: cfg.GetString("stats"), flagset: extractCmd.Flags()},
		{name: "dbtc", usage: "boundary time step factor written to the file list", defaultVal: cfg.GetFloat64("dbtc"), flagset: extractCmd.Flags()},
		{name: "destdir", usage: "output directory for boundary files", shorthand: "o", defaultVal: cfg.GetString("destdir"), flagset: extractCmd.Flags()},
		{name: "select.output", usage: "NetCDF file for the selected series", defaultVal: "selected.nc", flagset: selectCmd.Flags()},
	}
	bindOptions(cfg, options)
	return root
}

// bindOptions declares each option on its flag set and binds it to the
// configuration key of the same name.
func bindOptions(cfg *viper.Viper, options []option) {
	for _, o := range options {
		set := o.flagset
		switch d := o.defaultVal.(type) {
		case string:
			set.StringP(o.name, o.shorthand, d, o.usage)
		case bool:
			set.BoolP(o.name, o.shorthand, d, o.usage)
		case float64:
			set.Float64P(o.name, o.shorthand, d, o.usage)
		default:
			panic(fmt.Sprintf("invalid default for option %s: %T", o.name, o.defaultVal))
		}
		_ = cfg.BindPFlag(o.name, set.Lookup(o.name))
	}
}

type run struct {
	cfg      *config.Config
	log      *logrus.Logger
	boundary *usecase.Boundary
	tr       *domain.TimeRange
}

// prepare decodes the configuration and builds the boundary pipeline.
func prepare(v *viper.Viper, logOut io.Writer) (*run, error) {
	c, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	log, err := c.Logger(logOut)
	if err != nil {
		return nil, err
	}
	if err := c.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	tr, err := c.TimeRange()
	if err != nil {
		return nil, err
	}
	b, err := c.Boundary(log)
	if err != nil {
		return nil, err
	}
	return &run{cfg: c, log: log, boundary: b, tr: tr}, nil
}

func printNamelist(w io.Writer, nl map[string]string) {
	keys := make([]string, 0, len(nl))
	for k := range nl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s = %s\n", k, nl[k])
	}
}

func summariseFileList(w io.Writer, path string) error {
	entries, err := bcfile.ReadFileList(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	total := 0.0
	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(dir, e.BCFile)); err != nil {
			return fmt.Errorf("boundary file %s listed in %s: %w", e.BCFile, path, err)
		}
		fmt.Fprintf(w, "%-10g %-6g %s\n", e.Duration, e.Dbtc, e.BCFile)
		total += e.Duration
	}
	fmt.Fprintf(w, "%d files, %g s\n", len(entries), total)
	return nil
}
