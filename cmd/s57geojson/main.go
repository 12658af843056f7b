// Package main provides the s57geojson command: S-57 charts to GeoJSON.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/s57geojson/internal/adapters/geojson"
	"github.com/jobrunner/s57geojson/internal/config"
	"github.com/jobrunner/s57geojson/internal/domain"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// exitStatus ends a command with a status code and no error document.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// cli carries the flag values and output streams shared by all commands.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	cfgFile      string
	verbose      bool
	compact      bool
	output       string
	featureTypes []string
	bbox         []float64
}

// run executes the command line and returns the process exit code. Every
// failure, including a panic, is reported as one JSON error document on
// stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	viper.Reset()

	c := &cli{stdout: stdout, stderr: stderr}
	root := c.newRootCmd()
	root.SetArgs(expandListFlags(args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	defer func() {
		if rec := recover(); rec != nil {
			code = c.fail(fmt.Errorf("panic: %v", rec), string(debug.Stack()))
		}
	}()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return domain.ExitOK
	}

	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}
	return c.fail(err, errorChain(err))
}

// fail writes the error document for err. The traceback is only kept in
// verbose mode.
func (c *cli) fail(err error, traceback string) int {
	if !c.verbose {
		traceback = ""
	}
	if werr := geojson.NewWriter(c.stdout, false).WriteError(err, traceback); werr != nil {
		_, _ = fmt.Fprintln(c.stderr, werr)
	}
	return domain.ExitCode(err)
}

// errorChain lists err and every error it wraps, outermost first.
func errorChain(err error) string {
	var lines []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		lines = append(lines, fmt.Sprintf("%T: %v", e, e))
	}
	return strings.Join(lines, "\n")
}

func (c *cli) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "s57geojson [flags] <input.000>",
		Short: "Convert S-57 nautical charts to GeoJSON",
		Long: `s57geojson converts S-57 electronic navigational charts (ENC) into a
GeoJSON FeatureCollection with every geometry in WGS 84.

Each feature carries the attributes of its S-57 object, an id of the form
<object class>.<feature id> and the object class in the _featureType property.

Charts are read through GDAL/OGR (build tag gdal). GeoPackage exports of
charts (ogr2ogr -f GPKG) are read directly, and a mock driver produces a
small synthetic harbor chart for testing.`,
		Example: `  s57geojson US5MA22M.000
  s57geojson -f DEPARE,SOUNDG -b -70.9,42.2,-70.7,42.4 -o harbor.geojson US5MA22M.000
  s57geojson layers US5MA22M.000
  s57geojson serve --storage-path ./charts`,
		Args:          inputArg,
		RunE:          c.runConvert,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: ./config.yaml)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (json, text)")
	pf.String("driver", config.DriverAuto, "chart driver (auto, ogr, geopackage, mock)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging and tracebacks for unexpected errors")
	pf.BoolVar(&c.compact, "compact", false, "write JSON without indentation")

	f := root.Flags()
	f.StringVarP(&c.output, "output", "o", "", "output file (default: stdout)")
	f.StringSliceVarP(&c.featureTypes, "feature-types", "f", nil, "feature types (layer names) to include: -f DEPARE LIGHTS, -f DEPARE,LIGHTS or repeated")
	f.Float64SliceVarP(&c.bbox, "bbox", "b", nil, "bounding box: -b minLon minLat maxLon maxLat or -b minLon,minLat,maxLon,maxLat")

	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("source.driver", pf.Lookup("driver"))

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	})

	root.AddCommand(
		c.newLayersCmd(),
		c.newDetectCmd(),
		c.newServeCmd(),
		c.newVersionCmd(),
	)

	return root
}

func inputArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected exactly one input file, got %d arguments", domain.ErrInvalidInput, len(args))
	}
	return nil
}

// setup loads the configuration and builds the logger for a command.
func (c *cli) setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	if c.compact {
		cfg.Output.Indent = false
	}

	logger := setupLogger(cfg.Logging, c.stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(c.stdout, "s57geojson %s\n", version)
			_, _ = fmt.Fprintf(c.stdout, "  Commit:     %s\n", commit)
			_, _ = fmt.Fprintf(c.stdout, "  Build Date: %s\n", buildDate)
		},
	}
}

// setupLogger writes to w, keeping stdout free for JSON documents.
func setupLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
