package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jobrunner/s57geojson/internal/adapters/geojson"
	"github.com/jobrunner/s57geojson/internal/app"
	"github.com/jobrunner/s57geojson/internal/application"
	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

func (c *cli) runConvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := c.setup()
	if err != nil {
		return err
	}

	opts, err := c.convertOptions(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	source, err := app.NewSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	converter := application.NewConversionService(source, &output.NoOpMetrics{}, logger)
	fc, err := converter.Convert(ctx, args[0], opts)
	if err != nil {
		return err
	}

	if c.output == "" {
		return geojson.NewWriter(c.stdout, cfg.Output.Indent).Write(fc)
	}

	if err := writeOutput(c.output, fc, cfg.Output.Indent); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "Output written to %s\n", c.output)
	return nil
}

// convertOptions reads the feature type and bbox filters. Unset flags leave
// the filter off.
func (c *cli) convertOptions(cmd *cobra.Command) (domain.ConvertOptions, error) {
	var opts domain.ConvertOptions

	if cmd.Flags().Changed("feature-types") {
		opts.FeatureTypes = make([]string, 0, len(c.featureTypes))
		for _, t := range c.featureTypes {
			if t = strings.TrimSpace(t); t != "" {
				opts.FeatureTypes = append(opts.FeatureTypes, t)
			}
		}
	}

	if cmd.Flags().Changed("bbox") {
		bbox, err := domain.NewBBox(c.bbox)
		if err != nil {
			return opts, err
		}
		opts.BBox = bbox
	}

	return opts, nil
}

func writeOutput(path string, v interface{}, indent bool) (err error) {
	f, err := os.Create(path) //#nosec G304 -- output path is chosen by the user
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}()

	return geojson.NewWriter(f, indent).Write(v)
}
