package main

import (
	"github.com/spf13/cobra"

	"github.com/jobrunner/s57geojson/internal/adapters/geojson"
	"github.com/jobrunner/s57geojson/internal/app"
	"github.com/jobrunner/s57geojson/internal/application"
	"github.com/jobrunner/s57geojson/internal/domain"
	"github.com/jobrunner/s57geojson/internal/ports/output"
)

func (c *cli) newLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers <input.000>",
		Short: "List the layers (S-57 object classes) of a chart",
		Long: `Prints a JSON array of {"name", "feature_count"} in dataset order.
feature_count is -1 when the reader cannot count without a full scan.`,
		Args: inputArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.setup()
			if err != nil {
				return err
			}

			source, err := app.NewSource(cmd.Context(), cfg.Source, logger)
			if err != nil {
				return err
			}
			defer func() { _ = source.Close() }()

			converter := application.NewConversionService(source, &output.NoOpMetrics{}, logger)
			layers, err := converter.ListLayers(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if layers == nil {
				layers = []domain.LayerInfo{}
			}

			return geojson.NewWriter(c.stdout, cfg.Output.Indent).Write(layers)
		},
	}
}
