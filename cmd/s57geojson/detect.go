package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobrunner/s57geojson/internal/adapters/geojson"
	"github.com/jobrunner/s57geojson/internal/adapters/geopackage"
	"github.com/jobrunner/s57geojson/internal/adapters/ogr"
)

// gdalTools are the GDAL command line utilities probed by detect.
var gdalTools = []string{"ogrinfo", "ogr2ogr", "gdalinfo", "gdal_translate"}

const toolTimeout = 5 * time.Second

// capabilities is the report printed by detect.
type capabilities struct {
	OGR        ogr.Info            `json:"ogr"`
	SpatiaLite componentInfo       `json:"spatialite"`
	Tools      map[string]toolInfo `json:"tools"`
	Platform   platformInfo        `json:"platform"`
	Usable     bool                `json:"usable"`
	Errors     []string            `json:"errors"`
	Warnings   []string            `json:"warnings"`
}

type componentInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

type toolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
}

type platformInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	GoVersion string `json:"go_version"`
	NumCPU    int    `json:"num_cpu"`
	Version   string `json:"s57geojson_version"`
}

func (c *cli) newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Report which chart reading capabilities are available",
		Long: `Prints a JSON report of the GDAL/OGR library and its S57 driver, the
SpatiaLite extension used for GeoPackage reprojection, the GDAL command line
tools and the platform. Exits 0 when S-57 charts can be read, 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := c.setup()
			if err != nil {
				return err
			}

			report := detect(cmd.Context(), ogr.Detect, geopackage.DetectSpatiaLite, probeTool)
			logger.Debug("capability detection finished", "usable", report.Usable)

			if err := geojson.NewWriter(c.stdout, cfg.Output.Indent).Write(report); err != nil {
				return err
			}
			if !report.Usable {
				return exitStatus(1)
			}
			return nil
		},
	}
}

// detect assembles the capability report from the individual probes.
func detect(
	ctx context.Context,
	detectOGR func() ogr.Info,
	detectSpatiaLite func(context.Context) (string, error),
	probe func(context.Context, string) toolInfo,
) capabilities {
	report := capabilities{
		OGR:   detectOGR(),
		Tools: make(map[string]toolInfo, len(gdalTools)),
		Platform: platformInfo{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			GoVersion: runtime.Version(),
			NumCPU:    runtime.NumCPU(),
			Version:   version,
		},
		Errors:   []string{},
		Warnings: []string{},
	}

	switch {
	case !report.OGR.Available:
		report.Errors = append(report.Errors, "GDAL/OGR is not available: rebuild with -tags gdal after installing libgdal-dev")
	case !report.OGR.S57Driver:
		report.Errors = append(report.Errors, "the GDAL installation has no "+ogr.S57DriverName+" driver")
	}
	if report.OGR.Available {
		if major, ok := majorVersion(report.OGR.Version); ok && major < 3 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("GDAL %s is older than 3.0; axis order and CRS handling may differ", report.OGR.Version))
		}
	}
	report.Usable = report.OGR.Available && report.OGR.S57Driver

	if v, err := detectSpatiaLite(ctx); err == nil {
		report.SpatiaLite = componentInfo{Available: true, Version: v}
	} else {
		report.Warnings = append(report.Warnings, "SpatiaLite is not available: GeoPackage layers outside WGS 84 cannot be reprojected")
	}

	for _, name := range gdalTools {
		report.Tools[name] = probe(ctx, name)
	}

	return report
}

// probeTool runs "<name> --version" with a timeout.
func probeTool(ctx context.Context, name string) toolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return toolInfo{}
	}

	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version") //#nosec G204 -- fixed tool names resolved via PATH
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return toolInfo{Path: path}
	}

	return toolInfo{Available: true, Path: path, Version: strings.TrimSpace(out.String())}
}

// majorVersion extracts the major number from "3.6.2" or "GDAL 3.6.2, released ...".
func majorVersion(v string) (int, bool) {
	for _, field := range strings.Fields(v) {
		head, _, _ := strings.Cut(field, ".")
		if n, err := strconv.Atoi(head); err == nil {
			return n, true
		}
	}
	return 0, false
}
