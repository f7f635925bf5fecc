package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/SchemTrace/internal/export"
	"github.com/piwi3910/SchemTrace/internal/model"
	"github.com/piwi3910/SchemTrace/internal/project"
)

var (
	exportFormats []string
	exportDir     string
	exportSize    int
)

// exportExtensions maps export formats to file name suffixes.
var exportExtensions = map[string]string{
	"json": ".json",
	"svg":  ".svg",
	"png":  ".png",
	"pdf":  ".pdf",
	"dxf":  ".dxf",
	"xlsx": ".xlsx",
	"tags": "-tags.pdf",
}

var exportCmd = &cobra.Command{
	Use:   "export <result.json>",
	Short: "Render a routing result",
	Long: `Export a routing result in one or more formats:

  json  routing result
  svg   vector drawing of chips, traces and labels
  png   raster drawing
  pdf   layout page plus a run summary
  dxf   layered CAD drawing
  xlsx  spreadsheet report of traces, labels and failures
  tags  printable QR net tags

Without --format the application config's default formats are used.

Examples:
  schemtrace export routed.json -f svg,png --size 2000
  schemtrace export routed.json -f pdf,xlsx -d out/`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringSliceVarP(&exportFormats, "format", "f", nil, "formats to write (json, svg, png, pdf, dxf, xlsx, tags)")
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "output directory (default next to the result)")
	exportCmd.Flags().IntVar(&exportSize, "size", export.ImageSize, "longest image edge in pixels for svg and png")
}

func runExport(cmd *cobra.Command, args []string) error {
	result, err := project.LoadResult(args[0])
	if err != nil {
		return err
	}

	formats := exportFormats
	if len(formats) == 0 {
		app, err := project.LoadAppConfig(appConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load app config: %w", err)
		}
		formats = app.DefaultExportFormats
	}

	dir := exportDir
	if dir == "" {
		dir = filepath.Dir(args[0])
	}
	base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))

	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		ext, ok := exportExtensions[format]
		if !ok {
			return fmt.Errorf("unknown export format %q", format)
		}
		path := filepath.Join(dir, base+ext)
		if format == "json" && filepath.Clean(path) == filepath.Clean(args[0]) {
			path = filepath.Join(dir, base+"-export.json")
		}
		if err := exportOne(format, path, result); err != nil {
			return fmt.Errorf("%s export failed: %w", format, err)
		}
		logger.Info("exported", "format", format, "path", path)
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}

func exportOne(format, path string, result model.RoutingResult) error {
	switch format {
	case "json":
		return export.ExportJSON(path, result)
	case "svg":
		return export.ExportSVG(path, export.ResultGraphics(result), exportSize)
	case "png":
		return export.ExportPNG(path, export.ResultGraphics(result), exportSize)
	case "pdf":
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		return export.ExportPDF(path, result, settings)
	case "dxf":
		return export.ExportDXF(path, result)
	case "xlsx":
		return export.ExportReport(path, result)
	case "tags":
		return export.ExportNetTags(path, result)
	}
	return fmt.Errorf("unknown export format %q", format)
}
