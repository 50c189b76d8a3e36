package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/viktsys/gasinsight/export"
	"github.com/viktsys/gasinsight/logger"
	"github.com/viktsys/gasinsight/models"
)

var (
	exportFlags   requestFlags
	exportSection string
	exportKind    string
	exportOut     string
)

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "Write a section table to an .xlsx file",
	Long:  `Run the analysis for the selected days and write the daily aggregates or the cleaned readings of one section to a spreadsheet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		section := models.Section(exportSection)
		if !section.Valid() {
			return fmt.Errorf("unknown section %q", exportSection)
		}
		req, err := exportFlags.request()
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		res, err := a.pipeline.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		var cells [][]export.SheetCell
		switch exportKind {
		case "daily":
			cells = export.DailySheet(res.Daily[section])
		case "raw":
			cells = export.RawSheet(res.Streams[section])
		default:
			return fmt.Errorf("--kind must be daily or raw")
		}

		if err := os.MkdirAll(exportOut, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(exportOut, export.FileName(cfg.Export.Label, section, res.Request.Start, res.Request.End))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()

		if err := export.GenerateExcelFile(f, section.Label(), cells); err != nil {
			return err
		}

		logger.GetLogger().WithComponent("export").WithFields(logger.Fields{"path": path, "rows": len(cells) - 1}).Info("export written")
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	exportFlags.register(exportCMD)
	exportCMD.Flags().StringVar(&exportSection, "section", string(models.SectionByC), "section to export")
	exportCMD.Flags().StringVar(&exportKind, "kind", "daily", "table to export: daily or raw")
	exportCMD.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
}
