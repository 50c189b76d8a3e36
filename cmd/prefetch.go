package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/viktsys/gasinsight/database"
	"github.com/viktsys/gasinsight/logger"
)

var (
	prefetchFlags   requestFlags
	optimizeIndexes bool
)

var prefetchCMD = &cobra.Command{
	Use:   "prefetch",
	Short: "Download sensor days into the local cache",
	Long:  `Fetch every physical sensor for each day of the range concurrently and store the finished days in the cache directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := prefetchFlags.request()
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}

		if optimizeIndexes {
			tables := make([]string, 0, len(cfg.Sensors))
			for _, table := range cfg.Sensors {
				tables = append(tables, table)
			}
			if err := database.OptimizeIndexes(database.DB, tables); err != nil {
				return err
			}
		}

		started := time.Now()
		results, err := a.loader.LoadAll(cmd.Context(), cfg.Sensors, req.Start, req.End, req.Force)
		if err != nil {
			return err
		}

		log := logger.GetLogger().WithComponent("prefetch")
		for section, res := range results {
			for _, w := range res.Warnings {
				log.WithFields(logger.Fields{"section": section}).Warn(w)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-10s days=%d cached=%d rows=%d\n",
				section, res.Table, res.Days, res.CachedDays, len(res.Rows))
		}
		logger.LogPerformanceEntry(log, "prefetch", time.Since(started), logger.Fields{"sensors": len(results)})
		return nil
	},
}

func init() {
	prefetchFlags.register(prefetchCMD)
	prefetchCMD.Flags().BoolVar(&optimizeIndexes, "optimize-indexes", false, "create missing fecha indexes on the sensor tables first")
}
