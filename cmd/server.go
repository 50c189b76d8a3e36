package cmd

import (
	"github.com/spf13/cobra"

	"github.com/viktsys/gasinsight/api"
	"github.com/viktsys/gasinsight/logger"
)

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that serves analyses, week comparisons, exports and metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.GetLogger().WithComponent("server")

		a, err := newApp()
		if err != nil {
			log.WithError(err).Fatal("failed to initialize")
		}

		r := api.SetupRoutes(api.NewHandler(a.pipeline, cfg.Export.Label), a.metrics)

		log.WithFields(logger.Fields{"address": cfg.Server.Address}).Info("starting server")
		if err := r.Run(cfg.Server.Address); err != nil {
			log.WithError(err).Fatal("failed to start server")
		}
	},
}
