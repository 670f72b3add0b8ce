package server

import (
	"fmt"

	"reconflow/api/routes"
	"reconflow/internal/config"
	"reconflow/internal/database"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type ServerOpts struct {
	Port int
}

func NewServerCommand() *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the reconflow server",
		Long:  `Start the reconflow server to submit scans and query results over HTTP`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
			cfg, err := config.LoadConfig()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = serverConfig.Port
			}

			database.InitDB(cfg)
			router := routes.InitRouter(database.DB, cfg)
			router.Run(fmt.Sprintf(":%d", cfg.HTTPPort))
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 8080, "Port to run the server on")

	return serverCmd
}
