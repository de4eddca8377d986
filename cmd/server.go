package cmd

import (
	"ajnadfm/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the AjnadFM HTTP server",
	Long:  `Start the AjnadFM HTTP server, serving the catalog, favorites, admin and playback session APIs.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
