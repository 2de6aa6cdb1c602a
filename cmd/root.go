// Package cmd implements the aquasense command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aquasense",
	Short: "AquaSense - conversational water quality assistant",
	Long: `AquaSense answers water quality questions in English and Chinese.
Each message is classified into a plan of retrieval, prediction and
report steps which run concurrently against the knowledge base and
the prediction service.

Running aquasense without arguments starts the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
