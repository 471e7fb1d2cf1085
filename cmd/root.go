package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "procurement",
	Short: "Material procurement batch service",
	Long:  `Material procurement service managing batch order lifecycles, delivery reconciliation and supplier lead-time analytics`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
