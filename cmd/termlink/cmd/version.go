package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the termlink CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("termlink version %s\n", version)
		fmt.Println("Risk-bounded order sizing and paired-order execution for trading terminals")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
