package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the scriptc version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scriptc %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
