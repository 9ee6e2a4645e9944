package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time; "dev" otherwise.
var Version = "dev"

var (
	verbose bool
	log     = logrus.New()

	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "scriptc",
	Short: "Semantic compiler for the script bytecode language.",
	Long:  "scriptc parses, elaborates, and emits opcodes for script-language modules.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !verbose})
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.InfoLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level phase logging")
}

// Execute runs the root command. Called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}
