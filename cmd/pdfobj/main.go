package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdfobj/tool"
)

var rootCmd = &cobra.Command{
	Use:          "pdfobj [command] (flags)",
	Short:        "PDF object graph introspection tool",
	Long:         ``,
	SilenceUsage: true,
}

func main() {
	log.SetFlags(0)

	cobra.EnableCommandSorting = false
	rootCmd.AddCommand(tool.New().Commands...)
	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
