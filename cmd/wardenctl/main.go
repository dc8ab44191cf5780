package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
	output string
	user   string
)

var rootCmd = &cobra.Command{
	Use:   "wardenctl",
	Short: "Warden CLI - workspace orchestration command line tool",
	Long:  `wardenctl is a command line interface for the Warden workspace orchestration service.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&apiURL, "api-url", "a", "http://localhost:3121", "Warden API URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", os.Getenv("USER"), "Identity to act as")
}
