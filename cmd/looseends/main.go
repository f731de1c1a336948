// Package main runs the loose-ends web server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath points at an optional YAML config file.
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "looseends",
	Short: "Personal daily task tracker",
	Long: `looseends serves a personal task list where tasks live for a day.
Unfinished tasks from earlier days show up as loose ends until they are
checked or pinned back onto today's list.

Running looseends without a subcommand starts the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (environment variables override it)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
