package cmd

import (
	"os"

	"github.com/opstrack/opstrack/cmd/config"
	"github.com/opstrack/opstrack/cmd/operations"
	"github.com/opstrack/opstrack/cmd/serve"
	"github.com/opstrack/opstrack/cmd/snapshot"
	"github.com/opstrack/opstrack/cmd/version"
	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "opstrack",
	Short: "Track the lifecycle of asynchronous operations",
}

func init() {
	// Add Subcommands
	rootCmd.AddCommand(serve.NewCmd(&config.Config{}, viper.New()))
	rootCmd.AddCommand(operations.NewCmd(client.New()))
	rootCmd.AddCommand(snapshot.NewCmd())
	rootCmd.AddCommand(version.NewCmd())

	// Set default output
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
