// Package commands defines the iestagram CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iestagram",
	Short: "IEstagram social API server",
	Long: `IEstagram is a small social-media API: users, posts, follows, likes
and comments over a relational store, with an in-memory backend for
development and testing.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
