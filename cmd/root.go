package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxbridge application
var rootCmd = &cobra.Command{
	Use:   "inboxbridge",
	Short: "Authenticated tool bridge between conversational agents and Google Workspace",
	Long: `inboxbridge maps a conversational agent's tool calls onto authorized
Gmail and Google Calendar API calls.

It exposes a fixed set of email and scheduling tools over the Model
Context Protocol (MCP). Each call resolves the session's Google
credential, validates arguments before any network traffic, and returns
either a formatted text payload or a structured authorization
interruption the agent can act on.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxbridge version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthorizeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
