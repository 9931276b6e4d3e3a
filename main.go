// main.go
//
// Entry point for the Wordle game-session server.
// Commands:
//   - serve:   load config, open + migrate the database, start the actor host and HTTP API.
//   - migrate: apply database migrations and exit.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wordle-session",
	Short: "Wordle game-session orchestrator",
	Long: `wordle-session runs per-player Wordle games between players and a
word-evaluation service, with a five-guess limit and a block-based timeout.

Configuration is read from the environment (and .env in development).

Examples:
  wordle-session serve
  TIMEOUT_BLOCKS=60 BLOCK_INTERVAL=500ms wordle-session serve
  wordle-session migrate`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
