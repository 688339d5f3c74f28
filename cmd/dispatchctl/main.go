// Command dispatchctl runs and triggers post dispatch from the command line.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "dispatchctl",
		Short:         "Operate the scheduled post dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCommand())
	root.AddCommand(newTriggerCommand())
	root.AddCommand(newReleaseStaleCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newGenSecretCommand())
	root.AddCommand(newEncryptTokenCommand())
	root.AddCommand(newIssueTokenCommand())
	return root
}
