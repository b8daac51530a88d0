package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var envFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "offerdesk: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offerdesk",
		Short: "OfferDesk operations CLI",
		Long: `offerdesk runs the application intake API and performs the operator tasks around it:
creating the schema, reviewing applications, looking up offer letters and inspecting stored PDFs.
Settings come from OFFERDESK_* environment variables, optionally loaded from an env file.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", ".env", "Env file to load before reading configuration")
	cmd.AddCommand(
		newServeCmd(),
		newSchemaCmd(),
		newListCmd(),
		newStatusCmd(),
		newLookupCmd(),
		newInspectCmd(),
	)
	return cmd
}
