package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/OfferDesk/internal/config"
	"github.com/dharsanguruparan/OfferDesk/internal/filestore"
	"github.com/dharsanguruparan/OfferDesk/internal/model"
	pdfutil "github.com/dharsanguruparan/OfferDesk/internal/pdf"
	"github.com/dharsanguruparan/OfferDesk/internal/repository"
	"github.com/dharsanguruparan/OfferDesk/internal/server"
	"github.com/dharsanguruparan/OfferDesk/internal/validation"
)

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

// withRepository opens the configured repository for the duration of fn.
func withRepository(cmd *cobra.Command, fn func(repository.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, closeRepo, err := server.OpenRepository(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeRepo()
	return fn(repo)
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Address = addr
			}
			ctx := cmd.Context()
			srv, err := server.New(ctx, cfg, server.NewLogger(cmd.OutOrStdout(), cfg.LogLevel))
			if err != nil {
				return err
			}
			defer srv.Close()
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides OFFERDESK_ADDRESS)")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the applications table and indexes if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd, func(repository.Repository) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
				return nil
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd, func(repo repository.Repository) error {
				apps, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), apps)
				}
				return writeTable(cmd.OutOrStdout(), apps)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print applications as JSON")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <Pending|Approved|Rejected>",
		Short: "Set the review status of an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid application id %q", args[0])
			}
			status := model.Status(args[1])
			if !status.Valid() {
				return fmt.Errorf("invalid status %q: must be Pending, Approved or Rejected", args[1])
			}
			return withRepository(cmd, func(repo repository.Repository) error {
				app, err := repo.UpdateStatus(cmd.Context(), id, status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", app.ReferenceID, app.Status)
				return nil
			})
		},
	}
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <reference-id> <email>",
		Short: "Print the stored offer letter name for an approved application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd, func(repo repository.Repository) error {
				name, err := repo.OfferLetter(cmd.Context(), args[0], validation.NormalizeEmail(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			})
		},
	}
}

func newInspectCmd() *cobra.Command {
	var showText bool
	cmd := &cobra.Command{
		Use:   "inspect <stored-name|path>",
		Short: "Report page count and optionally the text of a PDF",
		Long: `inspect reads a stored document by its stored name from the configured file backend,
or any local file when the argument is not a stored name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			info, err := pdfutil.Inspect(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pages: %d\nbytes: %d\n", info.Pages, len(data))
			if !showText {
				return nil
			}
			text, err := pdfutil.ExtractText(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showText, "text", false, "Print extracted plain text")
	return cmd
}

func readDocument(cmd *cobra.Command, arg string) ([]byte, error) {
	if !filestore.ValidName(arg) {
		return os.ReadFile(arg)
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	files, err := server.OpenFiles(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	obj, err := files.Open(cmd.Context(), arg)
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, apps []model.Application) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREFERENCE\tNAME\tEMAIL\tROLE\tSTATUS\tOFFER\tCREATED")
	for _, a := range apps {
		offer := "-"
		if a.OfferLetter != nil {
			offer = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.ReferenceID, a.FullName, a.Email, a.JobRole, a.Status, offer,
			a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
