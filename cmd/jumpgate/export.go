package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-jumpgate"
	"github.com/goliatone/go-jumpgate/internal/di"
	"github.com/goliatone/go-jumpgate/internal/installation"
)

type exportFlags struct {
	entryID string
	spaceID string
	token   string
	out     string
}

func newExportCmd(global *globalFlags) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export <content-type-id>",
		Short: "Print the documentation matched to a content type as Markdown",
		Long: `Export renders the documentation shown in the entry editor of a content type
and converts it to Markdown. The match comes from the stored installation
unless --entry names one, in which case --source-space and --delivery-token
select the space to read it from.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, global, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.entryID, "entry", "", "Documentation entry to export instead of the stored match")
	cmd.Flags().StringVar(&flags.spaceID, "source-space", "", "Source space of --entry")
	cmd.Flags().StringVar(&flags.token, "delivery-token", "", "Delivery API token of --source-space")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "Write Markdown to a file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, global *globalFlags, flags *exportFlags, contentTypeID string) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}

	var opts []jumpgate.Option
	if flags.entryID != "" {
		repo, err := exportRepository(cmd, flags, contentTypeID)
		if err != nil {
			return err
		}
		opts = append(opts, di.WithRepository(repo))
	}

	module, err := moduleBuilder(cfg, opts...)
	if err != nil {
		return err
	}
	defer module.Close()

	ctx := cmd.Context()
	panel, err := module.Editor().Open(ctx, contentTypeID)
	if err != nil {
		return err
	}
	defer module.Editor().Close(panel.ID())

	markdown, err := module.Editor().Markdown(ctx, panel.ID())
	if err != nil {
		return err
	}

	if flags.out == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), markdown)
		return err
	}
	if err := os.WriteFile(flags.out, []byte(markdown+"\n"), 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	newPrinter(cmd.ErrOrStderr()).successf("Wrote %s", flags.out)
	return nil
}

// exportRepository stores a one-off consumer installation matching
// contentTypeID to the requested entry.
func exportRepository(cmd *cobra.Command, flags *exportFlags, contentTypeID string) (installation.Repository, error) {
	if flags.spaceID == "" {
		return nil, errors.New("export: --source-space is required with --entry")
	}
	token, err := secretOrPrompt(flags.token, "Delivery API token:")
	if err != nil {
		return nil, err
	}

	params := installation.Default()
	params.SpaceType = installation.RoleConsumer
	params.SourceSpaceID = flags.spaceID
	params.SourceDeliveryToken = token
	params.SourceConnectionValidated = true
	params.PatternMatches[contentTypeID] = flags.entryID

	repo := installation.NewMemoryRepository()
	if _, err := repo.Save(cmd.Context(), installation.Record{Parameters: params}); err != nil {
		return nil, err
	}
	return repo, nil
}
