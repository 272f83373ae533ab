package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/seed"
)

type seedFlags struct {
	spaceID     string
	token       string
	locales     []string
	skipPublish bool
}

func newSeedCmd(global *globalFlags) *cobra.Command {
	flags := &seedFlags{}
	cmd := &cobra.Command{
		Use:   "seed [directory]",
		Short: "Create or update documentation entries from Markdown files",
		Long: `Seed walks a directory of Markdown files with front matter and upserts one
documentation entry per file group. Files named name.<locale>.md are merged
into the locales of a single entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "docs"
			if len(args) == 1 {
				dir = args[0]
			}
			return runSeed(cmd, global, flags, dir)
		},
	}
	cmd.Flags().StringVar(&flags.spaceID, "space-id", "", "ID of the space holding the documentation (defaults to config)")
	cmd.Flags().StringVar(&flags.token, "cma-token", "", "Content management token (defaults to config)")
	cmd.Flags().StringSliceVar(&flags.locales, "locales", nil, "Locales to accept besides the default locale")
	cmd.Flags().BoolVar(&flags.skipPublish, "skip-publish", false, "Leave seeded entries as drafts")
	return cmd
}

func runSeed(cmd *cobra.Command, global *globalFlags, flags *seedFlags, dir string) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}
	if flags.spaceID != "" {
		cfg.Space.ID = flags.spaceID
	}
	if cfg.Space.ID == "" {
		return errors.New("seed: --space-id is required")
	}
	token, err := secretOrPrompt(firstNonEmpty(flags.token, cfg.Space.ManagementToken), "Content management token:")
	if err != nil {
		return err
	}
	cfg.Space.ManagementToken = token
	if len(flags.locales) > 0 {
		cfg.Seed.Locales = flags.locales
	}
	if flags.skipPublish {
		cfg.Seed.SkipPublish = true
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	handler := module.Commands().Seed
	if handler == nil {
		return errors.New("seed: no local space configured")
	}

	var report seed.Report
	if err := handler.Execute(cmd.Context(), appcmd.SeedDocumentationCommand{Directory: dir, Output: &report}); err != nil {
		return err
	}

	out := newPrinter(cmd.OutOrStdout())
	for _, entry := range report.Entries {
		verb := "updated"
		if entry.Created {
			verb = "created"
		}
		if entry.Published {
			verb += ", published"
		}
		out.infof("  %s (%s) %s [%s]", entry.Name, entry.ID, verb, strings.Join(entry.Locales, ", "))
	}
	for _, skipped := range report.Skipped {
		out.warnf("  skipped %s", skipped)
	}
	out.successf("Seeded %d documentation entries", len(report.Entries))
	return nil
}
