package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/provision"
)

type installFlags struct {
	spaceID     string
	token       string
	appName     string
	appURL      string
	environment string
}

func newInstallCmd(global *globalFlags) *cobra.Command {
	flags := &installFlags{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Register the app with the space organization and install it",
		Example: `  jumpgate install --space-id abc123 --cma-token <token>
  JUMPGATE_SPACE_MANAGEMENT_TOKEN=<token> jumpgate install --space-id abc123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.spaceID, "space-id", "", "ID of the target space")
	cmd.Flags().StringVar(&flags.token, "cma-token", "", "Content management token")
	cmd.Flags().StringVar(&flags.appName, "app-name", "", "Name of the app definition to create")
	cmd.Flags().StringVar(&flags.appURL, "app-url", "", "URL the app definition points at")
	cmd.Flags().StringVar(&flags.environment, "environment", "", "Environment to install into")
	return cmd
}

func runInstall(cmd *cobra.Command, global *globalFlags, flags *installFlags) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}
	spaceID := flags.spaceID
	if spaceID == "" {
		spaceID = cfg.Space.ID
	}
	if spaceID == "" {
		return errors.New("install: --space-id is required")
	}
	token, err := secretOrPrompt(firstNonEmpty(flags.token, cfg.Space.ManagementToken), "Content management token:")
	if err != nil {
		return err
	}

	module, err := moduleBuilder(cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	out := newPrinter(cmd.OutOrStdout())
	out.infof("Installing Jumpgate into space %s...", spaceID)

	started := time.Now()
	var result provision.Result
	msg := appcmd.InstallAppCommand{
		SpaceID:         spaceID,
		ManagementToken: token,
		AppName:         flags.appName,
		AppURL:          flags.appURL,
		Environment:     flags.environment,
		Output:          &result,
	}
	if err := module.Installer().Execute(cmd.Context(), msg); err != nil {
		return err
	}

	if result.CreatedDefinition {
		out.infof("Created app definition %s in organization %s", result.AppDefinitionID, result.OrganizationID)
	} else {
		out.infof("Reusing app definition %s from organization %s", result.AppDefinitionID, result.OrganizationID)
	}
	out.successf("Jumpgate successfully installed and configured. Your new app awaits you at https://app.contentful.com/spaces/%s/apps Done in %ds",
		result.SpaceID, int(time.Since(started).Round(time.Second)/time.Second))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

