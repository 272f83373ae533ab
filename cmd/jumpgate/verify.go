package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-jumpgate"
	"github.com/goliatone/go-jumpgate/internal/commands/appcmd"
	"github.com/goliatone/go-jumpgate/internal/connection"
)

type verifyFlags struct {
	spaceID string
	token   string
}

func newVerifyCmd(global *globalFlags) *cobra.Command {
	flags := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a source space is reachable and hosts the documentation type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, global, flags)
		},
	}
	cmd.Flags().StringVar(&flags.spaceID, "source-space", "", "ID of the source space")
	cmd.Flags().StringVar(&flags.token, "delivery-token", "", "Delivery API token of the source space")
	return cmd
}

func runVerify(cmd *cobra.Command, global *globalFlags, flags *verifyFlags) error {
	if flags.spaceID == "" {
		return errors.New("verify: --source-space is required")
	}
	token, err := secretOrPrompt(flags.token, "Delivery API token:")
	if err != nil {
		return err
	}
	cfg, err := global.load()
	if err != nil {
		return err
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return err
	}
	defer module.Close()

	var result jumpgate.ConnectionResult
	msg := appcmd.VerifyConnectionCommand{SpaceID: flags.spaceID, DeliveryToken: token, Output: &result}
	err = module.Commands().Verify.Execute(cmd.Context(), msg)

	if err != nil {
		if errors.Is(err, appcmd.ErrConnectionRejected) {
			return errors.New(module.Container().Validator().MessageFor(result.Reason))
		}
		return err
	}
	newPrinter(cmd.OutOrStdout()).successf("%s", connection.MessageValidated)
	return nil
}
