package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-jumpgate"
)

const redacted = "********"

func newConfigCmd(global *globalFlags) *cobra.Command {
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}
			if !showSecrets {
				cfg = redactSecrets(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("config: encode: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print tokens and passwords verbatim")
	return cmd
}

func redactSecrets(cfg jumpgate.Config) jumpgate.Config {
	if cfg.Space.ManagementToken != "" {
		cfg.Space.ManagementToken = redacted
	}
	if cfg.Cache.Redis.Password != "" {
		cfg.Cache.Redis.Password = redacted
	}
	return cfg
}
