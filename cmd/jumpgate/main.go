package main

import (
	"context"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-jumpgate"
)

var (
	// Version is set at build time.
	Version = "dev"

	moduleBuilder = jumpgate.New
	loadConfig    = jumpgate.LoadConfig
	promptSecret  = surveySecret
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run executes the CLI and prints a failure to stderr before returning it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		newPrinter(stderr).failure(err)
	}
	return err
}

type globalFlags struct {
	configPath string
	noColor    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "jumpgate",
		Short: "Design system documentation inside the entry editor",
		Long: `Jumpgate shows design system documentation next to the entries that use it.
The commands below install the app into a space, verify source spaces,
seed documentation from Markdown and serve the app backend.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a jumpgate.yaml file")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCmd(flags),
		newInstallCmd(flags),
		newVerifyCmd(flags),
		newSeedCmd(flags),
		newExportCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

func (f *globalFlags) load() (jumpgate.Config, error) {
	return loadConfig(f.configPath)
}
