// Package cli implements the goestate command line.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

type app struct {
	configPath string
	v          *viper.Viper
}

// load reads configuration once per invocation.
func (a *app) load(cmd *cobra.Command) (*settings, error) {
	v, err := newViper(a.configPath)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil {
		if err := v.BindPFlag("log.level", f); err != nil {
			return nil, err
		}
	}
	a.v = v
	return loadSettings(v)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "goestate",
		Short:         "goestate: web front end for node accounts and the estate contract",
		Long:          "goestate serves a small HTTP application that logs users into Ethereum node accounts and drives a real-estate smart contract on their behalf. Configuration comes from an optional file and GOESTATE_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(a),
		newAccountsCmd(a),
	)

	return rootCmd
}
