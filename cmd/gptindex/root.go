package main

import (
	"errors"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/smallnest/gptindex/config"
	"github.com/smallnest/gptindex/service"
	"github.com/smallnest/gptindex/store"
)

const defaultConfigPath = "gptindex.yaml"

// app holds what every command needs once the configuration is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	sc      *service.Context
	store   store.GraphStore
	release func() error
	out     io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "gptindex",
		Short:         "Build, compose and query document index graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.release == nil {
				return nil
			}
			return a.release()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newBuildCmd(a),
		newComposeCmd(a),
		newQueryCmd(a),
		newInspectCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// setup loads the configuration, falling back to the defaults when the default file
// does not exist, and opens the graph store.
func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()

	cfg, err := config.Load(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case err != nil:
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	if a.sc, err = cfg.ServiceContext(); err != nil {
		return err
	}
	a.store, a.release, err = cfg.OpenStore(cmd.Context())
	return err
}
