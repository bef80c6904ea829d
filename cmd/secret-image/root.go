package main

import (
	"github.com/spf13/cobra"

	secretimage "github.com/ppopth/secret-image"
	"github.com/ppopth/secret-image/config"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
	mask       string
	workers    int
	extension  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "secret-image",
		Short: "Share a secret BMP image across n cover images",
		Long: `secret-image implements (k, n) threshold sharing of a secret BMP image.
The secret is hidden in the least significant bits of n cover images; any k
of the resulting shadows recover it, fewer reveal nothing.

Covers and shadows are 8-bit BMP files selected from a directory by
extension, in name order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "YAML config file")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&g.logFormat, "log-format", "", "log format (color, nocolor, json)")
	flags.StringVar(&g.mask, "mask", "", "mask generator (chacha20, legacy)")
	flags.IntVar(&g.workers, "workers", 0, "parallel workers, 0 uses all CPUs")
	flags.StringVar(&g.extension, "ext", "", "extension of candidate images (default .bmp)")

	rootCmd.AddCommand(newDistributeCmd(g))
	rootCmd.AddCommand(newRecoverCmd(g))
	rootCmd.AddCommand(newInspectCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// load reads the config file, lets explicitly set flags override it and
// configures logging.
func (g *globalFlags) load(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = g.logFormat
	}
	if flags.Changed("mask") {
		cfg.Mask = g.mask
	}
	if flags.Changed("workers") {
		cfg.Workers = g.workers
	}
	if flags.Changed("ext") {
		cfg.Extension = g.extension
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Logging.Setup(); err != nil {
		return err
	}

	g.cfg = cfg
	log.Debugf("configuration: %+v", *cfg)
	return nil
}

// options turns the loaded configuration into library options
func (g *globalFlags) options() []secretimage.Option {
	return []secretimage.Option{
		secretimage.WithMask(g.cfg.Mask),
		secretimage.WithWorkers(g.cfg.Workers),
		secretimage.WithExtension(g.cfg.Extension),
	}
}
