package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	secretimage "github.com/ppopth/secret-image"
)

// Version information (injected at build time via -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newDistributeCmd(g *globalFlags) *cobra.Command {
	var (
		secret string
		k, n   int
		dir    string
		seed   uint16
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Hide a secret image in n cover images",
		Long: `Distribute splits the pixels of --secret into n shares and embeds share j
in the j-th cover of --dir. Each cover needs exactly 8 pixel bytes per k
secret bytes. Covers are overwritten unless --out-dir is set.
With --n 0 every cover in the directory is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := g.options()
			if cmd.Flags().Changed("seed") {
				opts = append(opts, secretimage.WithSeed(seed))
			}
			if outDir != "" {
				opts = append(opts, secretimage.WithOutputDir(outDir))
			}

			res, err := secretimage.Distribute(cmd.Context(), k, n, secret, dir, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: seed %d, %d blocks\n", res.RunID, res.Seed, res.Blocks)
			for j, path := range res.Shadows {
				fmt.Fprintf(out, "shadow %d: %s\n", j+1, path)
			}
			if res.Corrections > 0 {
				fmt.Fprintf(out, "warning: %d overflow corrections, recovery will be inexact\n", res.Corrections)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&secret, "secret", "", "secret BMP image to hide")
	flags.IntVarP(&k, "k", "k", 0, "shares needed to recover")
	flags.IntVarP(&n, "n", "n", 0, "shadows to write, 0 uses every cover")
	flags.StringVar(&dir, "dir", ".", "directory holding the cover images")
	flags.Uint16Var(&seed, "seed", 0, "fixed mask seed (random if unset)")
	flags.StringVar(&outDir, "out-dir", "", "write shadows here instead of overwriting the covers")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("k")
	return cmd
}

func newRecoverCmd(g *globalFlags) *cobra.Command {
	var (
		out string
		k   int
		dir string
	)

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Rebuild a secret image from k shadows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := secretimage.Recover(cmd.Context(), k, out, dir, g.options()...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovered %d bytes (seed %d) from %v into %s\n", res.Bytes, res.Seed, res.Shadows, res.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&out, "secret", "", "output path of the recovered image")
	flags.IntVarP(&k, "k", "k", 0, "shares needed to recover")
	flags.StringVar(&dir, "dir", ".", "directory holding the shadow images")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("k")
	return cmd
}

func newInspectCmd(g *globalFlags) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the sharing metadata of candidate images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := secretimage.Inspect(dir, g.options()...)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tSEED\tSHADOW\tSIZE\tPIXELS\tCAPACITY")
			for _, info := range infos {
				if info.Err != nil {
					fmt.Fprintf(w, "%s\t-\t-\t-\t-\t%v\n", info.Path, info.Err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%dx%d\t%d\t%d\n", info.Path, info.Seed, info.ShadowIndex,
					info.Width, info.Height, info.PayloadLen, info.Capacity)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory holding the images")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret-image version %s\n", Version)
			fmt.Fprintf(out, "Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", BuildDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		},
	}
}
