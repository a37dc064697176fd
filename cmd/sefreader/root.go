package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/sefreader/internal/parser"
	"github.com/dgallion1/sefreader/internal/sef"
	"github.com/spf13/cobra"
)

// commandContext carries the persistent flags shared by every subcommand.
type commandContext struct {
	pairing         string
	logicalOrder    bool
	verbose         bool
	maxDecompressed int64
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "sefreader",
		Short:         "Read Story Editor Format files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.pairing, "pairing", sef.PairPositional.String(), "Outline/document pairing: positional or leaf-first")
	flags.BoolVar(&ctx.logicalOrder, "logical-order", false, "Sort chapters by title rank (序章, 第N章, 終章)")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Log each analysis stage to stderr")
	flags.Int64Var(&ctx.maxDecompressed, "max-decompressed", 256<<20, "Reject payloads that inflate beyond this many bytes (0 = no limit)")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newTreeCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))

	return rootCmd
}

func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (c *commandContext) options(cmd *cobra.Command) ([]sef.Option, error) {
	pairing, err := sef.ParsePairing(c.pairing)
	if err != nil {
		return nil, err
	}
	opts := []sef.Option{
		sef.WithPairing(pairing),
		sef.WithMaxDecompressedSize(c.maxDecompressed),
		sef.WithLogger(c.logger(cmd)),
	}
	if c.logicalOrder {
		opts = append(opts, sef.WithLogicalOrder())
	}
	return opts, nil
}

// analyze runs the parser matching path's extension over the file.
func (c *commandContext) analyze(cmd *cobra.Command, path string) (*sef.Result, error) {
	opts, err := c.options(cmd)
	if err != nil {
		return nil, err
	}
	p, err := parser.ForFile(path, opts...)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
