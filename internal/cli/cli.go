// Package cli implements the erma command-line tool.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tianliuyang/pacaya/internal/erma"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	rootCmd     *cobra.Command
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "erma",
		Short:         "Differentiable belief propagation for structured prediction",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newVersionCommand())
	c.rootCmd.AddCommand(c.newGradcheckCommand())
	c.rootCmd.AddCommand(c.newDecodeCommand())
	c.rootCmd.AddCommand(c.newTrainCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	err := c.rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(c.rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// initApp installs the process-wide logger.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func (c *CLI) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "erma %s\n", c.version)
		},
	}
}

// bpFlags binds belief propagation flags to a command.
type bpFlags struct {
	iterations   int
	schedule     string
	order        string
	logDomain    bool
	unnormalized bool
	seed         uint64
}

func (f *bpFlags) register(cmd *cobra.Command) {
	d := erma.DefaultConfig()
	fs := cmd.Flags()
	fs.IntVar(&f.iterations, "bp-iterations", d.MaxIterations, "Belief propagation sweeps")
	fs.StringVar(&f.schedule, "schedule", d.Schedule.String(), "Message schedule: tree-like, fixed or random")
	fs.StringVar(&f.order, "update-order", d.UpdateOrder.String(), "Message updates: sequential or parallel")
	fs.BoolVar(&f.logDomain, "log-domain", d.LogDomain, "Pass messages in the log algebra")
	fs.BoolVar(&f.unnormalized, "unnormalized", !d.NormalizeMessages, "Do not normalize messages")
	fs.Uint64Var(&f.seed, "bp-seed", d.Seed, "Seed for the random schedule")
}

// config returns the differentiable configuration the flags describe.
func (f *bpFlags) config() (erma.Config, error) {
	cfg := erma.DefaultConfig()
	var err error
	if cfg.Schedule, err = erma.ParseSchedule(f.schedule); err != nil {
		return cfg, err
	}
	if cfg.UpdateOrder, err = erma.ParseUpdateOrder(f.order); err != nil {
		return cfg, err
	}
	cfg.MaxIterations = f.iterations
	cfg.LogDomain = f.logDomain
	cfg.NormalizeMessages = !f.unnormalized
	cfg.Seed = f.seed
	return cfg, cfg.Validate()
}
