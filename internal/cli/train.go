package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tianliuyang/pacaya/internal/factorgraph/fixtures"
	"github.com/tianliuyang/pacaya/internal/train"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var (
		numExamples int
		seed        uint64
		workers     int
		metricsAddr string
		bp          bpFlags
	)
	cfg := train.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a log-linear model on a synthetic agreement task",
		Args:  cobra.NoArgs,
		Example: `  erma train --examples 64 --epochs 30
  erma train --optimizer adam --lr 0.1 --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg.BP, err = bp.config(); err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers.NumWorkers = workers
				cfg.Workers.Enabled = workers > 1
			}

			reg := prometheus.NewRegistry()
			metrics := train.NewMetrics(reg)
			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr, reg)
				defer stop()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			examples := fixtures.AgreementTask(numExamples, rand.New(rand.NewPCG(seed, seed)))
			slog.Info("Training", "examples", len(examples), "epochs", cfg.Epochs, "optimizer", cfg.Optimizer)
			start := time.Now()
			res, err := train.Train(ctx, examples, make([]float64, 4), cfg, metrics)
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "final loss %.6f (initial %.6f)\n", res.Losses[len(res.Losses)-1], res.Losses[0])
			fmt.Fprintf(out, "params %v\n", res.Params)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&numExamples, "examples", 32, "Number of synthetic examples")
	fs.Uint64Var(&seed, "seed", 1, "Seed for the synthetic data")
	fs.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Full-batch epochs")
	fs.StringVar(&cfg.Optimizer, "optimizer", cfg.Optimizer, "Optimizer: sgd or adam")
	fs.Float64Var(&cfg.LR, "lr", cfg.LR, "Learning rate")
	fs.Float64Var(&cfg.LRDecay, "lr-decay", cfg.LRDecay, "Learning rate multiplier per epoch")
	fs.Float64Var(&cfg.Momentum, "momentum", cfg.Momentum, "SGD momentum")
	fs.Float64Var(&cfg.L2, "l2", cfg.L2, "L2 regularization")
	fs.IntVar(&workers, "workers", 0, "Worker goroutines (0 uses one per CPU)")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while training")
	bp.register(cmd)
	return cmd
}

// serveMetrics exposes reg on addr under /metrics and returns a function
// that shuts the server down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
