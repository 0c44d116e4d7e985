package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/factorgraph/fixtures"
	"github.com/tianliuyang/pacaya/internal/train"
)

// errGradient is returned when backpropagated and numerical gradients
// disagree.
var errGradient = errors.New("gradient check failed")

func (c *CLI) newGradcheckCommand() *cobra.Command {
	var (
		graph       string
		seed        uint64
		epsilon     float64
		tolerance   float64
		spsaSamples int
		bp          bpFlags
	)

	cmd := &cobra.Command{
		Use:   "gradcheck",
		Short: "Compare backpropagated gradients with finite differences",
		Args:  cobra.NoArgs,
		Example: `  erma gradcheck --graph chain
  erma gradcheck --graph loopy --update-order parallel --log-domain
  erma gradcheck --graph exactly-one --spsa-samples 5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bp.config()
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seed, seed))
			s, err := fixtures.Lookup(graph, rng)
			if err != nil {
				return err
			}
			obj, err := train.NewObjective(cfg, nil)
			if err != nil {
				return err
			}

			loss, ad, err := obj.Example(s.Example, s.Params)
			if err != nil {
				return err
			}
			f := func(theta []float64) float64 {
				v, _, _ := obj.Example(s.Example, theta)
				return v
			}
			fd := autodiff.NumericalGradient(f, append([]float64(nil), s.Params...), epsilon)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "graph %s: %d parameters, loss %.6f\n", s.Name, len(s.Params), loss)
			fmt.Fprintf(out, "%5s %14s %14s\n", "param", "backprop", "finite-diff")
			for i := range ad {
				fmt.Fprintf(out, "%5d %14.8f %14.8f\n", i, ad[i], fd[i])
			}
			diff := autodiff.InfNormDiff(ad, fd)
			fmt.Fprintf(out, "inf-norm difference %.3g\n", diff)

			if spsaSamples > 0 {
				sp := autodiff.SPSAGradient(f, s.Params, spsaSamples, epsilon, rng)
				fmt.Fprintf(out, "spsa inf-norm difference %.3g (%d samples)\n", autodiff.InfNormDiff(ad, sp), spsaSamples)
			}

			slog.Debug("gradient check", "graph", s.Name, "schedule", cfg.Schedule, "order", cfg.UpdateOrder, "diff", diff)
			if diff > tolerance {
				return fmt.Errorf("%w: inf-norm difference %g exceeds %g", errGradient, diff, tolerance)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&graph, "graph", "chain", fmt.Sprintf("Scenario to check, one of %v", fixtures.Names()))
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for the scenario parameters")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 1e-5, "Finite-difference step")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-4, "Largest accepted inf-norm difference")
	cmd.Flags().IntVar(&spsaSamples, "spsa-samples", 0, "Also report a simultaneous-perturbation estimate with this many samples")
	bp.register(cmd)
	return cmd
}
