package cli

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/tianliuyang/pacaya/internal/autodiff"
	"github.com/tianliuyang/pacaya/internal/erma"
	"github.com/tianliuyang/pacaya/internal/factorgraph"
	"github.com/tianliuyang/pacaya/internal/factorgraph/fixtures"
)

func (c *CLI) newDecodeCommand() *cobra.Command {
	var (
		graph string
		seed  uint64
		bp    bpFlags
	)

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a scenario with belief propagation and compare with exact inference",
		Args:  cobra.NoArgs,
		Example: `  erma decode --graph loopy
  erma decode --graph chain --bp-iterations 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bp.config()
			if err != nil {
				return err
			}
			cfg.KeepTape = false
			s, err := fixtures.Lookup(graph, rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			g := s.Graph()
			evidence := s.Example.Evidence()
			pots := erma.Potentials(g, s.Params)

			m, err := erma.NewErmaBp(g, autodiff.NewIdentity(pots), cfg)
			if err != nil {
				return err
			}
			if err := m.WithEvidence(evidence); err != nil {
				return err
			}
			m.Forward()
			beliefs := m.Output()
			mbr := erma.DecodeMbr(g, beliefs)

			mapCfg, err := erma.DecodeMap(g, cfg, pots)
			if err != nil {
				slog.Warn("max-product decoding unavailable", "graph", s.Name, "err", err)
			}
			exact, err := factorgraph.BruteForce(g, s.Params, evidence)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "graph %s: %d sweeps, converged=%t\n", s.Name, m.Iterations(), m.Converged())
			fmt.Fprintf(out, "%-8s %-9s %5s %5s %5s %5s %10s %10s\n",
				"var", "type", "gold", "mbr", "map", "exact", "belief", "marginal")
			for _, v := range g.Vars() {
				gold, ok := s.Example.Gold()[v]
				goldStr := "-"
				if ok {
					goldStr = fmt.Sprint(gold)
				}
				mapStr := "-"
				if mapCfg != nil {
					mapStr = fmt.Sprint(mapCfg[v])
				}
				st := mbr[v]
				fmt.Fprintf(out, "%-8s %-9s %5s %5d %5s %5d %10.6f %10.6f\n",
					v.Name(), v.Type(), goldStr, st, mapStr, exact.MAP[v],
					beliefs.Vars[v.ID()].Value(st), exact.VarMarginals[v.ID()].Value(st))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&graph, "graph", "loopy", fmt.Sprintf("Scenario to decode, one of %v", fixtures.Names()))
	cmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for the scenario parameters")
	bp.register(cmd)
	return cmd
}
