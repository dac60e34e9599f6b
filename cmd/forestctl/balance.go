package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/forest/balance"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
)

// overRefineCorner further splits the leaf at the tree's (0,0) corner by
// one extra level - the same shape as a single corner-refined unit square.
// On a uniformly refined tree the new children are only one level finer
// than their neighbors, which the 2:1 condition allows, so balance.Tree
// leaves the result unchanged.
func overRefineCorner(t *tree.Tree) error {
	leaves := append([]quadrant.Quadrant(nil), t.Leaves()...)
	for i, q := range leaves {
		if q.X == 0 && q.Y == 0 {
			rest := append([]quadrant.Quadrant(nil), leaves[:i]...)
			rest = append(rest, leaves[i+1:]...)
			rest = append(rest, quadrant.Children(q)[:]...)

			return t.SetLeaves(tree.Linearize(rest))
		}
	}

	return nil
}

var balanceCommand = &cli.Command{
	Name:  "balance",
	Usage: "build a uniformly refined unit forest and 2:1-balance it",
	Action: func(c *cli.Context) error {
		cfg, log, err := loadConfig(c)
		if err != nil {
			return err
		}
		met := newMetrics()

		f, err := buildUnitForest(cfg)
		if err != nil {
			return err
		}
		if err := overRefineCorner(f.Tree(0)); err != nil {
			return err
		}
		before := f.Tree(0).Len()

		mode := balance.ModeFace
		if cfg.Forest.BalanceMode == "full" {
			mode = balance.ModeFull
		}
		opts := &balance.Options{
			Mode:                    mode,
			RejectOutOfBoundsParent: cfg.Forest.RejectOutOfBoundsParent,
			Logger:                  log,
			Metrics:                 met,
		}
		if err := balance.Tree(f.Tree(0), opts); err != nil {
			return err
		}

		fmt.Printf("balance: %d leaves before, %d after, %d candidates considered\n",
			before, f.Tree(0).Len(), int64(counterValue(met.BalanceCandidates)))

		return nil
	},
}
