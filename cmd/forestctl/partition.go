package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/partition"
	"github.com/katalvlaran/forest/tree"
)

var partitionCommand = &cli.Command{
	Name:  "partition",
	Usage: "build a uniformly refined unit forest owned entirely by rank 0, then reshuffle it evenly across forest.num_procs ranks",
	Action: func(c *cli.Context) error {
		cfg, log, err := loadConfig(c)
		if err != nil {
			return err
		}
		met := newMetrics()
		numProcs := cfg.Forest.NumProcs

		seed, err := buildUnitForest(cfg)
		if err != nil {
			return err
		}
		leaves := seed.Tree(0).Leaves()

		forests := make([]*forest.Forest, numProcs)
		for r := int32(0); r < numProcs; r++ {
			conn, err := unitConnectivity()
			if err != nil {
				return err
			}
			f, ferr := forest.New(conn, cfg.Forest.DataSize)
			if ferr != nil {
				return ferr
			}
			f.NumProcs = numProcs
			f.Rank = r
			if r == 0 {
				t := tree.New(0)
				if err := t.SetLeaves(leaves); err != nil {
					return err
				}
				f.Trees[0] = t
				f.FirstLocalTree, f.LastLocalTree = 0, 0
			} else {
				f.Trees[0] = nil
				f.FirstLocalTree, f.LastLocalTree = -1, -2
			}
			forests[r] = f
		}

		fmt.Printf("partition: %d leaves, %d ranks, before:", len(leaves), numProcs)
		for _, f := range forests {
			fmt.Printf(" %d", f.LocalNumQuadrants())
		}
		fmt.Println()

		opts := &partition.Options{Logger: log, Metrics: met}
		if err := partition.Reshuffle(context.Background(), forests, opts); err != nil {
			return err
		}

		fmt.Print("partition: after:")
		for _, f := range forests {
			fmt.Printf(" %d", f.LocalNumQuadrants())
		}
		fmt.Printf(", %d quadrants migrated\n", int64(counterValue(met.PartitionMigrated)))

		return nil
	},
}
