package main

import (
	"os"

	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/internal/config"
	"github.com/katalvlaran/forest/internal/flog"
	"github.com/katalvlaran/forest/internal/metrics"
	"github.com/katalvlaran/forest/quadrant"
	"github.com/katalvlaran/forest/tree"
)

// loadConfig reads the CLI's --config flag via viper and builds a Logger at
// the configured level.
func loadConfig(c *cli.Context) (*config.Config, flog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	level := flog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = flog.LevelDebug
	case "warn":
		level = flog.LevelWarn
	case "error":
		level = flog.LevelError
	}

	return cfg, flog.New(level, os.Stderr), nil
}

// unitConnectivity builds a single tree with no neighbors - every face and
// corner is a physical boundary. Multi-tree topologies are built ad hoc by
// the commands that need them (e.g. borderbalance), matching
// connectivity's own "build a literal, there is no factory" stance.
func unitConnectivity() (*connectivity.Connectivity, error) {
	faces := make([][connectivity.NumFaces]connectivity.FaceJoin, 1)
	corners := make([][connectivity.NumCorners]connectivity.CornerJoin, 1)
	for f := range faces[0] {
		faces[0][f] = connectivity.FaceJoin{Tree: -1}
	}
	for k := range corners[0] {
		corners[0][k] = connectivity.CornerJoin{Tree: -1}
	}

	return connectivity.NewConnectivity(1, faces, corners)
}

// buildUnitForest constructs a single-rank Forest over one unconnected tree,
// refined uniformly to cfg's configured level.
func buildUnitForest(cfg *config.Config) (*forest.Forest, error) {
	conn, err := unitConnectivity()
	if err != nil {
		return nil, err
	}
	f, err := forest.New(conn, cfg.Forest.DataSize)
	if err != nil {
		return nil, err
	}

	root := quadrant.New(0, 0, 0)
	root.WhichTree = 0
	if err := f.Tree(0).Insert(root); err != nil {
		return nil, err
	}
	if err := refineUniform(f.Tree(0), cfg.Forest.RefineLevel); err != nil {
		return nil, err
	}

	return f, nil
}

// refineUniform splits every leaf of t, toLevel times, producing a complete
// uniform quadtree at depth toLevel.
func refineUniform(t *tree.Tree, toLevel uint8) error {
	leaves := append([]quadrant.Quadrant(nil), t.Leaves()...)
	for level := uint8(0); level < toLevel; level++ {
		next := make([]quadrant.Quadrant, 0, len(leaves)*4)
		for _, q := range leaves {
			next = append(next, quadrant.Children(q)[:]...)
		}
		leaves = next
	}

	return t.SetLeaves(tree.Linearize(leaves))
}

// counterValue reads a prometheus.Counter's current value without needing a
// registered Gatherer - useful for printing the demo run's own metrics.
func counterValue(c interface{ Write(*dto.Metric) error }) float64 {
	var m dto.Metric
	_ = c.Write(&m)

	return m.GetCounter().GetValue()
}

func newMetrics() *metrics.Registry {
	return metrics.NewRegistry()
}
