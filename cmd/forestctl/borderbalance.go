package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/forest/balance"
	"github.com/katalvlaran/forest/borderbalance"
	"github.com/katalvlaran/forest/connectivity"
	"github.com/katalvlaran/forest/forest"
	"github.com/katalvlaran/forest/quadrant"
)

var borderBalanceCommand = &cli.Command{
	Name:  "borderbalance",
	Usage: "build two face-joined trees with mismatched refinement and balance across the shared boundary",
	Action: func(c *cli.Context) error {
		cfg, log, err := loadConfig(c)
		if err != nil {
			return err
		}
		met := newMetrics()

		conn, err := twoTreeFaceConnectivity()
		if err != nil {
			return err
		}
		f, err := forest.New(conn, cfg.Forest.DataSize)
		if err != nil {
			return err
		}
		f.FirstLocalTree, f.LastLocalTree = 0, 1

		fine := quadrant.New(quadrant.RootLen-quadrant.Len(2), 0, 2)
		fine.WhichTree = 0
		if err := f.Tree(0).Insert(fine); err != nil {
			return err
		}
		root1 := quadrant.New(0, 0, 0)
		root1.WhichTree = 1
		if err := f.Tree(1).Insert(root1); err != nil {
			return err
		}

		before0, before1 := f.Tree(0).Len(), f.Tree(1).Len()

		mode := balance.ModeFace
		if cfg.Forest.BalanceMode == "full" {
			mode = balance.ModeFull
		}
		opts := &borderbalance.Options{
			Mode:                    mode,
			RejectOutOfBoundsParent: cfg.Forest.RejectOutOfBoundsParent,
			Logger:                  log,
			Metrics:                 met,
		}
		if err := borderbalance.Forest(f, opts); err != nil {
			return err
		}

		fmt.Printf("borderbalance: tree0 %d -> %d leaves, tree1 %d -> %d leaves\n",
			before0, f.Tree(0).Len(), before1, f.Tree(1).Len())

		return nil
	},
}

// twoTreeFaceConnectivity glues tree 0's +X face to tree 1's -X face.
func twoTreeFaceConnectivity() (*connectivity.Connectivity, error) {
	faces := make([][connectivity.NumFaces]connectivity.FaceJoin, 2)
	corners := make([][connectivity.NumCorners]connectivity.CornerJoin, 2)
	for tr := range faces {
		for f := range faces[tr] {
			faces[tr][f] = connectivity.FaceJoin{Tree: -1}
		}
		for k := range corners[tr] {
			corners[tr][k] = connectivity.CornerJoin{Tree: -1}
		}
	}
	faces[0][quadrant.FacePlusX] = connectivity.FaceJoin{Tree: 1, Face: quadrant.FaceMinusX}
	faces[1][quadrant.FaceMinusX] = connectivity.FaceJoin{Tree: 0, Face: quadrant.FacePlusX}

	return connectivity.NewConnectivity(2, faces, corners)
}
