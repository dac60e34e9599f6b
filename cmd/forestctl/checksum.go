package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/katalvlaran/forest/wire"
)

var checksumCommand = &cli.Command{
	Name:  "checksum",
	Usage: "build a uniformly refined unit forest and print its structural checksum",
	Action: func(c *cli.Context) error {
		cfg, _, err := loadConfig(c)
		if err != nil {
			return err
		}

		f, err := buildUnitForest(cfg)
		if err != nil {
			return err
		}

		sum, err := wire.Checksum(f)
		if err != nil {
			return err
		}
		fmt.Printf("checksum: %d leaves, crc32=%08x\n", f.Tree(0).Len(), sum)

		return nil
	},
}
