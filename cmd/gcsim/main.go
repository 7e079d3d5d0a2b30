// gcsim drives a scripted garbage-collection simulation end to end against
// simdev, for manual exploration and smoke-testing the orchestrator outside
// of the unit test suite. Ground: urfave/cli v1 usage pattern (the teacher's
// cmd/cli), adapted to a single-command tool instead of a multi-command API
// client.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/urfave/cli"

	"github.com/coldstore/flashgc/cost"
	"github.com/coldstore/flashgc/dirty"
	"github.com/coldstore/flashgc/evac"
	"github.com/coldstore/flashgc/gcstats"
	"github.com/coldstore/flashgc/orchestrator"
	"github.com/coldstore/flashgc/seg"
	"github.com/coldstore/flashgc/simdev"
	"github.com/coldstore/flashgc/victim"
)

func main() {
	app := cli.NewApp()
	app.Name = "gcsim"
	app.Usage = "simulate foreground/background garbage collection over an in-memory device"
	app.Flags = []cli.Flag{
		cli.UintFlag{Name: "segbits", Value: 6, Usage: "log2 blocks per segment"},
		cli.UintFlag{Name: "secbits", Value: 2, Usage: "log2 segments per section"},
		cli.UintFlag{Name: "segs", Value: 64, Usage: "total segments"},
		cli.IntFlag{Name: "rounds", Value: 4, Usage: "GC rounds to run"},
		cli.StringFlag{Name: "policy", Value: "cb", Usage: "greedy|cb"},
		cli.Int64Flag{Name: "seed", Value: 1, Usage: "rng seed for synthetic dirtiness"},
	}
	app.Action = runSim

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "gcsim:", err)
		os.Exit(1)
	}
}

func runSim(c *cli.Context) error {
	geo := seg.Geometry{
		SegBits:   c.Uint("segbits"),
		SecBits:   c.Uint("secbits"),
		TotalSegs: uint32(c.Uint("segs")),
	}

	policy := cost.CB
	if c.String("policy") == "greedy" {
		policy = cost.Greedy
	}

	dev, err := simdev.New(geo)
	if err != nil {
		return err
	}
	defer dev.Close()

	seedSynthetic(dev, geo, c.Int64("seed"))

	selector := &victim.Default{
		Geo:     geo,
		SIT:     dev.SIT,
		Dirty:   dev.Dirty,
		Cur:     dev,
		Policy:  policy,
		MaxScan: 4096,
	}
	nodeEvac := &evac.NodeEvacuator{Nat: dev.NAT, SSA: dev.SSA, SIT: dev.SIT, CP: dev}
	dataEvac := &evac.DataEvacuator{Geo: geo, Nat: dev.NAT, SSA: dev.SSA, SIT: dev.SIT, Data: dev.Data, Pins: dev.Pins, CP: dev}

	orch := &orchestrator.GcOrchestrator{
		Geo:      geo,
		Space:    dev,
		CP:       dev,
		Dirty:    dev.Dirty,
		Selector: selector,
		NodeEvac: nodeEvac,
		DataEvac: dataEvac,
		Pins:     dev.Pins,
	}

	stats := gcstats.NewMemTracker()
	rounds := c.Int("rounds")
	ino := func(nid uint32) uint32 { return nid }

	for i := 0; i < rounds; i++ {
		status := orch.Run(1, dirty.FG, geo.BlocksPerSeg(), ino)
		stats.Inc(gcstats.GcCallsN)
		fmt.Printf("round %d: status=%s free_sections=%d\n", i, status, dev.FreeSections())
		if status == orchestrator.StatusNoData {
			break
		}
	}

	fmt.Printf("bdf=%.3f checkpoints=%d\n", gcstats.BDF(dev.SIT, geo), dev.Generation())
	return nil
}

// seedSynthetic marks a pseudo-random subset of segments dirty with
// pseudo-random valid-block counts and mtimes, so the simulation has
// something non-trivial to collect.
func seedSynthetic(dev *simdev.Device, geo seg.Geometry, seed int64) {
	r := rand.New(rand.NewSource(seed))
	bps := geo.BlocksPerSeg()
	for segno := uint32(0); segno < geo.TotalSegs; segno++ {
		if r.Intn(3) == 0 {
			continue // leave this segment fully free
		}
		valid := uint32(r.Intn(int(bps)))
		for off := uint32(0); off < valid; off++ {
			dev.SIT.SetValid(segno, off, true)
		}
		dev.SIT.SetMtime(segno, uint64(r.Intn(1000)))
		dev.Dirty.MarkDirty(seg.HotData, segno)
	}
}
