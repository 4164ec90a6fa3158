// Package main provides the command-line driver for the VU0 macro-mode
// recompiler: it translates a COP2 instruction stream into a host block,
// runs it against a functional coprocessor, and reports the final state.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/loader"
	"github.com/Gamr13/pcsx2/macro"
	"github.com/Gamr13/pcsx2/vu"
)

var (
	configPath = flag.String("config", "", "Path to sync configuration JSON file")
	verbose    = flag.Bool("v", false, "Verbose output")
	dumpAll    = flag.Bool("dump", false, "Dump all registers, not just nonzero ones")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: pcsx2 [options] <program.cop2|program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	prog, err := loader.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	cfg := macro.DefaultSyncConfig()
	if *configPath != "" {
		cfg, err = macro.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", flag.Arg(0))
		fmt.Printf("Base PC: 0x%08X\n", prog.BasePC)
		fmt.Printf("Words: %d\n", len(prog.Words))
		for i, w := range prog.Words {
			fmt.Printf("  0x%08X: %08X  %s\n",
				prog.BasePC+uint32(i)*4, uint32(w), macro.RowName(w))
		}
	}

	state := &vu.State{}
	host := dynarec.NewHost(state, vu.NewNullEngine(state), vu.NewNullEngine(state))
	buf := dynarec.NewCodeBuffer()
	tr := macro.NewTranslator(
		buf,
		dynarec.NewRegAlloc(),
		host.Cycles,
		dynarec.NewBranchRecorder(buf),
		cfg,
	)
	cache := dynarec.NewBlockCache(64, 4)
	runner := dynarec.NewRunner(buf, host.Cycles, cache, tr.Translate)
	runner.CycleEstimate = cfg.BlockCycleEstimate

	block := runner.Block(prog.BasePC, prog.Words)
	block.Run(host)

	dumpState(state, host)

	if *verbose {
		stats := cache.Stats()
		fmt.Printf("\nTranslation:\n")
		fmt.Printf("  Host steps: %d\n", block.Len())
		fmt.Printf("  Cache: %d hits, %d misses, %d invalidations, %d evictions\n",
			stats.Hits, stats.Misses, stats.Invalidations, stats.Evictions)
		if n := tr.Unimplemented(); n > 0 {
			fmt.Printf("  Unimplemented words: %d\n", n)
		}
	}
}

// dumpState prints the coprocessor register file. Without -dump, registers
// that still hold their reset value are skipped.
func dumpState(state *vu.State, host *dynarec.Host) {
	fmt.Printf("Cycles: %d\n", host.Cycles.Current())

	fmt.Printf("\nVector registers:\n")
	for i := uint8(0); i < 32; i++ {
		vf := state.ReadVF(i)
		if !*dumpAll && i != 0 && vf == (vu.VFReg{}) {
			continue
		}
		fmt.Printf("  vf%-2d  %12g %12g %12g %12g\n",
			i, vf.Lane(insts.LaneX), vf.Lane(insts.LaneY),
			vf.Lane(insts.LaneZ), vf.Lane(insts.LaneW))
	}
	acc := state.ACC()
	if *dumpAll || acc != (vu.VFReg{}) {
		fmt.Printf("  ACC   %12g %12g %12g %12g\n",
			acc.Lane(insts.LaneX), acc.Lane(insts.LaneY),
			acc.Lane(insts.LaneZ), acc.Lane(insts.LaneW))
	}

	fmt.Printf("\nControl registers:\n")
	for i := uint8(0); i < 32; i++ {
		v := state.ReadVI(i)
		if !*dumpAll && v == 0 {
			continue
		}
		name := insts.VIName(i)
		switch i {
		case insts.RegI, insts.RegQ:
			fmt.Printf("  %-8s 0x%08X (%g)\n", name, v, math.Float32frombits(v))
		default:
			fmt.Printf("  %-8s 0x%08X\n", name, v)
		}
	}
}
