// Package main provides the entry point for the VU0 macro-mode recompiler.
//
// For the full CLI, use: go run ./cmd/pcsx2
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("VU0 Macro-Mode Recompiler")
	fmt.Println("")
	fmt.Println("Usage: pcsx2 [options] <program.cop2|program.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to sync configuration JSON file")
	fmt.Println("  -dump      Dump all registers, not just nonzero ones")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/pcsx2' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/pcsx2' instead.")
	}
}
