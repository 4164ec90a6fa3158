// Package loader provides guest program loading for COP2 instruction
// streams.
package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Gamr13/pcsx2/insts"
)

// DefaultBasePC is the guest address assigned to the first instruction when
// the program file does not set one.
const DefaultBasePC = 0x00100000

// Program represents a loaded guest instruction window ready for
// translation.
type Program struct {
	// BasePC is the guest address of the first instruction word.
	BasePC uint32
	// Words contains the instruction words in program order.
	Words []insts.Word
}

// Load reads a guest program from a file. Files ending in .bin are parsed
// as raw little-endian instruction words; anything else is parsed as text,
// one hexadecimal word per line.
func Load(path string) (*Program, error) {
	if strings.HasSuffix(path, ".bin") {
		return loadBinary(path)
	}
	return loadText(path)
}

// loadBinary reads raw little-endian 32-bit words.
func loadBinary(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("program file %s: size %d is not a multiple of 4", path, len(data))
	}

	prog := &Program{BasePC: DefaultBasePC}
	for i := 0; i < len(data); i += 4 {
		prog.Words = append(prog.Words, insts.Word(binary.LittleEndian.Uint32(data[i:])))
	}
	return prog, nil
}

// loadText reads a text program: one hexadecimal instruction word per line,
// with an optional 0x prefix. Blank lines and comments starting with '#' or
// "//" are skipped. A leading "@address" line sets the base guest address.
func loadText(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog := &Program{BasePC: DefaultBasePC}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if addr, ok := strings.CutPrefix(line, "@"); ok {
			if len(prog.Words) > 0 {
				return nil, fmt.Errorf("%s:%d: @address must precede all instruction words", path, lineNo)
			}
			base, err := parseWord(addr)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad base address %q: %w", path, lineNo, addr, err)
			}
			prog.BasePC = base
			continue
		}

		w, err := parseWord(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad instruction word %q: %w", path, lineNo, line, err)
		}
		prog.Words = append(prog.Words, insts.Word(w))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	if len(prog.Words) == 0 {
		return nil, fmt.Errorf("program file %s contains no instruction words", path)
	}
	return prog, nil
}

func parseWord(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
