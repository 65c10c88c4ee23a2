// Package container identifies an executable's format from its header
// magic bytes and holds the symbol table and synthetic instruction stream
// scenarios run their analysis over. Grounded on
// original_source/paramodai/executable.py, pe.py and elf.py: only the
// header-sniff dispatch (PE's "MZ", ELF's "\x7fELF") is in scope — parsing
// real section tables, PE import tables, or ELF relocation entries is not;
// scenario fixtures populate a Container's instruction map directly the
// way executable.py's CodeSection would after a full parse.
package container

import (
	"bytes"
	"errors"

	"github.com/orozery/paramodai/internal/instr"
)

// Format names the container kind a header sniff identified.
type Format int

const (
	FormatUnknown Format = iota
	FormatPE
	FormatELF
)

func (f Format) String() string {
	switch f {
	case FormatPE:
		return "PE"
	case FormatELF:
		return "ELF"
	default:
		return "unknown"
	}
}

// ErrUnrecognizedHeader is returned by Sniff when header matches neither
// magic, mirroring executable.py's ExecutableParsingError falling through
// every registered container.
var ErrUnrecognizedHeader = errors.New("container: unrecognized header")

var (
	peMagic  = []byte("MZ")
	elfMagic = []byte("\x7fELF")
)

// Sniff identifies the container format from the first bytes of an
// executable, trying PE then ELF, exactly as Executable.parse's container
// list order. Only the magic-byte check runs; 32-bit x86 is this module's
// only supported machine type (x64 raises "not yet supported" in the
// original, so it is simply not modeled here).
func Sniff(header []byte) (Format, error) {
	if bytes.HasPrefix(header, peMagic) {
		return FormatPE, nil
	}
	if bytes.HasPrefix(header, elfMagic) {
		return FormatELF, nil
	}
	return FormatUnknown, ErrUnrecognizedHeader
}

// Container is a minimal stand-in for executable.py's Executable: a
// symbol table plus the map from address to already-built Instruction a
// scenario populates in place of real section/disassembly parsing.
type Container struct {
	Format  Format
	Symbols map[int64]string // address -> symbol name, executable.py's self.symbols

	instructions map[int64]instr.Instruction
}

// New returns an empty Container of the given format.
func New(format Format) *Container {
	return &Container{
		Format:       format,
		Symbols:      map[int64]string{},
		instructions: map[int64]instr.Instruction{},
	}
}

// AddInstr registers instruction i at its own address, the synthetic
// equivalent of CodeSection.get_instr populating its cache from a real
// decode.
func (c *Container) AddInstr(i instr.Instruction) { c.instructions[i.Addr()] = i }

// GetInstr returns the instruction at addr, grounded on
// Executable.get_instr/CodeSection.get_instr. The ok result is false for
// instr.ReturnAddr or any address the scenario never registered.
func (c *Container) GetInstr(addr int64) (instr.Instruction, bool) {
	i, ok := c.instructions[addr]
	return i, ok
}

// SymbolAddr resolves a symbol name to its address, the inverse table
// Executable.__init__ builds from self.symbols (executable.py's
// self.symbol_addr).
func (c *Container) SymbolAddr(name string) (int64, bool) {
	for addr, sym := range c.Symbols {
		if sym == name {
			return addr, true
		}
	}
	return 0, false
}
