// Package driver runs address traces and interactive commands against a
// memory manager, either in-process or through the gRPC service.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sushant-115/gojovmm/core/paging/mmu"
	"go.uber.org/zap"
)

// ErrQuit is returned by Execute when the session should end normally.
var ErrQuit = errors.New("quit")

// Backend is what a session translates against. *mmuservice.Client
// satisfies it directly; Local adapts an in-process *mmu.MMU.
type Backend interface {
	Translate(ctx context.Context, va mmu.VirtualAddress) (mmu.PhysicalAddress, error)
	Stats(ctx context.Context) (mmu.Stats, error)
	Tables(ctx context.Context) (mmu.Tables, error)
}

// Local serves a Backend from an in-process memory manager.
type Local struct {
	MMU *mmu.MMU
}

func (l Local) Translate(ctx context.Context, va mmu.VirtualAddress) (mmu.PhysicalAddress, error) {
	return l.MMU.Translate(ctx, va)
}

func (l Local) Stats(context.Context) (mmu.Stats, error) { return l.MMU.Stats(), nil }

func (l Local) Tables(context.Context) (mmu.Tables, error) { return l.MMU.Tables() }

// Options controls how a session reacts to its input.
type Options struct {
	// KeepGoing reports out-of-range addresses and continues instead of
	// ending the session with the error.
	KeepGoing bool
	// ZeroQuits ends the session when address 0 is entered.
	ZeroQuits bool
}

// Session prints the outcome of each access to out.
type Session struct {
	backend Backend
	out     io.Writer
	opts    Options
	logger  *zap.Logger
}

func NewSession(backend Backend, out io.Writer, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{backend: backend, out: out, opts: opts, logger: logger.Named("driver")}
}

// Access translates one address and prints the result.
func (s *Session) Access(ctx context.Context, va mmu.VirtualAddress) error {
	fmt.Fprintf(s.out, "Accessing virtual address: %d\n", va)
	pa, err := s.backend.Translate(ctx, va)
	if err != nil {
		if errors.Is(err, mmu.ErrAddressOutOfRange) {
			fmt.Fprintf(s.out, "Invalid virtual address: %d\n", va)
			if s.opts.KeepGoing {
				return nil
			}
		}
		return err
	}
	fmt.Fprintf(s.out, "Translated to physical address: %d\n", pa)
	return nil
}

// Execute handles one line of input. It returns ErrQuit when the session
// should end, and any error from an access that is not tolerated by the
// session options. Malformed commands are reported to out and ignored.
func (s *Session) Execute(ctx context.Context, line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}

	command := strings.ToLower(args[0])
	switch command {
	case "exit", "quit":
		return ErrQuit
	case "help":
		s.printHelp()
		return nil
	case "stats":
		return s.printStats(ctx)
	case "tables":
		return s.printTables(ctx)
	case "access", "a":
		if len(args) < 2 {
			fmt.Fprintln(s.out, "Error: access command requires an address.")
			return nil
		}
		args = args[1:]
	}

	for _, arg := range args {
		va, err := ParseAddress(arg)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v. Type 'help' for a list of commands.\n", err)
			return nil
		}
		if va == 0 && s.opts.ZeroQuits {
			return ErrQuit
		}
		if err := s.Access(ctx, va); err != nil {
			return err
		}
	}
	return nil
}

// Replay executes every line of a trace. Text after '#' is ignored.
func (s *Session) Replay(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			s.logger.Debug("trace stopped", zap.Int("line", lineNo), zap.Error(err))
			return fmt.Errorf("trace line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

// ParseAddress accepts decimal, 0x hexadecimal, 0o octal and 0b binary
// addresses.
func ParseAddress(s string) (mmu.VirtualAddress, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return mmu.VirtualAddress(v), nil
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  <address> [address...]   translate one or more virtual addresses")
	fmt.Fprintln(s.out, "  access <address>         same as above")
	fmt.Fprintln(s.out, "  tables                   print the page and frame tables")
	fmt.Fprintln(s.out, "  stats                    print access counters")
	fmt.Fprintln(s.out, "  help")
	fmt.Fprintln(s.out, "  exit / quit")
}

func (s *Session) printStats(ctx context.Context) error {
	st, err := s.backend.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "accesses=%d hits=%d faults=%d evictions=%d out_of_range=%d resident=%d\n",
		st.Accesses, st.Hits, st.Faults, st.Evictions, st.OutOfRange, st.ResidentPages)
	return nil
}

func (s *Session) printTables(ctx context.Context) error {
	tables, err := s.backend.Tables(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tFRAME")
	for _, pe := range tables.Pages {
		frame := "-"
		if pe.Valid {
			frame = strconv.FormatUint(uint64(pe.Frame), 10)
		}
		fmt.Fprintf(w, "%d\t%s\n", pe.Page, frame)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "FRAME\tPAGE\t")
	for _, fe := range tables.Frames {
		page, marker := "-", ""
		if fe.Occupied {
			page = strconv.FormatUint(uint64(fe.Page), 10)
		}
		if fe.Frame == tables.NextVictim {
			marker = "<- next victim"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", fe.Frame, page, marker)
	}
	return w.Flush()
}
