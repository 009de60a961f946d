package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tricoreasm "github.com/tinyrange/tricore/internal/asm/tricore"
	"github.com/tinyrange/tricore/internal/fixture"
	"github.com/tinyrange/tricore/internal/ir"
	irtricore "github.com/tinyrange/tricore/internal/ir/tricore"
)

// errDeferred marks nodes the specialized selection paths hand off to the
// table-driven matcher, which this tool does not carry.
var errDeferred = errors.New("deferred to table matcher")

// deferringMatcher is the fallback used when dumping: every node it
// receives is reported as deferred instead of lowered.
type deferringMatcher struct{}

func (deferringMatcher) Match(n *ir.Node, addr irtricore.AddrResolver) ([]tricoreasm.Operation, error) {
	return nil, errDeferred
}

// fixedKnownBits assumes the same bits are provably clear in every value.
// Fixture files opt into it to demonstrate the OR-as-ADD address rewrite.
type fixedKnownBits struct {
	zeros uint64
}

func (f fixedKnownBits) KnownZeroBits(n *ir.Node) uint64 { return f.zeros }

func dumpAddr(w io.Writer, sel *irtricore.Selector, tree fixture.Tree, root *ir.Node) {
	base, disp, ok := sel.SelectAddr(root, tree.PointerStore)
	if !ok {
		fmt.Fprintln(w, "  address: no specialized form")
		return
	}
	fmt.Fprintf(w, "  address: base=%s disp=%s\n",
		tricoreasm.FormatOperand(base), tricoreasm.FormatOperand(disp))
}

func dumpSelection(w io.Writer, sel *irtricore.Selector, root *ir.Node) error {
	return ir.PostOrder(root, func(n *ir.Node) error {
		selected, err := sel.Select(n)
		switch {
		case errors.Is(err, errDeferred):
			fmt.Fprintf(w, "  %-40s deferred\n", n)
			return nil
		case err != nil:
			return err
		}
		for i, op := range selected.Ops {
			if i == 0 {
				fmt.Fprintf(w, "  %-40s %s", n, op)
			} else {
				fmt.Fprintf(w, "; %s", op)
			}
		}
		if selected.Reused {
			fmt.Fprintf(w, " (in place)")
		}
		fmt.Fprintln(w)
		return nil
	})
}

func dumpFile(w io.Writer, sel *irtricore.Selector, f *fixture.File) error {
	fmt.Fprintf(w, "%s (%s)\n", f.Name, sel.Name())
	for _, tree := range f.Trees {
		fmt.Fprintf(w, "%s:\n", tree.Name)
		root, err := tree.Node.Build()
		if err != nil {
			return fmt.Errorf("tree %q: %w", tree.Name, err)
		}
		if tree.Addr {
			dumpAddr(w, sel, tree, root)
			continue
		}
		if err := dumpSelection(w, sel, root); err != nil {
			return fmt.Errorf("tree %q: %w", tree.Name, err)
		}
	}
	return nil
}

func newSelector(f *fixture.File, logger *slog.Logger) (*irtricore.Selector, error) {
	var known ir.KnownBits
	if f.KnownZero != 0 {
		known = fixedKnownBits{zeros: f.KnownZero}
	}
	return irtricore.NewSelector(irtricore.SelectorConfig{
		Matcher:   deferringMatcher{},
		KnownBits: known,
		Logger:    logger,
	})
}

func run() error {
	verbose := flag.Bool("v", false, "log intermediate selection state")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `tcdump - dump TriCore instruction selection over fixture trees

USAGE:
  tcdump [flags] <fixture.yaml>

FLAGS:
  -v   Log intermediate selection state to stderr

FIXTURE FORMAT:
  name: <fixture name>
  known_zero: <bit mask assumed clear in every value, enables or-as-add>
  trees:
    - name: <tree name>
      addr: true            # resolve the tree as a memory address
      pointer_store: true   # treat the address as a pointer store's
      node:
        kind: add           # constant, add, or, frameindex, wrapper, ...
        operands: [...]

EXAMPLES:
  tcdump testdata/sample.yaml       Dump selection for each tree
  tcdump -v testdata/sample.yaml    Include the matcher's trace
`)
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := fixture.Load(flag.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to load fixture: %w", err)
	}

	sel, err := newSelector(f, logger)
	if err != nil {
		return err
	}

	return dumpFile(os.Stdout, sel, f)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tcdump: %v\n", err)
		os.Exit(1)
	}
}
