package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GabeBolton/dactyl-keyboard/pkg/anchor"
	"github.com/GabeBolton/dactyl-keyboard/pkg/config"
	"github.com/GabeBolton/dactyl-keyboard/pkg/matrix"
	"github.com/GabeBolton/dactyl-keyboard/pkg/pipeline"
	"github.com/GabeBolton/dactyl-keyboard/pkg/place"
)

// anchorsOpts holds the command-line flags for the anchors command.
type anchorsOpts struct {
	resolve string // anchor name to resolve; empty lists all anchors
	corner  string // compass corner for --resolve
	segment int    // wall segment for --resolve
	dot     bool   // emit the anchor graph as Graphviz DOT
}

// newAnchorsCmd creates the anchors command for inspecting a definition's
// anchor graph without rendering geometry.
func newAnchorsCmd() *cobra.Command {
	var opts anchorsOpts

	cmd := &cobra.Command{
		Use:   "anchors <config>",
		Short: "List, resolve or graph the anchors of a keyboard definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(loggerFromContext(cmd.Context()))
			resolver, err := runner.BuildResolver(cfg)
			if err != nil {
				return err
			}

			switch {
			case opts.dot:
				cmd.Print(anchorsToDOT(resolver.Registry()))
				return nil
			case opts.resolve != "":
				return runResolve(resolver, opts)
			default:
				return runList(resolver.Registry())
			}
		},
	}

	cmd.Flags().StringVar(&opts.resolve, "resolve", "", "resolve one anchor and print its position")
	cmd.Flags().StringVar(&opts.corner, "corner", "", "compass corner for --resolve (n, ne, e, ...)")
	cmd.Flags().IntVar(&opts.segment, "segment", 0, "wall segment for --resolve (0-4)")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "emit the anchor graph as Graphviz DOT")
	return cmd
}

func runList(reg *anchor.Registry) error {
	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		printKeyValue(name, describeAnchor(d))
	}
	return nil
}

func describeAnchor(d anchor.Descriptor) string {
	switch d.Kind {
	case anchor.KindKey:
		return fmt.Sprintf("key %s[%v, %v]", d.Cluster, d.Coord.Column, d.Coord.Row)
	case anchor.KindSecondary:
		if d.Corner == matrix.None {
			return fmt.Sprintf("secondary on %s", d.Parent)
		}
		return fmt.Sprintf("secondary on %s %v/%d", d.Parent, d.Corner, d.Segment)
	default:
		return d.Kind.String()
	}
}

func runResolve(resolver *place.Resolver, opts anchorsOpts) error {
	req := place.Request{Anchor: opts.resolve, Corner: matrix.None, Segment: opts.segment}
	if opts.corner != "" {
		corner, err := matrix.ParseDirection(opts.corner)
		if err != nil {
			return err
		}
		req.Corner = corner
	}
	pos, err := resolver.Position(req)
	if err != nil {
		return err
	}
	printSuccess("%s resolves to [%.3f, %.3f, %.3f]", opts.resolve, pos.X, pos.Y, pos.Z)
	return nil
}

// anchorsToDOT converts the anchor graph to Graphviz DOT format. Secondary
// anchors point at their parents; key and built-in anchors are leaves.
func anchorsToDOT(reg *anchor.Registry) string {
	var buf bytes.Buffer
	buf.WriteString("digraph anchors {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, name := range reg.Names() {
		d, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		attrs := fmt.Sprintf("label=%q", name)
		switch d.Kind {
		case anchor.KindBuiltin:
			attrs += ", style=\"rounded,filled,dashed\", fillcolor=lightgrey"
		case anchor.KindKey:
			attrs += ", fillcolor=lightyellow"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, attrs)
	}

	buf.WriteString("\n")
	for _, e := range reg.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}
