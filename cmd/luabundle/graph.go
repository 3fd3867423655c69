package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"luabundle/internal/bundle"
	"luabundle/internal/diag"
	"luabundle/internal/observ"
	"luabundle/internal/project"
	"luabundle/internal/project/dag"
	"luabundle/internal/source"
)

var graphCmd = &cobra.Command{
	Use:   "graph [flags] [entry]",
	Short: "Print the module graph in dependency batches",
	Long: `Graph resolves the entry like build does and prints every module grouped in
batches: a batch depends only on earlier batches. Nothing is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().String("root", "", "project root (default: directory of luabundle.toml or the working directory)")
	graphCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type graphModuleJSON struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Path        string   `json:"path"`
	Requires    []string `json:"requires,omitempty"`
	ContentHash string   `json:"content_hash"`
	ModuleHash  string   `json:"module_hash"`
}

type graphJSON struct {
	Entry   string              `json:"entry"`
	Batches [][]graphModuleJSON `json:"batches"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	rootFlag, err := cmd.Flags().GetString("root")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	target, err := resolveTarget(rootFlag, args)
	if err != nil {
		return err
	}
	bag, err := newDiagBag(cmd)
	if err != nil {
		return err
	}
	files := source.NewFileSetWithBase(target.Root)
	reporter := diag.BagReporter{Bag: bag}

	builder := bundle.NewBuilder(bundle.Config{
		Resolver: project.NewResolver(target.Root, target.Config().Fonts.Dirs),
		Files:    files,
		Reporter: reporter,
		Logger:   observ.Logger,
	})
	g, err := builder.BuildContext(cmd.Context(), target.Entry)
	if err != nil {
		return failBuild(cmd, err, bag, files)
	}
	renderDiagnostics(cmd, bag, files)

	report := buildGraphReport(g, reporter)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return writeGraphPretty(cmd.OutOrStdout(), report)
}

// buildGraphReport раскладывает граф на батчи и считает модульные хеши.
func buildGraphReport(g *bundle.Graph, r diag.Reporter) graphJSON {
	metas := g.Metas()
	idx := dag.BuildIndex(metas)
	nodes := make([]dag.ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = dag.ModuleNode{Meta: m, Reporter: r}
	}
	graph, slots := dag.BuildGraph(idx, nodes)
	topo := dag.ToposortKahn(graph)
	dag.ReportCycles(idx, slots, topo)
	dag.ComputeModuleHashes(graph, slots, topo)

	report := graphJSON{Entry: g.Entry}
	for _, batch := range topo.BuildBatches() {
		mods := make([]graphModuleJSON, 0, len(batch))
		for _, id := range batch {
			slot := slots[int(id)]
			requires := make([]string, 0, len(graph.Edges[int(id)]))
			for _, to := range graph.Edges[int(id)] {
				requires = append(requires, idx.IDToName[int(to)])
			}
			mods = append(mods, graphModuleJSON{
				ID:          slot.Meta.ID,
				Kind:        slot.Meta.Kind.String(),
				Path:        slot.Meta.Path,
				Requires:    requires,
				ContentHash: slot.Meta.ContentHash.String(),
				ModuleHash:  slot.Meta.ModuleHash.String(),
			})
		}
		report.Batches = append(report.Batches, mods)
	}
	return report
}

func writeGraphPretty(w io.Writer, report graphJSON) error {
	var b strings.Builder
	fmt.Fprintf(&b, "entry %s\n", report.Entry)
	for i, batch := range report.Batches {
		fmt.Fprintf(&b, "batch %d:\n", i)
		for _, m := range batch {
			hash := m.ModuleHash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(&b, "  %-9s %s  %s\n", m.Kind, hash, m.ID)
			for _, dep := range m.Requires {
				fmt.Fprintf(&b, "            -> %s\n", dep)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
