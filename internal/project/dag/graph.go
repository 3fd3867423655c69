package dag

import (
	"fmt"
	"slices"
	"strings"

	"luabundle/internal/diag"
	"luabundle/internal/project"
)

type Graph struct {
	Edges   [][]ModuleID // Edges[from] = []to (from требует to)
	Indeg   []int        // входящие степени для Kahn (учитывает только присутствующие модули)
	Present []bool       // признак, что модуль реально разрешён (а не только упомянут в require)
}

type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
}

type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
}

// BuildGraph связывает модули по их Imports. Повторные модули с тем же ID
// игнорируются (граф строится из уже дедуплицированного кэша).
func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]ModuleID, nodeCount),
		Indeg:   make([]int, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, name := range idx.IDToName {
		slots[i].Meta.ID = name
	}

	for _, node := range nodes {
		id, ok := idx.NameToID[node.Meta.ID]
		if !ok || slots[int(id)].Present {
			continue
		}
		slot := &slots[int(id)]
		slot.Meta = node.Meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Imports) == 0 {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.NameToID[dep.ID]
			if !ok || dep.ID == "" {
				continue
			}
			if ModuleID(from) == toID {
				if slot.Reporter != nil {
					diag.ReportError(slot.Reporter, diag.GraCycle, dep.Span,
						fmt.Sprintf("module %q requires itself", slot.Meta.ID)).Emit()
				}
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			g.Edges[from] = append(g.Edges[from], toID)
			if g.Present[int(toID)] {
				g.Indeg[int(toID)]++
			} else if slot.Reporter != nil {
				diag.ReportError(slot.Reporter, diag.ResMissingModule, dep.Span,
					fmt.Sprintf("module %q requires missing module %q", slot.Meta.ID, dep.ID)).Emit()
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportCycles сообщает о каждом модуле, оставшемся в цикле после Kahn.
func ReportCycles(idx ModuleIndex, slots []ModuleSlot, topo *Topo) {
	if topo == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, ", ")

	for _, id := range topo.Cycles {
		slot := slots[int(id)]
		if !slot.Present || slot.Reporter == nil {
			continue
		}
		msg := fmt.Sprintf("module %q participates in a require cycle: %s", slot.Meta.ID, summary)
		diag.ReportError(slot.Reporter, diag.GraCycle, slot.Meta.Span, msg).Emit()
	}
}
