package dag

import (
	"luabundle/internal/project"
)

// ComputeModuleHashes вычисляет ModuleHash по обратному порядку топосортировки:
// H(content || hash(dep1) || hash(dep2) ...), deps отсортированы по ModuleID.
// Для циклического графа намеренно ничего не делает (оставляет нули).
func ComputeModuleHashes(g Graph, slots []ModuleSlot, topo *Topo) {
	if topo == nil || topo.Cyclic {
		return
	}
	for i := len(topo.Order) - 1; i >= 0; i-- {
		id := topo.Order[i]
		slot := &slots[int(id)]
		if !slot.Present {
			continue
		}
		deps := make([]project.Digest, 0, len(g.Edges[int(id)]))
		for _, to := range g.Edges[int(id)] {
			if !g.Present[int(to)] {
				continue
			}
			deps = append(deps, slots[int(to)].Meta.ModuleHash)
		}
		slot.Meta.ModuleHash = project.Combine(slot.Meta.ContentHash, deps...)
	}
}
