package dag

import (
	"sort"

	"luabundle/internal/project"
)

type ModuleID uint32

type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// собрать уникальные ID, sort.Strings, раздать ModuleID по порядку
func BuildIndex(metas []project.ModuleMeta) ModuleIndex {
	uniq := make(map[string]struct{}, len(metas))
	for _, meta := range metas {
		if meta.ID != "" {
			uniq[meta.ID] = struct{}{}
		}
		for _, dep := range meta.Imports {
			if dep.ID == "" {
				continue
			}
			uniq[dep.ID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(uniq))
	for id := range uniq {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nameToID := make(map[string]ModuleID, len(ids))
	for i, id := range ids {
		nameToID[id] = ModuleID(i)
	}

	return ModuleIndex{
		NameToID: nameToID,
		IDToName: ids,
	}
}
