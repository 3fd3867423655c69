package bundle

import (
	"slices"
	"strings"
)

// RewriteStats describes one Rewrite call.
type RewriteStats struct {
	Replaced int         // всего замен
	Shadowed []Reference // текст встретился чаще, чем его нашёл сканер
}

// Rewrite replaces every occurrence of each reference's text in the
// original module text with require('<target id>'). Substitution is a
// single left-to-right pass, so replacements are never re-matched and bytes
// outside matches are kept. A module without references is returned as is.
func Rewrite(m *Module) (string, RewriteStats) {
	var stats RewriteStats
	if m == nil || m.Source == nil {
		return "", stats
	}
	text := string(m.Source.Text)
	refs := m.Source.Refs
	if len(refs) == 0 {
		return text, stats
	}

	// длинные шаблоны первыми: Replacer при совпадении в одной позиции берёт первый по порядку
	ordered := slices.Clone(refs)
	slices.SortStableFunc(ordered, func(a, b Reference) int { return len(b.Text) - len(a.Text) })

	pairs := make([]string, 0, 2*len(ordered))
	for _, ref := range ordered {
		pairs = append(pairs, ref.Text, RequireCall(ref.Target))
	}

	for _, ref := range refs {
		n := strings.Count(text, ref.Text)
		stats.Replaced += n
		if n > ref.Count {
			stats.Shadowed = append(stats.Shadowed, ref)
		}
	}
	return strings.NewReplacer(pairs...).Replace(text), stats
}

// RequireCall renders the runtime call for a canonical id.
func RequireCall(id string) string {
	return "require(" + LuaQuote(id) + ")"
}
