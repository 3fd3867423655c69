package diag

import (
	"sort"

	"luabundle/internal/source"
)

// diagKey - одна находка: код, место и текст. Повторные сообщения с тем же
// ключом (один модуль, подключённый из нескольких мест) в Bag не попадают.
type diagKey struct {
	code Code
	span source.Span
	msg  string
}

func keyOf(d *Diagnostic) diagKey {
	return diagKey{code: d.Code, span: d.Primary, msg: d.Message}
}

// Bag накапливает диагностику одной команды с лимитом --max-diagnostics.
type Bag struct {
	items   []Diagnostic
	seen    map[diagKey]struct{}
	max     int
	dropped int
}

// NewBag returns a bag holding at most limit diagnostics; limit <= 0 means
// no limit.
func NewBag(limit int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max(limit, 0), 64)),
		seen:  make(map[diagKey]struct{}),
		max:   limit,
	}
}

// Add добавляет диагностику. Возвращает false для дубликата или если
// достигнут лимит; во втором случае находка учитывается в Dropped.
func (b *Bag) Add(d Diagnostic) bool {
	key := keyOf(&d)
	if _, ok := b.seen[key]; ok {
		return false
	}
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.seen[key] = struct{}{}
	b.items = append(b.items, d)
	return true
}

// HasErrors возвращает true, если есть хотя бы одна фатальная диагностика
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity.Fatal() {
			return true
		}
	}
	return false
}

// HasWarnings возвращает true, если есть хотя бы одна диагностика с Severity >= Warning
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// длина
func (b *Bag) Len() int {
	return len(b.items)
}

// Dropped returns how many unique diagnostics did not fit under the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез! (он указывает на внутренний массив Bag)
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Sort сортирует диагностики по: file, start, end, severity (desc), code (asc)
// для стабильного и детерминированного порядка вывода.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		// Error > Warning > Info
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code.ID() < dj.Code.ID()
	})
}
