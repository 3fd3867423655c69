package project

import (
	"luabundle/internal/source"
)

// ImportMeta is one resolved require edge of a module.
type ImportMeta struct {
	ID   string
	Span source.Span
}

// ModuleMeta summarises a resolved module for graph reports.
type ModuleMeta struct {
	ID          string
	Kind        ModuleKind
	Path        string       // slash-путь относительно корня
	Span        source.Span  // span всего файла для исходников, NoSpan для ассетов
	Imports     []ImportMeta // в порядке появления в исходнике
	ContentHash Digest       // хеш содержимого (и параметров для глифов)
	ModuleHash  Digest       // агрегированный хеш с учётом зависимостей
}
