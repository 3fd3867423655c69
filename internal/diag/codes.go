package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Разрешение ссылок на модули
	ResInfo          Code = 1000
	ResMissingModule Code = 1001
	ResBadReference  Code = 1002

	// Разбор модулей (исходники и ассеты)
	ParInfo        Code = 2000
	ParLex         Code = 2001
	ParAssetDecode Code = 2002
	ParSyntax      Code = 2003

	// Граф зависимостей
	GraInfo  Code = 3000
	GraCycle Code = 3001

	// Предупреждения сканера, переписчика и ассетов
	ScnDynamicRequire Code = 4001
	RewShadowed       Code = 4002
	AstEmptyGlyph     Code = 4003

	// Ввод-вывод
	IOInfo        Code = 5000
	IOWriteFailed Code = 5001
	IOArchive     Code = 5002
	IOReadFailed  Code = 5003
)

var codeDescription = map[Code]string{
	UnknownCode:       "Unknown error",
	ResInfo:           "Resolution information",
	ResMissingModule:  "Referenced module does not exist",
	ResBadReference:   "Malformed module reference",
	ParInfo:           "Parser information",
	ParLex:            "Lexical error in source module",
	ParAssetDecode:    "Asset cannot be decoded",
	ParSyntax:         "Syntax error in source module",
	GraInfo:           "Graph information",
	GraCycle:          "Dependency cycle",
	ScnDynamicRequire: "Dynamic require is left untouched",
	RewShadowed:       "Reference text also matched outside the reference",
	AstEmptyGlyph:     "Glyph renders to an empty matrix",
	IOInfo:            "I/O information",
	IOWriteFailed:     "Cannot write output",
	IOArchive:         "Cannot build archive",
	IOReadFailed:      "Cannot read module",
}

// предупреждения 4xxx делят диапазон, префикс берём по коду
var warnPrefix = map[Code]string{
	ScnDynamicRequire: "SCN",
	RewShadowed:       "REW",
	AstEmptyGlyph:     "AST",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("PAR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("GRA%04d", ic)
	case ic >= 4000 && ic < 5000:
		if p, ok := warnPrefix[c]; ok {
			return fmt.Sprintf("%s%04d", p, ic)
		}
		return fmt.Sprintf("WRN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
