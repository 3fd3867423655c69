package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents a name.
	Ident
	// Number represents a numeric literal (decimal or hex, with exponent).
	Number
	// String represents a quoted string literal ('...' or "...").
	String
	// LongString represents a long bracket string ([[...]], [==[...]==]).
	LongString

	KwAnd      // and
	KwBreak    // break
	KwDo       // do
	KwElse     // else
	KwElseif   // elseif
	KwEnd      // end
	KwFalse    // false
	KwFor      // for
	KwFunction // function
	KwGoto     // goto
	KwIf       // if
	KwIn       // in
	KwLocal    // local
	KwNil      // nil
	KwNot      // not
	KwOr       // or
	KwRepeat   // repeat
	KwReturn   // return
	KwThen     // then
	KwTrue     // true
	KwUntil    // until
	KwWhile    // while

	Plus        // +
	Minus       // -
	Star        // *
	Slash       // /
	DoubleSlash // //
	Percent     // %
	Caret       // ^
	Hash        // #
	Amp         // &
	Tilde       // ~
	Pipe        // |
	Shl         // <<
	Shr         // >>
	EqEq        // ==
	NotEq       // ~=
	LtEq        // <=
	GtEq        // >=
	Lt          // <
	Gt          // >
	Assign      // =
	LParen      // (
	RParen      // )
	LBrace      // {
	RBrace      // }
	LBracket    // [
	RBracket    // ]
	ColonColon  // ::
	Semicolon   // ;
	Colon       // :
	Comma       // ,
	Dot         // .
	DotDot      // ..
	Ellipsis    // ...
)

var kindNames = [...]string{
	Invalid:     "Invalid",
	EOF:         "EOF",
	Ident:       "Ident",
	Number:      "Number",
	String:      "String",
	LongString:  "LongString",
	KwAnd:       "and",
	KwBreak:     "break",
	KwDo:        "do",
	KwElse:      "else",
	KwElseif:    "elseif",
	KwEnd:       "end",
	KwFalse:     "false",
	KwFor:       "for",
	KwFunction:  "function",
	KwGoto:      "goto",
	KwIf:        "if",
	KwIn:        "in",
	KwLocal:     "local",
	KwNil:       "nil",
	KwNot:       "not",
	KwOr:        "or",
	KwRepeat:    "repeat",
	KwReturn:    "return",
	KwThen:      "then",
	KwTrue:      "true",
	KwUntil:     "until",
	KwWhile:     "while",
	Plus:        "+",
	Minus:       "-",
	Star:        "*",
	Slash:       "/",
	DoubleSlash: "//",
	Percent:     "%",
	Caret:       "^",
	Hash:        "#",
	Amp:         "&",
	Tilde:       "~",
	Pipe:        "|",
	Shl:         "<<",
	Shr:         ">>",
	EqEq:        "==",
	NotEq:       "~=",
	LtEq:        "<=",
	GtEq:        ">=",
	Lt:          "<",
	Gt:          ">",
	Assign:      "=",
	LParen:      "(",
	RParen:      ")",
	LBrace:      "{",
	RBrace:      "}",
	LBracket:    "[",
	RBracket:    "]",
	ColonColon:  "::",
	Semicolon:   ";",
	Colon:       ":",
	Comma:       ",",
	Dot:         ".",
	DotDot:      "..",
	Ellipsis:    "...",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
