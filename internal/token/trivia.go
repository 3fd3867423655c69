package token

import "luabundle/internal/source"

// TriviaKind classifies non-significant source fragments.
type TriviaKind uint8

const (
	TriviaSpace TriviaKind = iota
	TriviaNewline
	TriviaLineComment  // -- ...
	TriviaBlockComment // --[[ ... ]]
	TriviaShebang      // #! в первой строке
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "Space"
	case TriviaNewline:
		return "Newline"
	case TriviaLineComment:
		return "LineComment"
	case TriviaBlockComment:
		return "BlockComment"
	case TriviaShebang:
		return "Shebang"
	default:
		return "Trivia(?)"
	}
}

// Trivia is whitespace or a comment attached to the following token.
type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
