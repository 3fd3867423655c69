// Package token defines Lua token kinds and trivia for the luabundle lexer.
// Invariants:
//   - Token.Text is a slice of the original source.
//   - Token.Span matches Text exactly (Start..End).
//   - Comments and whitespace are leading Trivia and never appear in the
//     main token stream.
//   - Short strings and long strings are distinct kinds; the decoded value
//     is produced by the lexer on demand (see lexer.StringValue).
package token
