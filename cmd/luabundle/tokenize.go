package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"luabundle/internal/diag"
	"luabundle/internal/diagfmt"
	"luabundle/internal/lexer"
	"luabundle/internal/source"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.lua",
	Short: "Tokenize a Lua source file",
	Long:  `Tokenize breaks down a Lua source file into the tokens the require scanner sees`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	// Получаем флаги
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	bag, err := newDiagBag(cmd)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(filePath)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	tokens := lx.All()

	// Выводим диагностику в stderr, если есть
	renderDiagnostics(cmd, bag, fs)

	// Выводим токены в выбранном формате
	out := cmd.OutOrStdout()
	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(out, tokens, fs)
	case "json":
		err = diagfmt.FormatTokensJSON(out, tokens, fs)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		fmt.Fprintf(os.Stderr, "%d lexical errors\n", lx.Errors())
		return reportedError{err: fmt.Errorf("%s: lexical errors", filePath)}
	}
	return nil
}
