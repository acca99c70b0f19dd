package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/CoByte/concussion/internal/core"
)

func cmdTokens(args []string) {
	fs := flag.NewFlagSet("tokens", flag.ExitOnError)
	stats := fs.Bool("stats", false, "print a histogram of token kinds instead of the listing")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: concussion tokens [-stats] <file>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
	}

	file := filepath.Clean(fs.Arg(0))
	src := readSource(file)

	tokens := core.Tokenize(src)

	if *stats {
		counts := lo.CountValuesBy(tokens, func(t core.Token) core.TokenKind {
			return t.Kind
		})
		delete(counts, core.TokEOF)

		kinds := lo.Keys(counts)
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

		for _, kind := range kinds {
			fmt.Printf("%c\t%d\n", kind.Char(), counts[kind])
		}
		return
	}

	for _, tok := range tokens {
		fmt.Printf("%d:%d\t%v\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
	}
}
