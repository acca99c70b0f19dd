package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CoByte/concussion/internal/codegen/gas"
	"github.com/CoByte/concussion/internal/core"
)

func cmdAsm(args []string) {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: input file with .s extension)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: concussion asm [-o output] <file>")
		fs.PrintDefaults()
		os.Exit(1)
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
	}

	file := filepath.Clean(fs.Arg(0))
	src := readSource(file)

	// Determine output filename
	outFile := *output
	if outFile == "" {
		outFile = strings.TrimSuffix(file, ".bf") + ".s"
	}

	tokens := core.Tokenize(src)
	ops, err := core.Lower(tokens)
	if err != nil {
		fatal(err)
	}

	gen := gas.NewGenerator(ops)
	asm, err := gen.Generate()
	if err != nil {
		fatal(err)
	}

	if err := os.WriteFile(outFile, []byte(asm), 0644); err != nil {
		fatal(err)
	}

	fmt.Printf("generated %s -> %s\n", file, outFile)
}
