package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kr/pretty"

	"github.com/CoByte/concussion/internal/core"
)

func cmdIR(args []string) {
	fs := flag.NewFlagSet("ir", flag.ExitOnError)
	debug := fs.Bool("debug", false, "dump raw op structs instead of the listing")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: concussion ir [-debug] <file>")
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
	ops, err := core.Lower(tokens)
	if err != nil {
		fatal(err)
	}

	if *debug {
		fmt.Println(pretty.Sprint(ops))
		return
	}
	fmt.Print(core.Dump(ops))
}
