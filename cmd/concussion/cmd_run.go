package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CoByte/concussion/internal/core"
	"github.com/CoByte/concussion/internal/vm"
)

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: concussion run <file>")
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

	interpreter := vm.NewVM()
	if err := interpreter.Run(ops); err != nil {
		fatal(err)
	}
}
