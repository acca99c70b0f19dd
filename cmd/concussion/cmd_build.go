package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/CoByte/concussion/internal/codegen/linux"
)

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: input file with any .bf suffix removed)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: concussion build [-o output] <file>")
		fmt.Fprintln(os.Stderr, "\nProduces a native ELF64 Linux executable directly.")
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
		outFile = strings.TrimSuffix(file, ".bf")
	}

	image, err := linux.Compile(src)
	if err != nil {
		fatal(err)
	}

	log.WithField("bytes", len(image)).Debug("compiled image")

	// Write executable file with executable permissions
	if err := os.WriteFile(outFile, image, 0755); err != nil {
		fatal(err)
	}

	fmt.Printf("built %s -> %s\n", file, outFile)
}
