package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: concussion <command> [options] <file>

commands:
  build [-o output] <file>   Compile to a native ELF64 executable
  asm [-o output] <file>     Emit GAS (AT&T) assembly
  ir [-debug] <file>         Dump lowered IR
  tokens [-stats] <file>     Dump tokenizer output
  run <file>                 Interpret the program directly

global flags (before the command):
  -v    enable debug logging`)
	os.Exit(1)
}

func readSource(file string) []byte {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return src
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	log.SetLevel(log.WarnLevel)

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "-v" {
		log.SetLevel(log.DebugLevel)
		args = args[1:]
	}

	if len(args) < 1 {
		usage()
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "build":
		cmdBuild(args)
	case "asm":
		cmdAsm(args)
	case "ir":
		cmdIR(args)
	case "tokens":
		cmdTokens(args)
	case "run":
		cmdRun(args)
	default:
		usage()
	}
}
