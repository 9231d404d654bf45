// Command alasc compiles one source-language file straight to LLVM IR
// text, generalizing the teacher's cmd/alas-compile (which decoded an
// already-built ALaS JSON tree) to this spec's four-phase pipeline:
// tokenize, collect signatures, parse bodies, lower to IR.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/alas/internal/compiler"
	"github.com/dshills/alas/internal/config"
	"github.com/dshills/alas/internal/source"
)

func main() {
	var input string
	var output string
	var features string
	var optimize bool
	var targetTriple string
	var cpuFeatures string
	flag.StringVar(&input, "file", "", "source file to compile (reads from stdin if not provided)")
	flag.StringVar(&output, "o", "", "output file (default: input file with .ll extension)")
	flag.StringVar(&features, "features", "", "comma-separated list of enabled @feature names")
	flag.BoolVar(&optimize, "optimize-debug-info", false, "request line-tables-only debug info instead of full debug info (recorded in the build config; the generated IR carries no debug info)")
	flag.StringVar(&targetTriple, "target", "", "target triple passed through to LLVM")
	flag.StringVar(&cpuFeatures, "cpu-features", "", "target CPU feature string (recorded in the build config; not written into the generated IR)")
	flag.Parse()

	data, path, err := readInput(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg := config.NewBuildConfig(splitFeatures(features), optimize, targetTriple, cpuFeatures)
	unit := &source.Unit{Path: path, Text: data}

	mod, err := compiler.CompileUnit(unit, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile failed: %v\n", err)
		os.Exit(1)
	}

	llvmModule, err := compiler.Lower(mod, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "code generation failed: %v\n", err)
		os.Exit(1)
	}

	if output == "" {
		if input == "" {
			output = "output.ll"
		} else {
			output = strings.TrimSuffix(input, filepath.Ext(input)) + ".ll"
		}
	}
	if err := os.WriteFile(output, []byte(llvmModule.String()), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "error writing LLVM IR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("LLVM IR written to %s\n", output)
}

func readInput(input string) ([]byte, string, error) {
	if input == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("error reading from stdin: %w", err)
		}
		return data, "<stdin>", nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, "", fmt.Errorf("error reading file %s: %w", input, err)
	}
	return data, input, nil
}

func splitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
