// Command oxy-contract exports and enforces the shader binding contract at build time.
//
//	oxy-contract header               print the WGSL bindings header and uniform structs
//	oxy-contract layout               print the host byte layout of every uniform struct
//	oxy-contract verify [-config f] [paths...]
//	                                  check WGSL files against the contract, exit 1 on violations
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Carmen-Shannon/oxy-ar/engine/contract"
	"github.com/Carmen-Shannon/oxy-ar/engine/renderer/shader"
	"go.uber.org/zap"
)

const (
	exitOK        = 0
	exitViolation = 1
	exitUsage     = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "header":
		fmt.Fprint(stdout, contract.WGSLHeader())
		return exitOK
	case "layout":
		printLayouts(stdout)
		return exitOK
	case "verify":
		return runVerify(args[1:], stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: oxy-contract <header|layout|verify> [flags] [paths...]")
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	workers := fs.Int("workers", 0, "Concurrent verifications (overrides config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitUsage
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	cfg.Shaders = append(cfg.Shaders, fs.Args()...)
	if len(cfg.Shaders) == 0 {
		fmt.Fprintln(stderr, "no shader paths given")
		return exitUsage
	}

	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to build logger: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()
	shader.SetLogger(logger.Named("shader"))
	defer shader.SetLogger(nil)

	paths, err := expandShaderPaths(cfg.Shaders)
	if err != nil {
		fmt.Fprintf(stderr, "failed to resolve shader paths: %v\n", err)
		return exitUsage
	}

	results := verifyFiles(paths, cfg.Workers, logger)
	failed := reportResults(results, stderr)
	logger.Info("verified shaders",
		zap.Int("files", len(results)),
		zap.Int("failed", failed),
		zap.Int("workers", cfg.Workers))

	if failed > 0 {
		fmt.Fprintf(stdout, "%d of %d shader(s) violate the binding contract\n", failed, len(results))
		return exitViolation
	}
	fmt.Fprintf(stdout, "%d shader(s) match the binding contract\n", len(results))
	return exitOK
}

func printLayouts(w io.Writer) {
	layouts := contract.StructLayouts()
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		l := layouts[name]
		fmt.Fprintf(w, "struct %s size=%d align=%d\n", l.Name, l.Size, l.Align)
		for _, f := range l.Fields {
			fmt.Fprintf(w, "  %4d %3d %-28s %s\n", f.Offset, f.Size, f.Name, f.Type)
		}
	}
}
