// php2json converts data produced by PHP's serialize() into JSON.
//
// Usage:
//
//	echo 'O:7:"MyClass":2:{s:3:"foo";s:3:"bar";s:3:"baz";i:123;}' | php2json
//	php2json --decode=base64 session.b64
//	php2json -o yaml --decompress=auto cache.bin
//
// Input is read from the file argument, or from stdin when none is given.
// Defaults may come from a YAML or JSONC config file named by --config or
// PHP2JSON_CONFIG; explicitly set flags override it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/woozymasta/php2json"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintf(os.Stderr, "error: %s\n", msg)
			}
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError carries a specific exit code.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// ExitCode returns the process exit code.
func (e *exitError) ExitCode() int { return e.code }

// usageErrorf reports a command-line mistake (exit code 2).
func usageErrorf(format string, args ...any) error {
	return &exitError{err: fmt.Errorf(format, args...), code: 2}
}

// run executes one invocation with explicit streams.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := defaultConfig()
	var configFile string

	flagSet := pflag.NewFlagSet("php2json", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flags.addFlags(flagSet)
	flagSet.StringVar(&configFile, "config", "", "YAML or JSONC file with default settings (env "+configEnv+")")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	showHelp := flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return usageErrorf("%v", err)
	}
	if *showHelp {
		printHelp(stdout, flagSet)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "php2json %s\n", version)
		return nil
	}

	rest := flagSet.Args()
	if len(rest) > 1 {
		return usageErrorf("unexpected argument: %s", rest[1])
	}

	cfg, err := loadConfig(configPath(configFile))
	if err != nil {
		return err
	}
	cfg.mergeFlags(flagSet, flags)

	dopt, fopt, err := buildOptions(cfg)
	if err != nil {
		return usageErrorf("%v", err)
	}
	logger := newLogger(stderr, cfg.Verbose)
	dopt.Logger = logger

	data, source, err := readInput(rest, stdin)
	if err != nil {
		return err
	}
	logger.Debug("read input", "source", source, "size", len(data))

	value, err := php2json.Unserialize(data, dopt)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	if cfg.Check {
		issues := php2json.Validate(value, &php2json.ValidateOptions{ExcludePaths: cfg.Exclude})
		for _, issue := range issues {
			logger.Warn(issue.Message, "level", issue.Level, "code", issue.Code, "path", issue.Path)
		}
		if php2json.HasErrors(issues) {
			return &exitError{err: fmt.Errorf("%s: %d validation issue(s)", source, len(issues)), code: 1}
		}
	}

	out, err := php2json.Format(value, fopt)
	if err != nil {
		return err
	}

	return writeOutput(stdout, out, fopt.Format, cfg.Color)
}

// buildOptions converts the merged settings into library options.
func buildOptions(cfg config) (*php2json.DecodeOptions, *php2json.FormatOptions, error) {
	enc, err := php2json.ParseEncoding(cfg.Decode)
	if err != nil {
		return nil, nil, err
	}
	comp, err := php2json.ParseCompression(cfg.Decompress)
	if err != nil {
		return nil, nil, err
	}
	format, err := php2json.ParseOutputFormat(cfg.Output)
	if err != nil {
		return nil, nil, err
	}
	if _, err := parseColorMode(cfg.Color); err != nil {
		return nil, nil, err
	}

	dopt := &php2json.DecodeOptions{
		Encoding:         enc,
		Compression:      comp,
		CharacterLengths: cfg.CharLengths,
		MaxDepth:         cfg.MaxDepth,
	}
	fopt := &php2json.FormatOptions{
		Format:  format,
		Indent:  cfg.Indent,
		Compact: cfg.Compact,
	}

	return dopt, fopt, nil
}

// readInput reads the file named in args, or stdin when args is empty or "-".
func readInput(args []string, stdin io.Reader) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "stdin", fmt.Errorf("read stdin: %w", err)
		}
		return data, "stdin", nil
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read %s: %w", path, err)
	}

	return data, path, nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Converts PHP serialize() data into JSON, YAML or CBOR.

Usage:
    php2json [flags] [file]

    > echo 'O:7:"MyClass":2:{s:3:"foo";s:3:"bar";s:3:"baz";i:123;}' | php2json
    > php2json --decode=base64 < session.b64

Objects carry their class name in a "_type" field. Each object is written
once; later references to it are omitted from the output.

Flags:
%s`, flagSet.FlagUsages())
}
