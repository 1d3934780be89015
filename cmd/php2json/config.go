package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/php2json"
)

// configEnv names the environment variable holding the config file path.
const configEnv = "PHP2JSON_CONFIG"

// config holds the settings of one run. A config file supplies defaults,
// explicitly set flags win.
type config struct {
	Decode      string   `yaml:"decode"       json:"decode"`
	Decompress  string   `yaml:"decompress"   json:"decompress"`
	Output      string   `yaml:"output"       json:"output"`
	Indent      string   `yaml:"indent"       json:"indent"`
	Color       string   `yaml:"color"        json:"color"`
	Exclude     []string `yaml:"exclude"      json:"exclude"`
	MaxDepth    int      `yaml:"max_depth"    json:"max_depth"`
	Compact     bool     `yaml:"compact"      json:"compact"`
	CharLengths bool     `yaml:"char_lengths" json:"char_lengths"`
	Check       bool     `yaml:"check"        json:"check"`
	Verbose     bool     `yaml:"verbose"      json:"verbose"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() config {
	return config{
		Decode:     "plain",
		Decompress: "none",
		Output:     "json",
		Indent:     "  ",
		Color:      "auto",
		MaxDepth:   php2json.DefaultMaxDepth,
	}
}

// addFlags registers the config flags on fs.
func (c *config) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Decode, "decode", c.Decode, "input encoding: plain or base64")
	fs.StringVar(&c.Decompress, "decompress", c.Decompress, "input compression: none, auto, gzip, zstd or lz4")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "output format: json, yaml or cbor")
	fs.StringVar(&c.Indent, "indent", c.Indent, "indentation for json and yaml output")
	fs.StringVar(&c.Color, "color", c.Color, "highlight output: auto, always or never")
	fs.StringSliceVar(&c.Exclude, "exclude", c.Exclude, "JSON Pointers skipped by --check (trailing * matches a prefix)")
	fs.IntVar(&c.MaxDepth, "max-depth", c.MaxDepth, "maximum nesting of arrays and objects")
	fs.BoolVarP(&c.Compact, "compact", "c", c.Compact, "compact json output (no indentation)")
	fs.BoolVar(&c.CharLengths, "char-lengths", c.CharLengths, "treat string sizes as character counts instead of bytes")
	fs.BoolVar(&c.Check, "check", c.Check, "report unresolved references, invalid UTF-8 and cycles; fail on errors")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "log decode steps to stderr")
}

// mergeFlags copies the flags explicitly set on fs from flags into c.
func (c *config) mergeFlags(fs *pflag.FlagSet, flags config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "decode":
			c.Decode = flags.Decode
		case "decompress":
			c.Decompress = flags.Decompress
		case "output":
			c.Output = flags.Output
		case "indent":
			c.Indent = flags.Indent
		case "color":
			c.Color = flags.Color
		case "exclude":
			c.Exclude = flags.Exclude
		case "max-depth":
			c.MaxDepth = flags.MaxDepth
		case "compact":
			c.Compact = flags.Compact
		case "char-lengths":
			c.CharLengths = flags.CharLengths
		case "check":
			c.Check = flags.Check
		case "verbose":
			c.Verbose = flags.Verbose
		}
	})
}

// configPath resolves the config file from the flag value or the environment.
// An empty result means no config file.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	return os.Getenv(configEnv)
}

// loadConfig reads a config file over the defaults. Files ending in .yaml
// or .yml are YAML; anything else is JSON with comments and trailing commas.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
