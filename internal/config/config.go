package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/logicossoftware/go-fencepack"
)

type Combine struct {
	Suffix       string `yaml:"suffix"`
	StripSuffix  string `yaml:"strip-suffix"`
	Policy       string `yaml:"policy"`
	PreserveDirs bool   `yaml:"preserve-dirs"`
}

type Extract struct {
	BlockExtension string `yaml:"block-extension"`
	Method         string `yaml:"method"`
}

type Limits struct {
	MaxArchiveSize          uint64 `yaml:"max-archive-size"`
	MaxEntries              int    `yaml:"max-entries"`
	MaxEntrySize            uint64 `yaml:"max-entry-size"`
	MaxTotalUncompressed    uint64 `yaml:"max-total-uncompressed"`
	MaxDocumentSize         uint64 `yaml:"max-document-size"`
	MaxBlocks               int    `yaml:"max-blocks"`
	MaxDocumentUncompressed uint64 `yaml:"max-document-uncompressed"`
}

type Server struct {
	Addr        string `yaml:"addr"`
	MaxBodySize int64  `yaml:"max-body-size"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Combine Combine `yaml:"combine"`
	Extract Extract `yaml:"extract"`
	Limits  Limits  `yaml:"limits"`
	Server  Server  `yaml:"server"`
	Log     Log     `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML config file and returns a validated Config.
// Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CombineOptions translates the config into library options.
// Validate must have succeeded.
func (c *Config) CombineOptions(logger *slog.Logger) []fencepack.CombineOption {
	policy, _ := parsePolicy(c.Combine.Policy)
	return []fencepack.CombineOption{
		fencepack.WithSuffix(c.Combine.Suffix),
		fencepack.WithStripSuffix(c.Combine.StripSuffix),
		fencepack.WithPolicy(policy),
		fencepack.WithPreserveDirs(c.Combine.PreserveDirs),
		fencepack.WithCombineLimits(c.Limits.library()),
		fencepack.WithCombineLogger(logger),
	}
}

// ExtractOptions translates the config into library options.
// Validate must have succeeded.
func (c *Config) ExtractOptions(logger *slog.Logger) []fencepack.ExtractOption {
	method, _ := fencepack.ParseCompression(c.Extract.Method)
	return []fencepack.ExtractOption{
		fencepack.WithBlockExtension(c.Extract.BlockExtension),
		fencepack.WithArchiveCompression(method),
		fencepack.WithExtractLimits(c.Limits.library()),
		fencepack.WithExtractLogger(logger),
	}
}

func (l Limits) library() fencepack.Limits {
	return fencepack.Limits{
		MaxArchiveSize:          l.MaxArchiveSize,
		MaxEntries:              l.MaxEntries,
		MaxEntrySize:            l.MaxEntrySize,
		MaxTotalUncompressed:    l.MaxTotalUncompressed,
		MaxDocumentSize:         l.MaxDocumentSize,
		MaxBlocks:               l.MaxBlocks,
		MaxDocumentUncompressed: l.MaxDocumentUncompressed,
	}
}
