package config

import (
	"fmt"
	"strings"

	"github.com/logicossoftware/go-fencepack"
)

const (
	defaultAddr        = "127.0.0.1:8080"
	defaultMaxBodySize = 64 << 20
)

func applyDefaults(cfg *Config) {
	cfg.Combine.Suffix = fencepack.DefaultSuffix
	cfg.Combine.StripSuffix = fencepack.DefaultStripSuffix
	cfg.Combine.Policy = fencepack.PolicyStrict.String()
	cfg.Extract.BlockExtension = fencepack.DefaultBlockExtension
	cfg.Extract.Method = "deflate"
	cfg.Server.Addr = defaultAddr
	cfg.Server.MaxBodySize = defaultMaxBodySize
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
}

func parsePolicy(s string) (fencepack.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return fencepack.PolicyStrict, nil
	case "lenient":
		return fencepack.PolicyLenient, nil
	}
	return 0, fmt.Errorf("config: combine.policy: %q must be 'strict' or 'lenient'", s)
}

// ParsePolicy parses a --policy flag value ("strict" or "lenient").
func ParsePolicy(s string) (fencepack.Policy, error) {
	return parsePolicy(s)
}

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	if _, err := parsePolicy(cfg.Combine.Policy); err != nil {
		return err
	}
	if strings.ContainsAny(cfg.Combine.Suffix, "/\\") {
		return fmt.Errorf("config: combine.suffix: %q must not contain path separators", cfg.Combine.Suffix)
	}
	if strings.ContainsAny(cfg.Extract.BlockExtension, "/\\") {
		return fmt.Errorf("config: extract.block-extension: %q must not contain path separators", cfg.Extract.BlockExtension)
	}
	method, err := fencepack.ParseCompression(cfg.Extract.Method)
	if err != nil {
		return fmt.Errorf("config: extract.method: %w", err)
	}
	switch method {
	case fencepack.CompNone, fencepack.CompZIP, fencepack.CompZSTD:
	default:
		return fmt.Errorf("config: extract.method: %q is not a zip entry method (use store, deflate or zstd)", cfg.Extract.Method)
	}
	if cfg.Limits.MaxEntries < 0 || cfg.Limits.MaxBlocks < 0 {
		return fmt.Errorf("config: limits must not be negative")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if cfg.Server.MaxBodySize <= 0 {
		return fmt.Errorf("config: server.max-body-size must be positive")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format: %q must be 'text' or 'json'", cfg.Log.Format)
	}
	return nil
}
