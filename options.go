package fencepack

import "log/slog"

type combineConfig struct {
	limits       Limits
	suffix       string
	stripSuffix  string
	policy       Policy
	preserveDirs bool
	logger       *slog.Logger
}

type CombineOption func(*combineConfig)

// WithSuffix sets the name suffix an entry must carry to be combined.
// An empty suffix selects every file entry.
func WithSuffix(s string) CombineOption {
	return func(c *combineConfig) { c.suffix = s }
}

// WithStripSuffix sets the suffix removed from an entry name to form its display name.
func WithStripSuffix(s string) CombineOption {
	return func(c *combineConfig) { c.stripSuffix = s }
}

func WithPolicy(p Policy) CombineOption {
	return func(c *combineConfig) { c.policy = p }
}

// WithPreserveDirs keeps the directory part of entry names in display names.
// By default only the base name is used.
func WithPreserveDirs(v bool) CombineOption {
	return func(c *combineConfig) { c.preserveDirs = v }
}

func WithCombineLimits(l Limits) CombineOption {
	return func(c *combineConfig) { c.limits = l }
}

// WithCombineLogger mirrors every log event to logger.
func WithCombineLogger(l *slog.Logger) CombineOption {
	return func(c *combineConfig) { c.logger = l }
}

type extractConfig struct {
	limits         Limits
	blockExtension string
	compression    Compression
	logger         *slog.Logger
}

type ExtractOption func(*extractConfig)

// WithBlockExtension sets the extension of synthesized code_block_<N> names.
func WithBlockExtension(ext string) ExtractOption {
	return func(c *extractConfig) { c.blockExtension = ext }
}

// WithArchiveCompression selects the entry method of the output archive.
// Only CompNone, CompZIP (Deflate) and CompZSTD are valid zip methods.
func WithArchiveCompression(comp Compression) ExtractOption {
	return func(c *extractConfig) { c.compression = comp }
}

func WithExtractLimits(l Limits) ExtractOption {
	return func(c *extractConfig) { c.limits = l }
}

// WithExtractLogger mirrors every log event to logger.
func WithExtractLogger(l *slog.Logger) ExtractOption {
	return func(c *extractConfig) { c.logger = l }
}
