package fencepack

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

var discardLogger = slog.New(slog.DiscardHandler)

// CombineArchive concatenates the matching, valid text entries of a zip
// archive into one consolidated document.
//
// Sections follow archive order. Entries that fail to decode, or that fail the
// line-structure check under PolicyStrict, are left out and recorded in the
// returned log; the call still succeeds.
//
// By default, CombineArchive will:
//   - Select entries ending in DefaultSuffix
//   - Strip DefaultStripSuffix from the base name to form the section name
//   - Apply PolicyStrict
//
// CombineArchive returns ErrArchiveOpen if archive is not a zip archive and
// ErrLimitExceeded if a container-level limit is exceeded. No partial result
// is returned with an error.
func CombineArchive(archive []byte, opts ...CombineOption) (*Combined, error) {
	cfg := combineConfig{
		limits:      defaultLimits(),
		suffix:      DefaultSuffix,
		stripSuffix: DefaultStripSuffix,
		policy:      PolicyStrict,
		logger:      discardLogger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if cfg.logger == nil {
		cfg.logger = discardLogger
	}

	log := NewLog(cfg.logger)
	entries, err := ReadEntries(archive, cfg.suffix, cfg.limits, log)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && log.Len() == 0 {
		log.Warn("", ErrNoContent, fmt.Sprintf("no entries ending in %q found", cfg.suffix))
	}

	sections := make([]Section, 0, len(entries))
	for _, e := range entries {
		vt, ok := ValidateEntry(e, cfg.policy, cfg.stripSuffix, cfg.preserveDirs, log)
		if !ok {
			continue
		}
		sections = append(sections, Section{Name: vt.DisplayName, Body: vt.Text})
	}
	cfg.logger.Debug("archive combined",
		"entries", len(entries),
		"sections", len(sections),
		"policy", cfg.policy.String())

	return &Combined{
		Document: Assemble(sections),
		Sections: sections,
		Log:      log,
	}, nil
}

// ExtractFromDocument splits a document into its fenced blocks and packs them
// into a new zip archive.
//
// A document without blocks is not an error: the result is Empty, its Archive
// is nil and the log records ErrNoContent. Blocks whose paths are unsafe are
// skipped and logged. Repeated paths resolve last-write-wins.
//
// By default, ExtractFromDocument will:
//   - Name plain blocks code_block_<N>.py
//   - Deflate archive entries
//
// ExtractFromDocument returns ErrLimitExceeded if text exceeds
// MaxDocumentSize, ErrUnsupportedCompression for an invalid entry method and
// ErrIO if the archive cannot be written.
func ExtractFromDocument(text string, opts ...ExtractOption) (*Extraction, error) {
	cfg := extractConfig{
		limits:         defaultLimits(),
		blockExtension: DefaultBlockExtension,
		compression:    CompZIP,
		logger:         discardLogger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if cfg.logger == nil {
		cfg.logger = discardLogger
	}
	if _, err := zipMethod(cfg.compression); err != nil {
		return nil, err
	}
	if uint64(len(text)) > cfg.limits.MaxDocumentSize {
		return nil, fmt.Errorf("%w: document size %d exceeds %d", ErrLimitExceeded, len(text), cfg.limits.MaxDocumentSize)
	}

	log := NewLog(cfg.logger)
	s := scanner{max: cfg.limits.MaxBlocks}
	blocks := s.run(text)
	if s.truncated {
		log.Warn("", ErrLimitExceeded, fmt.Sprintf("only the first %d blocks were extracted", cfg.limits.MaxBlocks))
	}
	for _, b := range blocks {
		if !b.Closed {
			log.Info(b.Path, fmt.Sprintf("block %d at line %d has no closing fence; taken to end of input", b.Index, b.Line))
		}
	}

	ext := &Extraction{Log: log, Paths: []string{}}
	if len(blocks) == 0 {
		log.Warn("", ErrNoContent, "no code blocks found in document")
		return ext, nil
	}

	archive, kept, err := BuildArchive(filesFromBlocks(blocks, cfg.blockExtension), cfg.compression, log)
	if err != nil {
		return nil, err
	}
	if len(kept) == 0 {
		log.Warn("", ErrNoContent, "no extractable files left after path validation")
		return ext, nil
	}
	ext.Archive = archive
	ext.Files = kept
	ext.Paths = Paths(kept)
	log.Info("", fmt.Sprintf("extracted %d files from %d blocks", len(kept), len(blocks)))
	return ext, nil
}

// DecodeDocument converts raw document bytes to text, dropping a leading
// UTF-8 byte order mark. It fails with ErrDecode on invalid UTF-8.
func DecodeDocument(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: document is not valid UTF-8", ErrDecode)
	}
	return strings.TrimPrefix(string(b), "\ufeff"), nil
}
