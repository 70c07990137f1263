// Command fencepack combines zip archives of text entries into one document
// and extracts fenced code blocks from a document into a zip archive.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/logicossoftware/go-fencepack"
	"github.com/logicossoftware/go-fencepack/internal/config"
	"github.com/logicossoftware/go-fencepack/internal/logging"
	"github.com/logicossoftware/go-fencepack/internal/output"
	"github.com/logicossoftware/go-fencepack/internal/server"
)

const (
	defaultCombineOut = "output.txt"
	defaultExtractOut = "code_blocks.zip"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "fencepack",
		Usage:   "Combine text archives into one document and extract fenced code blocks into archives",
		Version: fencepack.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Commands: []*cli.Command{
			combineCmd(),
			extractCmd(),
			serveCmd(),
		},
	}
}

// setup loads the config named by --config (or the defaults), applies the
// logging flags and installs the process logger.
func setup(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if p := cmd.String("config"); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	logger := logging.Init(stderr, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	return cfg, logger, nil
}

func combineCmd() *cli.Command {
	return &cli.Command{
		Name:      "combine",
		Usage:     "Concatenate the text entries of a zip archive into one document",
		ArgsUsage: "<archive.zip>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: defaultCombineOut, Usage: "output document; .zst, .lz4, .br or .zip compresses it, - writes to stdout"},
			&cli.StringFlag{Name: "policy", Usage: "strict or lenient"},
			&cli.StringFlag{Name: "suffix", Usage: "entry name suffix to select"},
			&cli.StringFlag{Name: "strip-suffix", Usage: "suffix removed from section names"},
			&cli.BoolFlag{Name: "preserve-dirs", Usage: "keep directory components in section names"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := cmd.Args().First()
			if in == "" {
				return fmt.Errorf("archive argument is required")
			}
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("policy") {
				p := cmd.String("policy")
				if _, err := config.ParsePolicy(p); err != nil {
					return fmt.Errorf("--policy: %w", err)
				}
				cfg.Combine.Policy = p
			}
			if cmd.IsSet("suffix") {
				cfg.Combine.Suffix = cmd.String("suffix")
			}
			if cmd.IsSet("strip-suffix") {
				cfg.Combine.StripSuffix = cmd.String("strip-suffix")
			}
			if cmd.IsSet("preserve-dirs") {
				cfg.Combine.PreserveDirs = cmd.Bool("preserve-dirs")
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return runCombine(cfg, in, cmd.String("out"))
		},
	}
}

// runCombine and runExtract print the conversion log themselves, so the
// library gets no logger of its own and events reach stderr once.
func runCombine(cfg *config.Config, in, out string) error {
	archive, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	res, err := fencepack.CombineArchive(archive, cfg.CombineOptions(nil)...)
	if err != nil {
		return err
	}
	printLog(res.Log)

	if out == "-" {
		_, err := io.WriteString(stdout, res.Document)
		return err
	}
	data, err := fencepack.CompressDocument(fencepack.CompressionForName(out), []byte(res.Document))
	if err != nil {
		return err
	}
	if err := output.WriteFileAtomic(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "combined %d sections into %s\n", len(res.Sections), out)
	return nil
}

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Pack the fenced code blocks of a document into a zip archive",
		ArgsUsage: "<document>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output archive (default " + defaultExtractOut + " unless --unpack is given)"},
			&cli.StringFlag{Name: "unpack", Usage: "also write the extracted files below this directory"},
			&cli.StringFlag{Name: "ext", Usage: "extension for blocks without a File header"},
			&cli.StringFlag{Name: "method", Usage: "archive entry method: deflate, zstd or store"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in := cmd.Args().First()
			if in == "" {
				return fmt.Errorf("document argument is required")
			}
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("ext") {
				cfg.Extract.BlockExtension = cmd.String("ext")
			}
			if cmd.IsSet("method") {
				cfg.Extract.Method = cmd.String("method")
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			out, dir := cmd.String("out"), cmd.String("unpack")
			if out == "" && dir == "" {
				out = defaultExtractOut
			}
			return runExtract(cfg, in, out, dir)
		},
	}
}

func runExtract(cfg *config.Config, in, out, dir string) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	raw, err = fencepack.DecompressDocument(fencepack.CompressionForName(in), raw, cfg.Limits.MaxDocumentUncompressed)
	if err != nil {
		return err
	}
	text, err := fencepack.DecodeDocument(raw)
	if err != nil {
		return err
	}
	ext, err := fencepack.ExtractFromDocument(text, cfg.ExtractOptions(nil)...)
	if err != nil {
		return err
	}
	printLog(ext.Log)
	if ext.Empty() {
		return nil
	}

	if out != "" {
		if err := output.WriteFileAtomic(out, ext.Archive, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(stdout, "packed %d files into %s\n", len(ext.Paths), out)
	}
	if dir != "" {
		written, err := output.Unpack(dir, ext.Files)
		if err != nil {
			return fmt.Errorf("unpack: %w", err)
		}
		for _, p := range written {
			fmt.Fprintf(stdout, "wrote %s\n", p)
		}
	}
	return nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversions over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.IsSet("addr") {
				cfg.Server.Addr = cmd.String("addr")
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return server.New(cfg, logger).ListenAndServe(ctx)
		},
	}
}

// printLog writes the conversion log to stderr, one event per line.
func printLog(l *fencepack.Log) {
	for _, line := range l.Lines() {
		fmt.Fprintln(stderr, line)
	}
}
