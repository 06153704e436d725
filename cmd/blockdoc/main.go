package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-blockdoc"
	documentscmd "github.com/goliatone/go-blockdoc/internal/commands/documents"
	"github.com/goliatone/go-blockdoc/internal/di"
	"github.com/goliatone/go-blockdoc/internal/identity"
)

var moduleBuilder = blockdoc.New

const usage = `usage: blockdoc <command> [flags]

commands:
  import     convert markdown (-in file.md or -dir content) to block JSON
  normalize  renumber, dedupe ids and validate a block JSON document
  render     render a block JSON document to HTML`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("blockdoc: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "import":
		return runImport(ctx, args[1:], stdout)
	case "normalize":
		return runNormalize(ctx, args[1:], stdout)
	case "render":
		return runRender(ctx, args[1:], stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

type commonFlags struct {
	logProvider *string
	logLevel    *string
	lenient     *bool
}

func registerCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		logProvider: fs.String("log", "noop", "Logging provider (noop or gologger)"),
		logLevel:    fs.String("log-level", "info", "Log level when logging is enabled"),
		lenient:     fs.Bool("lenient", false, "Skip schema validation of block payloads"),
	}
}

func (c commonFlags) build(saver *writerSaver, opts ...di.Option) (*blockdoc.Module, error) {
	cfg := blockdoc.DefaultConfig()
	cfg.Logging.Provider = *c.logProvider
	cfg.Logging.Level = *c.logLevel
	cfg.Validation.StrictSchemas = !*c.lenient
	module, err := moduleBuilder(cfg, append([]di.Option{di.WithDocumentSaver(saver)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	return module, nil
}

func runImport(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("blockdoc-import", flag.ContinueOnError)
	common := registerCommon(fs)
	in := fs.String("in", "", "Markdown file to import")
	dir := fs.String("dir", "", "Directory of markdown files to import")
	pattern := fs.String("pattern", "*.md", "Base name pattern used with -dir")
	out := fs.String("out", "", "Directory receiving <key>.json files (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*in == "") == (*dir == "") {
		return errors.New("import: exactly one of -in or -dir is required")
	}

	saver := &writerSaver{w: stdout, dir: *out}
	module, err := common.build(saver)
	if err != nil {
		return err
	}

	if *in != "" {
		source, err := os.ReadFile(*in)
		if err != nil {
			return err
		}
		handlers, err := module.Commands(nil, nil, nil)
		if err != nil {
			return err
		}
		return handlers.Import.Execute(ctx, documentscmd.ImportMarkdownCommand{Path: *in, Source: source})
	}

	handlers, err := module.Commands(nil, os.DirFS(*dir), nil)
	if err != nil {
		return err
	}
	return handlers.ImportDirectory.Execute(ctx, documentscmd.ImportMarkdownDirectoryCommand{Directory: ".", Pattern: *pattern})
}

func runNormalize(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("blockdoc-normalize", flag.ContinueOnError)
	common := registerCommon(fs)
	in := fs.String("in", "", "Block JSON document to normalize")
	key := fs.String("key", "", "Document key (defaults to the file name)")
	out := fs.String("out", "", "Directory receiving <key>.json (default stdout)")
	stable := fs.Bool("stable-ids", true, "Derive replacement ids from the document key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	payload, docKey, err := readDocument(*in, *key)
	if err != nil {
		return err
	}

	var opts []di.Option
	if *stable {
		opts = append(opts, di.WithIDGenerator(identity.Sequence(docKey)))
	}
	module, err := common.build(&writerSaver{w: stdout, dir: *out}, opts...)
	if err != nil {
		return err
	}
	handlers, err := module.Commands(nil, nil, nil)
	if err != nil {
		return err
	}
	return handlers.Normalize.Execute(ctx, documentscmd.NormalizeDocumentCommand{Key: docKey, Document: payload})
}

func runRender(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("blockdoc-render", flag.ContinueOnError)
	common := registerCommon(fs)
	in := fs.String("in", "", "Block JSON document to render")
	edit := fs.Bool("edit", false, "Render in edit mode (hidden blocks included)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	payload, docKey, err := readDocument(*in, "")
	if err != nil {
		return err
	}

	module, err := common.build(&writerSaver{w: stdout})
	if err != nil {
		return err
	}
	output := documentscmd.RenderOutputFunc(func(_ context.Context, _ string, html string) error {
		_, err := fmt.Fprintln(stdout, html)
		return err
	})
	handlers, err := module.Commands(nil, nil, output)
	if err != nil {
		return err
	}
	mode := string(blockdoc.RenderPublic)
	if *edit {
		mode = string(blockdoc.RenderEdit)
	}
	return handlers.Render.Execute(ctx, documentscmd.RenderDocumentCommand{Key: docKey, Document: payload, Mode: mode})
}

func readDocument(path, key string) ([]byte, string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, "", errors.New("-in is required")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if key == "" {
		base := filepath.Base(path)
		key = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return payload, key, nil
}

// writerSaver writes saved documents to dir as <key>.json, or to w when dir
// is empty.
type writerSaver struct {
	w   io.Writer
	dir string
}

func (s *writerSaver) SaveDocument(_ context.Context, key string, payload []byte) error {
	if s.dir == "" {
		_, err := fmt.Fprintf(s.w, "%s\n", payload)
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, key+".json"), payload, 0o644)
}
