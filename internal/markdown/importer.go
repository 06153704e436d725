package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/identity"
	"github.com/goliatone/go-blockdoc/internal/logging"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

var ErrKeyMissing = errors.New("markdown importer: document key could not be derived")

// Imported is one markdown file converted to a block document.
type Imported struct {
	Key         string
	Path        string
	FrontMatter FrontMatter
	Blocks      blocks.Document
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithParser swaps the goldmark parser.
func WithParser(p *GoldmarkParser) ImporterOption {
	return func(i *Importer) {
		if p != nil {
			i.parser = p
		}
	}
}

// WithLogger sets the importer logger.
func WithLogger(logger interfaces.Logger) ImporterOption {
	return func(i *Importer) {
		i.logger = logging.Ensure(logger)
	}
}

// Importer turns markdown into blocks. The frontmatter title becomes a level
// one heading, headings become heading blocks, a paragraph holding a single
// image becomes an image block, and everything between those is kept as
// markdown in text blocks. Block ids derive from the document key, so
// importing the same file twice yields the same ids.
type Importer struct {
	parser *GoldmarkParser
	logger interfaces.Logger
}

// NewImporter returns an importer using the default goldmark extensions.
func NewImporter(opts ...ImporterOption) *Importer {
	i := &Importer{
		parser: NewGoldmarkParser(ParseOptions{}),
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Import converts source. key names the document when the frontmatter has no
// slug; a file path works, its directory and extension are dropped.
func (i *Importer) Import(key string, source []byte) (*Imported, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}
	docKey, err := documentKey(meta.Slug, key)
	if err != nil {
		return nil, err
	}

	b := &docBuilder{key: docKey}
	if title := strings.TrimSpace(meta.Title); title != "" {
		b.add(blocks.TypeHeading, &blocks.HeadingData{Text: title, Level: 1})
	}

	root := i.parser.Parser().Parse(text.NewReader(body))
	cursor := 0
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		start, end, data, ok := structured(node, body)
		if !ok {
			continue
		}
		b.addText(body[cursor:start])
		b.add(data.Type(), data)
		cursor = end
	}
	b.addText(body[cursor:])

	i.logger.Debug("markdown.import.completed", "document", docKey, "blocks", len(b.doc))
	return &Imported{
		Key:         docKey,
		FrontMatter: meta,
		Blocks:      blocks.Renormalize(b.doc),
	}, nil
}

// ImportFS imports every file under root matching pattern (default "*.md"),
// sorted by path.
func (i *Importer) ImportFS(ctx context.Context, fsys fs.FS, root, pattern string) ([]*Imported, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = "*.md"
	}
	if root == "" {
		root = "."
	}

	var out []*Imported
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if match, err := path.Match(pattern, path.Base(p)); err != nil || !match {
			return err
		}
		source, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("markdown import read %s: %w", p, err)
		}
		imported, err := i.Import(p, source)
		if err != nil {
			return fmt.Errorf("markdown import %s: %w", p, err)
		}
		imported.Path = p
		out = append(out, imported)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out, nil
}

type docBuilder struct {
	key string
	doc blocks.Document
}

func (b *docBuilder) add(t blocks.Type, data blocks.Data) {
	b.doc = append(b.doc, blocks.Block{
		ID:        identity.BlockID(b.key, len(b.doc)),
		Type:      t,
		IsVisible: true,
		Data:      data,
	})
}

func (b *docBuilder) addText(raw []byte) {
	content := strings.Trim(string(raw), "\r\n")
	if strings.TrimSpace(content) == "" {
		return
	}
	b.add(blocks.TypeText, &blocks.TextData{Content: content})
}

// structured reports whether node maps to a dedicated block and, if so, the
// byte range of the source lines it occupies.
func structured(node ast.Node, source []byte) (int, int, blocks.Data, bool) {
	switch n := node.(type) {
	case *ast.Heading:
		lines := n.Lines()
		if lines.Len() == 0 {
			return 0, 0, nil, false
		}
		start, end := lineRange(source, lines.At(0).Start, lines.At(lines.Len()-1).Stop)
		if !bytes.HasPrefix(bytes.TrimLeft(source[start:end], " \t"), []byte("#")) {
			// setext heading: the underline sits on the following line
			_, end = lineRange(source, end, end)
		}
		return start, end, &blocks.HeadingData{Text: plainText(n, source), Level: n.Level}, true

	case *ast.Paragraph:
		image, ok := n.FirstChild().(*ast.Image)
		if !ok || n.ChildCount() != 1 || n.Lines().Len() == 0 {
			return 0, 0, nil, false
		}
		lines := n.Lines()
		start, end := lineRange(source, lines.At(0).Start, lines.At(lines.Len()-1).Stop)
		return start, end, &blocks.ImageData{
			URL:     string(image.Destination),
			Alt:     plainText(image, source),
			Caption: string(image.Title),
		}, true
	}
	return 0, 0, nil, false
}

// lineRange widens [start, stop) to whole lines, including the trailing
// newline.
func lineRange(source []byte, start, stop int) (int, int) {
	if start > len(source) {
		start = len(source)
	}
	if stop > len(source) {
		stop = len(source)
	}
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	if idx := bytes.IndexByte(source[stop:], '\n'); idx >= 0 {
		stop += idx + 1
	} else {
		stop = len(source)
	}
	return start, stop
}

func plainText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func documentKey(frontmatterSlug, fallback string) (string, error) {
	candidate := strings.TrimSpace(frontmatterSlug)
	if candidate == "" {
		base := path.Base(strings.ReplaceAll(strings.TrimSpace(fallback), "\\", "/"))
		candidate = strings.TrimSuffix(base, path.Ext(base))
	}
	if candidate == "" || candidate == "." || candidate == "/" {
		return "", ErrKeyMissing
	}
	normalized, err := slug.Normalize(candidate)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("%w: %q", ErrKeyMissing, candidate)
	}
	return normalized, nil
}
