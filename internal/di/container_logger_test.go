package di_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/internal/di"
	"github.com/goliatone/go-blockdoc/internal/render"
	"github.com/goliatone/go-blockdoc/internal/runtimeconfig"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

func TestContainerLogsConfiguration(t *testing.T) {
	rec := newRecordingProvider()

	if _, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithLoggerProvider(rec)); err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}

	entry := rec.find("container.configured")
	if entry == nil {
		t.Fatalf("expected container.configured log entry, got %#v", rec.entries)
	}
	if got := entry.fields["module"]; got != "blockdoc" {
		t.Fatalf("expected module field to be blockdoc, got %v", got)
	}
	if got := entry.fields["variants"]; got != len(blocks.AllTypes()) {
		t.Fatalf("expected %d variants, got %v", len(blocks.AllTypes()), got)
	}
}

func TestContainerRendersTextThroughGoldmark(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	doc := blocks.Document{
		{ID: "t", Type: blocks.TypeText, IsVisible: true, Data: &blocks.TextData{Content: "hello **there**"}},
	}
	out, err := container.Renderer().Render(context.Background(), doc, render.ModePublic)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<strong>there</strong>") {
		t.Fatalf("expected goldmark output, got %q", out)
	}

	cfg.Render.MarkdownText = false
	plain, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	out, err = plain.Renderer().Render(context.Background(), doc, render.ModePublic)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "hello **there**") {
		t.Fatalf("expected escaped plain text, got %q", out)
	}
}

func TestContainerOptionsOverrideDefaults(t *testing.T) {
	next := 0
	ids := func() string {
		next++
		return "id-" + string(rune('0'+next))
	}
	renderer := render.New()

	container, err := di.NewContainer(runtimeconfig.DefaultConfig(),
		di.WithIDGenerator(ids),
		di.WithRenderer(renderer),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.Renderer() != renderer {
		t.Fatalf("expected renderer override")
	}
	block, err := container.Factory().Create(blocks.TypeText, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(block.ID, "id-") {
		t.Fatalf("expected id from custom generator, got %q", block.ID)
	}
	if container.Uploader() != nil || container.DocumentSaver() != nil {
		t.Fatalf("expected no collaborators by default")
	}
}

type recordingProvider struct {
	entries []recordedEntry
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{entries: []recordedEntry{}}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{
		provider: p,
		fields: map[string]any{
			"logger": name,
		},
	}
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

var _ interfaces.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("TRACE", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("FATAL", msg, args...) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := cloneFields(l.fields)
	for key, value := range fields {
		merged[key] = value
	}
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return l
}

func (l *recordingLogger) log(level, msg string, args ...any) {
	fields := cloneFields(l.fields)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
		}
	}
	l.provider.entries = append(l.provider.entries, recordedEntry{level: level, msg: msg, fields: fields})
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}
