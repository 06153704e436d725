package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-blockdoc/internal/blocks"
	"github.com/goliatone/go-blockdoc/pkg/interfaces"
)

// Converter turns markdown into HTML. markdown.GoldmarkParser satisfies it.
type Converter interface {
	ToHTML(markdown string) (string, error)
}

// HTMLOptions configures the reference HTML renderer.
type HTMLOptions struct {
	// Markdown renders text blocks. Nil escapes the content and splits it
	// into paragraphs on blank lines.
	Markdown       Converter
	HeadingAnchors bool
	Logger         interfaces.Logger
}

// NewHTMLRenderer returns a renderer with an HTML func for every built-in
// variant.
func NewHTMLRenderer(opts HTMLOptions) (*Renderer, error) {
	h := &htmlBlocks{markdown: opts.Markdown, anchors: opts.HeadingAnchors}
	tmpl, err := template.New("blocks").Funcs(template.FuncMap{
		"money": formatMoney,
		"label": func(value string) string { return strings.ReplaceAll(value, "_", " ") },
	}).Parse(blockTemplates)
	if err != nil {
		return nil, fmt.Errorf("render: parse block templates: %w", err)
	}
	h.tmpl = tmpl

	r := New(WithLogger(opts.Logger))
	for _, t := range blocks.AllTypes() {
		var fn Func
		switch t {
		case blocks.TypeText:
			fn = h.text
		case blocks.TypeHeading:
			fn = h.heading
		default:
			if tmpl.Lookup(string(t)) == nil {
				return nil, fmt.Errorf("render: no template for %s", t)
			}
			fn = h.templated
		}
		if err := r.Register(t, fn); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type htmlBlocks struct {
	tmpl     *template.Template
	markdown Converter
	anchors  bool
}

func (h *htmlBlocks) text(_ context.Context, block blocks.Block, mode Mode) (string, error) {
	data, ok := block.Data.(*blocks.TextData)
	if !ok {
		return "", payloadMismatch(block)
	}
	var body string
	if h.markdown != nil {
		converted, err := h.markdown.ToHTML(data.Content)
		if err != nil {
			return "", err
		}
		body = strings.TrimSpace(converted)
	} else {
		body = paragraphs(data.Content)
	}
	return wrap(block, mode, body), nil
}

func (h *htmlBlocks) heading(_ context.Context, block blocks.Block, mode Mode) (string, error) {
	data, ok := block.Data.(*blocks.HeadingData)
	if !ok {
		return "", payloadMismatch(block)
	}
	level := min(max(data.Level, 1), 6)
	attrs := ""
	if h.anchors {
		if anchor, err := slug.Normalize(data.Text); err == nil && anchor != "" {
			attrs = ` id="` + html.EscapeString(anchor) + `"`
		}
	}
	body := fmt.Sprintf("<h%d%s>%s</h%d>", level, attrs, html.EscapeString(data.Text), level)
	return wrap(block, mode, body), nil
}

func (h *htmlBlocks) templated(_ context.Context, block blocks.Block, mode Mode) (string, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, string(block.Type), block.Data); err != nil {
		return "", err
	}
	return wrap(block, mode, strings.TrimSpace(buf.String())), nil
}

func wrap(block blocks.Block, mode Mode, body string) string {
	hidden := ""
	if mode == ModeEdit && !block.IsVisible {
		hidden = ` data-hidden="true"`
	}
	return fmt.Sprintf(`<section class="block block-%s" data-block-id="%s"%s>%s</section>`,
		html.EscapeString(string(block.Type)), html.EscapeString(block.ID), hidden, body)
}

func paragraphs(content string) string {
	var out []string
	for _, chunk := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(html.EscapeString(chunk), "\n", "<br>")+"</p>")
	}
	return strings.Join(out, "")
}

func formatMoney(amount float64, currency string) string {
	value := strconv.FormatFloat(amount, 'f', 2, 64)
	if currency = strings.TrimSpace(currency); currency != "" {
		return value + " " + currency
	}
	return value
}

func payloadMismatch(block blocks.Block) error {
	return fmt.Errorf("%w: block %s tagged %s carries %T", blocks.ErrInvalidPayload, block.ID, block.Type, block.Data)
}

const blockTemplates = `
{{define "itinerary"}}
{{with .Title}}<h3>{{.}}</h3>{{end}}
<ol class="itinerary">{{range .Days}}
<li data-day="{{.DayNumber}}"><h4>Day {{.DayNumber}}{{with .Title}}: {{.}}{{end}}</h4>
{{with .Description}}<p>{{.}}</p>{{end}}
{{if or .Meals.Breakfast .Meals.Lunch .Meals.Dinner}}<p class="meals">{{if .Meals.Breakfast}}<span>breakfast</span>{{end}}{{if .Meals.Lunch}}<span>lunch</span>{{end}}{{if .Meals.Dinner}}<span>dinner</span>{{end}}</p>{{end}}
{{with .Activities}}<ul class="activities">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
</li>{{end}}
</ol>
{{end}}

{{define "services"}}
{{with .Title}}<h3>{{.}}</h3>{{end}}
{{with .Includes}}<ul class="includes">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{with .Excludes}}<ul class="excludes">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{end}}

{{define "price"}}
<p class="price"><strong>{{money .BasePrice .Currency}}</strong> <span>{{label .PriceType}}</span></p>
{{with .Options}}<ul class="price-options">{{range .}}<li>{{.Name}}: {{money .Price $.Currency}}{{with .Description}} <small>{{.}}</small>{{end}}</li>{{end}}</ul>{{end}}
{{with .Notes}}<p class="notes">{{.}}</p>{{end}}
{{end}}

{{define "image"}}
{{if .URL}}<figure><img src="{{.URL}}" alt="{{.Alt}}">{{with .Caption}}<figcaption>{{.}}</figcaption>{{end}}</figure>{{end}}
{{end}}

{{define "gallery"}}
{{with .Title}}<h3>{{.}}</h3>{{end}}
<div class="gallery" data-columns="{{.Columns}}">{{range .Images}}{{if .URL}}
<figure><img src="{{.URL}}" alt="{{.Alt}}">{{with .Caption}}<figcaption>{{.}}</figcaption>{{end}}</figure>{{end}}{{end}}
</div>
{{end}}

{{define "file"}}
{{if .URL}}<a class="file" href="{{.URL}}" download>{{or .Name .URL}}</a>{{with .Description}}<p>{{.}}</p>{{end}}{{end}}
{{end}}

{{define "accommodation"}}
{{with .ImageURL}}<img src="{{.}}" alt="">{{end}}
<h3>{{.Name}}</h3>
{{with .Location}}<p class="location">{{.}}</p>{{end}}
{{if .Rating}}<p class="rating" data-rating="{{.Rating}}">{{.Rating}}/5</p>{{end}}
<p class="stay">{{.Nights}} nights{{with .RoomType}}, {{.}}{{end}}{{with .MealPlan}}, {{.}}{{end}}</p>
{{with .Description}}<p>{{.}}</p>{{end}}
{{end}}

{{define "activity"}}
{{with .ImageURL}}<img src="{{.}}" alt="">{{end}}
<h3>{{.Title}}</h3>
{{with .Location}}<p class="location">{{.}}</p>{{end}}
{{with .Duration}}<p class="duration">{{.}}</p>{{end}}
{{with .Description}}<p>{{.}}</p>{{end}}
{{if .Included}}<p class="included">included</p>{{else if .Price}}<p class="price">{{money .Price ""}}</p>{{end}}
{{end}}

{{define "transport"}}
<p class="transport" data-mode="{{.Mode}}">{{label .Mode}}: {{.From}} to {{.To}}{{with .DepartureTime}} at {{.}}{{end}}{{with .Duration}} ({{.}}){{end}}</p>
{{with .Description}}<p>{{.}}</p>{{end}}
{{end}}

{{define "flight"}}
<ul class="flight">{{range .Segments}}
<li>{{.Airline}} {{.FlightNumber}}: {{.From}} {{.DepartureDate}} {{.DepartureTime}} to {{.To}} {{.ArrivalDate}} {{.ArrivalTime}}{{with .Cabin}} ({{.}}){{end}}</li>{{end}}
</ul>
{{with .Baggage}}<p class="baggage">{{.}}</p>{{end}}
{{with .Notes}}<p class="notes">{{.}}</p>{{end}}
{{end}}

{{define "food"}}
<h3>{{.Title}}</h3>
<p class="meal" data-meal="{{.MealType}}">{{.MealType}}{{with .Restaurant}} at {{.}}{{end}}{{with .Cuisine}}, {{.}}{{end}}{{if .Included}} (included){{end}}</p>
{{with .Description}}<p>{{.}}</p>{{end}}
{{end}}

{{define "cancellation_policy"}}
{{with .Title}}<h3>{{.}}</h3>{{end}}
<ul class="cancellation">{{range .Rules}}
<li>{{.DaysBefore}} days before: {{.PenaltyPercent}}%{{with .Description}} {{.}}{{end}}</li>{{end}}
</ul>
{{with .Notes}}<p class="notes">{{.}}</p>{{end}}
{{end}}
`
