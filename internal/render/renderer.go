package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ziadkadry99/itinerary/internal/itinerary"
)

// cardDelayStep is the stagger between card animations, in seconds.
const cardDelayStep = 0.06

// Options configures a Renderer.
type Options struct {
	Theme    Theme
	BasePath string           // prefix for style.css, app.js and the manifest
	Now      func() time.Time // clock used for the night theme; defaults to time.Now
}

// Renderer turns an itinerary into the HTML page.
type Renderer struct {
	tmpl     *template.Template
	md       goldmark.Markdown
	theme    Theme
	basePath string
	now      func() time.Time
}

// New parses the page template and resolves the theme zone.
func New(opts Options) (*Renderer, error) {
	theme := opts.Theme.withDefaults()
	if err := theme.Load(); err != nil {
		return nil, err
	}

	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Renderer{
		tmpl:     tmpl,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		theme:    theme,
		basePath: opts.BasePath,
		now:      now,
	}, nil
}

// Theme returns the resolved theme.
func (r *Renderer) Theme() Theme { return r.theme }

type pageData struct {
	Title      string
	Subtitle   string
	Night      bool
	ThemeColor string
	Theme      Theme
	BasePath   string
	Loading    bool
	Error      string
	Days       []dayView
}

type dayView struct {
	Label string
	Cards []cardView
}

type cardView struct {
	Type        itinerary.ItemType
	Icon        string
	Time        string
	Title       string
	Expandable  bool
	Location    string
	Description template.HTML
	Checklist   []string
	Links       []linkView
	Delay       string
}

type linkView struct {
	URL        string
	Text       string
	Directions bool
}

func (r *Renderer) base(title string) pageData {
	now := r.now()
	return pageData{
		Title:      title,
		Night:      r.theme.Night(now),
		ThemeColor: r.theme.Color(now),
		Theme:      r.theme,
		BasePath:   r.basePath,
	}
}

// Page renders the itinerary document.
func (r *Renderer) Page(w io.Writer, it *itinerary.Itinerary) error {
	data := r.base(it.DisplayTitle())
	data.Subtitle = it.Subtitle
	data.Days = make([]dayView, 0, len(it.Days))

	for _, day := range it.Days {
		dv := dayView{Label: day.Label, Cards: make([]cardView, 0, len(day.Items))}
		for i, item := range day.Items {
			card, err := r.card(item, i)
			if err != nil {
				return err
			}
			dv.Cards = append(dv.Cards, card)
		}
		data.Days = append(data.Days, dv)
	}

	return r.tmpl.Execute(w, data)
}

// Error renders the page shell with the load failure in place of content.
func (r *Renderer) Error(w io.Writer, loadErr error) error {
	data := r.base(itinerary.DefaultTitle)
	data.Error = loadErr.Error()
	return r.tmpl.Execute(w, data)
}

// Loading renders the page shell with the loading placeholder.
func (r *Renderer) Loading(w io.Writer) error {
	data := r.base(itinerary.DefaultTitle)
	data.Loading = true
	return r.tmpl.Execute(w, data)
}

// LoadError is returned by Render when the itinerary could not be loaded
// and the error page was written instead.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// Render loads the itinerary and writes either the page or the error page.
// A failed load is reported as a *LoadError once the error page is written.
func (r *Renderer) Render(ctx context.Context, w io.Writer, l *Loader) error {
	it, err := l.Load(ctx)
	if err != nil {
		log.WithError(err).WithField("url", l.URL().String()).Warn("itinerary load failed")
		if werr := r.Error(w, err); werr != nil {
			return werr
		}
		return &LoadError{Err: err}
	}
	log.WithFields(log.Fields{
		"days":  len(it.Days),
		"items": it.ItemCount(),
	}).Debug("rendering itinerary")
	return r.Page(w, it)
}

func (r *Renderer) card(item itinerary.Item, index int) (cardView, error) {
	c := cardView{
		Type:       item.Type,
		Icon:       itinerary.Icon(item.Type),
		Time:       item.Time,
		Title:      item.Title,
		Expandable: item.HasDetails(),
		Location:   item.Location,
		Checklist:  item.Checklist,
		Delay:      fmt.Sprintf("%g", float64(index)*cardDelayStep),
	}

	if item.Description != "" {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(item.Description), &buf); err != nil {
			return c, fmt.Errorf("converting description of %q: %w", item.Title, err)
		}
		c.Description = template.HTML(buf.String())
	}

	if len(item.Tickets) > 0 {
		for _, t := range item.Tickets {
			c.Links = append(c.Links, linkView{URL: t.URL, Text: "\U0001F39F " + t.Label})
		}
	} else if item.TicketURL != "" {
		c.Links = append(c.Links, linkView{URL: item.TicketURL, Text: "\U0001F39F\uFE0F Tickets"})
	}
	if item.DirectionsURL != "" {
		c.Links = append(c.Links, linkView{URL: item.DirectionsURL, Text: "\u2728 Directions", Directions: true})
	}
	return c, nil
}

// Export writes a static copy of the site into dir: the rendered page,
// its stylesheet and script, the web manifest and the data document.
func (r *Renderer) Export(dir string, it *itinerary.Itinerary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var page bytes.Buffer
	if err := r.Page(&page, it); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	data, err := itinerary.Encode(it)
	if err != nil {
		return err
	}
	manifest, err := WebManifest(it.DisplayTitle(), r.theme)
	if err != nil {
		return err
	}

	files := map[string][]byte{
		"index.html":    page.Bytes(),
		"style.css":     []byte(cssContent),
		"app.js":        []byte(jsContent),
		"manifest.json": manifest,
		"data.json":     data,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
