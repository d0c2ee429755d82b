package render

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/itinerary/internal/itinerary"
)

func sampleItinerary() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		Title:    "Vegas <3",
		Subtitle: "Girls trip",
		Days: []itinerary.Day{
			{Label: "Friday", Items: []itinerary.Item{
				{Type: itinerary.TypeFlight, Time: "8:00 AM", Title: "Fly out", Location: "SFO"},
				{Type: itinerary.TypeHotel, Time: "3:00 PM", Title: "Check in"},
				{Type: itinerary.TypeShow, Time: "9:00 PM", Title: "Show", TicketURL: "ticketFast_1.pdf",
					Tickets: []itinerary.Ticket{{URL: "ticketFast_1.pdf", Label: "Row A"}, {URL: "ticketFast_2.pdf", Label: "Row B"}}},
			}},
			{Label: "Saturday", Items: []itinerary.Item{
				{Type: "picnic", Time: "noon", Title: "Lunch", Description: "Try the **waffles**",
					Checklist: []string{"sunscreen"}, DirectionsURL: "https://maps.example.com/x"},
				{Type: itinerary.TypeTransport, Time: "6:00 PM", Title: "Ride", TicketURL: "ride.pdf"},
			}},
		},
	}
}

func newTestRenderer(t *testing.T, now time.Time) *Renderer {
	t.Helper()
	r, err := New(Options{Theme: DefaultTheme(), Now: func() time.Time { return now }})
	require.NoError(t, err)
	return r
}

func vegas(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return time.Date(2025, 6, 14, hour, minute, 0, 0, loc)
}

func renderPage(t *testing.T, r *Renderer, it *itinerary.Itinerary) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, it))
	return buf.String()
}

func TestPageStructure(t *testing.T) {
	it := sampleItinerary()
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), it)

	assert.Equal(t, len(it.Days), strings.Count(out, `class="day-section"`))
	assert.Equal(t, it.ItemCount(), strings.Count(out, `class="card-icon"`))
	assert.Equal(t, len(it.Days)-1, strings.Count(out, `class="day-divider"`))
	assert.Contains(t, out, headerHearts)
	assert.Contains(t, out, `<div class="header-subtitle">Girls trip</div>`)
	assert.Contains(t, out, "<title>Vegas &lt;3</title>")
}

func TestPageDefaultTitle(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), &itinerary.Itinerary{Days: []itinerary.Day{}})
	assert.Contains(t, out, "<title>My Vacation</title>")
	assert.NotContains(t, out, "header-subtitle")
	assert.Zero(t, strings.Count(out, `class="day-section"`))
}

func TestCardExpandable(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), sampleItinerary())

	// Every item except the plain hotel check-in has details.
	assert.Equal(t, 4, strings.Count(out, "card-expandable"))
	assert.Equal(t, 4, strings.Count(out, `role="button" tabindex="0" aria-expanded="false"`))
	assert.Equal(t, 4, strings.Count(out, `class="card-chevron"`))
	assert.Contains(t, out, `<div class="card" data-type="hotel"`)
}

func TestCardIconsAndDelay(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), sampleItinerary())

	assert.Contains(t, out, `<div class="card-icon">`+itinerary.Icon(itinerary.TypeFlight)+`</div>`)
	assert.Contains(t, out, `<div class="card-icon">`+itinerary.DefaultIcon+`</div>`)
	assert.Contains(t, out, "animation-delay: 0s")
	assert.Contains(t, out, "animation-delay: 0.06s")
	assert.Contains(t, out, "animation-delay: 0.12s")
}

func TestCardActions(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), sampleItinerary())

	// The tickets list takes precedence over the single ticket URL.
	assert.Contains(t, out, "\U0001F39F Row A")
	assert.Contains(t, out, "\U0001F39F Row B")
	assert.Equal(t, 1, strings.Count(out, "\U0001F39F\uFE0F Tickets"), "only the ride uses the single ticket link")
	assert.Contains(t, out, `href="ride.pdf" target="_blank" rel="noopener"`)
	assert.Contains(t, out, `<a class="btn-directions" href="https://maps.example.com/x" target="_blank" rel="noopener">`+"\u2728 Directions</a>")
}

func TestCardDescriptionMarkdown(t *testing.T) {
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), sampleItinerary())
	assert.Contains(t, out, "<strong>waffles</strong>")
	assert.Contains(t, out, "<li>sunscreen</li>")
}

func TestPageEscapesItemFields(t *testing.T) {
	it := &itinerary.Itinerary{Days: []itinerary.Day{{Label: "<b>Day</b>", Items: []itinerary.Item{
		{Type: itinerary.TypeShow, Title: `<img src=x onerror=alert(1)>`, Location: "A & B"},
	}}}}
	out := renderPage(t, newTestRenderer(t, vegas(t, 12, 0)), it)

	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;b&gt;Day&lt;/b&gt;")
	assert.Contains(t, out, "A &amp; B")
}

func TestThemeAt(t *testing.T) {
	theme := DefaultTheme()
	require.NoError(t, theme.Load())

	tests := []struct {
		hour, minute int
		want         Mode
	}{
		{5, 59, ModeNight},
		{6, 0, ModeDay},
		{12, 0, ModeDay},
		{17, 59, ModeDay},
		{18, 0, ModeNight},
		{23, 30, ModeNight},
		{0, 0, ModeNight},
	}
	for _, tt := range tests {
		got := theme.At(vegas(t, tt.hour, tt.minute))
		assert.Equal(t, tt.want, got, "%02d:%02d", tt.hour, tt.minute)
	}

	// The zone, not the caller's location, decides.
	assert.Equal(t, ModeNight, theme.At(time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)), "20:00 in Las Vegas")
}

func TestThemeInvalid(t *testing.T) {
	theme := DefaultTheme()
	theme.Zone = "Nowhere/Special"
	assert.Error(t, theme.Load())

	theme = DefaultTheme()
	theme.NightStart = 24
	assert.Error(t, theme.Load())
}

func TestNewKeepsPartialTheme(t *testing.T) {
	r, err := New(Options{Theme: Theme{DayColor: "#ffffff"}})
	require.NoError(t, err)
	got := r.Theme()
	assert.Equal(t, "America/Los_Angeles", got.Zone)
	assert.Equal(t, "#ffffff", got.DayColor)
	assert.Equal(t, "#1a1028", got.NightColor)
	assert.Equal(t, 18, got.NightStart)
	assert.Equal(t, 6, got.NightEnd)

	r, err = New(Options{Theme: Theme{NightStart: 20, NightEnd: 5, NightColor: "#000000"}})
	require.NoError(t, err)
	got = r.Theme()
	assert.Equal(t, "America/Los_Angeles", got.Zone)
	assert.Equal(t, 20, got.NightStart)
	assert.Equal(t, 5, got.NightEnd)
	assert.Equal(t, "#000000", got.NightColor)
	assert.Equal(t, "#f2a6c7", got.DayColor)
}

func TestPageNightTheme(t *testing.T) {
	night := renderPage(t, newTestRenderer(t, vegas(t, 20, 0)), sampleItinerary())
	assert.Contains(t, night, `<body class="dark">`)
	assert.Contains(t, night, `<meta name="theme-color" content="#1a1028">`)

	day := renderPage(t, newTestRenderer(t, vegas(t, 10, 0)), sampleItinerary())
	assert.Contains(t, day, "<body>")
	assert.Contains(t, day, `<meta name="theme-color" content="#f2a6c7">`)
}

func TestErrorAndLoading(t *testing.T) {
	r := newTestRenderer(t, vegas(t, 12, 0))

	var buf bytes.Buffer
	require.NoError(t, r.Error(&buf, errors.New("failed to load data: 404 Not Found")))
	assert.Contains(t, buf.String(), `<div class="error">Could not load itinerary.<br>failed to load data: 404 Not Found</div>`)
	assert.NotContains(t, buf.String(), "day-section")

	buf.Reset()
	require.NoError(t, r.Loading(&buf))
	assert.Contains(t, buf.String(), loadingText)
}

func newDataServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trip/data.json" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader(t *testing.T) {
	srv := newDataServer(t, `{"title":"T","days":[{"label":"d","items":[]}]}`, http.StatusOK)
	base, err := url.Parse(srv.URL + "/trip")
	require.NoError(t, err)

	l := &Loader{Client: srv.Client(), BaseURL: base, DataPath: "data.json"}
	assert.Equal(t, srv.URL+"/trip/data.json", l.URL().String())

	it, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T", it.Title)
	assert.Len(t, it.Days, 1)
}

func TestLoaderFailures(t *testing.T) {
	notFound := newDataServer(t, "missing", http.StatusNotFound)
	base, _ := url.Parse(notFound.URL + "/trip/")
	_, err := (&Loader{BaseURL: base, DataPath: "data.json"}).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load data")

	garbage := newDataServer(t, "{not json", http.StatusOK)
	base, _ = url.Parse(garbage.URL + "/trip/")
	_, err = (&Loader{BaseURL: base, DataPath: "data.json"}).Load(context.Background())
	assert.Error(t, err)
}

func TestRenderReportsLoadError(t *testing.T) {
	srv := newDataServer(t, "", http.StatusInternalServerError)
	base, _ := url.Parse(srv.URL + "/trip/")
	r := newTestRenderer(t, vegas(t, 12, 0))

	var buf bytes.Buffer
	err := r.Render(context.Background(), &buf, &Loader{BaseURL: base, DataPath: "data.json"})
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, buf.String(), "Could not load itinerary.")
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site")
	r := newTestRenderer(t, vegas(t, 12, 0))
	require.NoError(t, r.Export(dir, sampleItinerary()))

	for _, name := range []string{"index.html", "style.css", "app.js", "manifest.json", "data.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	it, err := itinerary.Load(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, sampleItinerary().ItemCount(), it.ItemCount())

	manifest, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `"start_url": "./"`)
}
