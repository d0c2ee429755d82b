package render

// pageTemplate renders the whole itinerary document. The body is one of
// the loading placeholder, the error message or the day sections.
const pageTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{if .Night}}dark{{else}}light{{end}}" data-zone="{{.Theme.Zone}}" data-night-start="{{.Theme.NightStart}}" data-night-end="{{.Theme.NightEnd}}" data-day-color="{{.Theme.DayColor}}" data-night-color="{{.Theme.NightColor}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="theme-color" content="{{.ThemeColor}}">
  <title>{{.Title}}</title>
  <link rel="manifest" href="{{.BasePath}}manifest.json">
  <link rel="icon" href="{{.BasePath}}icons/icon-192.png">
  <link rel="stylesheet" href="{{.BasePath}}style.css">
</head>
<body{{if .Night}} class="dark"{{end}}>
  <header class="header">
    <h1 id="trip-title">{{.Title}}</h1>
    {{if .Subtitle}}<div class="header-subtitle">{{.Subtitle}}</div>{{end}}
    <div class="header-hearts">` + headerHearts + `</div>
  </header>
  <main id="itinerary">
  {{- if .Loading}}
    <div class="loading">` + loadingText + `</div>
  {{- else if .Error}}
    <div class="error">Could not load itinerary.<br>{{.Error}}</div>
  {{- else}}
  {{- range $i, $day := .Days}}
    {{if $i}}<div class="day-divider">` + dayDivider + `</div>{{end}}
    <section class="day-section">
      <div class="day-header">{{$day.Label}}</div>
      {{- range $day.Cards}}
      {{template "card" .}}
      {{- end}}
    </section>
  {{- end}}
  {{- end}}
  </main>
  <script src="{{.BasePath}}app.js"></script>
</body>
</html>
{{define "card"}}<div class="card{{if .Expandable}} card-expandable{{end}}" data-type="{{.Type}}" style="animation-delay: {{.Delay}}s"{{if .Expandable}} role="button" tabindex="0" aria-expanded="false"{{end}}>
        <div class="card-top">
          <div class="card-icon">{{.Icon}}</div>
          <div class="card-info">
            <div class="card-time">{{.Time}}</div>
            <div class="card-title">{{.Title}}</div>
          </div>
          {{if .Expandable}}<span class="card-chevron" aria-hidden="true">&rsaquo;</span>{{end}}
        </div>
        {{- if .Expandable}}
        <div class="card-details">
          {{if .Location}}<div class="card-location">{{.Location}}</div>{{end}}
          {{if .Description}}<div class="card-description">{{.Description}}</div>{{end}}
          {{- if .Checklist}}
          <ul class="card-checklist">
            {{- range .Checklist}}
            <li>{{.}}</li>
            {{- end}}
          </ul>
          {{- end}}
          {{- if .Links}}
          <div class="card-actions">
            {{- range .Links}}
            <a class="{{if .Directions}}btn-directions{{else}}btn-tickets{{end}}" href="{{.URL}}" target="_blank" rel="noopener">{{.Text}}</a>
            {{- end}}
          </div>
          {{- end}}
        </div>
        {{- end}}
      </div>{{end}}`

const (
	headerHearts = "\u2729 \u2661 \u2729 \u2661 \u2729 \u2661 \u2729"
	dayDivider   = "\u2729 \u2661 \u2729 \u2661 \u2729"
	loadingText  = "\u2728 Loading your kawaii adventure\u2026 \u2728"
)

// cssContent is the stylesheet shipped next to the page.
const cssContent = `:root {
  --bg: #fff5fa;
  --card: #ffffff;
  --text: #4a2c3d;
  --muted: #a07890;
  --accent: #f2a6c7;
  --accent-strong: #e0689f;
  --divider: #f7c8dc;
}

body.dark, html[data-theme="dark"] body {
  --bg: #1a1028;
  --card: #2a1b3d;
  --text: #f6e6f0;
  --muted: #c8a6c0;
  --accent: #b07cc6;
  --accent-strong: #f2a6c7;
  --divider: #4a3260;
}

* { box-sizing: border-box; }

body {
  margin: 0;
  font-family: "Nunito", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
  background: var(--bg);
  color: var(--text);
  transition: background 0.4s ease, color 0.4s ease;
}

.header { text-align: center; padding: 2rem 1rem 1rem; }
.header h1 { margin: 0; font-size: 1.8rem; color: var(--accent-strong); }
.header-subtitle { margin: 0.4rem 0 0; color: var(--muted); }
.header-hearts { margin-top: 0.6rem; color: var(--accent); letter-spacing: 0.3rem; }

main { max-width: 640px; margin: 0 auto; padding: 0 1rem 3rem; }

.loading, .error { text-align: center; padding: 3rem 1rem; color: var(--muted); }
.error { color: var(--accent-strong); }

.day-divider { text-align: center; color: var(--divider); margin: 1.5rem 0; letter-spacing: 0.3rem; }
.day-header { margin: 1rem 0 0.6rem; }
.day-header {
  display: inline-block;
  padding: 0.25rem 0.9rem;
  border-radius: 999px;
  background: var(--accent);
  color: #fff;
  font-weight: 700;
}

.card {
  background: var(--card);
  border-radius: 16px;
  padding: 0.9rem 1rem;
  margin-bottom: 0.7rem;
  box-shadow: 0 2px 10px rgba(224, 104, 159, 0.12);
  opacity: 0;
  animation: pop-in 0.4s ease forwards;
}
.card-expandable { cursor: pointer; }
.card-top { display: flex; align-items: center; gap: 0.8rem; }
.card-icon { font-size: 1.5rem; }
.card-info { flex: 1; }
.card-time { font-size: 0.8rem; color: var(--muted); }
.card-title { font-weight: 700; }
.card-chevron { color: var(--muted); font-size: 1.4rem; transition: transform 0.2s ease; }
.card-expanded .card-chevron { transform: rotate(90deg); }

.card-details { display: none; margin-top: 0.7rem; padding-top: 0.7rem; border-top: 1px dashed var(--divider); }
.card-expanded .card-details { display: block; }
.card-location { color: var(--muted); font-size: 0.9rem; margin-bottom: 0.4rem; }
.card-description p { margin: 0.3rem 0; }
.card-checklist { margin: 0.5rem 0; padding-left: 1.2rem; }
.card-actions { display: flex; flex-wrap: wrap; gap: 0.5rem; margin-top: 0.6rem; }
.btn-tickets, .btn-directions {
  padding: 0.35rem 0.8rem;
  border-radius: 999px;
  background: var(--accent);
  color: #fff;
  text-decoration: none;
  font-size: 0.85rem;
}

@keyframes pop-in {
  from { opacity: 0; transform: translateY(8px); }
  to { opacity: 1; transform: none; }
}
`

// jsContent toggles cards and keeps the night theme in step with the clock.
const jsContent = `(function() {
  "use strict";

  var root = document.documentElement;

  function toggle(card) {
    var open = card.classList.toggle("card-expanded");
    card.setAttribute("aria-expanded", open ? "true" : "false");
  }

  document.addEventListener("click", function(e) {
    if (e.target.closest("a")) { return; }
    var card = e.target.closest(".card-expandable");
    if (card) { toggle(card); }
  });

  document.addEventListener("keydown", function(e) {
    if (e.key !== "Enter" && e.key !== " ") { return; }
    var card = e.target.closest ? e.target.closest(".card-expandable") : null;
    if (card && e.target === card) {
      e.preventDefault();
      toggle(card);
    }
  });

  function hourIn(zone) {
    try {
      var s = new Intl.DateTimeFormat("en-US", { hour: "numeric", hourCycle: "h23", timeZone: zone }).format(new Date());
      return parseInt(s, 10);
    } catch (e) {
      return new Date().getHours();
    }
  }

  function applyTheme() {
    var start = parseInt(root.getAttribute("data-night-start"), 10);
    var end = parseInt(root.getAttribute("data-night-end"), 10);
    var h = hourIn(root.getAttribute("data-zone"));
    var night = start > end ? (h >= start || h < end) : (h >= start && h < end);
    document.body.classList.toggle("dark", night);
    root.setAttribute("data-theme", night ? "dark" : "light");
    var meta = document.querySelector('meta[name="theme-color"]');
    if (meta) {
      meta.setAttribute("content", root.getAttribute(night ? "data-night-color" : "data-day-color"));
    }
  }

  applyTheme();
  setInterval(applyTheme, 60000);
})();
`
