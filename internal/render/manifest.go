package render

import "encoding/json"

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []manifestIcon `json:"icons"`
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// WebManifest builds the installable-app manifest for the site.
func WebManifest(name string, theme Theme) ([]byte, error) {
	m := webManifest{
		Name:            name,
		ShortName:       name,
		StartURL:        "./",
		Display:         "standalone",
		BackgroundColor: theme.DayColor,
		ThemeColor:      theme.DayColor,
		Icons: []manifestIcon{
			{Src: "icons/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "icons/icon-512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
	return json.MarshalIndent(m, "", "  ")
}
