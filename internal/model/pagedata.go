package model

// Static page kinds.
const (
	StaticEmbedded   = "embedded"
	StaticStandalone = "standalone"
)

// Embed modes for embedded static pages.
const (
	EmbedInject = "inject"
	EmbedIframe = "iframe"
	EmbedText   = "text"
)

// StaticPageMeta is the optional page.json sidecar of an embedded page.
type StaticPageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Height      string `json:"height"`
	Width       string `json:"width"`
	Type        string `json:"type"`
	Background  string `json:"background"`
	FullWidth   bool   `json:"fullWidth"`
	Embed       string `json:"embed"`
}

// StaticPage is a static page whose body passed the existence probe.
type StaticPage struct {
	Name string
	Kind string
	// File is the store path the body was read from.
	File string
	Body string
	Mode string
	Meta StaticPageMeta
}
