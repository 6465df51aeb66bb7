package model

import "strings"

// Slide is one hero banner entry.
type Slide struct {
	Image string `json:"image" yaml:"image"`
	Link  string `json:"link" yaml:"link"`
}

// HeroConfig mirrors config/hero.json. Slides is the canonical shape; Images
// (bare URLs) and Image (single banner) are older shapes still accepted.
type HeroConfig struct {
	Enabled  *bool    `json:"enabled,omitempty" yaml:"enabled"`
	Title    string   `json:"title,omitempty" yaml:"title"`
	Category string   `json:"category,omitempty" yaml:"category"`
	Author   string   `json:"author,omitempty" yaml:"author"`
	Date     string   `json:"date,omitempty" yaml:"date"`
	Slides   []Slide  `json:"slides,omitempty" yaml:"slides"`
	Images   []string `json:"images,omitempty" yaml:"images"`
	Image    string   `json:"image,omitempty" yaml:"image"`
	Link     string   `json:"link,omitempty" yaml:"link"`
}

// IsEnabled treats a missing flag as enabled.
func (h *HeroConfig) IsEnabled() bool {
	if h == nil {
		return false
	}
	return h.Enabled == nil || *h.Enabled
}

// NormalizedSlides folds the three accepted shapes into a slide list. Slides
// wins over Images, which wins over a single Image. Links default to "#".
func (h *HeroConfig) NormalizedSlides() []Slide {
	if h == nil {
		return nil
	}
	fallbackLink := strings.TrimSpace(h.Link)
	if fallbackLink == "" {
		fallbackLink = "#"
	}
	var slides []Slide
	switch {
	case len(h.Slides) > 0:
		for _, s := range h.Slides {
			if strings.TrimSpace(s.Image) == "" {
				continue
			}
			if strings.TrimSpace(s.Link) == "" {
				s.Link = fallbackLink
			}
			slides = append(slides, s)
		}
	case len(h.Images) > 0:
		for _, img := range h.Images {
			if strings.TrimSpace(img) == "" {
				continue
			}
			slides = append(slides, Slide{Image: img, Link: fallbackLink})
		}
	case strings.TrimSpace(h.Image) != "":
		slides = append(slides, Slide{Image: h.Image, Link: fallbackLink})
	}
	return slides
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
