package services

import (
	"fmt"
	"html"
	"net/url"
)

const (
	embedBaseURL = "https://open.spotify.com/embed/track/"
	embedHeight  = 152
	embedAllow   = "autoplay; clipboard-write; encrypted-media; fullscreen; picture-in-picture"
)

// EmbedHTML renders the lazy-loaded player iframe shown once a round ends.
func EmbedHTML(trackID string) string {
	src := embedBaseURL + url.PathEscape(trackID) + "?utm_source=generator"
	return fmt.Sprintf(
		`<iframe style="border-radius:12px" src="%s" width="100%%" height="%d" frameborder="0" allowfullscreen="" allow="%s" loading="lazy"></iframe>`,
		html.EscapeString(src), embedHeight, embedAllow,
	)
}
