package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

// previewHost serves every catalog preview clip.
const previewHost = "p.scdn.co"

var (
	previewJSONRegex = regexp.MustCompile(`"preview_url"\s*:\s*"((?:[^"\\]|\\.)+)"`)
	previewURLRegex  = regexp.MustCompile(`https?://` + regexp.QuoteMeta(previewHost) + `/[^\s"'<>,)]+`)
)

// ExtractPreviewJSON finds a `"preview_url":"..."` pair anywhere in page (typically an inline JSON blob) and returns
// the unescaped URL.
func ExtractPreviewJSON(page []byte) (string, bool) {
	for _, match := range previewJSONRegex.FindAllSubmatch(page, -1) {
		var value string
		if err := json.Unmarshal(append(append([]byte{'"'}, match[1]...), '"'), &value); err != nil {
			continue
		}
		if isHTTPURL(value) {
			return value, true
		}
	}
	return "", false
}

// ExtractPreviewDOM parses page as HTML and looks for a preview URL in, in order: og:audio or preview_url meta tags,
// JSON-LD script blocks carrying a previewUrl key, then any attribute value mentioning the preview host.
func ExtractPreviewDOM(page []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	var metas, ldBlocks, attrs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				if key == "og:audio" || key == "preview_url" {
					metas = append(metas, strings.TrimSpace(attr(n, "content")))
				}
			case "script":
				if strings.EqualFold(strings.TrimSpace(attr(n, "type")), "application/ld+json") && n.FirstChild != nil {
					ldBlocks = append(ldBlocks, n.FirstChild.Data)
				}
			}
			for _, a := range n.Attr {
				if strings.Contains(a.Val, previewHost) {
					attrs = append(attrs, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, content := range metas {
		if isHTTPURL(content) {
			return content, true
		}
	}

	for _, block := range ldBlocks {
		if !gjson.Valid(block) {
			continue
		}
		if value, ok := findJSONKey(gjson.Parse(block), "previewUrl"); ok && isHTTPURL(value) {
			return value, true
		}
	}

	for _, value := range attrs {
		if found := previewURLRegex.FindString(value); found != "" {
			return found, true
		}
		if value = strings.TrimSpace(value); isHTTPURL(value) {
			return value, true
		}
	}

	return "", false
}

// findJSONKey searches r depth-first for the first non-empty string stored under key.
func findJSONKey(r gjson.Result, key string) (string, bool) {
	if r.IsObject() {
		if v := r.Get(key); v.Type == gjson.String && v.String() != "" {
			return v.String(), true
		}
	}
	if !r.IsObject() && !r.IsArray() {
		return "", false
	}

	var found string
	r.ForEach(func(_, v gjson.Result) bool {
		if s, ok := findJSONKey(v, key); ok {
			found = s
			return false
		}
		return true
	})
	return found, found != ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
