package tgui

import (
	"html"
	"strings"
)

// H is a fragment of Telegram HTML (ParseMode="HTML") that is already
// escaped and safe to concatenate.
type H string

func (h H) String() string { return string(h) }

// Esc escapes arbitrary text into an H fragment.
func Esc(s string) H { return H(html.EscapeString(s)) }

// Code renders s in a monospace span, escaped.
func Code(s string) H { return H("<code>" + html.EscapeString(s) + "</code>") }

// Link renders an anchor. Both the label and the href are escaped;
// html.EscapeString covers quotes, so the attribute stays intact.
func Link(text, url string) H {
	return H(`<a href="` + html.EscapeString(url) + `">` + html.EscapeString(text) + `</a>`)
}

// JoinH joins fragments with sep, skipping blank ones.
func JoinH(sep string, parts ...H) H {
	if len(parts) == 0 {
		return ""
	}
	keep := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(string(p)) == "" {
			continue
		}
		keep = append(keep, string(p))
	}
	return H(strings.Join(keep, sep))
}
