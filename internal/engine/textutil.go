package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/net/html"
)

// UserAgentBot identifies API clients (Data API, Translate).
const UserAgentBot = "GoCourse/1.0"

// CleanHTML strips HTML tags, decodes entities and collapses whitespace.
// Caption payloads double-encode markup (&lt;i&gt;), so a second pass runs when
// the first one surfaces new tags.
func CleanHTML(s string) string {
	out := htmlText(s)
	if strings.ContainsAny(out, "<>") {
		out = htmlText(out)
	}
	return strings.Join(strings.Fields(out), " ")
}

func htmlText(s string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			if string(tn) == "br" {
				sb.WriteByte(' ')
			}
		}
	}
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}
