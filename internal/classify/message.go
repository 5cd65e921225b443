package classify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/jenkinsrest/internal/transport"
)

const maxMessageLen = 256

// Message extracts a short diagnostic from an error response: the JSON
// "message" field, the title or first heading of an HTML page, or the
// leading text of the body. It falls back to the status text.
func Message(resp *transport.RawResponse) string {
	body := bytes.TrimSpace(resp.Body)
	ct := strings.ToLower(resp.Header.Get("Content-Type"))

	var msg string
	switch {
	case len(body) == 0:
	case strings.Contains(ct, "json") || body[0] == '{':
		msg = jsonMessage(body)
	case strings.Contains(ct, "html") || bytes.HasPrefix(body, []byte("<")):
		msg = htmlMessage(body)
	default:
		msg = string(body)
	}

	msg = truncate(collapseSpace(msg), maxMessageLen)
	if msg == "" {
		msg = http.StatusText(resp.Status)
	}
	if msg == "" {
		msg = "unexpected status"
	}
	return msg
}

func jsonMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}
	for _, key := range []string{"message", "error", "errorMessage"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// htmlMessage prefers the first h1, then the title. Jenkins error pages use
// the h1 for the failure and a generic title.
func htmlMessage(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var title, heading string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = textOf(n)
				}
			case "h1":
				if heading == "" {
					heading = textOf(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if heading != "" {
		return heading
	}
	return title
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
