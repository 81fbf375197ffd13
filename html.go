package mdstream

import (
	"io"
	"iter"
	"strconv"
	"strings"
)

// WriteHTML renders a normalized event stream as HTML. Paragraphs inside
// tight lists are expected to be already gone from the stream, so list
// items of tight lists render without <p>.
func WriteHTML(w io.Writer, events iter.Seq[Event]) error {
	h := htmlWriter{w: w, fresh: true}
	for ev := range events {
		h.event(ev)
		if h.err != nil {
			return h.err
		}
	}
	return h.err
}

// Renders markdown text with DefaultOptions.
func ToHTML(text string) string {
	var sb strings.Builder
	_ = WriteHTML(&sb, NewParser(text).All())
	return sb.String()
}

type htmlWriter struct {
	w     io.Writer
	err   error
	fresh bool // output is at the start of a line
	alt   int  // nesting inside an image, alt text only
}

func (h *htmlWriter) write(s string) {
	if h.err != nil || s == "" {
		return
	}
	_, h.err = io.WriteString(h.w, s)
	h.fresh = s[len(s)-1] == '\n'
}

func (h *htmlWriter) freshLine() {
	if !h.fresh {
		h.write("\n")
	}
}

func (h *htmlWriter) event(ev Event) {
	if h.alt > 0 {
		h.altText(ev)
		return
	}
	switch ev.Kind {
	case StartEvent:
		h.start(ev.Tag)
	case EndEvent:
		h.end(ev.Tag)
	case TextEvent:
		h.write(escapeHTML(ev.Text))
	case HTMLEvent:
		h.write(ev.Text)
	case SoftBreakEvent:
		h.write("\n")
	case HardBreakEvent:
		h.write("<br />\n")
	}
}

func (h *htmlWriter) start(t Tag) {
	switch t.Kind {
	case ParagraphTag:
		h.freshLine()
		h.write("<p>")
	case HeaderTag:
		h.freshLine()
		h.write("<h" + strconv.Itoa(t.Level) + ">")
	case BlockQuoteTag:
		h.freshLine()
		h.write("<blockquote>\n")
	case CodeBlockTag:
		h.freshLine()
		if lang, _, _ := strings.Cut(t.Info, " "); lang != "" {
			h.write(`<pre><code class="language-` + escapeHTML(lang) + `">`)
		} else {
			h.write("<pre><code>")
		}
	case ListTag:
		h.freshLine()
		switch {
		case t.Ordered && t.Start != 1:
			h.write(`<ol start="` + strconv.Itoa(t.Start) + "\">\n")
		case t.Ordered:
			h.write("<ol>\n")
		default:
			h.write("<ul>\n")
		}
	case ItemTag:
		h.freshLine()
		h.write("<li>")
	case RuleTag:
		h.freshLine()
		h.write("<hr />\n")
	case EmphasisTag:
		h.write("<em>")
	case StrongTag:
		h.write("<strong>")
	case StrikethroughTag:
		h.write("<del>")
	case CodeTag:
		h.write("<code>")
	case LinkTag:
		h.write(`<a href="` + escapeHref(t.Dest) + `"`)
		if t.Title != "" {
			h.write(` title="` + escapeHTML(t.Title) + `"`)
		}
		h.write(">")
	case ImageTag:
		h.write(`<img src="` + escapeHref(t.Dest) + `" alt="`)
		h.alt = 1
	}
}

func (h *htmlWriter) end(t Tag) {
	switch t.Kind {
	case ParagraphTag:
		h.write("</p>\n")
	case HeaderTag:
		h.write("</h" + strconv.Itoa(t.Level) + ">\n")
	case BlockQuoteTag:
		h.freshLine()
		h.write("</blockquote>\n")
	case CodeBlockTag:
		h.write("</code></pre>\n")
	case ListTag:
		h.freshLine()
		if t.Ordered {
			h.write("</ol>\n")
		} else {
			h.write("</ul>\n")
		}
	case ItemTag:
		h.write("</li>\n")
	case EmphasisTag:
		h.write("</em>")
	case StrongTag:
		h.write("</strong>")
	case StrikethroughTag:
		h.write("</del>")
	case CodeTag:
		h.write("</code>")
	case LinkTag:
		h.write("</a>")
	}
}

// Inside an image only the plain text of the description is written, as
// the alt attribute.
func (h *htmlWriter) altText(ev Event) {
	switch ev.Kind {
	case StartEvent:
		h.alt++
	case EndEvent:
		h.alt--
		if h.alt == 0 {
			h.write(`"`)
			if ev.Tag.Title != "" {
				h.write(` title="` + escapeHTML(ev.Tag.Title) + `"`)
			}
			h.write(" />")
		}
	case TextEvent:
		h.write(escapeHTML(ev.Text))
	case SoftBreakEvent, HardBreakEvent:
		h.write(" ")
	}
}

var htmlEscaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

const hrefSafe = "-_.!~*'();/?:@=+$,%#"

// Percent-encodes bytes that may not appear in a URL and escapes '&'.
func escapeHref(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '&':
			sb.WriteString("&amp;")
		case isLetter(c) || isDigit(c) || strings.IndexByte(hrefSafe, c) >= 0:
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte("0123456789ABCDEF"[c>>4])
			sb.WriteByte("0123456789ABCDEF"[c&0xf])
		}
	}
	return sb.String()
}
