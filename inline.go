package mdstream

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

type inlineKind uint8

const (
	textTok    inlineKind = iota // literal text
	delimTok                     // run of *, _ or ~
	bracketTok                   // [ or ![ not (yet) part of a link
	eventTok                     // finished event
)

type inlineTok struct {
	kind inlineKind
	text string
	off  int
	ev   Event

	// delimiter runs: [used as closer][count left][used as opener]
	ch       byte
	count    int
	orig     int
	used     int
	canOpen  bool
	canClose bool
	starts   []Positioned
	ends     []Positioned
}

type bracket struct {
	tok    *inlineTok
	image  bool
	active bool
	delims int // delimiter stack height when the bracket was opened
}

type inlineParser struct {
	src       string // lines joined with '\n'
	offs      []int  // source offset of every byte of src, and of its end
	pos       int
	textStart int
	opts      Options

	toks     []*inlineTok
	delims   []*inlineTok
	brackets []bracket
}

// Parses the inline content of a paragraph or header and appends its
// events.
func parseInlines(lines []span, opts Options, events []Positioned) []Positioned {
	if len(lines) == 0 {
		return events
	}
	var sb strings.Builder
	var offs []int
	for i, s := range lines {
		t := s.text
		if i == len(lines)-1 {
			t = trimRightSpace(t)
		}
		if i > 0 {
			sb.WriteByte('\n')
			offs = append(offs, lines[i-1].end())
		}
		sb.WriteString(t)
		for j := range len(t) {
			offs = append(offs, s.off+j)
		}
	}
	last := lines[len(lines)-1]
	offs = append(offs, last.off+len(trimRightSpace(last.text)))

	p := inlineParser{src: sb.String(), offs: offs, opts: opts}
	p.parse()
	return p.events(events)
}

func (p *inlineParser) parse() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; c {
		case '\n':
			p.newline()
		case '\\':
			p.backslash()
		case '`':
			p.codeSpan()
		case '*', '_':
			p.delimRun(c)
		case '~':
			if p.opts.Has(ExtStrikethrough) {
				p.delimRun(c)
			} else {
				p.pos++
			}
		case '!':
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '[' {
				p.openBracket(true)
			} else {
				p.pos++
			}
		case '[':
			p.openBracket(false)
		case ']':
			p.closeBracket()
		case '&':
			p.entity()
		case '<':
			p.angle()
		default:
			p.pos++
		}
	}
	p.flushText(p.pos)
	p.processEmphasis(0)
}

func (p *inlineParser) flushText(end int) {
	if p.textStart < end {
		p.toks = append(p.toks, &inlineTok{kind: textTok, text: p.src[p.textStart:end], off: p.offs[p.textStart]})
	}
	p.textStart = end
}

func (p *inlineParser) emit(ev Event, at int) {
	p.toks = append(p.toks, &inlineTok{kind: eventTok, ev: ev, off: p.offs[at]})
}

func (p *inlineParser) literal(s string, at int) {
	p.toks = append(p.toks, &inlineTok{kind: textTok, text: s, off: p.offs[at]})
}

// skips leading spaces of a continuation line
func (p *inlineParser) skipLineStart() {
	for p.pos < len(p.src) && isSpaceOrTab(p.src[p.pos]) {
		p.pos++
	}
	p.textStart = p.pos
}

func (p *inlineParser) newline() {
	nl := p.pos
	end := nl
	for end > p.textStart && p.src[end-1] == ' ' {
		end--
	}
	hard := nl-end >= 2
	p.flushText(end)
	if hard {
		p.emit(Event{Kind: HardBreakEvent}, end)
	} else {
		p.emit(Event{Kind: SoftBreakEvent}, nl)
	}
	p.pos = nl + 1
	p.skipLineStart()
}

func (p *inlineParser) backslash() {
	if p.pos+1 >= len(p.src) {
		p.pos++
		return
	}
	switch c := p.src[p.pos+1]; {
	case c == '\n':
		p.flushText(p.pos)
		p.emit(Event{Kind: HardBreakEvent}, p.pos)
		p.pos += 2
		p.skipLineStart()
	case isASCIIPunct(c):
		p.flushText(p.pos)
		p.literal(p.src[p.pos+1:p.pos+2], p.pos)
		p.pos += 2
		p.textStart = p.pos
	default:
		p.pos++
	}
}

func (p *inlineParser) codeSpan() {
	start := p.pos
	n := 0
	for p.pos < len(p.src) && p.src[p.pos] == '`' {
		p.pos++
		n++
	}
	closing := backtickStringIndex(p.src, p.pos, n)
	if closing < 0 {
		return
	}
	p.flushText(start)
	content := strings.ReplaceAll(p.src[start+n:closing], "\n", " ")
	if len(content) >= 2 && content[0] == ' ' && content[len(content)-1] == ' ' && strings.Trim(content, " ") != "" {
		content = content[1 : len(content)-1]
	}
	tag := Tag{Kind: CodeTag}
	p.emit(Event{Kind: StartEvent, Tag: tag}, start)
	if content != "" {
		p.emit(Event{Kind: TextEvent, Text: content}, start+n)
	}
	p.emit(Event{Kind: EndEvent, Tag: tag}, closing+n)
	p.pos = closing + n
	p.textStart = p.pos
}

// Returns the index of the first backtick string of exactly length
// backticks at or after start, or -1.
func backtickStringIndex(s string, start, length int) int {
	for i := start; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '`' {
			j++
		}
		if j-i == length {
			return i
		}
		i = j
	}
	return -1
}

func (p *inlineParser) delimRun(c byte) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
	}
	n := p.pos - start
	if c == '~' && n != 2 {
		return
	}
	before, after := ' ', ' '
	if start > 0 {
		before, _ = utf8.DecodeLastRuneInString(p.src[:start])
	}
	if p.pos < len(p.src) {
		after, _ = utf8.DecodeRuneInString(p.src[p.pos:])
	}
	left := !unicode.IsSpace(after) && (!isPunct(after) || unicode.IsSpace(before) || isPunct(before))
	right := !unicode.IsSpace(before) && (!isPunct(before) || unicode.IsSpace(after) || isPunct(after))
	t := &inlineTok{kind: delimTok, ch: c, count: n, orig: n}
	if c == '_' {
		t.canOpen = left && (!right || isPunct(before))
		t.canClose = right && (!left || isPunct(after))
	} else {
		t.canOpen = left
		t.canClose = right
	}
	p.flushText(start)
	t.off = p.offs[start]
	p.toks = append(p.toks, t)
	if t.canOpen || t.canClose {
		p.delims = append(p.delims, t)
	}
	p.textStart = p.pos
}

// Matches closers with openers in delims[bottom:] and turns the matched
// delimiter characters into Start/End events. Leaves delims[:bottom].
func (p *inlineParser) processEmphasis(bottom int) {
	cur := bottom
	for cur < len(p.delims) {
		c := p.delims[cur]
		if !c.canClose {
			cur++
			continue
		}
		o := -1
		for i := cur - 1; i >= bottom; i-- {
			d := p.delims[i]
			if d.ch != c.ch || !d.canOpen {
				continue
			}
			if c.ch != '~' && (c.canOpen || d.canClose) && (d.orig+c.orig)%3 == 0 && (d.orig%3 != 0 || c.orig%3 != 0) {
				continue
			}
			o = i
			break
		}
		if o < 0 {
			if !c.canOpen {
				p.delims = slices.Delete(p.delims, cur, cur+1)
			} else {
				cur++
			}
			continue
		}
		d := p.delims[o]
		n, kind := 1, EmphasisTag
		switch {
		case c.ch == '~':
			n, kind = 2, StrikethroughTag
		case c.count >= 2 && d.count >= 2:
			n, kind = 2, StrongTag
		}
		tag := Tag{Kind: kind}
		d.count -= n
		d.starts = append([]Positioned{{Event{Kind: StartEvent, Tag: tag}, d.off + d.used + d.count}}, d.starts...)
		c.count -= n
		c.used += n
		c.ends = append(c.ends, Positioned{Event{Kind: EndEvent, Tag: tag}, c.off + c.used})

		p.delims = slices.Delete(p.delims, o+1, cur)
		cur = o + 1
		if d.count == 0 {
			p.delims = slices.Delete(p.delims, o, o+1)
			cur--
		}
		if c.count == 0 {
			p.delims = slices.Delete(p.delims, cur, cur+1)
		}
	}
	p.delims = p.delims[:bottom]
}

func (p *inlineParser) openBracket(image bool) {
	w := 1
	if image {
		w = 2
	}
	p.flushText(p.pos)
	t := &inlineTok{kind: bracketTok, text: p.src[p.pos : p.pos+w], off: p.offs[p.pos]}
	p.toks = append(p.toks, t)
	p.brackets = append(p.brackets, bracket{tok: t, image: image, active: true, delims: len(p.delims)})
	p.pos += w
	p.textStart = p.pos
}

func (p *inlineParser) closeBracket() {
	n := len(p.brackets)
	if n == 0 {
		p.pos++
		return
	}
	b := p.brackets[n-1]
	p.brackets = p.brackets[:n-1]
	if !b.active {
		p.pos++
		return
	}
	dest, title, end, ok := parseInlineLink(p.src, p.pos+1)
	if !ok {
		p.pos++
		return
	}
	p.flushText(p.pos)
	p.processEmphasis(b.delims)
	tag := Tag{Kind: LinkTag, Dest: dest, Title: title}
	if b.image {
		tag.Kind = ImageTag
	}
	b.tok.kind = eventTok
	b.tok.ev = Event{Kind: StartEvent, Tag: tag}
	p.emit(Event{Kind: EndEvent, Tag: tag}, p.pos)
	if !b.image {
		// no links in links
		for i := range p.brackets {
			if !p.brackets[i].image {
				p.brackets[i].active = false
			}
		}
	}
	p.pos = end
	p.textStart = p.pos
}

// Nesting limit of unescaped parentheses in a link destination. Deeper
// destinations are not links, which keeps a run of unclosed "[a](" linear.
const maxLinkParens = 32

// Parses "(dest "title")" at s[i:]. Returns the unescaped destination and
// title, and the index just past the closing parenthesis.
func parseInlineLink(s string, i int) (dest, title string, end int, ok bool) {
	if i >= len(s) || s[i] != '(' {
		return "", "", 0, false
	}
	i = skipLinkSpace(s, i+1)
	if i < len(s) && s[i] == '<' {
		j := i + 1
		for j < len(s) && s[j] != '>' && s[j] != '<' && s[j] != '\n' {
			if s[j] == '\\' && j+1 < len(s) {
				j++
			}
			j++
		}
		if j >= len(s) || s[j] != '>' {
			return "", "", 0, false
		}
		dest = s[i+1 : j]
		i = j + 1
	} else {
		j, depth := i, 0
	loop:
		for j < len(s) {
			switch c := s[j]; {
			case c == '\\' && j+1 < len(s) && isASCIIPunct(s[j+1]):
				j++
			case c == '(':
				depth++
				if depth > maxLinkParens {
					return "", "", 0, false
				}
			case c == ')':
				if depth == 0 {
					break loop
				}
				depth--
			case c <= ' ':
				break loop
			}
			j++
		}
		if depth != 0 {
			return "", "", 0, false
		}
		dest = s[i:j]
		i = j
	}
	j := skipLinkSpace(s, i)
	if j > i && j < len(s) && (s[j] == '"' || s[j] == '\'' || s[j] == '(') {
		closing := s[j]
		if closing == '(' {
			closing = ')'
		}
		k := j + 1
		for k < len(s) && s[k] != closing {
			if s[k] == '\\' && k+1 < len(s) {
				k++
			} else if closing == ')' && s[k] == '(' {
				// only escaped parentheses in a (title)
				return "", "", 0, false
			}
			k++
		}
		if k >= len(s) {
			return "", "", 0, false
		}
		title = s[j+1 : k]
		j = skipLinkSpace(s, k+1)
	}
	if j >= len(s) || s[j] != ')' {
		return "", "", 0, false
	}
	return unescapeString(dest), unescapeString(title), j + 1, true
}

func skipLinkSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

func (p *inlineParser) entity() {
	r, n := decodeEntity(p.src[p.pos:])
	if n == 0 {
		p.pos++
		return
	}
	p.flushText(p.pos)
	p.literal(r, p.pos)
	p.pos += n
	p.textStart = p.pos
}

var (
	reAutolink   = regexp.MustCompile(`^<[A-Za-z][A-Za-z0-9.+-]{1,31}:[^\x00-\x20<>]*>`)
	reEmailLink  = regexp.MustCompile(`^<[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*>`)
	reOpenTag    = regexp.MustCompile(`^<[A-Za-z][A-Za-z0-9-]*(?:\s+[A-Za-z_:][A-Za-z0-9_.:-]*(?:\s*=\s*(?:[^\s"'=<>` + "`" + `]+|'[^']*'|"[^"]*"))?)*\s*/?>`)
	reClosingTag = regexp.MustCompile(`^</[A-Za-z][A-Za-z0-9-]*\s*>`)
	reComment    = regexp.MustCompile(`^<!--(?:[^-]|-[^-])*-->`)
)

func (p *inlineParser) angle() {
	s := p.src[p.pos:]
	if p.opts.Has(ExtAutolink) {
		var dest string
		m := reAutolink.FindString(s)
		if m != "" {
			dest = m[1 : len(m)-1]
		} else if m = reEmailLink.FindString(s); m != "" {
			dest = "mailto:" + m[1:len(m)-1]
		}
		if m != "" {
			p.flushText(p.pos)
			tag := Tag{Kind: LinkTag, Dest: dest}
			p.emit(Event{Kind: StartEvent, Tag: tag}, p.pos)
			p.emit(Event{Kind: TextEvent, Text: m[1 : len(m)-1]}, p.pos+1)
			p.emit(Event{Kind: EndEvent, Tag: tag}, p.pos+len(m)-1)
			p.pos += len(m)
			p.textStart = p.pos
			return
		}
	}
	m := reOpenTag.FindString(s)
	if m == "" {
		m = reClosingTag.FindString(s)
	}
	if m == "" {
		m = reComment.FindString(s)
	}
	if m == "" {
		p.pos++
		return
	}
	p.flushText(p.pos)
	p.emit(Event{Kind: HTMLEvent, Text: m}, p.pos)
	p.pos += len(m)
	p.textStart = p.pos
}

// Converts the token list into events. Adjacent literal pieces are merged
// into one Text event.
func (p *inlineParser) events(events []Positioned) []Positioned {
	var (
		text    strings.Builder
		textOff int
	)
	flush := func() {
		if text.Len() > 0 {
			events = append(events, Positioned{Event{Kind: TextEvent, Text: text.String()}, textOff})
			text.Reset()
		}
	}
	add := func(s string, off int) {
		if s == "" {
			return
		}
		if text.Len() == 0 {
			textOff = off
		}
		text.WriteString(s)
	}
	for _, t := range p.toks {
		switch t.kind {
		case textTok, bracketTok:
			add(t.text, t.off)
		case delimTok:
			if len(t.ends) > 0 {
				flush()
				events = append(events, t.ends...)
			}
			add(strings.Repeat(string(t.ch), t.count), t.off+t.used)
			if len(t.starts) > 0 {
				flush()
				events = append(events, t.starts...)
			}
		case eventTok:
			flush()
			events = append(events, Positioned{t.ev, t.off})
		}
	}
	flush()
	return events
}

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func isASCIIPunct(c byte) bool {
	return strings.IndexByte(asciiPunct, c) >= 0
}

func isPunct(r rune) bool {
	if r < utf8.RuneSelf {
		return isASCIIPunct(byte(r))
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
