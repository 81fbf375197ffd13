package mdstream

// RawParser is the first pass over a markdown document. It yields the
// structural events of the document in source order, with every
// paragraph still wrapped in Paragraph markers, and collects the offsets
// of loose lists as a side effect of the scan.
//
// Start events are positioned at the first byte of their construct, End
// events just past its last content byte, so offsets never decrease.
type RawParser struct {
	opts   Options
	doc    *block
	info   ParseInfo
	stack  []rawFrame   // open containers being walked
	queue  []Positioned // pending events of the current leaf
	offset int

	// block parser state, valid while scanning
	tip         *block
	oldTip      *block
	lastMatched *block
	allClosed   bool
}

type rawFrame struct {
	b    *block
	next int
}

// Scans text into a block tree. Events are produced lazily by Next.
func NewRawParser(text string, opts Options) *RawParser {
	r := &RawParser{opts: opts}
	r.doc = &block{kind: docBlock, open: true, last: -1}
	r.tip = r.doc
	ln := 0
	for off := 0; off < len(text); ln++ {
		end, next := lineEnd(text, off)
		r.parseLine(&line{text: text[off:end], off: off}, ln)
		off = next
	}
	for r.tip != nil {
		r.finalize(r.tip, ln)
	}
	r.stack = []rawFrame{{b: r.doc}}
	return r
}

// Returns the end of the line starting at off and the start of the next
// one. Lines end with LF, CR or CRLF.
func lineEnd(s string, off int) (int, int) {
	for i := off; i < len(s); i++ {
		switch s[i] {
		case '\n':
			return i, i + 1
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				return i, i + 2
			}
			return i, i + 1
		}
	}
	return len(s), len(s)
}

// Returns the summary of the scan.
func (r *RawParser) Info() ParseInfo {
	return r.info
}

// Returns the offset of the last event returned by Next.
func (r *RawParser) Offset() int {
	return r.offset
}

// Returns the next raw event, or false at the end of the document.
func (r *RawParser) Next() (Event, bool) {
	for len(r.queue) == 0 {
		if len(r.stack) == 0 {
			return Event{}, false
		}
		top := &r.stack[len(r.stack)-1]
		if top.next < len(top.b.children) {
			c := top.b.children[top.next]
			top.next++
			if c.isContainer() {
				r.stack = append(r.stack, rawFrame{b: c})
				r.offset = c.start
				return Event{Kind: StartEvent, Tag: c.tag()}, true
			}
			r.queue = r.leafEvents(c, r.queue[:0])
			continue
		}
		b := top.b
		r.stack = r.stack[:len(r.stack)-1]
		if b.kind != docBlock {
			r.offset = b.end
			return Event{Kind: EndEvent, Tag: b.tag()}, true
		}
	}
	pe := r.queue[0]
	r.queue = r.queue[1:]
	r.offset = pe.Offset
	return pe.Event, true
}

func (r *RawParser) leafEvents(b *block, events []Positioned) []Positioned {
	tag := b.tag()
	events = append(events, Positioned{Event{Kind: StartEvent, Tag: tag}, b.start})
	switch b.kind {
	case paraBlock, headerBlock:
		events = parseInlines(b.lines, r.opts, events)
	case indentedCodeBlock, fencedCodeBlock:
		for _, s := range b.lines {
			events = append(events, Positioned{Event{Kind: TextEvent, Text: s.text + "\n"}, s.off})
		}
	}
	return append(events, Positioned{Event{Kind: EndEvent, Tag: tag}, b.end})
}

// Records content on line ln ending at end for b and its ancestors.
func (r *RawParser) touch(b *block, ln, end int) {
	for ; b != nil; b = b.parent {
		b.last = ln
		if end > b.end {
			b.end = end
		}
	}
}

func (r *RawParser) addChild(kind blockKind, start, ln int) *block {
	for !r.tip.canContain(kind) {
		r.finalize(r.tip, ln)
	}
	b := &block{kind: kind, parent: r.tip, open: true, start: start, end: start, first: ln, last: ln}
	r.tip.children = append(r.tip.children, b)
	r.tip = b
	return b
}

func (r *RawParser) closeUnmatched(ln int) {
	if r.allClosed {
		return
	}
	for r.oldTip != r.lastMatched {
		parent := r.oldTip.parent
		r.finalize(r.oldTip, ln)
		r.oldTip = parent
	}
	r.allClosed = true
}

func (r *RawParser) finalize(b *block, ln int) {
	b.open = false
	r.tip = b.parent
	switch b.kind {
	case indentedCodeBlock:
		n := len(b.lines)
		for n > 0 && trimRightSpace(b.lines[n-1].text) == "" {
			n--
		}
		b.lines = b.lines[:n]
	case listBlock:
		if isLoose(b) {
			r.info.LooseLists.add(b.start)
		}
	}
}

// A list is loose if a blank line separates two of its items, or two
// direct children of one of its items.
func isLoose(list *block) bool {
	for i, item := range list.children {
		if i > 0 && item.first > list.children[i-1].last+1 {
			return true
		}
		for j := 1; j < len(item.children); j++ {
			if item.children[j].first > item.children[j-1].last+1 {
				return true
			}
		}
	}
	return false
}

// Checks whether the open block b continues on l, consuming its
// continuation markup. done reports that l was consumed entirely.
func (r *RawParser) continues(b *block, l *line, ln int) (ok, done bool) {
	indent, _ := l.peekIndent()
	switch b.kind {
	case quoteBlock:
		if indent < 4 && l.peek() == '>' {
			l.skipIndent()
			l.advance(1)
			if l.pos < len(l.text) && isSpaceOrTab(l.text[l.pos]) {
				l.skipCols(1)
			}
			return true, false
		}
		return false, false
	case itemBlock:
		if l.blank() {
			if len(b.children) == 0 {
				return false, false
			}
			l.skipIndent()
			return true, false
		}
		if indent >= b.indent {
			l.skipCols(b.indent)
			return true, false
		}
		return false, false
	case indentedCodeBlock:
		if indent >= 4 {
			l.skipCols(4)
			return true, false
		}
		if l.blank() {
			l.skipIndent()
			return true, false
		}
		return false, false
	case fencedCodeBlock:
		if indent < 4 {
			_, i := l.peekIndent()
			if isClosingFence(l.text[i:], b.fence, b.fenceLen) {
				r.touch(b, ln, l.off+len(l.text))
				r.finalize(b, ln)
				return true, true
			}
		}
		l.skipCols(b.fenceIndent)
		return true, false
	case paraBlock:
		return !l.blank(), false
	case headerBlock, ruleBlock:
		return false, false
	}
	return true, false
}

func (r *RawParser) parseLine(l *line, ln int) {
	container := r.doc
	r.oldTip = r.tip
	for {
		c := container.lastChild()
		if c == nil || !c.open {
			break
		}
		ok, done := r.continues(c, l, ln)
		if done {
			return
		}
		if !ok {
			break
		}
		container = c
	}
	r.allClosed = container == r.oldTip
	r.lastMatched = container

	consumed := false
	if container.kind != fencedCodeBlock && container.kind != indentedCodeBlock {
		container, consumed = r.openBlocks(container, l, ln)
	}
	if consumed {
		return
	}

	blank := l.blank()
	if !r.allClosed && !blank && r.tip.kind == paraBlock {
		// lazy continuation
		r.addText(r.tip, l, ln)
		return
	}
	r.closeUnmatched(ln)
	switch container.kind {
	case paraBlock:
		if !blank {
			r.addText(container, l, ln)
		}
	case indentedCodeBlock, fencedCodeBlock:
		r.addCode(container, l, ln)
	case headerBlock, ruleBlock:
	default:
		if !blank {
			l.skipIndent()
			p := r.addChild(paraBlock, l.offset(), ln)
			r.addText(p, l, ln)
		}
	}
}

// Starts new blocks on l as children of container. Returns the innermost
// block started, or container when nothing was started, and whether the
// line was consumed completely.
func (r *RawParser) openBlocks(container *block, l *line, ln int) (*block, bool) {
	for {
		indent, i := l.peekIndent()
		indented := indent >= 4
		rest := l.text[i:]
		if !indented {
			if l.peek() == '>' {
				r.closeUnmatched(ln)
				l.skipIndent()
				start := l.offset()
				l.advance(1)
				if l.pos < len(l.text) && isSpaceOrTab(l.text[l.pos]) {
					l.skipCols(1)
				}
				container = r.addChild(quoteBlock, start, ln)
				r.touch(container, ln, start+1)
				continue
			}
			if level, from, to := parseATXHeader(rest); level > 0 {
				r.closeUnmatched(ln)
				l.skipIndent()
				h := r.addChild(headerBlock, l.offset(), ln)
				h.level = level
				if to > from {
					h.lines = []span{{off: l.offset() + from, text: rest[from:to]}}
				}
				r.touch(h, ln, l.offset()+max(to, level))
				r.finalize(h, ln)
				return h, true
			}
			if c, n, info, ok := parseOpeningFence(rest); ok {
				r.closeUnmatched(ln)
				fenceIndent := indent
				l.skipIndent()
				f := r.addChild(fencedCodeBlock, l.offset(), ln)
				f.fence, f.fenceLen, f.fenceIndent, f.info = c, n, fenceIndent, info
				r.touch(f, ln, l.off+len(l.text))
				return f, true
			}
			if container.kind == paraBlock {
				if level := parseSetextUnderline(rest); level > 0 {
					r.closeUnmatched(ln)
					container.kind = headerBlock
					container.level = level
					r.touch(container, ln, l.off+len(l.text))
					r.finalize(container, ln)
					return container, true
				}
			}
			if isThematicBreak(rest) {
				r.closeUnmatched(ln)
				l.skipIndent()
				hr := r.addChild(ruleBlock, l.offset(), ln)
				r.touch(hr, ln, l.off+len(trimRightSpace(l.text)))
				r.finalize(hr, ln)
				return hr, true
			}
		}
		if !indented || container.kind == listBlock {
			if item := r.startItem(container, l, ln); item != nil {
				container = item
				continue
			}
		}
		if indented && r.tip.kind != paraBlock && !l.blank() {
			r.closeUnmatched(ln)
			l.skipCols(4)
			return r.addChild(indentedCodeBlock, l.offset(), ln), false
		}
		return container, false
	}
}

// Starts a list item on l if it begins with a list marker.
func (r *RawParser) startItem(container *block, l *line, ln int) *block {
	indent, i := l.peekIndent()
	if indent >= 4 {
		return nil
	}
	m, ok := parseListMarker(l.text[i:])
	if !ok {
		return nil
	}
	after := l.text[i+m.width:]
	if container.kind == paraBlock {
		// an item may interrupt a paragraph only if it has content, and
		// an ordered one only if it starts with 1
		if trimRightSpace(after) == "" || (m.ordered && m.number != 1) {
			return nil
		}
	}
	r.closeUnmatched(ln)
	startCol := l.col
	l.skipIndent()
	start := l.offset()
	markerOffset := l.col - startCol
	l.advance(m.width)
	padding := m.width + 1
	if spaces, j := l.peekIndent(); j >= len(l.text) {
		l.skipIndent()
	} else if spaces >= 5 {
		l.skipCols(1)
	} else {
		padding = m.width + spaces
		l.skipCols(spaces)
	}

	if r.tip.kind != listBlock || r.tip.ordered != m.ordered || r.tip.marker != m.marker {
		list := r.addChild(listBlock, start, ln)
		list.ordered, list.marker, list.number = m.ordered, m.marker, m.number
	}
	item := r.addChild(itemBlock, start, ln)
	item.indent = markerOffset + padding
	r.touch(item, ln, start+m.width)
	return item
}

func (r *RawParser) addText(p *block, l *line, ln int) {
	l.skipIndent()
	s := span{off: l.offset(), text: l.rest()}
	p.lines = append(p.lines, s)
	r.touch(p, ln, s.off+len(trimRightSpace(s.text)))
}

func (r *RawParser) addCode(c *block, l *line, ln int) {
	s := span{off: l.offset(), text: l.rest()}
	c.lines = append(c.lines, s)
	if c.kind == fencedCodeBlock || trimRightSpace(s.text) != "" {
		r.touch(c, ln, s.end())
	}
}

func trimRightSpace(s string) string {
	n := len(s)
	for n > 0 && isSpaceOrTab(s[n-1]) {
		n--
	}
	return s[:n]
}
