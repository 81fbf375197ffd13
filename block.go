package mdstream

import (
	"strings"
)

type blockKind uint8

const (
	docBlock blockKind = iota
	quoteBlock
	listBlock
	itemBlock
	paraBlock
	headerBlock
	ruleBlock
	indentedCodeBlock
	fencedCodeBlock
)

// A piece of source text with the offset of its first byte.
type span struct {
	off  int
	text string
}

func (s span) end() int { return s.off + len(s.text) }

// Node of the block tree built by the first scan.
type block struct {
	kind     blockKind
	parent   *block
	children []*block
	open     bool
	start    int // offset of the first byte of the block
	end      int // offset just past the last content byte
	first    int // first line
	last     int // last line holding content

	// lists and items
	ordered bool
	marker  byte // '-', '+' or '*' for bullets, '.' or ')' for ordered
	number  int  // first number of an ordered list
	indent  int  // item content column, relative to the parent container

	// leaves
	level       int
	lines       []span
	fence       byte
	fenceLen    int
	fenceIndent int
	info        string
}

func (b *block) lastChild() *block {
	if len(b.children) == 0 {
		return nil
	}
	return b.children[len(b.children)-1]
}

func (b *block) isContainer() bool {
	switch b.kind {
	case docBlock, quoteBlock, listBlock, itemBlock:
		return true
	}
	return false
}

func (b *block) canContain(k blockKind) bool {
	switch b.kind {
	case docBlock, quoteBlock, itemBlock:
		return k != itemBlock
	case listBlock:
		return k == itemBlock
	}
	return false
}

func (b *block) tag() Tag {
	switch b.kind {
	case quoteBlock:
		return Tag{Kind: BlockQuoteTag}
	case listBlock:
		if b.ordered {
			return Tag{Kind: ListTag, Ordered: true, Start: b.number}
		}
		return Tag{Kind: ListTag}
	case itemBlock:
		return Tag{Kind: ItemTag}
	case paraBlock:
		return Tag{Kind: ParagraphTag}
	case headerBlock:
		return Tag{Kind: HeaderTag, Level: b.level}
	case ruleBlock:
		return Tag{Kind: RuleTag}
	case indentedCodeBlock, fencedCodeBlock:
		return Tag{Kind: CodeBlockTag, Info: b.info}
	}
	return Tag{}
}

// A source line being consumed by the block parser. Columns account for
// tabs with a tab stop of 4.
type line struct {
	text string // without the line terminator
	off  int    // offset of text[0]
	pos  int    // next unconsumed byte
	col  int    // column of pos
}

// Returns the width in columns of the whitespace at pos and the index of
// the first byte after it.
func (l *line) peekIndent() (int, int) {
	col := l.col
	i := l.pos
	for ; i < len(l.text); i++ {
		switch l.text[i] {
		case ' ':
			col++
		case '\t':
			col += 4 - col%4
		default:
			return col - l.col, i
		}
	}
	return col - l.col, i
}

func (l *line) blank() bool {
	_, i := l.peekIndent()
	return i >= len(l.text)
}

// first non-whitespace byte, or 0 on a blank line
func (l *line) peek() byte {
	_, i := l.peekIndent()
	if i >= len(l.text) {
		return 0
	}
	return l.text[i]
}

// Consumes up to n columns of whitespace. A tab that straddles the limit
// is consumed whole.
func (l *line) skipCols(n int) {
	for n > 0 && l.pos < len(l.text) {
		var w int
		switch l.text[l.pos] {
		case ' ':
			w = 1
		case '\t':
			w = 4 - l.col%4
		default:
			return
		}
		l.pos++
		l.col += w
		n -= w
	}
}

func (l *line) skipIndent() {
	n, _ := l.peekIndent()
	l.skipCols(n)
}

// Consumes n non-whitespace bytes.
func (l *line) advance(n int) {
	l.pos += n
	l.col += n
}

func (l *line) rest() string { return l.text[l.pos:] }

func (l *line) offset() int { return l.off + l.pos }

func (l *line) toEnd() {
	l.col += len(l.text) - l.pos
	l.pos = len(l.text)
}

func isSpaceOrTab(c byte) bool { return c == ' ' || c == '\t' }

// Parses an ATX header at the start of s. Returns the level (0 if s is
// not a header), and the start and end of the content within s.
func parseATXHeader(s string) (level, from, to int) {
	for level < len(s) && s[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return 0, 0, 0
	}
	if level < len(s) && !isSpaceOrTab(s[level]) {
		return 0, 0, 0
	}
	from = level
	for from < len(s) && isSpaceOrTab(s[from]) {
		from++
	}
	to = len(s)
	for to > from && isSpaceOrTab(s[to-1]) {
		to--
	}
	// optional closing sequence, must be preceded by a space
	closing := to
	for closing > from && s[closing-1] == '#' {
		closing--
	}
	if closing == from {
		to = from
	} else if closing < to && isSpaceOrTab(s[closing-1]) {
		to = closing
		for to > from && isSpaceOrTab(s[to-1]) {
			to--
		}
	}
	return level, from, to
}

// Parses an opening code fence. Returns the fence character and length,
// and the info string.
func parseOpeningFence(s string) (byte, int, string, bool) {
	if len(s) < 3 || (s[0] != '`' && s[0] != '~') {
		return 0, 0, "", false
	}
	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(s[n:])
	if c == '`' && strings.IndexByte(info, '`') >= 0 {
		return 0, 0, "", false
	}
	if i := strings.IndexAny(info, " \t"); i >= 0 {
		info = info[:i]
	}
	return c, n, unescapeString(info), true
}

// Returns true if s closes a fence of n characters c.
func isClosingFence(s string, c byte, n int) bool {
	i := 0
	for i < len(s) && s[i] == c {
		i++
	}
	if i < n {
		return false
	}
	return strings.TrimRight(s[i:], " \t") == ""
}

// Returns the setext header level for an underline, or 0.
func parseSetextUnderline(s string) int {
	if s == "" || (s[0] != '=' && s[0] != '-') {
		return 0
	}
	c := s[0]
	i := 0
	for i < len(s) && s[i] == c {
		i++
	}
	if strings.TrimRight(s[i:], " \t") != "" {
		return 0
	}
	if c == '=' {
		return 1
	}
	return 2
}

// Three or more matching -, _ or * characters, optionally separated by
// spaces or tabs.
func isThematicBreak(s string) bool {
	var c byte
	n := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t':
		case '-', '_', '*':
			if c == 0 {
				c = s[i]
			} else if s[i] != c {
				return false
			}
			n++
		default:
			return false
		}
	}
	return n >= 3
}

type listMarker struct {
	ordered bool
	marker  byte
	number  int
	width   int
}

// Parses a list marker at the start of s. The marker must be followed by
// whitespace or the end of the line.
func parseListMarker(s string) (listMarker, bool) {
	if s == "" {
		return listMarker{}, false
	}
	var m listMarker
	switch s[0] {
	case '-', '+', '*':
		m = listMarker{marker: s[0], width: 1}
	default:
		n, i := 0, 0
		for i < len(s) && i < 9 && s[i] >= '0' && s[i] <= '9' {
			n = n*10 + int(s[i]-'0')
			i++
		}
		if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
			return listMarker{}, false
		}
		m = listMarker{ordered: true, marker: s[i], number: n, width: i + 1}
	}
	if m.width < len(s) && !isSpaceOrTab(s[m.width]) {
		return listMarker{}, false
	}
	return m, true
}
