// Package mdstream implements a two-pass pull parser for markdown.
//
// The first pass ([RawParser]) scans the whole text and produces a flat
// sequence of structural events together with the set of lists that turned
// out to be loose. The second pass ([Parser]) replays that sequence and
// drops paragraph markers inside tight lists, so consumers see the stream
// a CommonMark renderer expects.
//
//	p := mdstream.NewParser("- a\n- b\n")
//	for ev := range p.All() {
//	    fmt.Println(ev)
//	}
package mdstream

import (
	"slices"
	"strconv"
	"strings"
)

// Kind of a stream event.
type EventKind uint8

const (
	StartEvent     EventKind = iota + 1 // Start of a tagged region
	EndEvent                            // End of a tagged region
	TextEvent                           // Literal text
	HTMLEvent                           // Raw inline HTML
	SoftBreakEvent                      // Soft line break
	HardBreakEvent                      // Hard line break
)

func (k EventKind) String() string {
	switch k {
	case StartEvent:
		return "Start"
	case EndEvent:
		return "End"
	case TextEvent:
		return "Text"
	case HTMLEvent:
		return "Html"
	case SoftBreakEvent:
		return "SoftBreak"
	case HardBreakEvent:
		return "HardBreak"
	default:
		return "EventKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Markdown region tag
type TagKind string

func (t TagKind) String() string { return string(t) }

const (
	ParagraphTag     = TagKind("Paragraph")
	HeaderTag        = TagKind("Header")
	BlockQuoteTag    = TagKind("BlockQuote")
	CodeBlockTag     = TagKind("CodeBlock")
	ListTag          = TagKind("List")
	ItemTag          = TagKind("Item")
	RuleTag          = TagKind("Rule")
	EmphasisTag      = TagKind("Emphasis")
	StrongTag        = TagKind("Strong")
	StrikethroughTag = TagKind("Strikethrough")
	CodeTag          = TagKind("Code")
	LinkTag          = TagKind("Link")
	ImageTag         = TagKind("Image")
)

var tagKinds = []TagKind{
	ParagraphTag, HeaderTag, BlockQuoteTag, CodeBlockTag, ListTag, ItemTag, RuleTag,
	EmphasisTag, StrongTag, StrikethroughTag, CodeTag, LinkTag, ImageTag,
}

// Returns true if t is one of the tags produced by the raw parser.
func (t TagKind) Known() bool {
	return slices.Contains(tagKinds, t)
}

// A tag with its metadata. Fields not relevant to Kind are zero.
type Tag struct {
	Kind    TagKind
	Level   int    // Header level, 1 to 6
	Ordered bool   // List is ordered
	Start   int    // Number of the first item of an ordered list
	Info    string // CodeBlock info string
	Dest    string // Link or Image destination
	Title   string // Link or Image title
}

// Stream event. Tag is set for Start and End events, Text for Text and
// Html events.
type Event struct {
	Kind EventKind
	Tag  Tag
	Text string
}

// Returns true if e starts a region tagged k.
func (e Event) IsStart(k TagKind) bool {
	return e.Kind == StartEvent && e.Tag.Kind == k
}

// Returns true if e ends a region tagged k.
func (e Event) IsEnd(k TagKind) bool {
	return e.Kind == EndEvent && e.Tag.Kind == k
}

func (e Event) String() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	switch e.Kind {
	case StartEvent, EndEvent:
		sb.WriteByte('(')
		sb.WriteString(string(e.Tag.Kind))
		switch e.Tag.Kind {
		case HeaderTag:
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(e.Tag.Level))
		case ListTag:
			if e.Tag.Ordered {
				sb.WriteByte(' ')
				sb.WriteString(strconv.Itoa(e.Tag.Start))
			}
		case CodeBlockTag:
			if e.Tag.Info != "" {
				sb.WriteByte(' ')
				sb.WriteString(e.Tag.Info)
			}
		case LinkTag, ImageTag:
			sb.WriteByte(' ')
			sb.WriteString(strconv.Quote(e.Tag.Dest))
		}
		sb.WriteByte(')')
	case TextEvent, HTMLEvent:
		sb.WriteByte('(')
		sb.WriteString(strconv.Quote(e.Text))
		sb.WriteByte(')')
	}
	return sb.String()
}

// An event together with the byte offset of the tokenizer cursor at the
// time the event was produced.
type Positioned struct {
	Event
	Offset int
}

// Immutable set of byte offsets.
type OffsetSet struct {
	m map[int]struct{}
}

func NewOffsetSet(offsets ...int) OffsetSet {
	var s OffsetSet
	for _, o := range offsets {
		s.add(o)
	}
	return s
}

func (s *OffsetSet) add(off int) {
	if s.m == nil {
		s.m = make(map[int]struct{})
	}
	s.m[off] = struct{}{}
}

func (s OffsetSet) Has(off int) bool {
	_, ok := s.m[off]
	return ok
}

func (s OffsetSet) Len() int { return len(s.m) }

// Returns the offsets in ascending order.
func (s OffsetSet) Sorted() []int {
	r := make([]int, 0, len(s.m))
	for o := range s.m {
		r = append(r, o)
	}
	slices.Sort(r)
	return r
}

// Summary of the raw parse, collected during the same scan that produced
// the events.
type ParseInfo struct {
	// Offsets of Start(List) events of loose lists.
	LooseLists OffsetSet
}
