// Package dot provides terse constructors for event streams, mostly for
// tests and filters:
//
//	events := dot.BulletList(
//	    dot.Item(dot.Text("a")),
//	    dot.Item(dot.Text("b")),
//	)
package dot

import "github.com/growler/go-mdstream"

const (
	Continue mdstream.WalkResult = mdstream.WalkContinue
	Replace  mdstream.WalkResult = mdstream.WalkReplace
	Skip     mdstream.WalkResult = mdstream.WalkSkip
	Stop     mdstream.WalkResult = mdstream.WalkStop
)

var (
	ParagraphTag     = mdstream.Tag{Kind: mdstream.ParagraphTag}
	BlockQuoteTag    = mdstream.Tag{Kind: mdstream.BlockQuoteTag}
	ItemTag          = mdstream.Tag{Kind: mdstream.ItemTag}
	RuleTag          = mdstream.Tag{Kind: mdstream.RuleTag}
	EmphasisTag      = mdstream.Tag{Kind: mdstream.EmphasisTag}
	StrongTag        = mdstream.Tag{Kind: mdstream.StrongTag}
	StrikethroughTag = mdstream.Tag{Kind: mdstream.StrikethroughTag}
	CodeTag          = mdstream.Tag{Kind: mdstream.CodeTag}
)

// Bullet list tag
func ListTag() mdstream.Tag {
	return mdstream.Tag{Kind: mdstream.ListTag}
}

// Ordered list tag starting at n
func OrderedTag(n int) mdstream.Tag {
	return mdstream.Tag{Kind: mdstream.ListTag, Ordered: true, Start: n}
}

// Header tag of the given level
func HeaderTag(level int) mdstream.Tag {
	return mdstream.Tag{Kind: mdstream.HeaderTag, Level: level}
}

func CodeBlockTag(info string) mdstream.Tag {
	return mdstream.Tag{Kind: mdstream.CodeBlockTag, Info: info}
}

func LinkTag(dest, title string) mdstream.Tag {
	return mdstream.Tag{Kind: mdstream.LinkTag, Dest: dest, Title: title}
}

func StartOf(t mdstream.Tag) mdstream.Event {
	return mdstream.Event{Kind: mdstream.StartEvent, Tag: t}
}

func EndOf(t mdstream.Tag) mdstream.Event {
	return mdstream.Event{Kind: mdstream.EndEvent, Tag: t}
}

// Positions an event.
func At(off int, ev mdstream.Event) mdstream.Positioned {
	return mdstream.Positioned{Event: ev, Offset: off}
}

// Concatenates event sequences.
func Events(seqs ...[]mdstream.Event) []mdstream.Event {
	var r []mdstream.Event
	for _, s := range seqs {
		r = append(r, s...)
	}
	return r
}

// Wraps the concatenated inner sequences in Start(t) and End(t).
func Wrap(t mdstream.Tag, inner ...[]mdstream.Event) []mdstream.Event {
	return append(append([]mdstream.Event{StartOf(t)}, Events(inner...)...), EndOf(t))
}

// Text event
func Text(s string) []mdstream.Event {
	return []mdstream.Event{{Kind: mdstream.TextEvent, Text: s}}
}

// Raw HTML event
func HTML(s string) []mdstream.Event {
	return []mdstream.Event{{Kind: mdstream.HTMLEvent, Text: s}}
}

func SoftBreak() []mdstream.Event {
	return []mdstream.Event{{Kind: mdstream.SoftBreakEvent}}
}

func HardBreak() []mdstream.Event {
	return []mdstream.Event{{Kind: mdstream.HardBreakEvent}}
}

// Paragraph (list of inlines)
func Para(i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(ParagraphTag, i...)
}

// Header. The first argument is the level.
func Header(level int, i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(HeaderTag(level), i...)
}

// Block quote (list of blocks)
func Quote(b ...[]mdstream.Event) []mdstream.Event {
	return Wrap(BlockQuoteTag, b...)
}

// Code block with the given info string and text
func CodeBlock(info, text string) []mdstream.Event {
	return Wrap(CodeBlockTag(info), Text(text))
}

// List item (list of blocks)
func Item(b ...[]mdstream.Event) []mdstream.Event {
	return Wrap(ItemTag, b...)
}

// Bullet list (list of items)
func BulletList(items ...[]mdstream.Event) []mdstream.Event {
	return Wrap(ListTag(), items...)
}

// Ordered list (list of items). The first argument is the start number.
func OrderedList(start int, items ...[]mdstream.Event) []mdstream.Event {
	return Wrap(OrderedTag(start), items...)
}

// Thematic break
func Rule() []mdstream.Event {
	return Wrap(RuleTag)
}

// Emphasized text (list of inlines)
func Emph(i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(EmphasisTag, i...)
}

// Strongly emphasized text (list of inlines)
func Strong(i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(StrongTag, i...)
}

// Strikeout text (list of inlines)
func Strike(i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(StrikethroughTag, i...)
}

// Inline code
func Code(s string) []mdstream.Event {
	return Wrap(CodeTag, Text(s))
}

// Link (list of inlines)
func Link(dest, title string, i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(LinkTag(dest, title), i...)
}

// Image. The inlines are its description.
func Image(dest, title string, i ...[]mdstream.Event) []mdstream.Event {
	return Wrap(mdstream.Tag{Kind: mdstream.ImageTag, Dest: dest, Title: title}, i...)
}
