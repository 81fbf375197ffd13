package mdstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDocs = []string{
	"",
	"a\n",
	"- a\n- b\n",
	"- a\n\n- b\n",
	"1. a\n\n   b\n",
	"- a\n  - b\n\n  - c\n",
	"> - a\n>\n> - b\n",
	"# h\n\ntext *em* **strong**\n\n    code\n\n```go\nx\n```\n",
	"a\n---\n***\n> q\nlazy\n",
	"- a\n  > q\n- b\n\n1) x\n2) y\n",
	"* a\r\n* b\r\n\r\n  c\r\n",
	"-\n  foo\n- \n- bar\n",
	"\t- tab\n\t\tcode\n",
	"[*a*](/u) `b` <https://x.y> &amp;  \nc\\\nd\n",
}

func collect(text string, opts Options) ([]Positioned, ParseInfo) {
	r := NewRawParser(text, opts)
	var events []Positioned
	for {
		ev, ok := r.Next()
		if !ok {
			return events, r.Info()
		}
		events = append(events, Positioned{ev, r.Offset()})
	}
}

func TestRawParser_Loose(t *testing.T) {
	tests := []struct {
		text  string
		loose []int
	}{
		{"- a\n- b\n", []int{}},
		{"- a\n\n- b\n", []int{0}},
		{"1. a\n\n   b\n", []int{0}},
		{"- a\n- b\n\nc\n", []int{}},
		{"- a\n  - b\n\n  - c\n", []int{6}},
		{"- a\n\n  - b\n", []int{0}},
		{"> - a\n>\n> - b\n", []int{2}},
		{"- a\n- b\n\n\n- c\n", []int{0}},
		{"x\n\n- a\n- b\n\n+ c\n\n+ d\n", []int{12}},
	}
	for _, tt := range tests {
		_, info := collect(tt.text, DefaultOptions)
		assert.Equal(t, tt.loose, info.LooseLists.Sorted(), "%q", tt.text)
	}
}

func TestRawParser_LooseOffsetsAreListStarts(t *testing.T) {
	for _, text := range testDocs {
		events, info := collect(text, DefaultOptions)
		starts := map[int]bool{}
		for _, pe := range events {
			if pe.IsStart(ListTag) {
				require.False(t, starts[pe.Offset], "two lists start at %d in %q", pe.Offset, text)
				starts[pe.Offset] = true
			}
		}
		for _, o := range info.LooseLists.Sorted() {
			assert.True(t, starts[o], "loose offset %d is not a list start in %q", o, text)
		}
	}
}

func TestRawParser_Stream(t *testing.T) {
	for _, text := range testDocs {
		events, _ := collect(text, DefaultOptions.WithExt(ExtStrikethrough))
		var stack []TagKind
		last := 0
		for _, pe := range events {
			assert.GreaterOrEqual(t, pe.Offset, last, "offsets decrease in %q at %v", text, pe.Event)
			assert.LessOrEqual(t, pe.Offset, len(text))
			last = pe.Offset
			switch pe.Kind {
			case StartEvent:
				assert.True(t, pe.Tag.Kind.Known())
				stack = append(stack, pe.Tag.Kind)
			case EndEvent:
				require.NotEmpty(t, stack, "unbalanced End in %q", text)
				assert.Equal(t, stack[len(stack)-1], pe.Tag.Kind, "misnested End in %q", text)
				stack = stack[:len(stack)-1]
			}
		}
		assert.Empty(t, stack, "unclosed scopes in %q", text)
	}
}

func TestRawParser_Blocks(t *testing.T) {
	para := func(inner ...Event) []Event {
		return append(append([]Event{{Kind: StartEvent, Tag: Tag{Kind: ParagraphTag}}}, inner...),
			Event{Kind: EndEvent, Tag: Tag{Kind: ParagraphTag}})
	}
	text := func(s string) Event { return Event{Kind: TextEvent, Text: s} }
	wrap := func(tag Tag, inner ...Event) []Event {
		return append(append([]Event{{Kind: StartEvent, Tag: tag}}, inner...), Event{Kind: EndEvent, Tag: tag})
	}
	tests := []struct {
		name string
		text string
		want []Event
	}{
		{"atx header", "## Title ##\n", wrap(Tag{Kind: HeaderTag, Level: 2}, text("Title"))},
		{"setext header", "Title\n===\n", wrap(Tag{Kind: HeaderTag, Level: 1}, text("Title"))},
		{"empty header", "#\n", wrap(Tag{Kind: HeaderTag, Level: 1})},
		{"rule", "- - -\n", wrap(Tag{Kind: RuleTag})},
		{"fenced code", "```go extra\na\n\nb\n```\n", wrap(Tag{Kind: CodeBlockTag, Info: "go"}, text("a\n"), text("\n"), text("b\n"))},
		{"unclosed fence", "~~~\na\n", wrap(Tag{Kind: CodeBlockTag}, text("a\n"))},
		{"indented code", "    a\n\n    b\n\n", wrap(Tag{Kind: CodeBlockTag}, text("a\n"), text("\n"), text("b\n"))},
		{"paragraph lines", "a\n  b\n", para(text("a"), Event{Kind: SoftBreakEvent}, text("b"))},
		{"lazy quote", "> a\nb\n", wrap(Tag{Kind: BlockQuoteTag}, para(text("a"), Event{Kind: SoftBreakEvent}, text("b"))...)},
		{"crlf", "a\r\nb\r\n", para(text("a"), Event{Kind: SoftBreakEvent}, text("b"))},
		{"code does not interrupt a paragraph", "a\n    b\n", para(text("a"), Event{Kind: SoftBreakEvent}, text("b"))},
		{"ordered item must start at 1 to interrupt", "a\n2. b\n", para(text("a"), Event{Kind: SoftBreakEvent}, text("2. b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, _ := collect(tt.text, DefaultOptions)
			got := make([]Event, len(events))
			for i := range events {
				got[i] = events[i].Event
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawParser_Lists(t *testing.T) {
	t.Run("Should start a new list on a marker change", func(t *testing.T) {
		events, _ := collect("- a\n+ b\n", DefaultOptions)
		n := 0
		for _, pe := range events {
			if pe.IsStart(ListTag) {
				n++
			}
		}
		assert.Equal(t, 2, n)
	})

	t.Run("Should record the start number of ordered lists", func(t *testing.T) {
		events, _ := collect("7) a\n8) b\n", DefaultOptions)
		require.NotEmpty(t, events)
		assert.Equal(t, Tag{Kind: ListTag, Ordered: true, Start: 7}, events[0].Tag)
	})

	t.Run("Should position items at their markers", func(t *testing.T) {
		events, _ := collect("- a\n  - b\n", DefaultOptions)
		var items []int
		for _, pe := range events {
			if pe.IsStart(ItemTag) {
				items = append(items, pe.Offset)
			}
		}
		assert.Equal(t, []int{0, 6}, items)
	})
}

func TestParser_StackDepth(t *testing.T) {
	for _, text := range testDocs {
		p := NewParser(text)
		open := 0
		for {
			ev, ok := p.Next()
			if !ok {
				break
			}
			switch {
			case ev.IsStart(ListTag), ev.IsStart(BlockQuoteTag):
				open++
			case ev.IsEnd(ListTag), ev.IsEnd(BlockQuoteTag):
				open--
			}
			assert.Equal(t, open, len(p.loose), "%q after %v", text, ev)
		}
		assert.Empty(t, p.loose)
	}
}
