package mdstream_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growler/go-mdstream"
	"github.com/growler/go-mdstream/dot"
)

// Positions events at consecutive offsets starting from 0.
func positioned(events []mdstream.Event) []mdstream.Positioned {
	r := make([]mdstream.Positioned, len(events))
	for i, ev := range events {
		r[i] = dot.At(i, ev)
	}
	return r
}

func drain(p *mdstream.Parser) ([]mdstream.Event, []int) {
	var (
		events  []mdstream.Event
		offsets []int
	)
	for {
		ev, ok := p.Next()
		if !ok {
			return events, offsets
		}
		events = append(events, ev)
		offsets = append(offsets, p.Offset())
	}
}

func parse(text string) []mdstream.Event {
	return slices.Collect(mdstream.NewParser(text).All())
}

func looseAt(offsets ...int) mdstream.ParseInfo {
	return mdstream.ParseInfo{LooseLists: mdstream.NewOffsetSet(offsets...)}
}

func TestParser_TightList(t *testing.T) {
	t.Run("Should drop paragraph markers of a tight list", func(t *testing.T) {
		assert.Equal(t, dot.BulletList(
			dot.Item(dot.Text("a")),
			dot.Item(dot.Text("b")),
		), parse("- a\n- b\n"))
	})

	t.Run("Should report the offsets of the raw events", func(t *testing.T) {
		_, offsets := drain(mdstream.NewParser("- a\n- b\n"))
		// List, Item, Text, End(Item), Item, Text, End(Item), End(List)
		assert.Equal(t, []int{0, 0, 2, 3, 4, 6, 7, 7}, offsets)
	})
}

func TestParser_LooseList(t *testing.T) {
	t.Run("Should keep paragraph markers of a loose list", func(t *testing.T) {
		assert.Equal(t, dot.BulletList(
			dot.Item(dot.Para(dot.Text("a"))),
			dot.Item(dot.Para(dot.Text("b"))),
		), parse("- a\n\n- b\n"))
	})

	t.Run("Should keep paragraph markers of an item with a blank line inside", func(t *testing.T) {
		assert.Equal(t, dot.OrderedList(1,
			dot.Item(dot.Para(dot.Text("a")), dot.Para(dot.Text("b"))),
		), parse("1. a\n\n   b\n"))
	})
}

func TestParser_Quote(t *testing.T) {
	t.Run("Should keep paragraphs of a quote inside a tight list", func(t *testing.T) {
		assert.Equal(t, dot.BulletList(
			dot.Item(dot.Quote(dot.Para(dot.Text("q")))),
			dot.Item(dot.Text("b")),
		), parse("- > q\n- b\n"))
	})

	t.Run("Should keep paragraphs outside of lists", func(t *testing.T) {
		assert.Equal(t, dot.Events(
			dot.Para(dot.Text("a")),
			dot.Quote(dot.Para(dot.Text("b"))),
		), parse("a\n\n> b\n"))
	})
}

func TestParser_Nesting(t *testing.T) {
	t.Run("Should treat a loose list inside a tight list independently", func(t *testing.T) {
		events := dot.BulletList(
			dot.Item(
				dot.Para(dot.Text("x")),
				dot.BulletList(
					dot.Item(dot.Para(dot.Text("y"))),
				),
				dot.Para(dot.Text("z")),
			),
		)
		// offsets are event indices, the inner list starts at 5
		got, _ := drain(mdstream.Normalize(positioned(events), looseAt(5)))
		assert.Equal(t, dot.BulletList(
			dot.Item(
				dot.Text("x"),
				dot.BulletList(
					dot.Item(dot.Para(dot.Text("y"))),
				),
				dot.Text("z"),
			),
		), got)
	})

	t.Run("Should treat a tight list inside a loose list independently", func(t *testing.T) {
		assert.Equal(t, dot.BulletList(
			dot.Item(
				dot.Para(dot.Text("a")),
				dot.BulletList(dot.Item(dot.Text("b")), dot.Item(dot.Text("c"))),
			),
			dot.Item(dot.Para(dot.Text("d"))),
		), parse("- a\n  - b\n  - c\n\n- d\n"))
	})

	t.Run("Should restore the outer context after a quote closes", func(t *testing.T) {
		assert.Equal(t, dot.BulletList(
			dot.Item(
				dot.Text("a"),
				dot.Quote(dot.Para(dot.Text("q"))),
			),
			dot.Item(dot.Text("b")),
		), parse("- a\n  > q\n- b\n"))
	})
}

func TestParser_Normalize(t *testing.T) {
	t.Run("Should pass through End events on an empty stack", func(t *testing.T) {
		raw := positioned(dot.Events(
			[]mdstream.Event{dot.EndOf(dot.ListTag())},
			[]mdstream.Event{dot.EndOf(dot.BlockQuoteTag)},
			dot.Para(dot.Text("a")),
		))
		got, _ := drain(mdstream.Normalize(raw, mdstream.ParseInfo{}))
		assert.Equal(t, dot.Events(
			[]mdstream.Event{dot.EndOf(dot.ListTag())},
			[]mdstream.Event{dot.EndOf(dot.BlockQuoteTag)},
			dot.Para(dot.Text("a")),
		), got)
	})

	t.Run("Should tolerate unclosed scopes at the end", func(t *testing.T) {
		raw := positioned([]mdstream.Event{dot.StartOf(dot.ListTag()), dot.StartOf(dot.ItemTag)})
		got, _ := drain(mdstream.Normalize(raw, mdstream.ParseInfo{}))
		assert.Len(t, got, 2)
	})

	t.Run("Should update the offset for suppressed events", func(t *testing.T) {
		raw := []mdstream.Positioned{
			dot.At(0, dot.StartOf(dot.ListTag())),
			dot.At(5, dot.StartOf(dot.ParagraphTag)),
		}
		p := mdstream.Normalize(raw, mdstream.ParseInfo{})
		assert.Equal(t, 0, p.Offset())

		ev, ok := p.Next()
		require.True(t, ok)
		assert.True(t, ev.IsStart(mdstream.ListTag))
		assert.Equal(t, 0, p.Offset())

		_, ok = p.Next()
		assert.False(t, ok)
		assert.Equal(t, 5, p.Offset())
	})

	t.Run("Should report the offset of the emitted event", func(t *testing.T) {
		raw := []mdstream.Positioned{
			dot.At(0, dot.StartOf(dot.ListTag())),
			dot.At(1, dot.StartOf(dot.ItemTag)),
			dot.At(2, dot.StartOf(dot.ParagraphTag)),
			dot.At(2, dot.Text("a")[0]),
			dot.At(3, dot.EndOf(dot.ParagraphTag)),
			dot.At(4, dot.EndOf(dot.ItemTag)),
		}
		p := mdstream.Normalize(raw, mdstream.ParseInfo{})
		p.Next()
		p.Next()
		ev, _ := p.Next()
		assert.Equal(t, mdstream.TextEvent, ev.Kind)
		assert.Equal(t, 2, p.Offset())
		ev, _ = p.Next()
		assert.True(t, ev.IsEnd(mdstream.ItemTag))
		assert.Equal(t, 4, p.Offset())
	})

	t.Run("Should stay exhausted", func(t *testing.T) {
		p := mdstream.NewParser("a\n")
		drain(p)
		for range 3 {
			ev, ok := p.Next()
			assert.False(t, ok)
			assert.Equal(t, mdstream.Event{}, ev)
		}
	})

	t.Run("Should pass unknown tags through", func(t *testing.T) {
		custom := mdstream.Tag{Kind: "Table"}
		raw := positioned(dot.Events(
			dot.BulletList(dot.Item(dot.Wrap(custom, dot.Para(dot.Text("a"))))),
		))
		got, _ := drain(mdstream.Normalize(raw, mdstream.ParseInfo{}))
		assert.Equal(t, dot.BulletList(dot.Item(dot.Wrap(custom, dot.Text("a")))), got)
	})
}

func TestParser_Determinism(t *testing.T) {
	const text = "# t\n\n- a\n- b\n\n  c\n\n> q\n> - x\n> - y\n\n1. *e* **s** `c`\n"
	a, ao := drain(mdstream.NewParser(text))
	b, bo := drain(mdstream.NewParser(text))
	assert.Equal(t, a, b)
	assert.Equal(t, ao, bo)
}

func TestParser_All(t *testing.T) {
	t.Run("Should stop when the consumer stops", func(t *testing.T) {
		p := mdstream.NewParser("- a\n- b\n")
		for ev := range p.All() {
			require.True(t, ev.IsStart(mdstream.ListTag))
			break
		}
		ev, ok := p.Next()
		require.True(t, ok)
		assert.True(t, ev.IsStart(mdstream.ItemTag))
	})
}

func BenchmarkParser(b *testing.B) {
	b.StopTimer()
	text := ""
	for range 200 {
		text += "- item *one*\n- item **two**\n\n  more text with `code` and [a link](/x)\n\n> quote\n\n"
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		p := mdstream.NewParser(text)
		for {
			if _, ok := p.Next(); !ok {
				break
			}
		}
	}
}
