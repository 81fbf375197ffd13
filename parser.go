package mdstream

import "iter"

// Parser is the second pass over a markdown document. It replays the
// events of a complete raw parse and drops Paragraph markers inside tight
// lists.
//
// A Parser is single use: once exhausted it stays exhausted. Parse the
// text again to get a fresh stream.
type Parser struct {
	events []Positioned // raw events, consumed front to back
	pos    int          // next event in events
	offset int          // offset of the last pulled event
	info   ParseInfo
	loose  []bool // looseness of open List and BlockQuote scopes, innermost last
}

// Parses text with DefaultOptions.
func NewParser(text string) *Parser {
	return NewParserOptions(text, DefaultOptions)
}

// Runs the raw parser over text to completion and returns the second pass
// over its events.
func NewParserOptions(text string, opts Options) *Parser {
	raw := NewRawParser(text, opts)
	var events []Positioned
	for {
		ev, ok := raw.Next()
		if !ok {
			break
		}
		events = append(events, Positioned{Event: ev, Offset: raw.Offset()})
	}
	return Normalize(events, raw.Info())
}

// Returns the second pass over an already materialized raw event
// sequence. The parser takes ownership of events.
//
// Start/End pairs in events are expected to be well nested; an End(List)
// or End(BlockQuote) without a matching Start is passed through and
// otherwise ignored.
func Normalize(events []Positioned, info ParseInfo) *Parser {
	return &Parser{
		events: events,
		info:   info,
	}
}

// Returns the next event of the normalized stream, or false at the end of
// the stream.
func (p *Parser) Next() (Event, bool) {
	for p.pos < len(p.events) {
		pe := p.events[p.pos]
		p.pos++
		p.offset = pe.Offset
		switch pe.Kind {
		case StartEvent:
			switch pe.Tag.Kind {
			case ListTag:
				p.loose = append(p.loose, p.info.LooseLists.Has(pe.Offset))
			case BlockQuoteTag:
				p.loose = append(p.loose, true)
			case ParagraphTag:
				if p.tight() {
					continue
				}
			}
		case EndEvent:
			switch pe.Tag.Kind {
			case ListTag, BlockQuoteTag:
				if n := len(p.loose); n > 0 {
					p.loose = p.loose[:n-1]
				}
			case ParagraphTag:
				if p.tight() {
					continue
				}
			}
		}
		return pe.Event, true
	}
	return Event{}, false
}

// innermost open scope is a tight list
func (p *Parser) tight() bool {
	n := len(p.loose)
	return n > 0 && !p.loose[n-1]
}

// Returns the byte offset of the most recently pulled raw event, whether
// or not that event was emitted.
func (p *Parser) Offset() int {
	return p.offset
}

// Returns the remaining normalized stream as an iterator.
//
//	for ev := range p.All() {
//	    ...
//	}
func (p *Parser) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			ev, ok := p.Next()
			if !ok || !yield(ev) {
				return
			}
		}
	}
}
