package mdstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// ErrInvalidDump is returned by ReadDump for dumps that do not describe
// an event stream.
var ErrInvalidDump = errors.New("invalid event dump")

// Serialized form of a positioned event, shared by the JSON writer, the
// dump reader and traces.
type Record struct {
	T       string `yaml:"t" json:"t"`
	Tag     string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Level   int    `yaml:"level,omitempty" json:"level,omitempty"`
	Ordered bool   `yaml:"ordered,omitempty" json:"ordered,omitempty"`
	Start   int    `yaml:"start,omitempty" json:"start,omitempty"`
	Info    string `yaml:"info,omitempty" json:"info,omitempty"`
	Dest    string `yaml:"dest,omitempty" json:"dest,omitempty"`
	Title   string `yaml:"title,omitempty" json:"title,omitempty"`
	Text    string `yaml:"text,omitempty" json:"text,omitempty"`
	Offset  int    `yaml:"offset" json:"offset"`
}

// Dump of a raw parse.
type Dump struct {
	Loose  []int    `yaml:"loose" json:"loose"`
	Events []Record `yaml:"events" json:"events"`
}

func NewRecord(ev Event, off int) Record {
	r := Record{T: ev.Kind.String(), Offset: off}
	switch ev.Kind {
	case StartEvent, EndEvent:
		r.Tag = string(ev.Tag.Kind)
		r.Level = ev.Tag.Level
		r.Ordered = ev.Tag.Ordered
		r.Start = ev.Tag.Start
		r.Info = ev.Tag.Info
		r.Dest = ev.Tag.Dest
		r.Title = ev.Tag.Title
	case TextEvent, HTMLEvent:
		r.Text = ev.Text
	}
	return r
}

var eventKinds = map[string]EventKind{
	"Start":     StartEvent,
	"End":       EndEvent,
	"Text":      TextEvent,
	"Html":      HTMLEvent,
	"SoftBreak": SoftBreakEvent,
	"HardBreak": HardBreakEvent,
}

// Returns the event described by the record.
func (r Record) Event() (Event, error) {
	kind, ok := eventKinds[r.T]
	if !ok {
		return Event{}, fmt.Errorf("%w: unknown event kind %q", ErrInvalidDump, r.T)
	}
	ev := Event{Kind: kind}
	switch kind {
	case StartEvent, EndEvent:
		if r.Tag == "" {
			return Event{}, fmt.Errorf("%w: %s event without a tag", ErrInvalidDump, r.T)
		}
		ev.Tag = Tag{
			Kind:    TagKind(r.Tag),
			Level:   r.Level,
			Ordered: r.Ordered,
			Start:   r.Start,
			Info:    r.Info,
			Dest:    r.Dest,
			Title:   r.Title,
		}
	case TextEvent, HTMLEvent:
		ev.Text = r.Text
	}
	return ev, nil
}

// Drains r into a dump.
func RawDump(r *RawParser) Dump {
	d := Dump{Loose: r.Info().LooseLists.Sorted()}
	for {
		ev, ok := r.Next()
		if !ok {
			return d
		}
		d.Events = append(d.Events, NewRecord(ev, r.Offset()))
	}
}

// ReadDump decodes a raw dump written by WriteRawJSON, or the same
// structure in YAML, into an event buffer ready for Normalize.
//
// Tags outside the known vocabulary are accepted and passed through.
// Nesting is not checked. Dumps carry UTF-8 text only; a source byte that
// was not valid UTF-8 comes back as U+FFFD.
func ReadDump(r io.Reader) ([]Positioned, ParseInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ParseInfo{}, err
	}
	var d Dump
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, ParseInfo{}, fmt.Errorf("%w: %w", ErrInvalidDump, err)
	}
	events := make([]Positioned, 0, len(d.Events))
	for i, rec := range d.Events {
		ev, err := rec.Event()
		if err != nil {
			return nil, ParseInfo{}, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, Positioned{Event: ev, Offset: rec.Offset})
	}
	return events, ParseInfo{LooseLists: NewOffsetSet(d.Loose...)}, nil
}
