package mdstream

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// WriteJSON writes the remaining normalized stream of p to w as a JSON
// array, one record per line. Text that is not valid UTF-8 is written
// with U+FFFD in place of each invalid byte.
//
// Example:
//
//	p := mdstream.NewParser(text)
//	if err := mdstream.WriteJSON(os.Stdout, p); err != nil {
//		log.Fatal(err)
//	}
//
// produces
//
//	[
//	{"t":"Start","tag":"List","offset":0},
//	{"t":"Start","tag":"Item","offset":0},
//	...
//	]
func WriteJSON(w io.Writer, p *Parser) error {
	return writeRecords(w, func(yield func(Event, int) bool) {
		for {
			ev, ok := p.Next()
			if !ok || !yield(ev, p.Offset()) {
				return
			}
		}
	})
}

// WriteRawJSON writes the remaining raw stream of r to w together with
// the loose list offsets:
//
//	{"loose":[0],"events":[
//	...
//	]}
//
// The result can be read back with ReadDump. As with WriteJSON, invalid
// UTF-8 in text does not survive the dump: each invalid byte reads back
// as U+FFFD.
func WriteRawJSON(w io.Writer, r *RawParser) error {
	b := []byte(`{"loose":[`)
	for i, o := range r.Info().LooseLists.Sorted() {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendInt(b, int64(o), 10)
	}
	b = append(b, `],"events":`...)
	if _, err := w.Write(b); err != nil {
		return err
	}
	if err := writeRecords(w, func(yield func(Event, int) bool) {
		for {
			ev, ok := r.Next()
			if !ok || !yield(ev, r.Offset()) {
				return
			}
		}
	}); err != nil {
		return err
	}
	return writeDelim(w, '}')
}

func writeRecords(w io.Writer, events func(func(Event, int) bool)) error {
	if err := writeDelim(w, '['); err != nil {
		return err
	}
	var (
		b   []byte
		n   int
		err error
	)
	events(func(ev Event, off int) bool {
		b = b[:0]
		if n > 0 {
			b = append(b, ',')
		}
		b = append(b, '\n')
		b = appendRecord(b, ev, off)
		n++
		_, err = w.Write(b)
		return err == nil
	})
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("\n]"))
	return err
}

// Appends the JSON record of a positioned event.
func appendRecord(b []byte, ev Event, off int) []byte {
	return NewRecord(ev, off).AppendJSON(b)
}

// Appends the JSON encoding of r to b. Metadata fields are written only
// when set; the encoding of a record is canonical.
func (r Record) AppendJSON(b []byte) []byte {
	b = appendQuote(append(b, `{"t":`...), r.T)
	if r.Tag != "" {
		b = appendQuote(append(b, `,"tag":`...), r.Tag)
	}
	if r.Level != 0 {
		b = strconv.AppendInt(append(b, `,"level":`...), int64(r.Level), 10)
	}
	if r.Ordered {
		b = append(b, `,"ordered":true`...)
		b = strconv.AppendInt(append(b, `,"start":`...), int64(r.Start), 10)
	}
	if r.Info != "" {
		b = appendQuote(append(b, `,"info":`...), r.Info)
	}
	if r.Tag == string(LinkTag) || r.Tag == string(ImageTag) || r.Dest != "" {
		b = appendQuote(append(b, `,"dest":`...), r.Dest)
	}
	if r.Title != "" {
		b = appendQuote(append(b, `,"title":`...), r.Title)
	}
	if r.T == TextEvent.String() || r.T == HTMLEvent.String() || r.Text != "" {
		b = appendQuote(append(b, `,"text":`...), r.Text)
	}
	b = strconv.AppendInt(append(b, `,"offset":`...), int64(r.Offset), 10)
	return append(b, '}')
}

func writeDelim(w io.Writer, b byte) error {
	if _, err := w.Write([]byte{b}); err != nil {
		return err
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// Appends s as a JSON string. Control characters without a short escape
// are written as \u00XX, bytes that are not valid UTF-8 as \ufffd.
func appendQuote(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); {
		j := strings.IndexFunc(s[i:], needsEscape)
		if j < 0 {
			b = append(b, s[i:]...)
			break
		}
		b = append(b, s[i:i+j]...)
		c := s[i+j]
		if c >= utf8.RuneSelf {
			// U+FFFD itself is copied, a stray byte is replaced
			r, size := utf8.DecodeRuneInString(s[i+j:])
			if r == utf8.RuneError && size == 1 {
				b = append(b, `\ufffd`...)
			} else {
				b = append(b, s[i+j:i+j+size]...)
			}
			i += j + size
			continue
		}
		b = append(b, '\\')
		switch c {
		case '"':
			b = append(b, '"')
		case '\\':
			b = append(b, '\\')
		case '\b':
			b = append(b, 'b')
		case '\f':
			b = append(b, 'f')
		case '\n':
			b = append(b, 'n')
		case '\r':
			b = append(b, 'r')
		case '\t':
			b = append(b, 't')
		default:
			b = append(b, 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
		i += j + 1
	}
	return append(b, '"')
}

func needsEscape(r rune) bool {
	return r < 0x20 || r == '"' || r == '\\' || r == utf8.RuneError
}
