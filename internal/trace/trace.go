// Package trace records event streams for comparison. Two parses of the
// same text with the same options produce traces with equal digests.
package trace

import (
	"encoding/hex"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/zeebo/blake3"

	"github.com/growler/go-mdstream"
)

// Trace is a recorded event stream.
type Trace struct {
	Loose   []int             `yaml:"loose,omitempty"`
	Records []mdstream.Record `yaml:"events"`
}

// Record drains the normalized stream of p.
func Record(p *mdstream.Parser) Trace {
	var t Trace
	for {
		ev, ok := p.Next()
		if !ok {
			return t
		}
		t.Records = append(t.Records, mdstream.NewRecord(ev, p.Offset()))
	}
}

// Raw drains the raw stream of r, including the loose list offsets.
func Raw(r *mdstream.RawParser) Trace {
	d := mdstream.RawDump(r)
	return Trace{Loose: d.Loose, Records: d.Events}
}

// Number of events of kind k with tag t; an empty t matches any tag.
func (t Trace) Count(k mdstream.EventKind, tag mdstream.TagKind) int {
	n := 0
	for _, r := range t.Records {
		if r.T == k.String() && (tag == "" || r.Tag == string(tag)) {
			n++
		}
	}
	return n
}

// Digest returns the hex encoded BLAKE3 hash of the canonical JSON
// encoding of the trace, one record per line.
func (t Trace) Digest() string {
	var b []byte
	for _, o := range t.Loose {
		b = append(b, "loose "...)
		b = strconv.AppendInt(b, int64(o), 10)
		b = append(b, '\n')
	}
	for _, r := range t.Records {
		b = r.AppendJSON(b)
		b = append(b, '\n')
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// YAML returns the trace as a YAML document.
func (t Trace) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}
