package mdstream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendQuote(t *testing.T) {
	var tests = []struct {
		str, want string
	}{
		{"", `""`},
		{"a", `"a"`},
		{"\"", `"\""`},
		{"a\\b", `"a\\b"`},
		{"x\ny\tz", `"x\ny\tz"`},
		{"\x01\x1f", `"\u0001\u001f"`},
		{"héllo", `"héllo"`},
		{"a\uFFFDb", "\"a\uFFFDb\""},
	}
	for i := range tests {
		r := appendQuote(nil, tests[i].str)
		v := []byte(tests[i].want)
		if !bytes.Equal(r, v) {
			t.Errorf("expected [%s], got [%s]", v, r)
		}
		var s string
		if err := json.Unmarshal(r, &s); err != nil || s != tests[i].str {
			t.Errorf("%s does not decode to %q: %v", r, tests[i].str, err)
		}
	}
}

func TestAppendQuote_InvalidUTF8(t *testing.T) {
	r := appendQuote(nil, "a\xffb\xe2\x82")
	assert.Equal(t, `"a\ufffdb\ufffd\ufffd"`, string(r))
	var s string
	require.NoError(t, json.Unmarshal(r, &s))
	assert.Equal(t, "a\uFFFDb\uFFFD\uFFFD", s)
}

func TestAppendRecord(t *testing.T) {
	tests := []struct {
		ev   Event
		off  int
		want string
	}{
		{Event{Kind: StartEvent, Tag: Tag{Kind: ListTag, Ordered: true, Start: 1}}, 0, `{"t":"Start","tag":"List","ordered":true,"start":1,"offset":0}`},
		{Event{Kind: EndEvent, Tag: Tag{Kind: HeaderTag, Level: 3}}, 9, `{"t":"End","tag":"Header","level":3,"offset":9}`},
		{Event{Kind: StartEvent, Tag: Tag{Kind: LinkTag}}, 2, `{"t":"Start","tag":"Link","dest":"","offset":2}`},
		{Event{Kind: StartEvent, Tag: Tag{Kind: CodeBlockTag, Info: "go"}}, 0, `{"t":"Start","tag":"CodeBlock","info":"go","offset":0}`},
		{Event{Kind: TextEvent}, 4, `{"t":"Text","text":"","offset":4}`},
		{Event{Kind: HTMLEvent, Text: "<b>"}, 4, `{"t":"Html","text":"<b>","offset":4}`},
		{Event{Kind: SoftBreakEvent}, 5, `{"t":"SoftBreak","offset":5}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(appendRecord(nil, tt.ev, tt.off)))
	}
}

func TestWriteJSON(t *testing.T) {
	t.Run("Should write the normalized stream", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteJSON(&buf, NewParser("- a\n")))
		assert.Equal(t, `[
{"t":"Start","tag":"List","offset":0},
{"t":"Start","tag":"Item","offset":0},
{"t":"Text","text":"a","offset":2},
{"t":"End","tag":"Item","offset":3},
{"t":"End","tag":"List","offset":3}
]`, buf.String())
	})

	t.Run("Should write an empty array for an empty document", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteJSON(&buf, NewParser("")))
		assert.Equal(t, "[\n]", buf.String())
	})

	t.Run("Should produce valid JSON for the raw stream", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteRawJSON(&buf, NewRawParser("- a\n\n- \"b\"\n", DefaultOptions)))
		var v struct {
			Loose  []int
			Events []map[string]any
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
		assert.Equal(t, []int{0}, v.Loose)
		assert.Len(t, v.Events, 12)
		assert.True(t, strings.Contains(buf.String(), `"text":"\"b\""`))
	})
}
