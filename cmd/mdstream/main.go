// Command mdstream renders markdown and dumps its event streams.
package main

import (
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"

	"github.com/growler/go-mdstream"
	"github.com/growler/go-mdstream/internal/logger"
	"github.com/growler/go-mdstream/internal/trace"
)

const version = "0.1.0"

// CLI defines the command-line interface for mdstream.
type CLI struct {
	// Global flags
	LogLevel string   `name:"log-level" help:"Log level (${enum})" enum:"${log_levels}" default:"warn" env:"MDSTREAM_LOG_LEVEL"`
	LogJSON  bool     `name:"log-json" help:"Write log records as JSON" env:"MDSTREAM_LOG_JSON"`
	Ext      []string `name:"ext" short:"e" help:"Extension switch, +name or -name (strikethrough, autolink)" env:"MDSTREAM_EXT"`

	HTML      HTMLCmd      `cmd:"" name:"html" help:"Render markdown as HTML"`
	Events    EventsCmd    `cmd:"" help:"Dump the event stream with offsets"`
	Normalize NormalizeCmd `cmd:"" help:"Normalize a raw event dump"`
	Digest    DigestCmd    `cmd:"" help:"Print the BLAKE3 digest of normalized event streams"`
	Version   VersionCmd   `cmd:"" help:"Print version information"`
}

// env is bound to every command's Run.
type env struct {
	log    logger.Logger
	opts   mdstream.Options
	stdin  io.Reader
	stdout io.Writer
}

// Reads a file, or standard input for "-".
func (e *env) read(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	e.log.Debug("read input", "file", path, "size", humanize.Bytes(uint64(len(data))))
	return string(data), nil
}

func (e *env) open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(e.stdin), nil
	}
	return os.Open(path)
}

// HTMLCmd renders markdown as HTML.
type HTMLCmd struct {
	File string   `arg:"" optional:"" default:"-" help:"Markdown file, - for standard input"`
	Drop []string `name:"drop" help:"Tag kinds whose scopes are left out (e.g. Image, BlockQuote)"`
}

func (c *HTMLCmd) Run(e *env) error {
	for _, t := range c.Drop {
		if !mdstream.TagKind(t).Known() {
			return fmt.Errorf("unknown tag %q", t)
		}
	}
	text, err := e.read(c.File)
	if err != nil {
		return err
	}
	events := slices.Collect(dropScopes(mdstream.NewParserOptions(text, e.opts).All(), c.Drop))
	var blocks, lists int
	mdstream.Query(slices.Values(events), func(ev mdstream.Event) mdstream.WalkResult {
		switch {
		case ev.IsStart(mdstream.ListTag):
			lists++
		case ev.Kind == mdstream.StartEvent:
			blocks++
			if ev.IsStart(mdstream.ParagraphTag) || ev.IsStart(mdstream.HeaderTag) {
				return mdstream.WalkSkip
			}
		}
		return mdstream.WalkContinue
	})
	e.log.Info("rendering", "events", humanize.Comma(int64(len(events))), "blocks", blocks, "lists", lists)
	return mdstream.WriteHTML(e.stdout, slices.Values(events))
}

// Removes the scopes of the listed tag kinds from seq.
func dropScopes(seq iter.Seq[mdstream.Event], tags []string) iter.Seq[mdstream.Event] {
	if len(tags) == 0 {
		return seq
	}
	return mdstream.Filter(seq, func(ev mdstream.Event) ([]mdstream.Event, mdstream.WalkResult) {
		if ev.Kind == mdstream.StartEvent && slices.Contains(tags, string(ev.Tag.Kind)) {
			return nil, mdstream.WalkReplace
		}
		return nil, mdstream.WalkContinue
	})
}

// EventsCmd dumps the normalized or raw event stream.
type EventsCmd struct {
	File   string `arg:"" optional:"" default:"-" help:"Markdown file, - for standard input"`
	Raw    bool   `help:"Dump the raw stream, with paragraphs and loose list offsets"`
	Format string `short:"f" enum:"json,yaml" default:"json" help:"Output format (${enum})"`
}

func (c *EventsCmd) Run(e *env) error {
	text, err := e.read(c.File)
	if err != nil {
		return err
	}
	switch {
	case c.Raw && c.Format == "json":
		err = mdstream.WriteRawJSON(e.stdout, mdstream.NewRawParser(text, e.opts))
	case c.Format == "json":
		err = mdstream.WriteJSON(e.stdout, mdstream.NewParserOptions(text, e.opts))
	default:
		var t trace.Trace
		if c.Raw {
			t = trace.Raw(mdstream.NewRawParser(text, e.opts))
		} else {
			t = trace.Record(mdstream.NewParserOptions(text, e.opts))
		}
		var out []byte
		if out, err = t.YAML(); err == nil {
			_, err = e.stdout.Write(out)
		}
		return err
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.stdout, "\n")
	return err
}

// NormalizeCmd reads a raw event dump and writes the normalized stream.
type NormalizeCmd struct {
	Dump string `arg:"" optional:"" default:"-" help:"Raw dump (JSON or YAML), - for standard input"`
}

func (c *NormalizeCmd) Run(e *env) error {
	f, err := e.open(c.Dump)
	if err != nil {
		return err
	}
	defer f.Close()
	events, info, err := mdstream.ReadDump(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.Dump, err)
	}
	e.log.Debug("read dump", "events", humanize.Comma(int64(len(events))), "loose", info.LooseLists.Len())
	if err := mdstream.WriteJSON(e.stdout, mdstream.Normalize(events, info)); err != nil {
		return err
	}
	_, err = io.WriteString(e.stdout, "\n")
	return err
}

// DigestCmd prints a digest of the normalized stream of every file.
type DigestCmd struct {
	Files []string `arg:"" optional:"" help:"Markdown files, - for standard input"`
}

func (c *DigestCmd) Run(e *env) error {
	files := c.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, f := range files {
		text, err := e.read(f)
		if err != nil {
			return err
		}
		t := trace.Record(mdstream.NewParserOptions(text, e.opts))
		e.log.Debug("recorded", "file", f, "events", len(t.Records))
		if _, err := fmt.Fprintf(e.stdout, "%s  %s\n", t.Digest(), f); err != nil {
			return err
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	_, err := fmt.Fprintf(e.stdout, "mdstream %s\n", version)
	return err
}

// Parses args and runs the selected command. Returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	exit := -1
	parser, err := kong.New(&cli,
		kong.Name("mdstream"),
		kong.Description("Two-pass markdown event stream tool"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exit = code }),
		kong.Vars{"log_levels": strings.Join(logger.Levels, ",")},
	)
	if err != nil {
		fmt.Fprintf(stderr, "mdstream: %v\n", err)
		return 2
	}
	ctx, err := parser.Parse(args)
	if exit >= 0 {
		return exit
	}
	if err != nil {
		fmt.Fprintf(stderr, "mdstream: %v\n", err)
		return 2
	}

	opts := mdstream.DefaultOptions
	for _, sw := range cli.Ext {
		opts = opts.With(strings.TrimSpace(sw))
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(stderr, "mdstream: %v\n", err)
		return 2
	}
	e := &env{
		log: logger.NewLogger(&logger.Config{
			Level:      logger.LogLevel(cli.LogLevel),
			Output:     stderr,
			JSON:       cli.LogJSON,
			TimeFormat: "15:04:05",
		}),
		opts:   opts,
		stdin:  stdin,
		stdout: stdout,
	}
	if err := ctx.Run(e); err != nil {
		fmt.Fprintf(stderr, "mdstream: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
