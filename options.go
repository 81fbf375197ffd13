package mdstream

import (
	"errors"
	"fmt"
	"strings"
)

// Known syntax extensions.
const (
	ExtStrikethrough = "strikethrough" // ~~text~~
	ExtAutolink      = "autolink"      // <scheme:...> and <user@host>
)

var knownExt = []string{ExtStrikethrough, ExtAutolink}

// ErrUnknownExtension is returned by Options.Validate.
var ErrUnknownExtension = errors.New("unknown extension")

// Raw parser configuration.
type Options struct {
	Ext []string // List of extensions, each must start with '+' or '-'
}

// Autolinks on, everything else off.
var DefaultOptions = Options{
	Ext: []string{"+" + ExtAutolink},
}

// Returns a copy of the options with the extension ext enabled.
func (o Options) WithExt(ext string) Options {
	for i := range o.Ext {
		if o.Ext[i] == "-"+ext {
			o.Ext = append(append(o.Ext[:i:i], "+"+ext), o.Ext[i+1:]...)
			return o
		} else if o.Ext[i] == "+"+ext {
			return o
		}
	}
	o.Ext = append(o.Ext[:len(o.Ext):len(o.Ext)], "+"+ext)
	return o
}

// Returns a copy of the options with the extension ext disabled.
func (o Options) WithoutExt(ext string) Options {
	for i := range o.Ext {
		if o.Ext[i] == "-"+ext {
			return o
		} else if o.Ext[i] == "+"+ext {
			o.Ext = append(append(o.Ext[:i:i], "-"+ext), o.Ext[i+1:]...)
			return o
		}
	}
	o.Ext = append(o.Ext[:len(o.Ext):len(o.Ext)], "-"+ext)
	return o
}

// Applies an extension switch: "+name", "-name" or a bare "name"
// (same as "+name").
func (o Options) With(sw string) Options {
	switch {
	case strings.HasPrefix(sw, "-"):
		return o.WithoutExt(sw[1:])
	case strings.HasPrefix(sw, "+"):
		return o.WithExt(sw[1:])
	default:
		return o.WithExt(sw)
	}
}

// Returns true if the extension is enabled. The last switch wins.
func (o Options) Has(ext string) bool {
	for i := len(o.Ext) - 1; i >= 0; i-- {
		switch o.Ext[i] {
		case "+" + ext:
			return true
		case "-" + ext:
			return false
		}
	}
	return false
}

func (o Options) Validate() error {
	for _, e := range o.Ext {
		if len(e) < 2 || (e[0] != '+' && e[0] != '-') {
			return fmt.Errorf("%w: malformed switch %q", ErrUnknownExtension, e)
		}
		known := false
		for _, k := range knownExt {
			if e[1:] == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownExtension, e[1:])
		}
	}
	return nil
}
