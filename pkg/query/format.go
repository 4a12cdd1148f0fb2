package query

import (
	"fmt"
	"strings"

	"github.com/jaxron/urlview/pkg/errors"
)

// Format is the convention used for keys holding more than one value.
type Format int

const (
	// FormatNone repeats the key: ?a=b&a=c
	FormatNone Format = iota

	// FormatBracket suffixes the key with []: ?a[]=b&a[]=c
	FormatBracket

	// FormatIndex suffixes the key with [n]: ?a[1]=b&a[2]=c
	FormatIndex

	// FormatComma joins the values with commas: ?a=b,c
	FormatComma
)

var formatNames = map[Format]string{
	FormatNone:    "none",
	FormatBracket: "bracket",
	FormatIndex:   "index",
	FormatComma:   "comma",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat returns the Format named s ("none", "bracket", "index" or "comma").
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}
	return FormatNone, fmt.Errorf("%w: %q", errors.ErrUnknownFormat, s)
}

// Options controls how a query string is decoded and encoded.
type Options struct {
	// Format is the array convention used when Strict is false.
	Format Format

	// Strict rejects array syntax and repeated keys on decode, and
	// non-scalar values on encode. Format is ignored.
	Strict bool

	// Stable sorts keys by byte order on encode. Otherwise keys are written
	// in the order they were first set.
	Stable bool
}

// StrictOptions is the default profile: scalars only, sorted output.
var StrictOptions = Options{Strict: true, Stable: true}

// LenientOptions accepts bracket arrays without asking for them.
// Plain repeated keys overwrite each other.
var LenientOptions = Permissive(FormatBracket)

// Permissive returns sorted, non-strict options using format f.
func Permissive(f Format) Options {
	return Options{Format: f, Stable: true}
}

func (o Options) String() string {
	if o.Strict {
		return fmt.Sprintf("strict(stable=%t)", o.Stable)
	}
	return fmt.Sprintf("%s(stable=%t)", o.Format, o.Stable)
}
