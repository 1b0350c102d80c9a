// Package marker locates and rewrites the hash-tagged regions that prefabind
// owns inside hand-written scripts.
//
// A region looks like
//
//	//<PREFAB 3f2a...>
//	... generated ...
//	//</PREFAB>
//
// Everything between the two sentinels belongs to the generator and is
// replaced wholesale on every update.
package marker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	openPrefix = "//<PREFAB "
	openSuffix = ">"
	closeTag   = "//</PREFAB>"

	placeholder = "\n//...\n"
)

var (
	// ErrNoRegion means the text has no region for the identifier
	ErrNoRegion = errors.New("no marked region found")

	// ErrDuplicateRegion means the identifier opens more than one region
	ErrDuplicateRegion = errors.New("multiple marked regions found")

	// ErrMalformedRegion means the region for the identifier runs into
	// another opening sentinel before its own closing one
	ErrMalformedRegion = errors.New("marked region is not closed before the next region")

	// ErrEmptyID is returned for a blank identifier
	ErrEmptyID = errors.New("identifier is empty")
)

// Region is a marked span inside a text. Offsets are byte offsets,
// End and InteriorEnd are exclusive.
type Region struct {
	Start         int
	End           int
	InteriorStart int
	InteriorEnd   int
}

// Interior returns the generated content between the sentinels
func (r Region) Interior(text string) string {
	return text[r.InteriorStart:r.InteriorEnd]
}

// OpenTag returns the opening sentinel for id
func OpenTag(id string) string {
	return openPrefix + id + openSuffix
}

// CloseTag returns the closing sentinel
func CloseTag() string {
	return closeTag
}

func pattern(id string) *regexp.Regexp {
	// (?s) lets the interior span lines; the lazy quantifier stops at the
	// first closing tag. An unclosed opener still reaches the next region's
	// closing tag, which FindRegion rejects.
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(OpenTag(id)) + `(.*?)` + regexp.QuoteMeta(closeTag))
}

// FindRegion locates the unique region opened for id
func FindRegion(text, id string) (Region, error) {
	if strings.TrimSpace(id) == "" {
		return Region{}, ErrEmptyID
	}

	matches := pattern(id).FindAllStringSubmatchIndex(text, 2)
	switch len(matches) {
	case 0:
		return Region{}, fmt.Errorf("%w for %s", ErrNoRegion, id)
	case 1:
	default:
		return Region{}, fmt.Errorf("%w for %s", ErrDuplicateRegion, id)
	}

	m := matches[0]
	if strings.Contains(text[m[2]:m[3]], openPrefix) {
		return Region{}, fmt.Errorf("%w for %s", ErrMalformedRegion, id)
	}
	return Region{
		Start:         m[0],
		End:           m[1],
		InteriorStart: m[2],
		InteriorEnd:   m[3],
	}, nil
}

// Substitute replaces the interior of r and leaves every other byte untouched
func Substitute(text string, r Region, interior string) string {
	var sb strings.Builder
	sb.Grow(len(text) - (r.InteriorEnd - r.InteriorStart) + len(interior))
	sb.WriteString(text[:r.InteriorStart])
	sb.WriteString(interior)
	sb.WriteString(text[r.InteriorEnd:])
	return sb.String()
}

// Replace finds the region for id and swaps its interior in one step
func Replace(text, id, interior string) (string, error) {
	r, err := FindRegion(text, id)
	if err != nil {
		return "", err
	}
	return Substitute(text, r, interior), nil
}

// Contains reports whether text mentions id anywhere. It is the loose
// heuristic used when scanning for a target file and does not require a
// well-formed region.
func Contains(text, id string) bool {
	if id == "" {
		return false
	}
	return strings.Contains(text, id)
}

// Wrap renders a complete region around interior
func Wrap(id, interior string) string {
	return OpenTag(id) + interior + closeTag
}

// Snippet renders an empty region for pasting into a new script
func Snippet(id string) string {
	return Wrap(id, placeholder)
}
