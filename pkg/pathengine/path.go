// Package pathengine resolves dotted/bracketed paths against JSON documents
// and discovers the paths and table schemas an unknown document offers.
//
// Paths follow the grammar
//
//	path    = segment ("." segment)*
//	segment = identifier ("[" digits "]")*
//
// An identifier is any text without '.' or '['. There is no escaping, so keys
// containing those characters cannot be addressed. Index segments always
// follow a member, which means a document whose root is an array can only be
// addressed as a whole (the empty path).
//
// None of the operations return errors: unresolvable paths report "not found"
// and schema queries against the wrong shape return empty results.
package pathengine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPath is wrapped by Parse for text that does not follow the grammar.
var ErrMalformedPath = errors.New("malformed path")

// SegmentKind distinguishes member access from array indexing.
type SegmentKind uint8

const (
	MemberSegment SegmentKind = iota + 1
	IndexSegment
)

// Segment is one step of a Path.
type Segment struct {
	Kind  SegmentKind
	Key   string // member name, for MemberSegment
	Index int    // element position, for IndexSegment
}

// Path is a parsed sequence of segments. The empty Path addresses the root.
type Path []Segment

// Parse splits path into segments. The empty string parses to the empty Path.
func Parse(path string) (Path, error) {
	if path == "" {
		return Path{}, nil
	}
	var out Path
	offset := 0
	for _, token := range strings.Split(path, ".") {
		segs, err := parseToken(token, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, segs...)
		offset += len(token) + 1
	}
	return out, nil
}

// MustParse panics on malformed input. Intended for literals.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

func parseToken(token string, offset int) ([]Segment, error) {
	open := strings.IndexByte(token, '[')
	ident := token
	if open >= 0 {
		ident = token[:open]
	}
	if ident == "" {
		if open == 0 {
			return nil, malformed(offset, "index without a preceding member")
		}
		return nil, malformed(offset, "empty segment")
	}
	segs := []Segment{{Kind: MemberSegment, Key: ident}}
	if open < 0 {
		return segs, nil
	}

	rest := token[open:]
	pos := offset + open
	for rest != "" {
		if rest[0] != '[' {
			return nil, malformed(pos, "unexpected text after index")
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, malformed(pos, "unclosed bracket")
		}
		digits := rest[1:end]
		if digits == "" || !allDigits(digits) {
			return nil, malformed(pos, fmt.Sprintf("index %q is not a non-negative integer", digits))
		}
		idx, err := strconv.Atoi(digits)
		if err != nil {
			return nil, malformed(pos, fmt.Sprintf("index %q out of range", digits))
		}
		segs = append(segs, Segment{Kind: IndexSegment, Index: idx})
		pos += end + 1
		rest = rest[end+1:]
	}
	return segs, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func malformed(pos int, msg string) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformedPath, pos, msg)
}

// Valid reports whether path follows the grammar.
func Valid(path string) bool {
	_, err := Parse(path)
	return err == nil
}

// String renders the canonical text form of p.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch seg.Kind {
		case MemberSegment:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		case IndexSegment:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// Member returns a copy of p extended by a member segment.
func (p Path) Member(key string) Path {
	return p.with(Segment{Kind: MemberSegment, Key: key})
}

// Index returns a copy of p extended by an index segment.
func (p Path) Index(i int) Path {
	return p.with(Segment{Kind: IndexSegment, Index: i})
}

func (p Path) with(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Join appends a relative path to prefix with a '.' separator. Either side may be empty.
func Join(prefix, rel string) string {
	switch {
	case prefix == "":
		return rel
	case rel == "":
		return prefix
	default:
		return prefix + "." + rel
	}
}

// IndexPath appends "[i]" to prefix.
func IndexPath(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}
