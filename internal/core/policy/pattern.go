package policy

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segInt
	segUUID
	segString
)

type segment struct {
	kind  segmentKind
	value string // literal text, or parameter name
}

func (s segment) match(v string) bool {
	switch s.kind {
	case segLiteral:
		return v == s.value
	case segInt:
		if v == "" {
			return false
		}
		for i := 0; i < len(v); i++ {
			if v[i] < '0' || v[i] > '9' {
				return false
			}
		}
		return true
	case segUUID:
		_, err := uuid.Parse(v)
		return err == nil && len(v) == 36
	case segString:
		return v != ""
	}
	return false
}

// Pattern is a compiled path template such as /movies/{id:int}.
type Pattern struct {
	raw      string
	segments []segment
}

// CompilePattern parses a template. Segments are either literal text or a
// parameter {name} / {name:type} with type int, uuid or string.
func CompilePattern(raw string) (Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return Pattern{}, fmt.Errorf("pattern %q must start with /", raw)
	}
	norm := NormalizePath(raw)
	parts := splitPath(norm)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})

	for _, p := range parts {
		if !strings.HasPrefix(p, "{") && !strings.HasSuffix(p, "}") {
			if strings.ContainsAny(p, "{}*") {
				return Pattern{}, fmt.Errorf("pattern %q: bad segment %q", raw, p)
			}
			segs = append(segs, segment{kind: segLiteral, value: p})
			continue
		}
		if !strings.HasPrefix(p, "{") || !strings.HasSuffix(p, "}") {
			return Pattern{}, fmt.Errorf("pattern %q: unbalanced braces in %q", raw, p)
		}
		name, typ, _ := strings.Cut(p[1:len(p)-1], ":")
		if name == "" {
			return Pattern{}, fmt.Errorf("pattern %q: parameter without a name", raw)
		}
		if _, dup := seen[name]; dup {
			return Pattern{}, fmt.Errorf("pattern %q: parameter %q repeated", raw, name)
		}
		seen[name] = struct{}{}

		var kind segmentKind
		switch typ {
		case "int":
			kind = segInt
		case "uuid":
			kind = segUUID
		case "", "string":
			kind = segString
		default:
			return Pattern{}, fmt.Errorf("pattern %q: unknown parameter type %q", raw, typ)
		}
		segs = append(segs, segment{kind: kind, value: name})
	}

	return Pattern{raw: norm, segments: segs}, nil
}

// MustCompilePattern panics on a bad template. For tests and static tables.
func MustCompilePattern(raw string) Pattern {
	p, err := CompilePattern(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.raw }

// Match reports whether a normalized path matches every segment exactly.
func (p Pattern) Match(path string) bool {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return false
	}
	for i, s := range p.segments {
		if !s.match(parts[i]) {
			return false
		}
	}
	return true
}

func (p Pattern) literals() int {
	n := 0
	for _, s := range p.segments {
		if s.kind == segLiteral {
			n++
		}
	}
	return n
}

// NormalizePath collapses repeated slashes and strips the trailing slash.
// It does not resolve dot segments; those only ever match string parameters.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	var b strings.Builder
	b.Grow(len(path) + 1)
	if path[0] != '/' {
		b.WriteByte('/')
	}
	prevSlash := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	out := b.String()
	if len(out) > 1 && strings.HasSuffix(out, "/") {
		out = out[:len(out)-1]
	}
	return out
}

func splitPath(norm string) []string {
	if norm == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(norm, "/"), "/")
}
