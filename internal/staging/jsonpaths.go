// Package staging reads raw JSON source files from the local filesystem and
// projects them onto staging table rows, mirroring what the warehouse bulk copy
// does with JSONPaths files or 'auto' field matching.
package staging

import (
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
)

// Mapping projects a JSON record onto table columns. The zero value is 'auto':
// a top-level key loads into the column with exactly the same name.
type Mapping struct {
	paths []string // gjson paths, one per column
}

// Auto returns the key-matching mapping.
func Auto() Mapping { return Mapping{} }

// IsAuto reports whether m matches keys by name.
func (m Mapping) IsAuto() bool { return m.paths == nil }

// Paths returns the compiled gjson paths, nil for auto.
func (m Mapping) Paths() []string { return m.paths }

// ReadJSONPaths loads a JSONPaths file from disk.
func ReadJSONPaths(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "staging: read jsonpaths %s", path)
	}
	m, err := ParseJSONPaths(data)
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "staging: parse jsonpaths %s", path)
	}
	return m, nil
}

// ParseJSONPaths parses a JSONPaths document of the form
// {"jsonpaths": ["$['artist']", "$.auth", ...]}.
func ParseJSONPaths(data []byte) (Mapping, error) {
	if !gjson.ValidBytes(data) {
		return Mapping{}, eris.New("staging: jsonpaths is not valid JSON")
	}
	list := gjson.GetBytes(data, "jsonpaths")
	if !list.IsArray() {
		return Mapping{}, eris.New(`staging: jsonpaths document has no "jsonpaths" array`)
	}

	var paths []string
	var err error
	list.ForEach(func(_, v gjson.Result) bool {
		var p string
		p, err = compilePath(v.String())
		if err != nil {
			return false
		}
		paths = append(paths, p)
		return true
	})
	if err != nil {
		return Mapping{}, err
	}
	if len(paths) == 0 {
		return Mapping{}, eris.New("staging: jsonpaths array is empty")
	}
	return Mapping{paths: paths}, nil
}

// compilePath converts a JSONPath expression in bracket or dot notation into a
// gjson path: $['a']['b'], $.a.b and $.a[0] become a.b and a.0.
func compilePath(expr string) (string, error) {
	s := strings.TrimSpace(expr)
	if !strings.HasPrefix(s, "$") {
		return "", eris.Errorf("staging: jsonpath %q must start with $", expr)
	}
	s = s[1:]

	var segs []string
	for len(s) > 0 {
		switch {
		case s[0] == '.':
			s = s[1:]
			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}
			if end == 0 {
				return "", eris.Errorf("staging: jsonpath %q has an empty segment", expr)
			}
			segs = append(segs, gjson.Escape(s[:end]))
			s = s[end:]
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return "", eris.Errorf("staging: jsonpath %q has an unclosed bracket", expr)
			}
			inner := strings.TrimSpace(s[1:end])
			s = s[end+1:]
			if n := len(inner); n >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[n-1] == inner[0] {
				segs = append(segs, gjson.Escape(inner[1:n-1]))
				continue
			}
			if _, err := strconv.Atoi(inner); err != nil {
				return "", eris.Errorf("staging: jsonpath %q has an unsupported subscript %q", expr, inner)
			}
			segs = append(segs, inner)
		default:
			return "", eris.Errorf("staging: jsonpath %q is malformed near %q", expr, s)
		}
	}
	if len(segs) == 0 {
		return "", eris.Errorf("staging: jsonpath %q selects the whole record", expr)
	}
	return strings.Join(segs, "."), nil
}
