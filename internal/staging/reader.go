package staging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/songplay-dwh/internal/schema"
)

// Read loads every JSON record under source (a file or a directory searched
// recursively for *.json) and returns one row per record, projected onto
// table's columns. Rows come back in lexical file order, then file order.
func Read(ctx context.Context, source string, table schema.Table, m Mapping) ([][]any, error) {
	if isRemote(source) {
		return nil, eris.Errorf("staging: %s is an object storage URI; only the redshift dialect can copy from it", source)
	}
	if !m.IsAuto() && len(m.paths) != len(table.Columns) {
		return nil, eris.Errorf("staging: jsonpaths has %d expressions but %s has %d columns",
			len(m.paths), table.Name, len(table.Columns))
	}

	files, err := ListFiles(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "staging.reader"),
		zap.String("table", table.Name),
		zap.String("source", source),
	)

	perFile := make([][][]any, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := readFile(f, table, m)
			if err != nil {
				return err
			}
			perFile[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, rows := range perFile {
		total += len(rows)
	}
	out := make([][]any, 0, total)
	for _, rows := range perFile {
		out = append(out, rows...)
	}

	log.Info("source read", zap.Int("files", len(files)), zap.Int("records", len(out)))
	return out, nil
}

// ListFiles resolves source into the sorted list of JSON files it names.
func ListFiles(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, eris.Wrapf(err, "staging: stat %s", source)
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	var files []string
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "staging: walk %s", source)
	}
	sort.Strings(files)
	return files, nil
}

func isRemote(source string) bool {
	i := strings.Index(source, "://")
	return i > 0 && !strings.HasPrefix(source, "file://")
}

// readFile decodes the concatenated or newline-delimited JSON objects in path.
// A leading byte order mark is dropped.
func readFile(path string, table schema.Table, m Mapping) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "staging: read %s", path)
	}
	defer f.Close() //nolint:errcheck

	dec := json.NewDecoder(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	var rows [][]any
	for n := 1; ; n++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, eris.Wrapf(err, "staging: %s record %d", path, n)
		}
		rec := gjson.ParseBytes(raw)
		if !rec.IsObject() {
			return nil, eris.Errorf("staging: %s record %d is not a JSON object", path, n)
		}
		row, err := project(rec, table, m)
		if err != nil {
			return nil, eris.Wrapf(err, "staging: %s record %d", path, n)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// project maps one record onto the table's columns. Under 'auto' a key must
// equal the column name exactly, as on Redshift.
func project(rec gjson.Result, table schema.Table, m Mapping) ([]any, error) {
	row := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		var v gjson.Result
		if m.IsAuto() {
			v = rec.Get(gjson.Escape(col.Name))
		} else {
			v = rec.Get(m.paths[i])
		}
		val, err := coerce(v, col)
		if err != nil {
			return nil, err
		}
		row[i] = val
	}
	return row, nil
}

// coerce converts a JSON value to the Go value for col's type. Missing values,
// nulls and empty strings in numeric columns become NULL.
func coerce(v gjson.Result, col schema.Column) (any, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}

	switch col.Type {
	case schema.Integer, schema.BigInt:
		s := strings.TrimSpace(scalarText(v))
		if s == "" {
			return nil, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != float64(int64(f)) {
			return nil, eris.Errorf("column %s: %q is not an integer", col.Name, s)
		}
		return int64(f), nil
	case schema.Float:
		s := strings.TrimSpace(scalarText(v))
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, eris.Errorf("column %s: %q is not a number", col.Name, s)
		}
		return f, nil
	default:
		return scalarText(v), nil
	}
}

// scalarText renders a JSON value as the text a VARCHAR column would hold.
func scalarText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return v.Raw
	}
}
