package csvsource

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	utf8BOM          = "\ufeff"
	ctxCheckInterval = 1024
)

// row gives named access to the cells of the current record.
type row struct {
	path   string
	line   int
	cells  []string
	index  map[string]int
	reader *csv.Reader
}

func (r row) get(column string) string {
	return r.cells[r.index[column]]
}

func (r row) parseErr(column string, err error) error {
	line := r.line
	if r.reader != nil {
		line, _ = r.reader.FieldPos(r.index[column])
	}
	return &ParseError{Path: r.path, Line: line, Column: column, Value: r.get(column), Err: err}
}

// readTable streams a headered CSV file, calling fn for every data row.
// Columns are located by header name; extra columns are ignored.
func readTable(ctx context.Context, path string, required []string, fn func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if b, _ := br.Peek(len(utf8BOM)); string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	r := csv.NewReader(br)
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &LoadError{Path: path, Err: errors.New("missing header row")}
	}
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &LoadError{Path: path, Err: fmt.Errorf("missing required columns %s", strings.Join(missing, ", "))}
	}

	for n := 0; ; n++ {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return &LoadError{Path: path, Err: err}
			}
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &LoadError{Path: path, Err: err}
		}
		line, _ := r.FieldPos(0)
		if err := fn(row{path: path, line: line, cells: rec, index: index, reader: r}); err != nil {
			return err
		}
	}
}
