// Package ranking holds the static domain popularity table that submissions are
// validated and scored against.
package ranking

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Table maps a normalized domain to its 1-based line position in the source.
// It is immutable once built and safe for concurrent reads.
type Table struct {
	ranks map[string]int
}

// Normalize trims surrounding whitespace and lowercases. The same function is
// applied when loading and when looking up.
func Normalize(name string) string {
	// A Caser is stateful, so one is built per call.
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// Parse reads one domain per line. Blank lines still consume a rank.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{ranks: make(map[string]int)}
	sc := bufio.NewScanner(r)
	rank := 0
	for sc.Scan() {
		rank++
		name := Normalize(sc.Text())
		if name == "" {
			continue
		}
		t.ranks[name] = rank
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rankings: %w", err)
	}
	return t, nil
}

// Load reads the table from path. A missing or unreadable file is not fatal:
// it is logged and an empty table is returned.
func Load(path string, logger *zap.Logger) *Table {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("domain rankings file not found, continuing with empty table",
			zap.String("path", path), zap.Error(err))
		return Empty()
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		logger.Warn("domain rankings file unreadable, continuing with empty table",
			zap.String("path", path), zap.Error(err))
		return Empty()
	}
	logger.Info("domain rankings loaded", zap.String("path", path), zap.Int("domains", t.Len()))
	return t
}

func Empty() *Table {
	return &Table{ranks: map[string]int{}}
}

// FromList builds a table ranked by argument order.
func FromList(names ...string) *Table {
	t, _ := Parse(strings.NewReader(strings.Join(names, "\n")))
	return t
}

func (t *Table) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	rank, ok := t.ranks[Normalize(name)]
	return rank, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.ranks)
}
