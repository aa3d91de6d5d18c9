// Package report formats schema walk output and delivers it to a sink.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alexanderjulianmartinez/schemawalk/internal/source"
)

// Block is a run of report lines that must stay contiguous: an optional
// database header, one table line and that table's field lines.
type Block struct {
	Database string
	Table    string
	Lines    []string
}

func (b Block) String() string {
	return strings.Join(b.Lines, "\n") + "\n"
}

type Sink interface {
	Write(ctx context.Context, b Block) error
	Close() error
}

func DatabaseHeader(database string) string {
	return "---|" + database + ">"
}

func TableHeader(database, table string) string {
	return ".....|" + source.QualifiedName(database, table) + ">"
}

func FieldLine(col source.Column) string {
	return fmt.Sprintf("\tFieldName: `%s` \t(%s)", col.Name, col.Type)
}

// TableBlock renders one described table. withHeader prepends the database
// header line.
func TableBlock(database, table string, cols []source.Column, withHeader bool) Block {
	lines := make([]string, 0, len(cols)+2)
	if withHeader {
		lines = append(lines, DatabaseHeader(database))
	}
	lines = append(lines, TableHeader(database, table))
	for _, col := range cols {
		lines = append(lines, FieldLine(col))
	}
	return Block{Database: database, Table: table, Lines: lines}
}

// ConsoleSink writes blocks to an io.Writer, one write per block.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Write(_ context.Context, b Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, b.String())
	return err
}

func (s *ConsoleSink) Close() error { return nil }
