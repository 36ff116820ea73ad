package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
)

// DefaultColumns are the columns of an entity hit table, in order.
var DefaultColumns = []string{
	annotation.DocIDColumn,
	annotation.EntityTypeColumn,
	annotation.HitIDColumn,
	annotation.NameColumn,
	annotation.ScoreColumn,
	"realSynList",
	"totnosyns",
	annotation.NonAmbigSynsColumn,
	"frag_vector_array",
	annotation.HitCountColumn,
}

// DefaultPatternColumns are the columns of a pattern match table, in order.
var DefaultPatternColumns = []string{
	annotation.DocIDColumn,
	annotation.PatternIDColumn,
	annotation.ConfColumn,
	annotation.OriginalFragmentColumn,
	annotation.MatchEntitiesColumn,
}

// Row is anything with named values.
type Row interface {
	Column(name string) (interface{}, bool)
}

type Table struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q", e.Column)
}

// Project builds a table of records with the default columns followed by extraColumns.
func Project(records []annotation.Record, extraColumns ...string) (*Table, error) {
	return Select(recordRows(records), withDefaults(DefaultColumns, extraColumns))
}

func ProjectPatterns(records []annotation.PatternRecord, extraColumns ...string) (*Table, error) {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return Select(rows, withDefaults(DefaultPatternColumns, extraColumns))
}

// Select builds a table of the given columns. Every row must have every column.
func Select(rows []Row, columns []string) (*Table, error) {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, row := range rows {
		values := make([]interface{}, len(columns))
		for i, col := range columns {
			v, ok := row.Column(col)
			if !ok {
				return nil, &MissingColumnError{Column: col}
			}
			values[i] = v
		}
		t.Rows = append(t.Rows, values)
	}
	return t, nil
}

type RankOptions struct {
	// Columns to select. Defaults to DefaultColumns.
	Columns []string
	// Top limits the number of rows. Zero or less keeps all rows.
	Top int
	// EntityTypes restricts the ranking to these types before truncating.
	EntityTypes []string
}

// Rank orders records by hit count, highest first, keeping the original order of ties.
func Rank(records []annotation.Record, opts RankOptions) (*Table, error) {
	filter := annotation.NewTypeFilter(opts.EntityTypes)
	ranked := make([]annotation.Record, 0, len(records))
	for _, r := range records {
		if filter.Allowed(r.EntityType) {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].HitCount > ranked[j].HitCount
	})

	columns := opts.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	// every ranked record must have the columns, not only the ones within Top
	t, err := Select(recordRows(ranked), columns)
	if err != nil {
		return nil, err
	}
	if opts.Top > 0 && len(t.Rows) > opts.Top {
		t.Rows = t.Rows[:opts.Top]
	}
	return t, nil
}

// Strings formats every cell. Lists and objects are written as JSON.
func (t *Table) Strings() ([][]string, error) {
	res := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cell, err := formatCell(v)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i, t.Columns[j], err)
			}
			cells[j] = cell
		}
		res[i] = cells
	}
	return res, nil
}

func (t *Table) WriteCSV(w io.Writer) error {
	rows, err := t.Strings()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Render draws the table for a terminal.
func (t *Table) Render() (string, error) {
	rows, err := t.Strings()
	if err != nil {
		return "", err
	}
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Columns...).
		Rows(rows...).
		String(), nil
}

func formatCell(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func withDefaults(defaults, extra []string) []string {
	columns := make([]string, 0, len(defaults)+len(extra))
	columns = append(columns, defaults...)
	return append(columns, extra...)
}

func recordRows(records []annotation.Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = r
	}
	return rows
}
