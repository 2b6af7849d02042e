package models

import (
	"database/sql"
	"fmt"
)

// Column names shared by the input files and the cleaned table.
const (
	ColumnID         = "id"
	ColumnMessage    = "message"
	ColumnOriginal   = "original"
	ColumnGenre      = "genre"
	ColumnCategories = "categories"
)

// MessageColumns are the non-label columns of the cleaned table. Every other
// column is a label.
var MessageColumns = []string{ColumnID, ColumnMessage, ColumnOriginal, ColumnGenre}

// IsMessageColumn reports whether name is one of MessageColumns.
func IsMessageColumn(name string) bool {
	for _, c := range MessageColumns {
		if c == name {
			return true
		}
	}
	return false
}

// JoinedTable is the messages file left-joined with the categories file.
// Empty CSV fields are invalid (NULL) strings.
type JoinedTable struct {
	Columns []string
	Rows    [][]sql.NullString
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *JoinedTable) ColumnIndex(name string) int {
	return indexOf(t.Columns, name)
}

// LabelSpec names one label and the values it may take.
type LabelSpec struct {
	Name   string `yaml:"name"`
	Values []int  `yaml:"values"`
}

// LabelSchema is the ordered set of labels encoded in a category string.
type LabelSchema struct {
	labels  []LabelSpec
	domains []map[int]struct{}
}

// DigitDomain is the value domain used for inferred labels.
var DigitDomain = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

// NewLabelSchema validates specs and builds a schema. A spec without values
// gets DigitDomain.
func NewLabelSchema(specs []LabelSpec) (*LabelSchema, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("label schema is empty")
	}
	s := &LabelSchema{}
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("label schema has an unnamed label")
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("label %q declared twice", spec.Name)
		}
		if IsMessageColumn(spec.Name) || spec.Name == ColumnCategories {
			return nil, fmt.Errorf("label %q collides with a message column", spec.Name)
		}
		seen[spec.Name] = struct{}{}

		values := spec.Values
		if len(values) == 0 {
			values = DigitDomain
		}
		domain := make(map[int]struct{}, len(values))
		for _, v := range values {
			if v < 0 || v > 9 {
				return nil, fmt.Errorf("label %q: value %d is not a single digit", spec.Name, v)
			}
			domain[v] = struct{}{}
		}
		s.labels = append(s.labels, LabelSpec{Name: spec.Name, Values: append([]int(nil), values...)})
		s.domains = append(s.domains, domain)
	}
	return s, nil
}

// Len returns the number of labels.
func (s *LabelSchema) Len() int { return len(s.labels) }

// Names returns the label names in schema order.
func (s *LabelSchema) Names() []string {
	names := make([]string, len(s.labels))
	for i, l := range s.labels {
		names[i] = l.Name
	}
	return names
}

// Name returns the i-th label name.
func (s *LabelSchema) Name(i int) string { return s.labels[i].Name }

// Allows reports whether value is in the domain of the i-th label.
func (s *LabelSchema) Allows(i, value int) bool {
	_, ok := s.domains[i][value]
	return ok
}

// Dataset is the cleaned table: passthrough message fields followed by one
// integer column per label.
type Dataset struct {
	Fields []string
	Labels []string
	Rows   []Record
}

// Record is one row of a Dataset. A NULL label means the message had no
// category row.
type Record struct {
	Fields []sql.NullString
	Labels []sql.NullInt64
}

// Columns returns Fields followed by Labels.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+len(d.Labels))
	cols = append(cols, d.Fields...)
	return append(cols, d.Labels...)
}

// FieldIndex returns the position of name in Fields, or -1.
func (d *Dataset) FieldIndex(name string) int {
	return indexOf(d.Fields, name)
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
