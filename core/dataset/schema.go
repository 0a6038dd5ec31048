package dataset

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/YuminosukeSato/taxitip/pkg/errors"
)

// Schema names the columns of a design matrix, in order. An empty schema
// means the columns are unnamed and only their count is checked.
type Schema struct {
	Columns []string
}

// NewSchema copies names into a Schema.
func NewSchema(names []string) Schema {
	return Schema{Columns: append([]string(nil), names...)}
}

// Len returns the number of named columns.
func (s Schema) Len() int { return len(s.Columns) }

// Named reports whether the schema carries column names.
func (s Schema) Named() bool { return len(s.Columns) > 0 }

// Name returns the name of column j, or "x<j>" when the schema is unnamed.
func (s Schema) Name(j int) string {
	if j >= 0 && j < len(s.Columns) {
		return s.Columns[j]
	}
	return fmt.Sprintf("x%d", j)
}

// Index returns the position of the named column.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Fingerprint hashes the ordered column names. Two schemas with the same
// fingerprint encode the same columns in the same order.
func (s Schema) Fingerprint() uint64 {
	d := xxhash.New()
	for _, c := range s.Columns {
		_, _ = d.WriteString(c)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// FingerprintHex is Fingerprint formatted for logs and reports.
func (s Schema) FingerprintHex() string {
	return fmt.Sprintf("%016x", s.Fingerprint())
}

// CheckCompatible returns a SchemaMismatchError unless a matrix with gotCols
// columns described by got can stand in for one with wantCols columns
// described by s. Names are compared only when both schemas are named.
func (s Schema) CheckCompatible(op string, wantCols int, got Schema, gotCols int) error {
	if wantCols != gotCols {
		missing, extra := diffNames(s.Columns, got.Columns)
		return errors.NewSchemaMismatchError(op, wantCols, gotCols, missing, extra)
	}
	if !s.Named() || !got.Named() {
		return nil
	}
	if s.Fingerprint() == got.Fingerprint() && equalNames(s.Columns, got.Columns) {
		return nil
	}
	missing, extra := diffNames(s.Columns, got.Columns)
	return errors.NewSchemaMismatchError(op, wantCols, gotCols, missing, extra)
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffNames returns names in want but not in got, and names in got but not
// in want. Reordered columns yield two empty lists.
func diffNames(want, got []string) (missing, extra []string) {
	inGot := make(map[string]struct{}, len(got))
	for _, g := range got {
		inGot[g] = struct{}{}
	}
	inWant := make(map[string]struct{}, len(want))
	for _, w := range want {
		inWant[w] = struct{}{}
		if _, ok := inGot[w]; !ok {
			missing = append(missing, w)
		}
	}
	for _, g := range got {
		if _, ok := inWant[g]; !ok {
			extra = append(extra, g)
		}
	}
	return missing, extra
}
