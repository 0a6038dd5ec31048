package selection

import (
	"strconv"
	"strings"
)

// SubsetMask marks which design columns a model includes. The intercept is
// always included and is not part of the mask, so the all-false mask is the
// intercept-only model of size 0.
type SubsetMask []bool

// NewMask returns a mask of width p with cols set.
func NewMask(p int, cols []int) SubsetMask {
	m := make(SubsetMask, p)
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// Size returns the number of included columns.
func (m SubsetMask) Size() int {
	n := 0
	for _, in := range m {
		if in {
			n++
		}
	}
	return n
}

// Columns returns the included column indices in ascending order.
func (m SubsetMask) Columns() []int {
	cols := make([]int, 0, m.Size())
	for j, in := range m {
		if in {
			cols = append(cols, j)
		}
	}
	return cols
}

// Clone returns a copy of m.
func (m SubsetMask) Clone() SubsetMask {
	return append(SubsetMask(nil), m...)
}

// Equal reports whether m and o include the same columns.
func (m SubsetMask) Equal(o SubsetMask) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] != o[i] {
			return false
		}
	}
	return true
}

// Subset reports whether every column of m is also in o.
func (m SubsetMask) Subset(o SubsetMask) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		if m[i] && !o[i] {
			return false
		}
	}
	return true
}

// String renders the included columns, e.g. "{0,3,4}".
func (m SubsetMask) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range m.Columns() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	b.WriteByte('}')
	return b.String()
}
