package frame

// Matrix is the numeric-only output handed to a model-scoring collaborator.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// Index returns the position of a column, or -1.
func (m *Matrix) Index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns row i of the named column.
func (m *Matrix) Value(i int, name string) (float64, bool) {
	j := m.Index(name)
	if j < 0 || i < 0 || i >= len(m.Rows) {
		return 0, false
	}
	return m.Rows[i][j], true
}

func (m *Matrix) Len() int {
	return len(m.Rows)
}
