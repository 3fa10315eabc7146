// Package qtable implements a tabular store of action values for a
// closed set of discrete states and actions
package qtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samuelfneumann/torcsrl/agent"
	"github.com/samuelfneumann/torcsrl/utils/floatutils"
	"github.com/samuelfneumann/torcsrl/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// Header is the first cell of a persisted table
const Header = "Q-TABLE"

// ErrCorrupt is returned when a persisted table cannot be read
var ErrCorrupt = errors.New("corrupt table")

// QTable stores one value per (state, action) pair. Rows of the
// underlying matrix are states, columns are actions, both in the order
// they were enumerated at construction.
type QTable[S, A agent.Discrete] struct {
	values  *mat.Dense
	states  []S
	actions []A
}

// New returns a zero-valued QTable over the argument states and
// actions. Both must be enumerated in index order, i.e. states[i] must
// have the integer value i.
func New[S, A agent.Discrete](states []S, actions []A) *QTable[S, A] {
	if len(states) == 0 || len(actions) == 0 {
		panic("new: states and actions cannot be empty")
	}
	for i, s := range states {
		if int(s) != i {
			panic(fmt.Sprintf("new: state %v enumerated at index %v", s, i))
		}
	}
	for i, a := range actions {
		if int(a) != i {
			panic(fmt.Sprintf("new: action %v enumerated at index %v", a, i))
		}
	}

	return &QTable[S, A]{
		values:  mat.NewDense(len(states), len(actions), nil),
		states:  append([]S(nil), states...),
		actions: append([]A(nil), actions...),
	}
}

// States returns the states of the table in index order
func (q *QTable[S, A]) States() []S {
	return append([]S(nil), q.states...)
}

// Actions returns the actions of the table in index order
func (q *QTable[S, A]) Actions() []A {
	return append([]A(nil), q.actions...)
}

// At returns the value of taking action a in state s
func (q *QTable[S, A]) At(s S, a A) float64 {
	return q.values.At(q.row(s), q.col(a))
}

// Set sets the value of taking action a in state s
func (q *QTable[S, A]) Set(s S, a A, v float64) {
	q.values.Set(q.row(s), q.col(a), v)
}

// Row returns a copy of the action values of state s
func (q *QTable[S, A]) Row(s S) []float64 {
	return mat.Row(nil, q.row(s), q.values)
}

// Max returns the maximum action value in state s along with every
// action attaining it
func (q *QTable[S, A]) Max(s S) (float64, []A) {
	max, indices := floatutils.MaxSlice(q.values.RawRowView(q.row(s)))

	actions := make([]A, len(indices))
	for i, index := range indices {
		actions[i] = q.actions[index]
	}
	return max, actions
}

// Values returns a copy of all values, one row per state
func (q *QTable[S, A]) Values() [][]float64 {
	rows := make([][]float64, len(q.states))
	for i := range rows {
		rows[i] = mat.Row(nil, i, q.values)
	}
	return rows
}

// Clone returns a deep copy of the table
func (q *QTable[S, A]) Clone() *QTable[S, A] {
	clone := New(q.states, q.actions)
	clone.values.Copy(q.values)
	return clone
}

// Zero sets every value in the table to 0
func (q *QTable[S, A]) Zero() {
	q.values.Zero()
}

// String formats the table with a row per state and a column per action
func (q *QTable[S, A]) String() string {
	rows := make([]string, len(q.states))
	for i, s := range q.states {
		rows[i] = s.String()
	}
	cols := make([]string, len(q.actions))
	for i, a := range q.actions {
		cols[i] = a.String()
	}
	return matutils.Format(q.values, rows, cols)
}

// row returns the matrix row of s, panicking if s is not one of the
// table's states
func (q *QTable[S, A]) row(s S) int {
	i := int(s)
	if i < 0 || i >= len(q.states) {
		panic(fmt.Sprintf("qtable: unknown state %d", i))
	}
	return i
}

// col returns the matrix column of a, panicking if a is not one of the
// table's actions
func (q *QTable[S, A]) col(a A) int {
	i := int(a)
	if i < 0 || i >= len(q.actions) {
		panic(fmt.Sprintf("qtable: unknown action %d", i))
	}
	return i
}

// Save writes the table as delimited text: a header row of action
// names followed by one row per state holding the state name and its
// action values.
func (q *QTable[S, A]) Save(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create table file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	header := make([]string, 0, len(q.actions)+1)
	header = append(header, Header)
	for _, a := range q.actions {
		header = append(header, a.String())
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	for i, s := range q.states {
		record := make([]string, 0, len(q.actions)+1)
		record = append(record, s.String())
		for _, v := range q.values.RawRowView(i) {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return file.Close()
}

// Load replaces the values of the table with those stored at filename.
// If the file does not exist, the table is set to all zeros and no
// error is returned. If the file cannot be fully read, the table is
// left unchanged and an error wrapping ErrCorrupt is returned.
func (q *QTable[S, A]) Load(filename string) error {
	file, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		q.Zero()
		return nil
	} else if err != nil {
		return fmt.Errorf("load: could not open table file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(q.actions) + 1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("load: %w: %v", ErrCorrupt, err)
	}
	if len(records) != len(q.states)+1 {
		return fmt.Errorf("load: %w: %v rows for %v states", ErrCorrupt,
			len(records)-1, len(q.states))
	}

	for j, a := range q.actions {
		if records[0][j+1] != a.String() {
			return fmt.Errorf("load: %w: column %v is %q, expected %q",
				ErrCorrupt, j+1, records[0][j+1], a.String())
		}
	}

	rows := make(map[string]int, len(q.states))
	for i, s := range q.states {
		rows[s.String()] = i
	}

	values := mat.NewDense(len(q.states), len(q.actions), nil)
	seen := make([]bool, len(q.states))
	for _, record := range records[1:] {
		i, ok := rows[record[0]]
		if !ok {
			return fmt.Errorf("load: %w: unknown state %q", ErrCorrupt,
				record[0])
		}
		if seen[i] {
			return fmt.Errorf("load: %w: duplicate state %q", ErrCorrupt,
				record[0])
		}
		seen[i] = true

		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil || !floatutils.Finite(v) {
				return fmt.Errorf("load: %w: state %v action %v: %q",
					ErrCorrupt, record[0], q.actions[j], field)
			}
			values.Set(i, j, v)
		}
	}

	q.values.Copy(values)
	return nil
}
