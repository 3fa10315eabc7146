// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing. If rows or cols are not nil,
// they label the rows and columns of the matrix and must have one
// element per row and column respectively.
func Format(X mat.Matrix, rows, cols []string) string {
	if rows == nil && cols == nil {
		fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
		return fmt.Sprintf("%v", fa)
	}

	r, c := X.Dims()
	if (rows != nil && len(rows) != r) || (cols != nil && len(cols) != c) {
		panic("format: labels do not match matrix dimensions")
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	if cols != nil {
		if rows != nil {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprintln(w, strings.Join(cols, "\t")+"\t")
	}
	for i := 0; i < r; i++ {
		if rows != nil {
			fmt.Fprint(w, rows[i], "\t")
		}
		for j := 0; j < c; j++ {
			fmt.Fprint(w, strconv.FormatFloat(X.At(i, j), 'g', 6, 64), "\t")
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return b.String()
}
