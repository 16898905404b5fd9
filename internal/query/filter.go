// Package query selects topic rows with CEL expressions.
//
// An expression sees one row at a time through these variables:
//
//	timestamp  int     row timestamp in microseconds
//	time_s     double  seconds since the log start
//	flagged    bool    the row carries any RowFlag
//	row        map     column name to value; numbers are doubles
//
// Fields whose names are not identifiers are reached by index, for example
// row["q[0]"] > 0.5 && timestamp > 1000000.
package query

import (
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/flightreview/internal/dataset"
)

// Filter is a compiled row predicate. The zero Filter and one compiled from
// an empty expression match every row.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// Compile parses and type-checks expr, which must evaluate to a bool.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("timestamp", cel.IntType),
		cel.Variable("time_s", cel.DoubleType),
		cel.Variable("flagged", cel.BoolType),
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, &TypeError{Expr: expr, Got: ast.OutputType().String()}
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Filter{prog: prog, enabled: true}, nil
}

// TypeError reports an expression that does not produce a bool.
type TypeError struct {
	Expr string
	Got  string
}

func (e *TypeError) Error() string {
	return "query: expression " + e.Expr + " yields " + e.Got + ", want bool"
}

// Match evaluates the filter on row i of t. Evaluation errors, such as a
// missing column, count as no match.
func (f *Filter) Match(t *dataset.Topic, i int, start uint64) bool {
	if f == nil || !f.enabled {
		return true
	}
	tbl := t.Table
	ts := tbl.Timestamp(i)
	row := make(map[string]any, len(tbl.Columns()))
	for _, c := range tbl.Columns() {
		if v, ok := c.Float(i); ok {
			row[c.Name()] = v
		} else {
			row[c.Name()] = c.Value(i)
		}
	}
	var rel float64
	if ts > start {
		rel = float64(ts-start) / 1e6
	}
	out, _, err := f.prog.Eval(map[string]any{
		"timestamp": int64(ts),
		"time_s":    rel,
		"flagged":   tbl.Flags(i) != 0,
		"row":       row,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// Rows returns the indices of matching rows of t in order, stopping after
// limit matches when limit > 0.
func (f *Filter) Rows(t *dataset.Topic, start uint64, limit int) []int {
	var out []int
	for i := 0; i < t.Len(); i++ {
		if !f.Match(t, i, start) {
			continue
		}
		out = append(out, i)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
