package types

import (
	"fmt"
	"slices"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq    CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt    CommonFilterOperator = "lt"
	CommonFilterOperatorLte   CommonFilterOperator = "lte"
	CommonFilterOperatorGt    CommonFilterOperator = "gt"
	CommonFilterOperatorGte   CommonFilterOperator = "gte"
	CommonFilterOperatorRange CommonFilterOperator = "range"
	CommonFilterOperatorIn    CommonFilterOperator = "in"
)

// CommonFilter is a single column predicate sent by list APIs.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Validate rejects filters on columns outside allowed and malformed operands.
func (f *CommonFilter) Validate(allowed []string) error {
	if f == nil {
		return fmt.Errorf("nil filter")
	}
	if !slices.Contains(allowed, f.Field) {
		return fmt.Errorf("filter field not allowed: %s", f.Field)
	}
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq, CommonFilterOperatorLt,
		CommonFilterOperatorLte, CommonFilterOperatorGt, CommonFilterOperatorGte, CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("filter %s: missing value", f.Field)
		}
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return fmt.Errorf("filter %s: range needs two values", f.Field)
		}
	default:
		return fmt.Errorf("filter %s: unsupported operator %q", f.Field, f.Operator)
	}
	return nil
}

var comparisonBuilders = map[CommonFilterOperator]func(col string, v any) clause.Expression{
	CommonFilterOperatorEq:    func(col string, v any) clause.Expression { return clause.Eq{Column: col, Value: v} },
	CommonFilterOperatorNotEq: func(col string, v any) clause.Expression { return clause.Neq{Column: col, Value: v} },
	CommonFilterOperatorLt:    func(col string, v any) clause.Expression { return clause.Lt{Column: col, Value: v} },
	CommonFilterOperatorLte:   func(col string, v any) clause.Expression { return clause.Lte{Column: col, Value: v} },
	CommonFilterOperatorGt:    func(col string, v any) clause.Expression { return clause.Gt{Column: col, Value: v} },
	CommonFilterOperatorGte:   func(col string, v any) clause.Expression { return clause.Gte{Column: col, Value: v} },
}

// Expression returns the clause for f, or nil when f has no usable operands.
func (f *CommonFilter) Expression() clause.Expression {
	if f == nil || len(f.Values) == 0 {
		return nil
	}
	if mk, ok := comparisonBuilders[f.Operator]; ok {
		return mk(f.Field, f.Values[0])
	}
	switch f.Operator {
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return nil
		}
		return clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lt{Column: f.Field, Value: f.Values[1]})
	case CommonFilterOperatorIn:
		return clause.IN{Column: f.Field, Values: f.Values}
	}
	return nil
}

// Build implements clause.Expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if expr := f.Expression(); expr != nil {
		expr.Build(builder)
	}
}

// FiltersAnd combines filters into one expression joined with AND.
type FiltersAnd []*CommonFilter

func (w FiltersAnd) Build(builder clause.Builder) {
	if len(w) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w))
	for _, f := range w {
		if expr := f.Expression(); expr != nil {
			exprs = append(exprs, expr)
		}
	}
	if len(exprs) == 0 {
		builder.WriteString("1=1")
		return
	}
	clause.And(exprs...).Build(builder)
}
