package repo

import (
	"fmt"
	"strings"

	"github.com/ayushbirla71/survey-backend/pkg/goutil"
)

type LogicalOp string

const (
	And LogicalOp = "AND"
	Or  LogicalOp = "OR"
)

type Op string

const (
	OpEq    Op = "="
	OpNotEq Op = "!="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpLike  Op = "LIKE"
	OpIn    Op = "IN"
)

// Condition is one predicate. When Group is set, the grouped conditions are rendered in parentheses
// and Field, Op and Value are ignored. Conditions with a nil Value are skipped.
type Condition struct {
	Field         string
	Op            Op
	Value         interface{}
	Group         []*Condition
	NextLogicalOp LogicalOp
}

type Pagination struct {
	Page    *uint32 `json:"page,omitempty" schema:"page"`
	Limit   *uint32 `json:"limit,omitempty" schema:"limit"`
	HasNext *bool   `json:"has_next,omitempty" schema:"-"`
	Total   *uint32 `json:"total,omitempty" schema:"-"`
}

func (p *Pagination) GetPage() uint32 {
	if p != nil && p.Page != nil {
		return *p.Page
	}
	return 0
}

func (p *Pagination) GetLimit() uint32 {
	if p != nil && p.Limit != nil {
		return *p.Limit
	}
	return 0
}

func (p *Pagination) GetHasNext() bool {
	if p != nil && p.HasNext != nil {
		return *p.HasNext
	}
	return false
}

func (p *Pagination) GetTotal() uint32 {
	if p != nil && p.Total != nil {
		return *p.Total
	}
	return 0
}

type Filter struct {
	Conditions []*Condition
	Pagination *Pagination
	// OrderBy defaults to "create_time DESC, id DESC" in GetMany.
	OrderBy string
	// Fields narrows the selected columns in Get. Empty selects every column.
	Fields []string
}

func ToSqlWithArgs(f *Filter) (string, []interface{}) {
	if f == nil {
		return "", nil
	}
	return conditionsToSql(f.Conditions)
}

func conditionsToSql(conditions []*Condition) (string, []interface{}) {
	var (
		sb   strings.Builder
		args []interface{}
		prev *Condition
	)

	for _, condition := range conditions {
		var (
			part     string
			partArgs []interface{}
		)

		if condition.Group != nil {
			part, partArgs = conditionsToSql(condition.Group)
			if part == "" {
				continue
			}
			part = fmt.Sprintf("(%s)", part)
		} else {
			if goutil.IsNil(condition.Value) {
				continue
			}
			part = fmt.Sprintf("%s %s ?", condition.Field, condition.Op)
			partArgs = []interface{}{condition.Value}
		}

		if prev != nil {
			op := prev.NextLogicalOp
			if op == "" {
				op = And
			}
			sb.WriteString(fmt.Sprintf(" %s ", op))
		}

		sb.WriteString(part)
		args = append(args, partArgs...)
		prev = condition
	}

	return sb.String(), args
}
