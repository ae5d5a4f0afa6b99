package repo

import (
	"testing"

	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/stretchr/testify/assert"
)

func TestToSqlWithArgs(t *testing.T) {
	var nilStr *string

	tests := []struct {
		name     string
		filter   *Filter
		wantSql  string
		wantArgs []interface{}
	}{
		{
			name:    "nil filter",
			filter:  nil,
			wantSql: "",
		},
		{
			name: "skip nil values without dangling operator",
			filter: &Filter{Conditions: []*Condition{
				{Field: "survey_id", Op: OpEq, Value: "s-1", NextLogicalOp: And},
				{Field: "status", Op: OpEq, Value: nilStr},
			}},
			wantSql:  "survey_id = ?",
			wantArgs: []interface{}{"s-1"},
		},
		{
			name: "in and default and",
			filter: &Filter{Conditions: []*Condition{
				{Field: "campaign_id", Op: OpEq, Value: "c-1"},
				{Field: "status", Op: OpIn, Value: []uint32{2, 4}},
			}},
			wantSql:  "campaign_id = ? AND status IN ?",
			wantArgs: []interface{}{"c-1", []uint32{2, 4}},
		},
		{
			name: "grouped keyword search",
			filter: &Filter{Conditions: []*Condition{
				{Field: "is_active", Op: OpEq, Value: goutil.Bool(true), NextLogicalOp: And},
				{Group: []*Condition{
					{Field: "first_name", Op: OpLike, Value: "%ann%", NextLogicalOp: Or},
					{Field: "email", Op: OpLike, Value: "%ann%"},
				}},
			}},
			wantSql:  "is_active = ? AND (first_name LIKE ? OR email LIKE ?)",
			wantArgs: []interface{}{goutil.Bool(true), "%ann%", "%ann%"},
		},
		{
			name: "empty group skipped",
			filter: &Filter{Conditions: []*Condition{
				{Group: []*Condition{{Field: "email", Op: OpLike, Value: nilStr}}, NextLogicalOp: And},
				{Field: "gender", Op: OpEq, Value: "Female"},
			}},
			wantSql:  "gender = ?",
			wantArgs: []interface{}{"Female"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := ToSqlWithArgs(tt.filter)
			assert.Equal(t, tt.wantSql, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
