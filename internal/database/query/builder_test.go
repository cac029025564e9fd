// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package query

import (
	"reflect"
	"testing"
)

func TestWhereBuilder_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	clause, args := wb.Build()
	if clause != "1=1" {
		t.Errorf("Build() clause = %q, want 1=1", clause)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
	if !wb.IsEmpty() || wb.Count() != 0 {
		t.Error("new builder should be empty")
	}
}

func TestWhereBuilder_Combined(t *testing.T) {
	wb := NewWhereBuilder().
		AddClause("r.author_id = ?", int64(7)).
		AddIn("t.slug", []string{"breakfast", "dinner"}).
		AddExists("SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?", true, int64(3))

	clause, args := wb.Build()
	wantClause := "r.author_id = ? AND t.slug IN (?, ?) AND NOT EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)"
	if clause != wantClause {
		t.Errorf("clause = %q\nwant     %q", clause, wantClause)
	}
	wantArgs := []interface{}{int64(7), "breakfast", "dinner", int64(3)}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
	if wb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", wb.Count())
	}
}

func TestWhereBuilder_SkipEmptyIn(t *testing.T) {
	wb := NewWhereBuilder().AddIn("t.slug", nil)
	if !wb.IsEmpty() {
		t.Error("AddIn with no values should not add a clause")
	}
}

func TestWhereBuilder_BuildWithPrefix(t *testing.T) {
	clause, _ := NewWhereBuilder().AddClause("x = ?", 1).BuildWithPrefix()
	if clause != "WHERE x = ?" {
		t.Errorf("BuildWithPrefix() = %q", clause)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := Placeholders(tt.n); got != tt.want {
			t.Errorf("Placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestInt64Args(t *testing.T) {
	got := Int64Args([]int64{1, 2})
	if !reflect.DeepEqual(got, []interface{}{int64(1), int64(2)}) {
		t.Errorf("Int64Args() = %v", got)
	}
}
