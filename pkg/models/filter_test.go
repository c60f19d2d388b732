package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/apperrors"
)

func TestFilterUnmarshalBareLiteralMeansEquality(t *testing.T) {
	tests := []struct {
		name string
		json string
		want any
	}{
		{name: "string", json: `"active"`, want: "active"},
		{name: "number", json: `42`, want: float64(42)},
		{name: "bool", json: `true`, want: true},
		{name: "null", json: `null`, want: nil},
		{name: "array", json: `[1, 2]`, want: []any{float64(1), float64(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			require.NoError(t, json.Unmarshal([]byte(tt.json), &f))
			assert.Equal(t, OpEq, f.Op)
			assert.Equal(t, tt.want, f.Value)
		})
	}
}

func TestFilterUnmarshalTypedObject(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Filter
	}{
		{name: "gte", json: `{"type": "gte", "value": 8}`, want: Gte(float64(8))},
		{name: "neq", json: `{"type": "neq", "value": "done"}`, want: Neq("done")},
		{name: "ilike", json: `{"type": "ilike", "value": "bau%"}`, want: ILike("bau%")},
		{name: "between", json: `{"type": "between", "value": ["2026-01-01", "2026-01-31"]}`, want: Between("2026-01-01", "2026-01-31")},
		{name: "in", json: `{"type": "in", "value": ["open", "active"]}`, want: In("open", "active")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Filter
			require.NoError(t, json.Unmarshal([]byte(tt.json), &f))
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestFilterUnmarshalUnknownOperatorFails(t *testing.T) {
	var f Filter
	err := json.Unmarshal([]byte(`{"type": "regex", "value": ".*"}`), &f)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilterOperator)
}

func TestFilterUnmarshalBetweenNeedsTwoBounds(t *testing.T) {
	var f Filter
	err := json.Unmarshal([]byte(`{"type": "between", "value": [1]}`), &f)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilterOperator)

	err = json.Unmarshal([]byte(`{"type": "between", "value": [1, 2, 3]}`), &f)
	assert.ErrorIs(t, err, apperrors.ErrInvalidFilterOperator)

	err = json.Unmarshal([]byte(`{"type": "between", "value": 5}`), &f)
	assert.Error(t, err)
}

func TestFilterUnmarshalInNeedsArray(t *testing.T) {
	var f Filter
	err := json.Unmarshal([]byte(`{"type": "in", "value": "open"}`), &f)
	assert.Error(t, err)
}

func TestFiltersUnmarshalMixedShapes(t *testing.T) {
	payload := `{
		"status": "active",
		"hours": {"type": "gt", "value": 4},
		"plan_date": {"type": "between", "value": ["2026-09-01", "2026-09-30"]}
	}`

	var filters Filters
	require.NoError(t, json.Unmarshal([]byte(payload), &filters))
	assert.Equal(t, Eq("active"), filters["status"])
	assert.Equal(t, Gt(float64(4)), filters["hours"])
	assert.Equal(t, OpBetween, filters["plan_date"].Op)
}

func TestFilterMarshalRoundsWireShape(t *testing.T) {
	data, err := json.Marshal(Between(1, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "between", "value": [1, 2]}`, string(data))

	data, err = json.Marshal(In("a", "b"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "in", "value": ["a", "b"]}`, string(data))
}

func TestFilterOperands(t *testing.T) {
	assert.Equal(t, []any{"x"}, Eq("x").Operands())
	assert.Equal(t, []any{1, 2}, Between(1, 2).Operands())
	assert.Equal(t, []any{"a", "b"}, In("a", "b").Operands())
}

func TestCallOptionsSingleRowDefault(t *testing.T) {
	assert.True(t, CallOptions{}.SingleRowRequired())

	off := false
	assert.False(t, CallOptions{RequireSingleRow: &off}.SingleRowRequired())

	on := true
	assert.True(t, CallOptions{RequireSingleRow: &on}.SingleRowRequired())
}
