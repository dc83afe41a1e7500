package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Expendadeur/nutrifix-sub002/internal/domain/entity"
)

func TestComputeDiff(t *testing.T) {
	tests := []struct {
		name   string
		before entity.Snapshot
		after  entity.Snapshot
		want   entity.Diff
	}{
		{
			name:   "cambio y campo nuevo",
			before: entity.Snapshot{"a": 1, "b": 2},
			after:  entity.Snapshot{"a": 1, "b": 3, "c": 4},
			want: entity.Diff{
				"b": {Before: 2, After: 3},
				"c": {Before: nil, After: 4},
			},
		},
		{
			name:   "sin cambios",
			before: entity.Snapshot{"a": 1},
			after:  entity.Snapshot{"a": 1},
			want:   nil,
		},
		{
			name:   "campo eliminado",
			before: entity.Snapshot{"a": 1, "b": 2},
			after:  entity.Snapshot{"a": 1},
			want:   entity.Diff{"b": {Before: 2, After: nil}},
		},
		{
			name:   "ambos vacíos",
			before: entity.Snapshot{},
			after:  entity.Snapshot{},
			want:   nil,
		},
		{
			name:   "int y float64 del mismo valor",
			before: entity.Snapshot{"n": 1},
			after:  entity.Snapshot{"n": 1.0},
			want:   nil,
		},
		{
			name:   "nil explícito a valor",
			before: entity.Snapshot{"x": nil},
			after:  entity.Snapshot{"x": "y"},
			want:   entity.Diff{"x": {Before: nil, After: "y"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiff(tt.before, tt.after)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Los valores compuestos se comparan por referencia.
func TestComputeDiff_ShallowComparison(t *testing.T) {
	shared := map[string]any{"k": 1}
	assert.Nil(t, ComputeDiff(entity.Snapshot{"m": shared}, entity.Snapshot{"m": shared}))

	d := ComputeDiff(entity.Snapshot{"m": map[string]any{"k": 1}}, entity.Snapshot{"m": map[string]any{"k": 1}})
	require.Contains(t, d, "m")

	list := []any{"a"}
	assert.Nil(t, ComputeDiff(entity.Snapshot{"l": list}, entity.Snapshot{"l": list}))
	assert.Contains(t, ComputeDiff(entity.Snapshot{"l": []any{"a"}}, entity.Snapshot{"l": []any{"a"}}), "l")
}

func TestSnapshotOf(t *testing.T) {
	type rec struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Hidden string `json:"-"`
	}
	s, err := SnapshotOf(rec{ID: "u-1", Status: "active", Hidden: "x"})
	require.NoError(t, err)
	assert.Equal(t, entity.Snapshot{"id": "u-1", "status": "active"}, s)

	s, err = SnapshotOf(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = SnapshotOf([]int{1, 2})
	assert.Error(t, err)
}
