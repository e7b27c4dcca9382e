package query

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
)

func testStore(t *testing.T) *graph.Store {
	t.Helper()

	store := graph.NewStore(nil)

	feeder := cim.NewFeeder("f001")
	feeder.Name = "Feeder 1"
	require.NoError(t, store.Add(feeder))

	breaker := cim.NewBreaker("b001")
	breaker.Name = "Head breaker"
	breaker.BaseVoltage = 11000
	_, err := store.AddWithReferences(breaker, []graph.Reference{
		{Relationship: graph.EquipmentContainers, TargetID: "f001"},
	})
	require.NoError(t, err)

	line := cim.NewAcLineSegment("c001")
	line.Length = 120.5
	line.BaseVoltage = 400
	require.NoError(t, store.Add(line))

	return store
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax", `kind ==`},
		{"unknown variable", `voltage > 1`},
		{"not bool", `mrid`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, &gridsync.Error{Kind: gridsync.KindValidation}))
		})
	}
}

func TestFilter_Store(t *testing.T) {
	store := testStore(t)

	tests := []struct {
		expr string
		want []string
	}{
		{`kind == "Breaker"`, []string{"b001"}},
		{`has(fields.baseVoltage) && fields.baseVoltage >= 11000`, []string{"b001"}},
		{`has(fields.length) && fields.length > 100.0`, []string{"c001"}},
		{`name.startsWith("Feeder")`, []string{"f001"}},
		{`"f001" in targets && targets["f001"].size() > 0`, nil},
		{`"Equipment.equipmentContainers" in targets && "f001" in targets["Equipment.equipmentContainers"]`, []string{"b001"}},
		{`true`, []string{"b001", "c001", "f001"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, f.String())

			objs, err := f.Store(store)
			require.NoError(t, err)

			var ids []string
			for _, obj := range objs {
				ids = append(ids, obj.MRID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilter_Objects(t *testing.T) {
	store := testStore(t)
	objs := make(map[string]cim.IdentifiedObject)
	store.Range(func(obj cim.IdentifiedObject) bool {
		objs[obj.MRID()] = obj
		return true
	})

	f, err := Compile(`kind != "Feeder"`)
	require.NoError(t, err)

	ids, err := f.Objects(objs)
	require.NoError(t, err)
	assert.Equal(t, []string{"b001", "c001"}, ids)
}

func TestFilter_EvalError(t *testing.T) {
	store := testStore(t)

	f, err := Compile(`fields.missing == 1`)
	require.NoError(t, err)

	_, err = f.Store(store)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &gridsync.Error{Kind: gridsync.KindValidation}))
}

func TestFilter_ZeroValuedAttributes(t *testing.T) {
	store := graph.NewStore(nil)

	energized := cim.NewBreaker("b1")
	energized.BaseVoltage = 11000
	require.NoError(t, store.Add(energized))
	require.NoError(t, store.Add(cim.NewBreaker("b2")))

	tests := []struct {
		expr string
		want []string
	}{
		{`kind == "Breaker" && fields.baseVoltage >= 11000`, []string{"b1"}},
		{`fields.baseVoltage == 0`, []string{"b2"}},
		{`fields.description == "" && !fields.normalOpen`, []string{"b1", "b2"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			require.NoError(t, err)

			objs, err := f.Store(store)
			require.NoError(t, err)

			var ids []string
			for _, obj := range objs {
				ids = append(ids, obj.MRID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
