package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/gridsync"
	"github.com/zero-day-ai/gridsync/cim"
	"github.com/zero-day-ai/gridsync/graph"
	"github.com/zero-day-ai/gridsync/wire"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func add(t *testing.T, store *graph.Store, obj cim.IdentifiedObject, refs ...graph.Reference) {
	t.Helper()
	_, err := store.AddWithReferences(obj, refs)
	require.NoError(t, err)
}

func sampleStore(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore(nil)

	feeder := cim.NewFeeder("f001")
	feeder.Name = "Feeder 1"
	add(t, store, feeder,
		graph.Reference{Relationship: graph.FeederNormalHeadTerminal, TargetID: "t001"},
		graph.Reference{Relationship: graph.FeederNormalEnergizedLvFeeders, TargetID: "lv001"})

	breaker := cim.NewBreaker("b001")
	breaker.BaseVoltage = 11000
	add(t, store, breaker, graph.Reference{Relationship: graph.EquipmentContainers, TargetID: "f001"})

	terminal := cim.NewTerminal("t001")
	terminal.SequenceNumber = 1
	add(t, store, terminal, graph.Reference{Relationship: graph.TerminalConductingEquipment, TargetID: "b001"})

	return store
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	n, err := db.Save(ctx, sampleStore(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counts, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[cim.Kind]int{cim.KindFeeder: 1, cim.KindBreaker: 1, cim.KindTerminal: 1}, counts)

	loaded := graph.NewStore(nil)
	added, err := db.Load(ctx, loaded)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	obj, err := loaded.Require("f001", "test")
	require.NoError(t, err)
	feeder := obj.(*cim.Feeder)
	assert.Equal(t, "Feeder 1", feeder.Name)
	require.NotNil(t, feeder.NormalHeadTerminal)
	assert.Equal(t, 1, feeder.NormalHeadTerminal.SequenceNumber)
	require.NotNil(t, feeder.NormalHeadTerminal.ConductingEquipment)
	assert.Equal(t, "b001", feeder.NormalHeadTerminal.ConductingEquipment.MRID())
	assert.Contains(t, feeder.Equipment, "b001")

	obj, err = loaded.Require("b001", "test")
	require.NoError(t, err)
	assert.Equal(t, 11000, obj.(*cim.Breaker).BaseVoltage)

	// The pending LV feeder reference survives the round trip.
	assert.Equal(t, []string{"lv001"}, loaded.Outstanding(graph.OutstandingOptions{}))
}

func TestSave_Replaces(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Save(ctx, sampleStore(t))
	require.NoError(t, err)

	small := graph.NewStore(nil)
	add(t, small, cim.NewSubstation("s001"))
	n, err := db.Save(ctx, small)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	counts, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[cim.Kind]int{cim.KindSubstation: 1}, counts)
}

func TestLoad_UnresolvedRequiredReference(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	store := graph.NewStore(nil)
	add(t, store, cim.NewTerminal("t9"), graph.Reference{Relationship: graph.TerminalConductingEquipment, TargetID: "missing"})
	_, err := db.Save(ctx, store)
	require.NoError(t, err)

	loaded := graph.NewStore(nil)
	added, err := db.Load(ctx, loaded)
	assert.Equal(t, 1, added)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gridsync.ErrUnresolvedRequiredReference))

	var ge *gridsync.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, "t9", ge.Context["source_id"])
	assert.Equal(t, graph.TerminalConductingEquipment, ge.Context["relationship"])
}

func TestLoad_Conflict(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Save(ctx, sampleStore(t))
	require.NoError(t, err)

	loaded := graph.NewStore(nil)
	add(t, loaded, cim.NewJunction("b001"))

	added, err := db.Load(ctx, loaded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gridsync.ErrDuplicateIdentifier))
	assert.Equal(t, 2, added)
}

func TestReferencing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.Save(ctx, sampleStore(t))
	require.NoError(t, err)

	ids, err := db.Referencing(ctx, "f001")
	require.NoError(t, err)
	assert.Equal(t, []string{"b001"}, ids)

	ids, err = db.Referencing(ctx, "lv001")
	require.NoError(t, err)
	assert.Equal(t, []string{"f001"}, ids)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	md, err := db.LoadMetadata(ctx)
	require.NoError(t, err)
	assert.Nil(t, md)

	want := &wire.Metadata{
		Title:   "Test network",
		Version: "3",
		DataSources: []wire.DataSource{
			{Source: "gis", Version: "2024.1", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	require.NoError(t, db.SaveMetadata(ctx, want))
	require.NoError(t, db.SaveMetadata(ctx, want))

	got, err := db.LoadMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	n, err := db.Save(context.Background(), sampleStore(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
