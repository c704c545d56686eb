package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorldCreateDestroyEntity(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)
	require.True(t, w.IsAlive(id))
	require.Equal(t, 1, w.EntityCount())

	require.NoError(t, w.DestroyEntity(id))
	require.False(t, w.IsAlive(id))
	require.Equal(t, 0, w.EntityCount())
}

func TestWorldAddComponentMovesArchetypeAndWritesFields(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x", "y")
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)
	require.False(t, w.HasComponent(id, pos))

	require.NoError(t, w.AddComponent(id, pos, map[string]float64{"x": 10, "y": 20}))
	require.True(t, w.HasComponent(id, pos))

	x, err := w.GetField(id, pos, "x")
	require.NoError(t, err)
	require.Equal(t, 10.0, x)

	require.NoError(t, w.SetField(id, pos, "y", 99))
	y, err := w.GetField(id, pos, "y")
	require.NoError(t, err)
	require.Equal(t, 99.0, y)

	require.NoError(t, w.RemoveComponent(id, pos))
	require.False(t, w.HasComponent(id, pos))
}

func TestWorldQueryReflectsComponentMoves(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x", "y")
	require.NoError(t, err)
	hp, err := w.RegisterUniformComponent(I32, "hp")
	require.NoError(t, err)

	a, err := w.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, w.AddComponent(a, pos, nil))

	b, err := w.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, w.AddComponent(b, pos, nil))
	require.NoError(t, w.AddComponent(b, hp, nil))

	q := w.Query(pos)
	require.Equal(t, 2, q.EntityCount())

	require.NoError(t, w.RemoveComponent(b, pos))
	require.Equal(t, 1, q.EntityCount())
}

func TestWorldDeferredOpsFlushInFixedOrder(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x")
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)

	w.AddComponentDeferred(id, pos, map[string]float64{"x": 5})
	w.DestroyEntityDeferred(id)
	require.True(t, w.IsAlive(id), "deferred ops must not apply before Flush")

	require.NoError(t, w.Flush())
	require.False(t, w.IsAlive(id))
}

func TestWorldDeferredSkipsAlreadyDestroyedEntity(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x")
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)

	w.AddComponentDeferred(id, pos, map[string]float64{"x": 1})
	require.NoError(t, w.DestroyEntity(id))

	// The entity is already gone by the time Flush runs its deferred add;
	// this must be silently skipped rather than erroring.
	require.NoError(t, w.Flush())
}

func TestWorldRunStartupAndUpdateDrivesSystemsAndEvents(t *testing.T) {
	w, err := NewWorld(WorldOptions{FixedTimestep: 1.0 / 60.0, MaxFixedSteps: 4})
	require.NoError(t, err)

	type tickEvent struct{ n int }
	startupRan := false
	require.NoError(t, w.AddSystem(Startup, "init", func(w *World) error {
		startupRan = true
		return nil
	}))

	ticks := 0
	require.NoError(t, w.AddSystem(Update, "emit", func(w *World) error {
		ticks++
		EmitEvent(w, tickEvent{n: ticks})
		return nil
	}))

	var seen []tickEvent
	require.NoError(t, w.AddSystem(PostUpdate, "read", func(w *World) error {
		seen = append(seen, ReadEvents[tickEvent](w)...)
		return nil
	}))

	require.NoError(t, w.RunStartup())
	require.True(t, startupRan)

	require.NoError(t, w.RunUpdate(1.0/60.0))
	require.Len(t, seen, 1)
	require.Equal(t, 1, seen[0].n)

	// events must not carry over into the next tick
	require.NoError(t, w.RunUpdate(1.0/60.0))
	require.Len(t, seen, 2)
	require.Equal(t, 2, seen[1].n)
}

func TestWorldArchetypesIncludesEmpty(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)
	require.Len(t, w.Archetypes(), 1, "a fresh world should have just the empty archetype")
}

func TestWorldAddComponentsMovesOnceToFinalTarget(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x", "y")
	require.NoError(t, err)
	hp, err := w.RegisterUniformComponent(I32, "hp")
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)

	require.NoError(t, w.AddComponents(id, []ComponentValue{
		{Component: pos, Values: map[string]float64{"x": 1, "y": 2}},
		{Component: hp, Values: map[string]float64{"hp": 10}},
	}))
	require.True(t, w.HasComponent(id, pos))
	require.True(t, w.HasComponent(id, hp))

	x, err := w.GetField(id, pos, "x")
	require.NoError(t, err)
	require.Equal(t, 1.0, x)
	hpVal, err := w.GetField(id, hp, "hp")
	require.NoError(t, err)
	require.Equal(t, 10.0, hpVal)

	// Adding the same components again (one already present, one not) must
	// still land in a single move and only write the new values.
	spd, err := w.RegisterUniformComponent(F32, "s")
	require.NoError(t, err)
	require.NoError(t, w.AddComponents(id, []ComponentValue{
		{Component: pos, Values: map[string]float64{"x": 5, "y": 6}},
		{Component: spd, Values: map[string]float64{"s": 3}},
	}))
	x, err = w.GetField(id, pos, "x")
	require.NoError(t, err)
	require.Equal(t, 5.0, x)
	s, err := w.GetField(id, spd, "s")
	require.NoError(t, err)
	require.Equal(t, 3.0, s)
}

func TestWorldRemoveComponentsMovesOnce(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x")
	require.NoError(t, err)
	hp, err := w.RegisterUniformComponent(I32, "hp")
	require.NoError(t, err)
	tag, err := w.RegisterTag()
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, w.AddComponents(id, []ComponentValue{
		{Component: pos},
		{Component: hp},
		{Component: tag},
	}))

	// pos and hp are removed in one call; tag is not in the list and must
	// stay on the entity.
	require.NoError(t, w.RemoveComponents(id, []ComponentId{pos, hp}))
	require.False(t, w.HasComponent(id, pos))
	require.False(t, w.HasComponent(id, hp))
	require.True(t, w.HasComponent(id, tag))
}

func TestWorldAddComponentsDeferredAndRemoveComponentsDeferred(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x")
	require.NoError(t, err)
	hp, err := w.RegisterUniformComponent(I32, "hp")
	require.NoError(t, err)

	id, err := w.CreateEntity()
	require.NoError(t, err)

	w.AddComponentsDeferred(id, []ComponentValue{
		{Component: pos, Values: map[string]float64{"x": 1}},
		{Component: hp, Values: map[string]float64{"hp": 5}},
	})
	require.False(t, w.HasComponent(id, pos), "must not apply before Flush")
	require.NoError(t, w.Flush())
	require.True(t, w.HasComponent(id, pos))
	require.True(t, w.HasComponent(id, hp))

	w.RemoveComponentsDeferred(id, []ComponentId{pos, hp})
	require.True(t, w.HasComponent(id, pos), "must not apply before Flush")
	require.NoError(t, w.Flush())
	require.False(t, w.HasComponent(id, pos))
	require.False(t, w.HasComponent(id, hp))
}

func TestWorldBatchAddAndRemoveComponent(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	pos, err := w.RegisterUniformComponent(F32, "x", "y")
	require.NoError(t, err)
	hp, err := w.RegisterUniformComponent(I32, "hp")
	require.NoError(t, err)

	ids := make([]EntityId, 0, 5)
	for i := 0; i < 5; i++ {
		id, err := w.CreateEntity()
		require.NoError(t, err)
		require.NoError(t, w.AddComponent(id, pos, map[string]float64{"x": float64(i), "y": 0}))
		ids = append(ids, id)
	}

	archID, _, ok := w.directory.Locate(ids[0])
	require.True(t, ok)

	require.NoError(t, w.BatchAddComponent(archID, hp, map[string]float64{"hp": 100}))
	for i, id := range ids {
		require.True(t, w.HasComponent(id, hp))
		hpVal, err := w.GetField(id, hp, "hp")
		require.NoError(t, err)
		require.Equal(t, 100.0, hpVal)
		// Position values must have survived the bulk move untouched.
		xVal, err := w.GetField(id, pos, "x")
		require.NoError(t, err)
		require.Equal(t, float64(i), xVal)
	}

	withBoth, _, ok := w.directory.Locate(ids[0])
	require.True(t, ok)
	require.NoError(t, w.BatchRemoveComponent(withBoth, hp))
	for _, id := range ids {
		require.False(t, w.HasComponent(id, hp))
		require.True(t, w.HasComponent(id, pos))
	}
}

func TestWorldResources(t *testing.T) {
	w, err := NewWorld(WorldOptions{})
	require.NoError(t, err)

	type Config struct{ MaxPlayers int }
	_, ok := Resource[Config](w)
	require.False(t, ok)

	SetResource(w, Config{MaxPlayers: 4})
	got, ok := Resource[Config](w)
	require.True(t, ok)
	require.Equal(t, 4, got.MaxPlayers)
}
