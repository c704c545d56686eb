package ecs

import "testing"

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(WorldOptions{})
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	return w
}

func TestSchedulerRespectsBeforeAfter(t *testing.T) {
	s := NewScheduler(0, 0)
	var order []string
	record := func(name string) SystemFunc {
		return func(w *World) error { order = append(order, name); return nil }
	}
	if err := s.AddSystem(Update, "c", record("c"), After("b")); err != nil {
		t.Fatalf("AddSystem c: %v", err)
	}
	if err := s.AddSystem(Update, "a", record("a"), Before("b")); err != nil {
		t.Fatalf("AddSystem a: %v", err)
	}
	if err := s.AddSystem(Update, "b", record("b")); err != nil {
		t.Fatalf("AddSystem b: %v", err)
	}

	w := newTestWorld(t)
	if err := s.RunPhase(w, Update); err != nil {
		t.Fatalf("RunPhase: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerInsertionOrderTieBreak(t *testing.T) {
	s := NewScheduler(0, 0)
	var order []string
	record := func(name string) SystemFunc {
		return func(w *World) error { order = append(order, name); return nil }
	}
	s.AddSystem(Update, "first", record("first"))
	s.AddSystem(Update, "second", record("second"))
	s.AddSystem(Update, "third", record("third"))

	w := newTestWorld(t)
	if err := s.RunPhase(w, Update); err != nil {
		t.Fatalf("RunPhase: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("run order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerDuplicateRegistration(t *testing.T) {
	s := NewScheduler(0, 0)
	noop := func(w *World) error { return nil }
	if err := s.AddSystem(Update, "dup", noop); err != nil {
		t.Fatalf("first AddSystem: %v", err)
	}
	err := s.AddSystem(Update, "dup", noop)
	if err == nil {
		t.Fatalf("expected DuplicateRegistration error")
	}
	ke, ok := asKernelError(err)
	if !ok || ke.Kind != DuplicateRegistration {
		t.Errorf("expected DuplicateRegistration, got %v", err)
	}
}

func TestSchedulerCycleDetection(t *testing.T) {
	s := NewScheduler(0, 0)
	noop := func(w *World) error { return nil }
	s.AddSystem(Update, "a", noop, After("b"))
	s.AddSystem(Update, "b", noop, After("a"))

	w := newTestWorld(t)
	err := s.RunPhase(w, Update)
	if err == nil {
		t.Fatalf("expected SchedulingCycle error")
	}
	ke, ok := asKernelError(err)
	if !ok || ke.Kind != SchedulingCycle {
		t.Errorf("expected SchedulingCycle, got %v", err)
	}
}

func TestSchedulerRemoveSystemIsNoopIfAbsent(t *testing.T) {
	s := NewScheduler(0, 0)
	s.RemoveSystem(Update, "never-registered")
}

func TestSchedulerFixedTimestepAccumulator(t *testing.T) {
	s := NewScheduler(1.0/60.0, 4)
	steps := 0
	s.AddSystem(FixedUpdate, "step", func(w *World) error { steps++; return nil })

	w := newTestWorld(t)
	if err := s.RunUpdate(w, 3.0/60.0); err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if steps != 3 {
		t.Errorf("expected 3 fixed steps for 3 ticks of input, got %d", steps)
	}
}

func TestSchedulerFixedTimestepCapsSteps(t *testing.T) {
	s := NewScheduler(1.0/60.0, 2)
	steps := 0
	s.AddSystem(FixedUpdate, "step", func(w *World) error { steps++; return nil })

	w := newTestWorld(t)
	if err := s.RunUpdate(w, 10.0/60.0); err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if steps != 2 {
		t.Errorf("expected fixed steps capped at 2, got %d", steps)
	}
}

func TestSchedulerFixedTimestepClampDropsFractionalOverflow(t *testing.T) {
	s := NewScheduler(1.0/60.0, 4)
	steps := 0
	s.AddSystem(FixedUpdate, "step", func(w *World) error { steps++; return nil })

	w := newTestWorld(t)
	if err := s.RunUpdate(w, 4.3/60.0); err != nil {
		t.Fatalf("RunUpdate: %v", err)
	}
	if steps != 4 {
		t.Errorf("expected 4 fixed steps, got %d", steps)
	}
	if s.accumulator != 0 {
		t.Errorf("expected clamp to zero the accumulator, got %v", s.accumulator)
	}
	if s.FixedAlpha() != 0 {
		t.Errorf("expected FixedAlpha to be 0 after clamp, got %v", s.FixedAlpha())
	}
}
