package ecs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TheBitDrifter/mask"
)

// Phase names one of the scheduler's seven fixed execution points per
// update tick.
type Phase int

const (
	PreStartup Phase = iota
	Startup
	PostStartup
	FixedUpdate
	PreUpdate
	Update
	PostUpdate
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PreStartup:
		return "PreStartup"
	case Startup:
		return "Startup"
	case PostStartup:
		return "PostStartup"
	case FixedUpdate:
		return "FixedUpdate"
	case PreUpdate:
		return "PreUpdate"
	case Update:
		return "Update"
	case PostUpdate:
		return "PostUpdate"
	default:
		return "Unknown"
	}
}

// SystemFunc is one unit of scheduled work. It receives the world it was
// registered against.
type SystemFunc func(w *World) error

type systemDescriptor struct {
	name   string
	fn     SystemFunc
	before []string
	after  []string
	order  int
}

// SystemOption configures a system's ordering constraints at registration.
type SystemOption func(*systemDescriptor)

// Before declares that this system must run before the named systems in
// the same phase, when present.
func Before(names ...string) SystemOption {
	return func(d *systemDescriptor) { d.before = append(d.before, names...) }
}

// After declares that this system must run after the named systems in the
// same phase, when present.
func After(names ...string) SystemOption {
	return func(d *systemDescriptor) { d.after = append(d.after, names...) }
}

type phaseBucket struct {
	descriptors []*systemDescriptor
	byName      map[string]*systemDescriptor
	sorted      []*systemDescriptor
	dirty       bool
}

func newPhaseBucket() *phaseBucket {
	return &phaseBucket{byName: make(map[string]*systemDescriptor)}
}

// Scheduler runs registered systems phase by phase, each phase
// topologically sorted by its systems' Before/After constraints with
// insertion order as the tie-break, and drives the fixed-timestep
// accumulator for FixedUpdate. It reuses TheBitDrifter/mask's Mask256 as a
// phase-in-flight lock bitset, the same guard warehouse's Storage keeps
// around ProcessAll, so a reentrant or concurrent phase run can tell
// whether it's safe to flush.
type Scheduler struct {
	buckets       [numPhases]*phaseBucket
	insertCounter int
	lock          mask.Mask256

	fixedTimestep float64
	maxFixedSteps int
	accumulator   float64
	fixedAlpha    float64
}

// NewScheduler returns a scheduler with the given fixed timestep (seconds
// per FixedUpdate step) and the maximum number of FixedUpdate steps run per
// Update call, defaulting to 1/60 and 4 when callers pass zero.
func NewScheduler(fixedTimestep float64, maxFixedSteps int) *Scheduler {
	if fixedTimestep <= 0 {
		fixedTimestep = 1.0 / 60.0
	}
	if maxFixedSteps <= 0 {
		maxFixedSteps = 4
	}
	s := &Scheduler{fixedTimestep: fixedTimestep, maxFixedSteps: maxFixedSteps}
	for i := range s.buckets {
		s.buckets[i] = newPhaseBucket()
	}
	return s
}

// AddSystem registers fn under name in phase. Fails with
// DuplicateRegistration if name is already scheduled in that phase.
func (s *Scheduler) AddSystem(phase Phase, name string, fn SystemFunc, opts ...SystemOption) error {
	b := s.buckets[phase]
	if _, exists := b.byName[name]; exists {
		return newKernelError(DuplicateRegistration, fmt.Sprintf("system %q already scheduled in phase %s", name, phase))
	}
	d := &systemDescriptor{name: name, fn: fn, order: s.insertCounter}
	s.insertCounter++
	for _, opt := range opts {
		opt(d)
	}
	b.descriptors = append(b.descriptors, d)
	b.byName[name] = d
	b.dirty = true
	return nil
}

// RemoveSystem unregisters name from phase. It is a no-op if name was never
// scheduled there.
func (s *Scheduler) RemoveSystem(phase Phase, name string) {
	b := s.buckets[phase]
	d, ok := b.byName[name]
	if !ok {
		return
	}
	delete(b.byName, name)
	for i, existing := range b.descriptors {
		if existing == d {
			b.descriptors = append(b.descriptors[:i], b.descriptors[i+1:]...)
			break
		}
	}
	b.dirty = true
}

// sortPhase returns phase's systems in dependency order, rebuilding and
// caching the order only when the phase's registration has changed since
// the last sort.
func (s *Scheduler) sortPhase(phase Phase) ([]*systemDescriptor, error) {
	b := s.buckets[phase]
	if !b.dirty && b.sorted != nil {
		return b.sorted, nil
	}
	sorted, err := topoSort(b.descriptors)
	if err != nil {
		return nil, err
	}
	b.sorted = sorted
	b.dirty = false
	return sorted, nil
}

// topoSort runs Kahn's algorithm over descriptors' Before/After edges,
// breaking ties by picking the earliest-registered ready descriptor at
// each step so equivalent-priority systems run in the order they were
// added.
func topoSort(descriptors []*systemDescriptor) ([]*systemDescriptor, error) {
	byName := make(map[string]*systemDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.name] = d
	}
	indegree := make(map[string]int, len(descriptors))
	adj := make(map[string][]string)
	for _, d := range descriptors {
		if _, ok := indegree[d.name]; !ok {
			indegree[d.name] = 0
		}
		for _, after := range d.after {
			if _, ok := byName[after]; !ok {
				continue
			}
			adj[after] = append(adj[after], d.name)
			indegree[d.name]++
		}
		for _, before := range d.before {
			if _, ok := byName[before]; !ok {
				continue
			}
			adj[d.name] = append(adj[d.name], before)
			indegree[before]++
		}
	}

	remaining := make([]*systemDescriptor, len(descriptors))
	copy(remaining, descriptors)
	result := make([]*systemDescriptor, 0, len(descriptors))

	for len(remaining) > 0 {
		idx := -1
		for i, d := range remaining {
			if indegree[d.name] == 0 {
				idx = i
				break
			}
		}
		if idx == -1 {
			names := make([]string, len(remaining))
			for i, d := range remaining {
				names[i] = d.name
			}
			sort.Strings(names)
			return nil, newKernelError(SchedulingCycle, fmt.Sprintf("cycle among systems: %s", strings.Join(names, ", ")))
		}
		d := remaining[idx]
		result = append(result, d)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		for _, next := range adj[d.name] {
			indegree[next]--
		}
	}
	return result, nil
}

// RunPhase sorts and runs every system registered in phase, then flushes
// the world's deferred buffers. The phase index is held as a lock bit for
// the duration of the run; RunPhase only flushes once that bit (and any
// other concurrently-held phase bit) has cleared.
func (s *Scheduler) RunPhase(w *World, phase Phase) error {
	sorted, err := s.sortPhase(phase)
	if err != nil {
		return err
	}
	s.lock.Mark(int(phase))
	for _, d := range sorted {
		if err := d.fn(w); err != nil {
			s.lock.Unmark(int(phase))
			return err
		}
	}
	s.lock.Unmark(int(phase))
	if s.lock.IsEmpty() {
		return w.Flush()
	}
	return nil
}

// RunStartup runs PreStartup, Startup, and PostStartup in order, flushing
// after each.
func (s *Scheduler) RunStartup(w *World) error {
	for _, p := range []Phase{PreStartup, Startup, PostStartup} {
		if err := s.RunPhase(w, p); err != nil {
			return err
		}
	}
	return nil
}

// RunUpdate advances the fixed-timestep accumulator by dt, clamps it to
// maxFixedSteps*fixedTimestep so a stall can't make it spiral, runs
// FixedUpdate once per remaining whole step, then runs PreUpdate, Update,
// and PostUpdate once each.
func (s *Scheduler) RunUpdate(w *World, dt float64) error {
	s.accumulator += dt
	if max := s.fixedTimestep * float64(s.maxFixedSteps); s.accumulator > max {
		s.accumulator = max
	}
	steps := 0
	for float64(steps+1)*s.fixedTimestep <= s.accumulator {
		if err := s.RunPhase(w, FixedUpdate); err != nil {
			s.accumulator -= float64(steps) * s.fixedTimestep
			return err
		}
		steps++
	}
	s.accumulator -= float64(steps) * s.fixedTimestep
	s.fixedAlpha = s.accumulator / s.fixedTimestep

	for _, p := range []Phase{PreUpdate, Update, PostUpdate} {
		if err := s.RunPhase(w, p); err != nil {
			return err
		}
	}
	return nil
}

// FixedAlpha returns the current interpolation factor in [0,1) between the
// last completed FixedUpdate step and the next one, for render-time
// interpolation.
func (s *Scheduler) FixedAlpha() float64 { return s.fixedAlpha }
