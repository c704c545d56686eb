package ecs

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// ErrorKind categorizes the failure modes a world operation can raise.
type ErrorKind int

const (
	// InvalidOperation covers out-of-range ids, unregistered components,
	// unknown field names, and other caller mistakes.
	InvalidOperation ErrorKind = iota
	// EntityGone means the id's generation is stale; raised by immediate
	// operations. With checked builds off, DestroyEntity and the
	// Add/Remove component operations return nil instead; deferred flush
	// paths always skip silently.
	EntityGone
	// Capacity means the entity-index space or the component budget is
	// exhausted.
	Capacity
	// DuplicateRegistration means the same system descriptor was added to
	// a phase twice.
	DuplicateRegistration
	// SchedulingCycle means the phase's before/after constraints could not
	// be satisfied by a topological sort.
	SchedulingCycle
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidOperation:
		return "InvalidOperation"
	case EntityGone:
		return "EntityGone"
	case Capacity:
		return "Capacity"
	case DuplicateRegistration:
		return "DuplicateRegistration"
	case SchedulingCycle:
		return "SchedulingCycle"
	default:
		return "Unknown"
	}
}

// KernelError is the concrete error type returned by world operations. It is
// comparable to a kind via errors.Is(err, ecs.ErrInvalidOperation) and
// similar, using the sentinel values below.
type KernelError struct {
	Kind ErrorKind
	msg  string
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// Is lets errors.Is(err, ecs.ErrInvalidOperation) (etc.) work against the
// package-level Err* sentinels defined below.
func (e *KernelError) Is(target error) bool {
	if s, ok := target.(*kindSentinel); ok {
		return e.Kind == s.kind
	}
	return false
}

type kindSentinel struct{ kind ErrorKind }

func (s *kindSentinel) Error() string { return s.kind.String() }

// Sentinels for errors.Is comparisons, e.g. errors.Is(err, ecs.ErrEntityGone).
var (
	ErrInvalidOperation    error = &kindSentinel{InvalidOperation}
	ErrEntityGone          error = &kindSentinel{EntityGone}
	ErrCapacity            error = &kindSentinel{Capacity}
	ErrDuplicateRegistration error = &kindSentinel{DuplicateRegistration}
	ErrSchedulingCycle     error = &kindSentinel{SchedulingCycle}
)

// newKernelError builds a KernelError and attaches a call-site trace via
// bark, matching TheBitDrifter/warehouse's own bark.AddTrace convention at
// its entity/query boundary so a panic or logged error keeps its origin.
func newKernelError(kind ErrorKind, msg string) error {
	return bark.AddTrace(&KernelError{Kind: kind, msg: msg})
}

// checkedBuild gates argument validation that release builds may elide on
// hot paths. It defaults on; call SetCheckedBuild(false) once at startup
// for a release build.
var checkedBuild = true

// SetCheckedBuild toggles whether hot-path argument validation runs. Disable
// it only once, before constructing any World, for a release build that
// trusts its own call sites.
func SetCheckedBuild(on bool) { checkedBuild = on }

// CheckedBuild reports the current validation mode.
func CheckedBuild() bool { return checkedBuild }

// asKernelError extracts the underlying *KernelError from a bark-wrapped
// error, if any.
func asKernelError(err error) (*KernelError, bool) {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke, true
	}
	return nil, false
}
