package hdeye

import "fmt"

// ErrorKind categorizes fatal generation errors.
type ErrorKind uint8

const (
	// ErrNilMaterial indicates generation was requested without material state.
	ErrNilMaterial ErrorKind = iota + 1

	// ErrInvalidPass indicates a pass descriptor is malformed or absent.
	ErrInvalidPass

	// ErrDuplicatePass indicates two catalog passes share a name or light mode.
	ErrDuplicatePass

	// ErrUnknownSlot indicates a slot id not declared by the master node.
	ErrUnknownSlot

	// ErrInvalidSlotValue indicates a slot bound to a non-finite value.
	ErrInvalidSlotValue

	// ErrSortPriority indicates the render queue could not be computed from the sorting priority.
	ErrSortPriority

	// ErrMissingBackend indicates no emission backend was configured.
	ErrMissingBackend

	// ErrUnknownField indicates the backend has no translation for a field.
	ErrUnknownField

	// ErrBackend indicates the emission backend failed.
	ErrBackend

	// ErrRenderQueue indicates a custom queue function failed.
	ErrRenderQueue
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrNilMaterial:
		return "NilMaterial"
	case ErrInvalidPass:
		return "InvalidPass"
	case ErrDuplicatePass:
		return "DuplicatePass"
	case ErrUnknownSlot:
		return "UnknownSlot"
	case ErrInvalidSlotValue:
		return "InvalidSlotValue"
	case ErrSortPriority:
		return "SortPriority"
	case ErrMissingBackend:
		return "MissingBackend"
	case ErrUnknownField:
		return "UnknownField"
	case ErrBackend:
		return "Backend"
	case ErrRenderQueue:
		return "RenderQueue"
	default:
		return "Unknown"
	}
}

// Error is returned for failures that block a shader from being generated.
// No partial output accompanies an Error.
type Error struct {
	Kind ErrorKind
	// Pass is the light mode of the pass being generated, if any.
	Pass    string
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.Pass != "" {
		return fmt.Sprintf("hdeye %s in pass %s: %s", e.Kind, e.Pass, msg)
	}
	return fmt.Sprintf("hdeye %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, &Error{Kind: ErrUnknownSlot}) matches any unknown slot error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func errorf(kind ErrorKind, pass string, format string, args ...any) *Error {
	return &Error{Kind: kind, Pass: pass, Message: fmt.Sprintf(format, args...)}
}
