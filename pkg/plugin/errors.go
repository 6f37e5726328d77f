package plugin

import (
	"errors"

	"github.com/justyntemme/plughost/pkg/framework/state"
)

var (
	// ErrNotFound is returned when a plugin reference cannot be resolved.
	ErrNotFound = errors.New("cannot locate plugin")
	// ErrCompile is returned when the format rejects the plugin.
	ErrCompile = errors.New("failed to compile plugin")
	// ErrClientRegistration is returned when the engine refuses the client.
	ErrClientRegistration = errors.New("failed to register plugin client")
	// ErrState is the root of chunk save and load failures.
	ErrState = state.ErrState
	// ErrIndexOutOfRange is returned for invalid parameter, scale point or
	// port indices.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidState is returned when an operation is not valid in the
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid lifecycle state")
)

// ErrOptionUnavailable is returned when setting an option the instance
// does not support.
var ErrOptionUnavailable = errors.New("option not available")
