package permissions

import "errors"

var (
	// ErrMicrophone means audio capture is not permitted.
	ErrMicrophone = errors.New("microphone permission not granted")
	// ErrAccessibility means global hotkeys cannot be registered.
	ErrAccessibility = errors.New("accessibility permission not granted")
)
