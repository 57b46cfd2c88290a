package converters

import (
	"fmt"

	"github.com/tendant/simple-converter/internal/media"
)

// UnsupportedTypeError means the file could not be classified; no conversion
// is attempted.
type UnsupportedTypeError struct {
	Name      string
	MediaType string
}

func (e *UnsupportedTypeError) Error() string {
	if e.MediaType == "" {
		return fmt.Sprintf("unsupported type: %s", e.Name)
	}
	return fmt.Sprintf("unsupported type: %s (%s)", e.Name, e.MediaType)
}

// UnsupportedTargetError means the category is known but the adapter does not
// implement the requested target.
type UnsupportedTargetError struct {
	Category media.Category
	Target   media.Target
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %q for %s", e.Target, e.Category)
}

// DecodeError means the source bytes could not be decoded by the engine.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError means the encode step produced no output.
type EncodeError struct {
	Target media.Target
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("encode %s: no data produced", e.Target)
	}
	return fmt.Sprintf("encode %s: %v", e.Target, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// EngineInitError means the shared transcoding engine failed to start. The
// failure is sticky: every later job on the same engine gets the same error.
type EngineInitError struct {
	Err error
}

func (e *EngineInitError) Error() string {
	return fmt.Sprintf("transcoding engine init: %v", e.Err)
}

func (e *EngineInitError) Unwrap() error { return e.Err }
