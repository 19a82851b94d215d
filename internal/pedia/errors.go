package pedia

import "errors"

// Error kinds per the error taxonomy: sentinel values wrapped with
// fmt.Errorf("...: %w", ...) at the point of failure, never panics.
var (
	ErrConfigMissing    = errors.New("config missing")
	ErrJobMalformed     = errors.New("job malformed")
	ErrPass1Engine      = errors.New("pass 1 engine failure")
	ErrPass2Engine      = errors.New("pass 2 engine failure")
	ErrAssetConflict    = errors.New("asset conflict")
	ErrIndexStore       = errors.New("index store error")
	ErrUpload           = errors.New("upload error")
	ErrNexusUnavailable = errors.New("nexus unavailable")
	ErrBadDocument      = errors.New("bad document")
)
