package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig  = fmt.Errorf("configuration not found")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
	ErrMissingSession = fmt.Errorf("no session stored")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and transport errors
	ErrTransport          = fmt.Errorf("could not reach the server")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrSongNotFound       = fmt.Errorf("song not found")
	ErrRepertoireNotFound = fmt.Errorf("repertoire not found")
	ErrSkillNotFound      = fmt.Errorf("skill not found")

	// Ordering errors
	ErrInvalidSortKey = fmt.Errorf("invalid sort key")
	ErrDragDisabled   = fmt.Errorf("reordering requires song number order and no search filter")

	// Cache errors
	ErrCacheMiss = fmt.Errorf("repertoire not cached")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
