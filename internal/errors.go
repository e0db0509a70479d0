package internal

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrDimensionMismatch  = errors.New("dimension mismatch")
	ErrDuplicateID        = errors.New("duplicate fragment id")
	ErrExtraction         = errors.New("extraction failed")
	ErrEmbedding          = errors.New("embedding failed")
	ErrGeneration         = errors.New("generation failed")
	ErrUnsupportedSource  = errors.New("unsupported source")
	ErrProviderNotFound   = errors.New("provider not found")
	ErrNoGenerator        = errors.New("no generator configured")
	ErrWorkspaceNotFound  = errors.New("workspace not initialized")
	ErrWorkspaceInitiated = errors.New("workspace already initialized")
)
