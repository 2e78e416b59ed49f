package storage

import "errors"

var (
	// ErrNoSnapshot is returned by LoadSnapshot when the target has no
	// persisted crawl state. Callers start a cold crawl.
	ErrNoSnapshot = errors.New("no crawl snapshot")

	// ErrUnsafeArtifactPath is returned when a URL would map to a file
	// outside the target's artifact directory.
	ErrUnsafeArtifactPath = errors.New("unsafe artifact path")
)
