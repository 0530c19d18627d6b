// Package dataset resolves named datasets from a remote catalog into an
// idempotent local cache. The cache is append-only: once a version is
// populated it is never rewritten in place, only replaced under a new
// version or re-fetched atomically on force refresh.
package dataset

import (
	"time"
)

// Descriptor identifies one cached dataset version. Immutable once the
// underlying cache entry is populated.
type Descriptor struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	RemoteRef string    `json:"remote_ref"`
	LocalPath string    `json:"local_path"`
	Checksum  string    `json:"checksum"`
	SizeBytes int64     `json:"size_bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Entry is one dataset the remote catalog can serve.
type Entry struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	RemoteRef string `json:"remote_ref"`
	// Checksum is the expected sha256 hex digest. Catalogs that cannot
	// know it ahead of time (query exports) leave it empty, in which case
	// the digest is recorded at write instead of verified.
	Checksum  string `json:"checksum,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}
