// internal/domain/claim.go
package domain

import "time"

// Backend identifies the OS primitive a claim is built on.
type Backend string

const (
	BackendMutex          Backend = "mutex"
	BackendAbstractSocket Backend = "abstract-socket"
	BackendFlock          Backend = "flock"
	BackendRecordLock     Backend = "record-lock"

	// BackendAuto selects the platform default when looking up an acquirer.
	BackendAuto Backend = "auto"
)

// PathBased reports whether claim names for this backend are filesystem paths.
func (b Backend) PathBased() bool {
	return b == BackendFlock || b == BackendRecordLock
}

// Claim represents one attempt to exclusively hold a named resource.
//
// The ownership outcome is decided once, when the claim is acquired, and
// IsSingle returns that value for the lifetime of the claim, including
// after Close. An owning claim keeps the OS resource until Close is called
// (or the claim is garbage collected, or the process exits).
type Claim interface {
	// IsSingle reports whether this claim is the only live holder of its name.
	IsSingle() bool
	// Name returns the name the claim was acquired with.
	Name() string
	// Backend returns the primitive backing the claim.
	Backend() Backend
	// Close releases the OS resource. It is safe to call more than once.
	Close() error
}

// Acquirer defines the interface for a single-machine exclusivity mechanism.
type Acquirer interface {
	// Acquire makes a non-blocking attempt to claim name. Losing the race is
	// not an error: it yields a claim whose IsSingle reports false. Errors
	// mean singleness could not be determined at all.
	Acquire(name string) (Claim, error)
	// Backend returns the primitive used by claims from this acquirer.
	Backend() Backend
}

// ClaimStatus is a point-in-time view of a claim held by a service.
type ClaimStatus struct {
	Name       string    `json:"claim_name"`
	Backend    Backend   `json:"backend"`
	Single     bool      `json:"is_single"`
	Held       bool      `json:"held"`
	AcquiredAt time.Time `json:"acquired_at,omitempty"`
	PID        int       `json:"pid"`
}

// StatusProvider reports the claim held by a running service.
type StatusProvider interface {
	Status() ClaimStatus
}
