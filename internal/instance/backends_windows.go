//go:build windows

package instance

import (
	"single-instance/internal/domain"
	"single-instance/internal/infra/winmutex"
)

// DefaultBackend is the backend used by Acquire on this platform.
const DefaultBackend = domain.BackendMutex

var backends = map[domain.Backend]func() domain.Acquirer{
	domain.BackendMutex: winmutex.NewAcquirer,
}
