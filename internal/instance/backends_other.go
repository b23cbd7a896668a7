//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd && !windows

package instance

import "single-instance/internal/domain"

// DefaultBackend names the backend a claim would use; none is built for
// this platform, so every acquisition fails with ErrUnsupportedBackend.
const DefaultBackend = domain.BackendFlock

var backends = map[domain.Backend]func() domain.Acquirer{}
