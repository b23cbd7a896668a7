// internal/instance/instance.go

// Package instance answers "am I the only process claiming this name?"
// using the primitive native to the build target:
//
//   - linux: an abstract unix socket bound to the name
//   - darwin and the BSDs: flock(2) on the file at the name
//   - windows: a named kernel mutex
//
// Typical use:
//
//	claim, err := instance.Acquire("my-agent")
//	if err != nil {
//		return err
//	}
//	defer claim.Close()
//	if !claim.IsSingle() {
//		return errors.New("already running")
//	}
//
// The claim must stay reachable for as long as exclusivity is needed. The
// name is released on Close, when the claim is garbage collected, or when
// the process exits, whichever happens first.
package instance

import (
	"single-instance/internal/domain"
)

// Acquire claims name with the platform default backend.
func Acquire(name string) (domain.Claim, error) {
	return NewAcquirer().Acquire(name)
}

// NewAcquirer returns the platform default Acquirer.
func NewAcquirer() domain.Acquirer {
	a, err := Lookup(DefaultBackend)
	if err != nil {
		return unsupported{backend: DefaultBackend}
	}
	return a
}

// Lookup returns the Acquirer for backend. domain.BackendAuto resolves to
// DefaultBackend. Backends not built for this platform yield an error
// matching domain.ErrUnsupportedBackend.
func Lookup(backend domain.Backend) (domain.Acquirer, error) {
	if backend == domain.BackendAuto || backend == "" {
		backend = DefaultBackend
	}
	newAcquirer, ok := backends[backend]
	if !ok {
		return nil, domain.UnsupportedError(backend, "")
	}
	return newAcquirer(), nil
}

// Available lists the backends built for this platform.
func Available() []domain.Backend {
	out := make([]domain.Backend, 0, len(backends))
	for _, b := range backendOrder {
		if _, ok := backends[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

var backendOrder = []domain.Backend{
	domain.BackendAbstractSocket,
	domain.BackendFlock,
	domain.BackendRecordLock,
	domain.BackendMutex,
}

// unsupported is returned on targets without any backend so that failures
// surface at acquisition time, like every other claim error.
type unsupported struct {
	backend domain.Backend
}

func (u unsupported) Backend() domain.Backend { return u.backend }

func (u unsupported) Acquire(name string) (domain.Claim, error) {
	return nil, domain.UnsupportedError(u.backend, name)
}
