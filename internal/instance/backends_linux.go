//go:build linux

package instance

import (
	"single-instance/internal/domain"
	"single-instance/internal/infra/abstractsock"
	"single-instance/internal/infra/filelock"
)

// DefaultBackend is the backend used by Acquire on this platform.
const DefaultBackend = domain.BackendAbstractSocket

var backends = map[domain.Backend]func() domain.Acquirer{
	domain.BackendAbstractSocket: abstractsock.NewAcquirer,
	domain.BackendFlock:          func() domain.Acquirer { return filelock.NewAcquirer(filelock.StyleFlock) },
	domain.BackendRecordLock:     func() domain.Acquirer { return filelock.NewAcquirer(filelock.StyleRecord) },
}
