//go:build linux

// internal/infra/abstractsock/abstractsock.go

// Package abstractsock claims names by binding an abstract unix domain socket.
//
// The kernel allows one live binder per abstract address in a network
// namespace and frees the address when the descriptor is closed, including
// when the process dies. Nothing is written to the filesystem.
package abstractsock

import (
	"errors"
	"os"
	"sync"

	"single-instance/internal/domain"

	"golang.org/x/sys/unix"
)

// claim implements domain.Claim.
type claim struct {
	name   string
	single bool

	once sync.Once
	sock *os.File // nil unless single
}

func (c *claim) IsSingle() bool          { return c.single }
func (c *claim) Name() string            { return c.name }
func (c *claim) Backend() domain.Backend { return domain.BackendAbstractSocket }

// Close releases the abstract address.
func (c *claim) Close() error {
	var err error
	c.once.Do(func() {
		if c.sock != nil {
			err = c.sock.Close()
		}
	})
	return err
}

// acquirer implements domain.Acquirer.
type acquirer struct{}

// NewAcquirer returns an Acquirer backed by abstract unix sockets.
func NewAcquirer() domain.Acquirer {
	return acquirer{}
}

func (acquirer) Backend() domain.Backend { return domain.BackendAbstractSocket }

// Acquire binds a stream socket to the abstract address "\x00"+name. The
// socket is never listened on: the bind alone holds the name.
func (acquirer) Acquire(name string) (domain.Claim, error) {
	if err := domain.ValidateName(domain.BackendAbstractSocket, name); err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, domain.ResourceError(domain.BackendAbstractSocket, name, "socket", err)
	}

	// A leading '@' makes x/sys emit an abstract address.
	err = unix.Bind(fd, &unix.SockaddrUnix{Name: "@" + name})
	switch {
	case err == nil:
		return &claim{
			name:   name,
			single: true,
			sock:   os.NewFile(uintptr(fd), "@"+name),
		}, nil
	case errors.Is(err, unix.EADDRINUSE):
		_ = unix.Close(fd)
		return &claim{name: name}, nil
	default:
		_ = unix.Close(fd)
		return nil, domain.ResourceError(domain.BackendAbstractSocket, name, "bind", err)
	}
}
