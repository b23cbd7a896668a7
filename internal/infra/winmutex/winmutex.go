//go:build windows

// internal/infra/winmutex/winmutex.go

// Package winmutex claims names with named kernel mutex objects.
//
// CreateMutex succeeds whether or not the name exists and reports which
// case happened. The kernel reference-counts the object across processes,
// so a losing claim closes its handle at once; otherwise it would keep the
// object alive after the owner exits.
package winmutex

import (
	"errors"
	"runtime"
	"sync"

	"single-instance/internal/domain"

	"golang.org/x/sys/windows"
)

// claim implements domain.Claim.
type claim struct {
	name   string
	single bool

	once   sync.Once
	handle windows.Handle // 0 unless single
}

func (c *claim) IsSingle() bool          { return c.single }
func (c *claim) Name() string            { return c.name }
func (c *claim) Backend() domain.Backend { return domain.BackendMutex }

// Close drops this process's reference to the mutex object.
func (c *claim) Close() error {
	var err error
	c.once.Do(func() {
		if c.handle != 0 {
			err = windows.CloseHandle(c.handle)
			c.handle = 0
		}
		runtime.SetFinalizer(c, nil)
	})
	return err
}

// acquirer implements domain.Acquirer.
type acquirer struct{}

// NewAcquirer returns an Acquirer backed by named mutexes.
func NewAcquirer() domain.Acquirer {
	return acquirer{}
}

func (acquirer) Backend() domain.Backend { return domain.BackendMutex }

// Acquire creates or opens the mutex called name. The mutex is never
// waited on; origination of the object is the ownership signal.
func (acquirer) Acquire(name string) (domain.Claim, error) {
	if err := domain.ValidateName(domain.BackendMutex, name); err != nil {
		return nil, err
	}
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, domain.InvalidNameError(domain.BackendMutex, name, err)
	}

	h, err := windows.CreateMutex(nil, false, namePtr)
	if h == 0 || h == windows.InvalidHandle {
		return nil, newMutexError(name, err)
	}
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		_ = windows.CloseHandle(h)
		return &claim{name: name}, nil
	}

	c := &claim{name: name, single: true, handle: h}
	runtime.SetFinalizer(c, func(c *claim) { _ = c.Close() })
	return c, nil
}

func newMutexError(name string, err error) error {
	var code uint32
	var errno windows.Errno
	if errors.As(err, &errno) {
		code = uint32(errno)
	}
	return &domain.Error{
		Kind:    domain.KindMutex,
		Backend: domain.BackendMutex,
		Name:    name,
		Op:      "CreateMutex",
		Code:    code,
		Err:     err,
	}
}
