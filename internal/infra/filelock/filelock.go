//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// internal/infra/filelock/filelock.go

// Package filelock claims names by taking a non-blocking exclusive advisory
// lock on a file. The claim name is the lock-file path.
//
// Two styles are provided. StyleFlock uses flock(2), which is scoped to the
// open file description. StyleRecord uses an fcntl(2) write lock over the
// whole file; on linux the open-file-description variant is used, elsewhere
// classic POSIX record locks apply, which are owned by the process: two
// claims on the same path inside one process can both report single there.
package filelock

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"single-instance/internal/domain"

	"golang.org/x/sys/unix"
)

// Style selects the locking primitive.
type Style int

const (
	StyleFlock Style = iota
	StyleRecord
)

// Backend maps the style to its domain backend.
func (s Style) Backend() domain.Backend {
	if s == StyleRecord {
		return domain.BackendRecordLock
	}
	return domain.BackendFlock
}

func (s Style) String() string { return string(s.Backend()) }

// maxReplaceRetries bounds how often a record-lock acquisition retries when
// the lock file was unlinked and recreated under it.
const maxReplaceRetries = 3

var (
	errLockBusy     = errors.New("lock held by another process")
	errFileReplaced = errors.New("lock file replaced concurrently")
)

// claim implements domain.Claim.
type claim struct {
	name   string
	style  Style
	single bool

	once sync.Once
	file *os.File // nil unless single
}

func (c *claim) IsSingle() bool          { return c.single }
func (c *claim) Name() string            { return c.name }
func (c *claim) Backend() domain.Backend { return c.style.Backend() }

// Close releases the lock by closing the descriptor. An owning record-lock
// claim also removes the lock file; failing to remove it is ignored since
// the lock does not depend on the file persisting.
func (c *claim) Close() error {
	var err error
	c.once.Do(func() {
		if c.file == nil {
			return
		}
		if c.style == StyleRecord {
			// Unlink while still holding the lock so a contender cannot lock
			// the inode we are about to drop.
			_ = os.Remove(c.name)
		}
		err = c.file.Close()
	})
	return err
}

// acquirer implements domain.Acquirer.
type acquirer struct {
	style Style
}

// NewAcquirer returns an Acquirer taking file locks of the given style.
func NewAcquirer(style Style) domain.Acquirer {
	return &acquirer{style: style}
}

func (a *acquirer) Backend() domain.Backend { return a.style.Backend() }

// Acquire opens (creating if needed) the file at path and tries to lock it
// without blocking.
func (a *acquirer) Acquire(path string) (domain.Claim, error) {
	backend := a.style.Backend()
	if err := domain.ValidateName(backend, path); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return nil, domain.ResourceError(backend, path, "open", err)
		}

		err = a.lock(f)
		if errors.Is(err, errLockBusy) {
			_ = f.Close()
			return &claim{name: path, style: a.style}, nil
		}
		if err != nil {
			_ = f.Close()
			return nil, domain.ResourceError(backend, path, "lock", err)
		}

		if a.style == StyleRecord {
			same, err := samePath(f, path)
			if err != nil {
				_ = f.Close()
				return nil, domain.ResourceError(backend, path, "lock", err)
			}
			if !same {
				_ = f.Close()
				if attempt+1 >= maxReplaceRetries {
					return nil, domain.ResourceError(backend, path, "lock", errFileReplaced)
				}
				continue
			}
		}

		return &claim{name: path, style: a.style, single: true, file: f}, nil
	}
}

func (a *acquirer) lock(f *os.File) error {
	if a.style == StyleRecord {
		return recordLock(f)
	}
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return errLockBusy
	}
	return err
}

func recordLock(f *os.File) error {
	lk := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: 0, // SEEK_SET; Start and Len of zero cover the whole file
	}
	err := unix.FcntlFlock(f.Fd(), recordLockCmd, &lk)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
		return errLockBusy
	}
	return err
}

// samePath reports whether path still names the inode open in f. A
// releasing record-lock owner unlinks the file, so a contender that opened
// the old inode must not treat its lock as ownership of the path.
func samePath(f *os.File, path string) (bool, error) {
	var held, current unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &held); err != nil {
		return false, fmt.Errorf("fstat: %w", err)
	}
	if err := unix.Stat(path, &current); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return false, nil
		}
		return false, fmt.Errorf("stat: %w", err)
	}
	return held.Dev == current.Dev && held.Ino == current.Ino, nil
}
