//go:build linux

package filelock

import "golang.org/x/sys/unix"

// Open file description locks conflict between descriptors of the same
// process, unlike classic POSIX record locks.
const recordLockCmd = unix.F_OFD_SETLK
