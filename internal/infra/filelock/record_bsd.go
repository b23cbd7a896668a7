//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package filelock

import "golang.org/x/sys/unix"

const recordLockCmd = unix.F_SETLK
