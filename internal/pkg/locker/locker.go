// Package locker serialises work on a shared key, such as uploads for one
// (course, semester) pair.
package locker

import (
	"context"
	"errors"
	"fmt"
)

// ErrLockTimeout is returned when the context ends before the lock is held
var ErrLockTimeout = errors.New("lock not acquired")

// Unlock releases a held lock. Calling it more than once is harmless.
type Unlock func()

// Locker hands out exclusive locks by key
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done
	Acquire(ctx context.Context, key string) (Unlock, error)
}

// UploadKey is the lock key for uploads of one course in one semester
func UploadKey(courseID, semesterID int64) string {
	return fmt.Sprintf("pclink:upload:%d:%d", courseID, semesterID)
}
