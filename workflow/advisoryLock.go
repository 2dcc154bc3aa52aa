package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const (
	advisoryLockTTL     = 30 * time.Second
	advisoryLockBackoff = 100 * time.Millisecond
	advisoryLockRetries = 20
)

func employeeLockKey(employeeId int) string {
	return fmt.Sprintf("lock:conversion:employee:%d", employeeId)
}

func batchLockKey(batchId int) string {
	return fmt.Sprintf("lock:finishing:batch:%d", batchId)
}

// obtainAdvisoryLock tries to take a redis lock in front of the row locks.
// The returned release func is never nil. When redis is missing or the lock
// cannot be obtained the caller proceeds and the row locks serialize the work.
func obtainAdvisoryLock(ctx context.Context, locker *redislock.Client, logger *logrus.Logger, key string) func() {
	noop := func() {}
	if locker == nil {
		return noop
	}
	lock, err := locker.Obtain(ctx, key, advisoryLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(advisoryLockBackoff), advisoryLockRetries),
	})
	if err != nil {
		if logger != nil {
			entry := logger.WithFields(logrus.Fields{
				"field": "obtainAdvisoryLock",
				"key":   key,
			})
			if errors.Is(err, redislock.ErrNotObtained) {
				entry.Warn("could not obtain redis lock; proceeding without redis lock")
			} else {
				entry.Warn("error obtaining redis lock; proceeding without redis lock: " + err.Error())
			}
		}
		return noop
	}
	return func() {
		// release on a fresh context; the request may already be gone
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) && logger != nil {
			logger.WithFields(logrus.Fields{
				"field": "obtainAdvisoryLock",
				"key":   key,
			}).Warn("failed to release redis lock: " + err.Error())
		}
	}
}
