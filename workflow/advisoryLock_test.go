package workflow

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func TestObtainAdvisoryLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	release := obtainAdvisoryLock(context.Background(), locker, logger, employeeLockKey(7))
	if !mr.Exists("lock:conversion:employee:7") {
		t.Fatalf("expected lock key to be set")
	}
	if ttl := mr.TTL("lock:conversion:employee:7"); ttl <= 0 || ttl > advisoryLockTTL {
		t.Fatalf("unexpected ttl %s", ttl)
	}
	release()
	if mr.Exists("lock:conversion:employee:7") {
		t.Fatalf("expected lock key to be released")
	}
}

func TestObtainAdvisoryLockProceedsWhenHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := redislock.New(client)
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	key := batchLockKey(3)
	if err := mr.Set(key, "someone-else"); err != nil {
		t.Fatalf("seed lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	release := obtainAdvisoryLock(ctx, locker, logger, key)
	release()
	if v, _ := mr.Get(key); v != "someone-else" {
		t.Fatalf("release must not touch a lock it does not hold, got %q", v)
	}
}

func TestObtainAdvisoryLockWithoutRedis(t *testing.T) {
	release := obtainAdvisoryLock(context.Background(), nil, nil, employeeLockKey(1))
	release()
}
