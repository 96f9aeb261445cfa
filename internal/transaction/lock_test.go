package transaction

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file", func(t *testing.T) {
		dir := t.TempDir()

		lock, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		defer lock.Release()

		assert.Equal(t, filepath.Join(dir, LockFileName), lock.Path())
		assert.FileExists(t, lock.Path())
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		defer lock1.Release()

		_, err = AcquireLock(context.Background(), dir)
		assert.ErrorIs(t, err, ErrLockExists)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := AcquireLock(ctx, t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("creates directory if needed", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "bin")

		lock, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		defer lock.Release()

		assert.DirExists(t, dir)
	})

	t.Run("writes lock metadata", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir())
		require.NoError(t, err)
		defer lock.Release()

		data, err := os.ReadFile(lock.Path())
		require.NoError(t, err)
		content := string(data)
		assert.True(t, strings.HasPrefix(content, "pid="))
		assert.Contains(t, content, "owner=")
		assert.Contains(t, content, "timestamp=")
	})

	t.Run("lock file is not executable", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir())
		require.NoError(t, err)
		defer lock.Release()

		info, err := os.Stat(lock.Path())
		require.NoError(t, err)
		assert.Zero(t, info.Mode().Perm()&0o111)
	})
}

func TestLockRelease(t *testing.T) {
	t.Run("removes lock file", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir())
		require.NoError(t, err)
		path := lock.Path()

		require.NoError(t, lock.Release())
		assert.NoFileExists(t, path)
	})

	t.Run("allows new lock after release", func(t *testing.T) {
		dir := t.TempDir()

		lock1, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		require.NoError(t, lock1.Release())

		lock2, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		defer lock2.Release()
	})

	t.Run("is idempotent", func(t *testing.T) {
		lock, err := AcquireLock(context.Background(), t.TempDir())
		require.NoError(t, err)

		assert.NoError(t, lock.Release())
		assert.NoError(t, lock.Release())
	})
}

func TestStaleLockHandling(t *testing.T) {
	t.Run("removes stale lock and acquires new one", func(t *testing.T) {
		dir := t.TempDir()
		lockPath := filepath.Join(dir, LockFileName)
		require.NoError(t, os.WriteFile(lockPath, []byte("pid=99999\n"), 0o600))

		staleTime := time.Now().Add(-StaleLockThreshold - time.Minute)
		require.NoError(t, os.Chtimes(lockPath, staleTime, staleTime))

		lock, err := AcquireLock(context.Background(), dir)
		require.NoError(t, err)
		defer lock.Release()
	})

	t.Run("fails for non-stale lock", func(t *testing.T) {
		dir := t.TempDir()
		lockPath := filepath.Join(dir, LockFileName)
		require.NoError(t, os.WriteFile(lockPath, []byte("pid=99999\n"), 0o600))

		_, err := AcquireLock(context.Background(), dir)
		assert.ErrorIs(t, err, ErrLockExists)
	})
}
