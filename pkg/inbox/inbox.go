// Package inbox implements durable per-recipient message logs. Each inbox
// is a newline-delimited JSON file; a sibling ".lock" file created with
// O_EXCL serves as an exclusive mutex shared with any other process that
// follows the same convention.
package inbox

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLocked indicates the inbox lock is held by another sender or drainer.
var ErrLocked = errors.New("inbox locked")

// lockRetryInterval and lockRetryLimit bound how long Append waits for the
// lock before giving up. Drain never waits.
const (
	lockRetryInterval = 10 * time.Millisecond
	lockRetryLimit    = 500 // 5 s total
)

// Store reads and writes inbox files. The zero value is usable; Logf
// receives diagnostics about corrupt lines and defaults to discard.
type Store struct {
	Logf func(format string, args ...any)
}

func (s *Store) logf(format string, args ...any) {
	if s != nil && s.Logf != nil {
		s.Logf(format, args...)
	}
}

// Append writes one JSON line per message to the inbox at path, creating
// the file and its directory on first write. It blocks briefly while the
// lock is contended and fails with ErrLocked when the wait is exhausted.
func (s *Store) Append(path string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create inbox directory: %w", err)
	}

	unlock, err := acquireLock(path, lockRetryLimit)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open inbox: %w", err)
	}
	defer f.Close()

	for _, m := range msgs {
		line, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		if _, err := f.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("append message: %w", err)
		}
	}
	return f.Close()
}

// Drain atomically reads and clears the inbox at path, returning messages
// in file order. The lock is attempted exactly once: if another holder has
// it, Drain returns (nil, nil) immediately and the caller retries on its
// next iteration. A missing inbox file is an empty inbox. Lines that fail
// to parse are skipped and reported through Logf.
func (s *Store) Drain(path string) ([]Message, error) {
	unlock, err := acquireLock(path, 1)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return nil, nil
		}
		return nil, err
	}
	defer unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open inbox: %w", err)
	}

	var msgs []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			s.logf("inbox %s: skipping corrupt line: %v", path, err)
			continue
		}
		msgs = append(msgs, m)
	}
	scanErr := scanner.Err()
	f.Close()
	if scanErr != nil {
		return nil, fmt.Errorf("read inbox: %w", scanErr)
	}

	if err := os.Truncate(path, 0); err != nil {
		return nil, fmt.Errorf("truncate inbox: %w", err)
	}
	return msgs, nil
}

// acquireLock creates path+".lock" with O_EXCL, retrying up to attempts
// times. The returned function releases the lock.
func acquireLock(path string, attempts int) (func(), error) {
	lockPath := path + ".lock"
	for i := 0; i < attempts; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create inbox lock: %w", err)
		}
		if i+1 < attempts {
			time.Sleep(lockRetryInterval)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
}
