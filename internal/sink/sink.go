// Package sink writes engine records to CSV files.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"freqgrabber/internal/engine"
	"log/slog"
	"os"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("output file is used by another run")

// Initialize creates or truncates dest and writes the header row.
func Initialize(dest string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("initialize %s: %w", dest, err)
	}
	err = writeRow(f, engine.Header)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("initialize %s: %w", dest, err)
	}
	return nil
}

// Append adds one row for record at the end of dest.
func Append(dest string, record engine.Record) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("append to %s: %w", dest, err)
	}
	err = writeRow(f, record.Fields())
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("append to %s: %w", dest, err)
	}
	return nil
}

func writeRow(f *os.File, fields []string) error {
	w := csv.NewWriter(f)
	err := w.Write(fields)
	if err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// File is an initialized output file held for the duration of one run.
//
// Every Append reopens the file, so rows already written survive a crash.
type File struct {
	dest string
	lock *flock.Flock
}

// Open locks dest against concurrent runs and initializes it.
func Open(dest string) (*File, error) {
	lock := flock.New(dest + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dest, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dest, ErrLocked)
	}

	err = Initialize(dest)
	if err != nil {
		unlockErr := unlock(lock)
		if unlockErr != nil {
			slog.Warn("failed to release output lock", "path", lock.Path(), "err", unlockErr)
		}
		return nil, err
	}
	return &File{dest: dest, lock: lock}, nil
}

func (f *File) Destination() string {
	return f.dest
}

func (f *File) Append(record engine.Record) error {
	return Append(f.dest, record)
}

// Close releases the lock. The output and its .lock file stay on disk.
func (f *File) Close() error {
	if f.lock == nil {
		return nil
	}
	err := unlock(f.lock)
	f.lock = nil
	return err
}

func unlock(lock *flock.Flock) error {
	err := lock.Unlock()
	if err != nil {
		return fmt.Errorf("unlock %s: %w", lock.Path(), err)
	}
	return nil
}
