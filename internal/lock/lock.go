// Package lock guards a SQLite database against a second writing process.
// The lockfile holds "pid|executable"; an owner whose process is gone, or
// whose pid now belongs to a different program, is considered stale.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/logger"
)

var ErrLocked = errors.New("database is in use by another process")

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

type Lock struct {
	path    string
	content string
}

// PathFor returns the lockfile location for a database file.
func PathFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), constants.LockfileName)
}

// Acquire takes the lock at path, replacing a stale one.
func Acquire(path string) (*Lock, error) {
	content, err := selfContent()
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(content)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, content: content}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		pid, live, err := owner(path)
		if err != nil {
			return nil, err
		}
		if live {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, pid)
		}
		logger.Warn("Removing stale lockfile", "path", path, "pid", pid)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, ErrLocked
}

func selfContent() (string, error) {
	pid := getpidFunc()
	proc, err := findProcessFunc(pid)
	if err != nil {
		return "", fmt.Errorf("failed to inspect current process: %w", err)
	}
	exe := constants.AppName
	if proc != nil {
		exe = proc.Executable()
	}
	return fmt.Sprintf("%d|%s", pid, exe), nil
}

// owner reads the lockfile and reports whether its owner is still running.
func owner(path string) (int, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read lockfile: %w", err)
	}

	pidStr, exe, ok := strings.Cut(strings.TrimSpace(string(data)), "|")
	pid, err := strconv.Atoi(pidStr)
	if !ok || err != nil || pid <= 0 {
		// Unreadable owner, treat as stale.
		return 0, false, nil
	}

	proc, err := findProcessFunc(pid)
	if err != nil || proc == nil {
		return pid, false, nil
	}
	return pid, proc.Executable() == exe, nil
}

// Release removes the lockfile if it is still ours.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	if string(data) != l.content {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
