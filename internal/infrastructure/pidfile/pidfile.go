package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// PIDFile enforces a single running commander per data directory.
type PIDFile struct {
	path string
}

// New creates a PID file manager. Nothing is written until Acquire.
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the pidfile location.
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes this process's PID, refusing when a live process already
// holds the file. Stale files left behind by dead processes are replaced.
func (p *PIDFile) Acquire() error {
	if data, err := os.ReadFile(p.path); err == nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
		if convErr == nil && isProcessRunning(pid) {
			return fmt.Errorf("commander already running (PID %d)", pid)
		}
		_ = os.Remove(p.path)
	}

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating pidfile directory: %w", err)
		}
	}
	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("writing pidfile: %w", err)
	}
	return nil
}

// ForceAcquire stops a live holder with SIGTERM, waits for it to exit, and
// takes the file over.
func (p *PIDFile) ForceAcquire() error {
	if data, err := os.ReadFile(p.path); err == nil {
		pid, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
		if convErr == nil && isProcessRunning(pid) {
			if process, findErr := os.FindProcess(pid); findErr == nil {
				_ = process.Signal(syscall.SIGTERM)
			}
			for i := 0; i < 50 && isProcessRunning(pid); i++ {
				time.Sleep(100 * time.Millisecond)
			}
			if isProcessRunning(pid) {
				return fmt.Errorf("commander PID %d did not exit after SIGTERM", pid)
			}
		}
	}
	_ = os.Remove(p.path)
	return p.Acquire()
}

// Release removes the PID file. Releasing an already-released file is fine.
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing pidfile: %w", err)
	}
	return nil
}

// isProcessRunning probes a PID with signal 0. EPERM means the process
// exists but belongs to someone else, which still counts as running.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.EPERM {
		return true
	}
	return false
}
