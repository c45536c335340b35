package schedule

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// PIDFile records the daemon's process id so other invocations can find it,
// refuse to start a second daemon, or nudge the running one.
type PIDFile struct {
	path string
}

func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Acquire writes the current process id. If the file already names a live
// process, Acquire fails and the existing daemon keeps the file.
func (p *PIDFile) Acquire() error {
	if pid, err := ReadPID(p.path); err == nil && processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	pid := os.Getpid()
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Release removes the pid file. Safe to call even if Acquire failed.
func (p *PIDFile) Release() {
	if pid, err := ReadPID(p.path); err != nil || pid != os.Getpid() {
		return
	}
	_ = os.Remove(p.path)
}

// ReadPID parses the pid file at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid file %s", path)
	}
	return pid, nil
}

// SignalFocus sends SIGUSR1 to the daemon named by the pid file, asking for
// an immediate pull.
func SignalFocus(path string) error {
	pid, err := ReadPID(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no daemon running (pid file %s not found)", path)
		}
		return err
	}
	if err := unix.Kill(pid, unix.SIGUSR1); err != nil {
		return fmt.Errorf("failed to signal daemon (pid %d): %w", pid, err)
	}
	return nil
}

// processAlive reports whether pid names a live process. Signal 0 performs
// the permission and existence checks without delivering anything.
func processAlive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
