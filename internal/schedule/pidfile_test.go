package schedule

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPIDFileAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	pf := NewPIDFile(path)

	if err := pf.Acquire(); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil {
		t.Fatalf("read pid: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid file holds %d, want %d", pid, os.Getpid())
	}

	pf.Release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("release should remove the pid file")
	}
}

func TestAcquireRefusesLiveDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")

	// Our own pid stands in for a running daemon.
	if err := NewPIDFile(path).Acquire(); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := NewPIDFile(path).Acquire(); err == nil {
		t.Error("second acquire against a live pid should fail")
	}
}

func TestAcquireReplacesStalePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")

	// 99999999 is above any kernel pid_max, so no such process exists.
	if err := os.WriteFile(path, []byte("99999999\n"), 0o644); err != nil {
		t.Fatalf("write stale pid: %v", err)
	}
	if err := NewPIDFile(path).Acquire(); err != nil {
		t.Fatalf("acquire over stale pid should succeed: %v", err)
	}
	if pid, _ := ReadPID(path); pid != os.Getpid() {
		t.Errorf("stale pid should be replaced, got %d", pid)
	}
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadPID(path); err == nil {
		t.Error("garbage pid file should not parse")
	}
}

func TestSignalFocusWithoutDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	err := SignalFocus(path)
	if err == nil {
		t.Fatal("signaling without a pid file should fail")
	}
	if !strings.Contains(err.Error(), "no daemon running") {
		t.Errorf("unexpected error: %v", err)
	}
}
