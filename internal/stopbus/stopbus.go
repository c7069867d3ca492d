// Package stopbus implements the control core's stop-signal bus
// (component C6): cross-process signaling via marker files, since the
// sync worker and the stop-issuing command may run in different OS
// processes.
package stopbus

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/cuemby/syncctl/internal/synclog"
)

var log = synclog.WithComponent("stopbus")

func markerPath(configFolder string, pid int) string {
	return filepath.Join(configFolder, fmt.Sprintf("stop_%d", pid))
}

// RequestStop creates a stop_<pid> marker for the running worker, if
// one is found via FindRunningPID. Absence of a running PID is a
// no-op with an informational log, per spec.md §4.6.
func RequestStop(configFolder string) error {
	pid, ok, err := FindRunningPID(configFolder)
	if err != nil {
		return err
	}
	if !ok {
		log.Info().Msg("no running synchronization process to stop")
		return nil
	}
	f, err := os.Create(markerPath(configFolder, pid))
	if err != nil {
		return err
	}
	return f.Close()
}

// FindRunningPID scans configFolder for a pid_<pid> marker left by a
// running worker (written at worker startup) whose process is still
// alive, confirmed with a zero-signal probe. Returns ok=false if no
// such marker exists or its process is gone.
func FindRunningPID(configFolder string) (int, bool, error) {
	entries, err := os.ReadDir(configFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "pid_") {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimPrefix(name, "pid_"))
		if err != nil {
			continue
		}
		if CheckRunning(pid) {
			return pid, true, nil
		}
	}
	return 0, false, nil
}

// CheckRunning reports whether pid is a live process, using a
// zero-signal probe (POSIX): it asks the kernel whether the signal
// could be delivered without actually sending one.
func CheckRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// ShouldStop reports whether a stop_<pid> marker exists for the
// current process, clearing it if so. The worker's poll loop calls
// this periodically.
func ShouldStop(configFolder string, pid int) bool {
	path := markerPath(configFolder, pid)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to clear stop marker")
	}
	return true
}

// WritePIDMarker records this process as the running worker, so a
// separate `stop` invocation can find it.
func WritePIDMarker(configFolder string, pid int) error {
	path := filepath.Join(configFolder, fmt.Sprintf("pid_%d", pid))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// ClearPIDMarker removes this process's pid marker on shutdown.
func ClearPIDMarker(configFolder string, pid int) error {
	path := filepath.Join(configFolder, fmt.Sprintf("pid_%d", pid))
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
