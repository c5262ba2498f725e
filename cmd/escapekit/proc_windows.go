//go:build windows

package main

import (
	"os"
	"os/exec"
	"syscall"
)

const (
	daemonBinaryName = "escapekitd.exe"

	// detachedProcess is DETACHED_PROCESS, which syscall does not export
	detachedProcess = 0x00000008
)

// detachDaemon starts escapekitd without a console of its own
func detachDaemon(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
		HideWindow:    true,
	}
}

// stopDaemon terminates escapekitd. A detached process has no console to
// receive a Ctrl-Break, so there is no graceful signal to send.
func stopDaemon(p *os.Process) error {
	return p.Kill()
}
