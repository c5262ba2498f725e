//go:build unix

package main

import (
	"os"
	"os/exec"
	"syscall"
)

const daemonBinaryName = "escapekitd"

// detachDaemon puts escapekitd in its own session so closing the terminal
// does not deliver SIGHUP to it
func detachDaemon(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// stopDaemon asks escapekitd to shut down; it drains in-flight generations
// on SIGTERM
func stopDaemon(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
