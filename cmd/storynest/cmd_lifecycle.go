package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(stopCmd, restartCmd)
}

// daemonProcess locates the running daemon via storynest.pid and probes it
// with signal 0 to confirm it is alive.
func daemonProcess() (*os.Process, int, error) {
	cfg := loadConfig()
	pidPath := filepath.Join(cfg.DataDir, "storynest.pid")

	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("no running daemon (PID file not found)")
		}
		return nil, 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("invalid PID file content: %w", err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil, 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return nil, 0, fmt.Errorf("no running daemon (process %d not found)", pid)
	}

	return proc, pid, nil
}

func signalDaemon(sig syscall.Signal, name, verb string) error {
	proc, pid, err := daemonProcess()
	if err != nil {
		return err
	}
	if err := proc.Signal(sig); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	fmt.Fprintf(os.Stdout, "Sent %s to daemon (PID %d)%s.\n", name, pid, verb)
	return nil
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalDaemon(syscall.SIGTERM, "SIGTERM", "")
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return signalDaemon(syscall.SIGHUP, "SIGHUP", " for restart")
	},
}
