package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/scheduler"
)

const pidFileName = "taskpilot.pid"

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background daemon",
	Long:  `Start, stop, or check status of the taskpilot background daemon.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the background daemon",
	Long: `Start the taskpilot daemon as a background process.

The daemon runs the escalation sweep on the configured interval and the
dedup pass on its cron schedule.`,
	RunE: runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	Long:  `Stop the running taskpilot daemon by sending SIGTERM.`,
	RunE:  runDaemonStop,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	RunE:  runDaemonStatus,
}

var daemonForegroundFlag bool

func init() {
	daemonStartCmd.Flags().BoolVarP(&daemonForegroundFlag, "foreground", "f", false, "Run in foreground (don't daemonize)")
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}

// pidFilePath returns the path to the PID file.
func pidFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "taskpilot", pidFileName)
}

func writePidFile() error {
	if err := os.MkdirAll(filepath.Dir(pidFilePath()), 0o755); err != nil {
		return fmt.Errorf("creating pid dir: %w", err)
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPidFile() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// isProcessRunning checks if a process with the given PID is running.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; send signal 0 to check if alive
	return process.Signal(syscall.Signal(0)) == nil
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	if pid, err := readPidFile(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	if !daemonForegroundFlag {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		child := exec.Command(exe, "daemon", "start", "--foreground")
		if configFlag != "" {
			child.Args = append(child.Args, "--config", configFlag)
		}
		child.Stdout = nil
		child.Stderr = nil
		if err := child.Start(); err != nil {
			return fmt.Errorf("starting daemon: %w", err)
		}
		fmt.Printf("Daemon started (pid %d)\n", child.Process.Pid)
		return nil
	}

	return runDaemonLoop(cmd)
}

func runDaemonLoop(cmd *cobra.Command) error {
	log := logging.Component("daemon")

	if err := writePidFile(); err != nil {
		return err
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sink := eventSink()
	defer sink.Close()

	sweeper := scheduler.NewSweeper(st, sink)
	sched := scheduler.New()

	if err := sched.AddInterval("escalation-sweep", cfg.SweepInterval(), func() {
		if _, err := sweeper.Sweep(time.Now()); err != nil {
			log.Err(err).Msg("escalation sweep failed")
		}
	}); err != nil {
		return err
	}

	if deduper := buildDeduper(cmd.Context(), cfg, st, sink); deduper != nil {
		if err := sched.AddCron("dedupe-pass", cfg.Dedupe.Schedule, func() {
			if _, err := deduper.Run(cmd.Context()); err != nil {
				log.Err(err).Msg("dedup pass failed")
			}
		}); err != nil {
			return err
		}
	} else {
		log.Warn("dedup pass disabled: no embedding backend")
	}

	// Prime the sweep so escalations are caught at startup, not only after
	// the first interval.
	if _, err := sweeper.Sweep(time.Now()); err != nil {
		log.Err(err).Msg("initial sweep failed")
	}

	sched.Start()
	defer sched.Stop()
	log.InfoCtx("daemon running", map[string]any{"pid": os.Getpid(), "sweep_interval": cfg.Sweep.Interval})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.InfoCtx("daemon stopping", map[string]any{"signal": sig.String()})
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	pid, err := readPidFile()
	if err != nil {
		return fmt.Errorf("daemon not running (no pid file)")
	}
	if !isProcessRunning(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("daemon not running (stale pid %d)", pid)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping daemon: %w", err)
	}
	fmt.Printf("Stopped daemon (pid %d)\n", pid)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	pid, err := readPidFile()
	if err != nil {
		fmt.Println("Daemon is not running.")
		return nil
	}
	if isProcessRunning(pid) {
		fmt.Printf("Daemon is running (pid %d).\n", pid)
	} else {
		fmt.Printf("Daemon is not running (stale pid file for %d).\n", pid)
	}
	return nil
}
