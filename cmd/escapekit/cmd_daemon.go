package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/escapekit/internal/config"
)

// logTailBytes is how much of the daemon log 'escapekit logs' reads
const logTailBytes = 8192

// daemonStatus mirrors the daemon's /v1/status response
type daemonStatus struct {
	Status               string   `json:"status"`
	Version              string   `json:"version"`
	LLMProviders         []string `json:"llm_providers"`
	DefaultProvider      string   `json:"default_provider"`
	Sessions             int      `json:"sessions"`
	ArtifactLinks        int      `json:"artifact_links"`
	GenerationsPerMinute int      `json:"generations_per_minute"`
}

// daemonClient talks to the daemon at the configured bind address
type daemonClient struct {
	baseURL string
	http    *http.Client
}

func newDaemonClient(cfg *config.LocalConfig) *daemonClient {
	return &daemonClient{
		baseURL: daemonURL(cfg),
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

// loadDaemonClient builds a client from the local config
func loadDaemonClient() (*daemonClient, *config.LocalConfig, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return newDaemonClient(cfg), cfg, nil
}

// daemonURL is where the CLI reaches the daemon. A wildcard bind is
// reached over loopback.
func daemonURL(cfg *config.LocalConfig) string {
	host := cfg.Daemon.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Daemon.Port))
}

// running reports whether the health endpoint answers
func (c *daemonClient) running() bool {
	resp, err := c.http.Get(c.baseURL + "/v1/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *daemonClient) status() (*daemonStatus, error) {
	resp, err := c.http.Get(c.baseURL + "/v1/status")
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status: daemon returned %s", resp.Status)
	}

	var status daemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("parse status: %w", err)
	}
	return &status, nil
}

// checkPortFree fails when something already listens on the daemon port,
// which would otherwise surface only as a start timeout
func checkPortFree(cfg *config.LocalConfig) error {
	addr := net.JoinHostPort(cfg.Daemon.Bind, strconv.Itoa(cfg.Daemon.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is in use by another program (set daemon.port or ESCAPEKIT_PORT): %w", cfg.Daemon.Port, err)
	}
	return ln.Close()
}

// cmdStart starts the daemon in the background
func cmdStart() error {
	client, cfg, err := loadDaemonClient()
	if err != nil {
		return err
	}
	if client.running() {
		fmt.Printf("✓ Daemon is already running at %s\n", client.baseURL)
		return nil
	}

	if err := checkPortFree(cfg); err != nil {
		return err
	}

	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("setup escapekit directory: %w", err)
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	cmd := exec.Command(daemonPath)
	cmd.Dir = dir
	detachDaemon(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	// The daemon outlives this process
	_ = cmd.Process.Release()

	fmt.Print("Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if client.running() {
			fmt.Println(" ✓")
			fmt.Printf("Open %s to plan a room\n", client.baseURL)
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'escapekit logs')")
}

// cmdStop stops the daemon. In-flight generations are waited for by the
// daemon's own shutdown.
func cmdStop() error {
	client, _, err := loadDaemonClient()
	if err != nil {
		return err
	}
	if !client.running() {
		fmt.Println("Daemon is not running")
		return nil
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	pid, err := readPID(filepath.Join(dir, pidFile))
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Print("Stopping daemon...")
	if err := stopDaemon(process); err != nil {
		return fmt.Errorf("stop process %d: %w", pid, err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !client.running() {
			fmt.Println(" ✓")
			return nil
		}
		fmt.Print(".")
	}

	fmt.Println(" ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

// readPID parses the PID file escapekitd writes on startup
func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s", path)
	}
	return pid, nil
}

// cmdStatus shows the daemon's live state
func cmdStatus() error {
	client, _, err := loadDaemonClient()
	if err != nil {
		return err
	}
	if !client.running() {
		fmt.Println("Status: stopped")
		return nil
	}

	status, err := client.status()
	if err != nil {
		return err
	}
	printStatus(os.Stdout, client.baseURL, status)
	return nil
}

func printStatus(w io.Writer, addr string, s *daemonStatus) {
	limit := "off"
	if s.GenerationsPerMinute > 0 {
		limit = fmt.Sprintf("%d generations/min per client", s.GenerationsPerMinute)
	}

	fmt.Fprintf(w, "Status:     %s\n", s.Status)
	fmt.Fprintf(w, "Version:    %s\n", s.Version)
	fmt.Fprintf(w, "Address:    %s\n", addr)
	fmt.Fprintf(w, "Providers:  %s (default: %s)\n", strings.Join(s.LLMProviders, ", "), s.DefaultProvider)
	fmt.Fprintf(w, "Sessions:   %d live\n", s.Sessions)
	fmt.Fprintf(w, "Links:      %d open artifact links\n", s.ArtifactLinks)
	fmt.Fprintf(w, "Rate limit: %s\n", limit)
}

// cmdLogs shows the tail of the daemon log
func cmdLogs() error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	file, err := os.Open(filepath.Join(dir, "logs", "escapekitd.log"))
	if errors.Is(err, os.ErrNotExist) {
		fmt.Println("No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	return tailLog(file, os.Stdout)
}

// tailLog prints the last logTailBytes of a JSON log, one line per record
func tailLog(file *os.File, w io.Writer) error {
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	offset := max(info.Size()-logTailBytes, 0)
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	// Skip partial first line if we seeked
	if offset > 0 {
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(w, formatLogLine(scanner.Bytes()))
	}
	return scanner.Err()
}

// logFields are the record attributes worth showing in a terminal
var logFields = []string{"session_id", "key", "asset", "status", "request_id", "error"}

// formatLogLine renders one JSON record from escapekitd as
// "15:04:05 LEVEL msg key=value". Lines that are not JSON pass through.
func formatLogLine(line []byte) string {
	var rec map[string]interface{}
	if err := json.Unmarshal(line, &rec); err != nil {
		return string(line)
	}

	var b strings.Builder
	if ts, ok := rec["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			b.WriteString(t.Local().Format("15:04:05"))
			b.WriteByte(' ')
		}
	}
	level, _ := rec["level"].(string)
	fmt.Fprintf(&b, "%-5s %v", level, rec["msg"])

	for _, key := range logFields {
		if v, ok := rec[key]; ok && v != "" {
			fmt.Fprintf(&b, " %s=%v", key, v)
		}
	}
	return b.String()
}

// isRunning checks the configured daemon address
func isRunning() bool {
	client, _, err := loadDaemonClient()
	if err != nil {
		return false
	}
	return client.running()
}

// findDaemonBinary locates the escapekitd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("escapekitd"); err == nil {
		return path, nil
	}

	// Next to this binary
	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), daemonBinaryName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("escapekitd binary not found (build with 'go build ./cmd/escapekitd')")
}
