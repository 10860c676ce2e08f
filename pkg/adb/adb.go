// Package adb wraps the external adb binary (the Android platform-tools
// device bridge). The binary is treated as an opaque collaborator: this
// package shells out to it, parses its line-oriented output in one place
// and exposes typed results to the rest of the application.
package adb

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/mirbyte/androidArchiver/internal/logger"
)

var (
	// ErrBinaryNotFound indicates no adb binary could be located.
	ErrBinaryNotFound = errors.New("adb binary not found")

	// ErrNoDevice indicates no device is attached.
	ErrNoDevice = errors.New("no device connected")

	// ErrUnauthorized indicates a device is attached but USB debugging has
	// not been authorized on-device.
	ErrUnauthorized = errors.New("device unauthorized")
)

// DeviceState mirrors the state column of `adb devices`.
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateOffline      DeviceState = "offline"
	StateUnauthorized DeviceState = "unauthorized"
	StateUnknown      DeviceState = "unknown"
)

// Device is one row of `adb devices` output.
type Device struct {
	Serial string
	State  DeviceState
}

// Commander executes one adb invocation and returns its stdout and stderr.
// It exists so tests can substitute a fake for the real binary.
type Commander interface {
	Run(ctx context.Context, args ...string) (stdout string, stderr string, err error)
}

type execCommander struct {
	path string
}

func (e execCommander) Run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, e.path, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Client drives the adb binary. All methods are synchronous; the only
// long-lived subprocess is the pull started by StartPull.
type Client struct {
	path string
	run  Commander
	log  *logger.Logger

	// timeouts for short query commands, matching the interactive feel of
	// the tool: queries must fail fast, pulls may run for hours.
	queryTimeout time.Duration
	propTimeout  time.Duration
}

// NewClient returns a Client invoking the binary at path.
func NewClient(path string, log *logger.Logger) *Client {
	return &Client{
		path:         path,
		run:          execCommander{path: path},
		log:          log,
		queryTimeout: 10 * time.Second,
		propTimeout:  5 * time.Second,
	}
}

// NewClientWithCommander returns a Client backed by a custom Commander.
// Used by tests.
func NewClientWithCommander(run Commander, log *logger.Logger) *Client {
	c := NewClient("adb", log)
	c.run = run
	return c
}

// LocateBinary finds the adb binary. Resolution order: explicit override,
// platform-tools directory next to the executable, then $PATH.
func LocateBinary(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s", ErrBinaryNotFound, override)
		}
		return override, nil
	}

	name := "adb"
	if runtime.GOOS == "windows" {
		name = "adb.exe"
	}

	if execPath, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(execPath), "platform-tools", name)
		if _, err := os.Stat(bundled); err == nil {
			return bundled, nil
		}
	}

	if found, err := exec.LookPath(name); err == nil {
		return found, nil
	}
	return "", ErrBinaryNotFound
}

var versionPattern = regexp.MustCompile(`Version (\d+\.\d+\.\d+)`)

// Version returns the adb binary's version string, or an error when the
// binary does not respond like adb at all.
func (c *Client) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	stdout, stderr, err := c.run.Run(ctx, "version")
	if err != nil {
		return "", fmt.Errorf("adb version: %w (stderr: %s)", err, strings.TrimSpace(stderr))
	}
	if m := versionPattern.FindStringSubmatch(stdout); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("adb version: unrecognized output %q", strings.TrimSpace(stdout))
}

// Devices enumerates attached devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	stdout, stderr, err := c.run.Run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w (stderr: %s)", err, strings.TrimSpace(stderr))
	}
	return parseDevices(stdout), nil
}

// parseDevices extracts device rows from `adb devices` output. The header
// line and daemon startup notices are skipped.
func parseDevices(out string) []Device {
	var devices []Device
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" ||
			strings.Contains(line, "List of devices attached") ||
			strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		state := DeviceState(fields[1])
		switch state {
		case StateDevice, StateOffline, StateUnauthorized:
		default:
			state = StateUnknown
		}
		devices = append(devices, Device{Serial: fields[0], State: state})
	}
	return devices
}

// RestartServer kills and restarts the adb server. Used as a one-shot
// recovery when no device shows up on the first enumeration.
func (c *Client) RestartServer(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*c.queryTimeout)
	defer cancel()

	if _, _, err := c.run.Run(ctx, "kill-server"); err != nil {
		c.log.Warn().Err(err).Msg("adb kill-server failed")
	}
	if _, stderr, err := c.run.Run(ctx, "start-server"); err != nil {
		return fmt.Errorf("adb start-server: %w (stderr: %s)", err, strings.TrimSpace(stderr))
	}
	return nil
}

// GetState queries `adb -s serial get-state`. A healthy device reports
// "device".
func (c *Client) GetState(ctx context.Context, serial string) (DeviceState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	stdout, stderr, err := c.run.Run(ctx, "-s", serial, "get-state")
	if err != nil {
		return StateUnknown, fmt.Errorf("adb get-state: %w (stderr: %s)", err, strings.TrimSpace(stderr))
	}
	state := DeviceState(strings.TrimSpace(stdout))
	switch state {
	case StateDevice, StateOffline, StateUnauthorized:
		return state, nil
	}
	return StateUnknown, nil
}

// ListDir returns the entries of a directory on the device, one name per
// line as printed by `ls -1`.
func (c *Client) ListDir(ctx context.Context, serial, remotePath string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	stdout, stderr, err := c.run.Run(ctx, "-s", serial, "shell", "ls", "-1", remotePath)
	if err != nil {
		return nil, fmt.Errorf("adb shell ls %s: %w (stderr: %s)", remotePath, err, strings.TrimSpace(stderr))
	}

	var entries []string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		if entry := strings.TrimSpace(scanner.Text()); entry != "" {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// DirExists checks whether a directory exists on the device.
func (c *Client) DirExists(ctx context.Context, serial, remotePath string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	stdout, _, err := c.run.Run(ctx, "-s", serial, "shell",
		fmt.Sprintf("test -d %s && echo exists", remotePath))
	if err != nil {
		// `test -d` exits non-zero for a missing directory, which surfaces
		// here as an error. Only the marker decides.
		return false, nil
	}
	return strings.Contains(stdout, "exists"), nil
}

// PullProcess is a running `adb pull` subprocess. The caller owns exactly
// one per transfer session and must call Wait.
type PullProcess struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// StartPull launches a recursive pull from remotePath on the device to
// localPath on the host and returns without waiting for completion.
func (c *Client) StartPull(ctx context.Context, serial, remotePath, localPath string) (*PullProcess, error) {
	cmd := exec.CommandContext(ctx, c.path, "-s", serial, "pull", remotePath, localPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("adb pull stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("adb pull stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start adb pull: %w", err)
	}
	c.log.Info().Str("serial", serial).Str("source", remotePath).Str("dest", localPath).
		Msg("adb pull started")

	return &PullProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// Stdout returns the subprocess stdout stream (per-file pull notices).
func (p *PullProcess) Stdout() io.Reader { return p.stdout }

// Stderr returns the subprocess stderr stream (skip and error lines).
func (p *PullProcess) Stderr() io.Reader { return p.stderr }

// Wait blocks until the subprocess exits.
func (p *PullProcess) Wait() error { return p.cmd.Wait() }

// Kill terminates the subprocess. Safe to call after exit.
func (p *PullProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
