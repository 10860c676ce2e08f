package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirbyte/androidArchiver/internal/config"
	"github.com/mirbyte/androidArchiver/internal/logger"
	"github.com/mirbyte/androidArchiver/pkg/adb"
)

// scriptedADB answers adb invocations from a canned table keyed by the
// joined argument string.
type scriptedADB struct {
	responses map[string]adbResponse
	calls     []string
}

type adbResponse struct {
	stdout string
	err    error
}

func (s *scriptedADB) Run(_ context.Context, args ...string) (string, string, error) {
	key := strings.Join(args, " ")
	s.calls = append(s.calls, key)
	resp, ok := s.responses[key]
	if !ok {
		return "", "", errors.New("unexpected adb invocation: " + key)
	}
	return resp.stdout, "", resp.err
}

func (s *scriptedADB) called(key string) bool {
	for _, c := range s.calls {
		if c == key {
			return true
		}
	}
	return false
}

func happyResponses(serial string) map[string]adbResponse {
	return map[string]adbResponse{
		"version": {stdout: "Android Debug Bridge version 1.0.41\nVersion 35.0.2\n"},
		"devices": {stdout: "List of devices attached\n" + serial + "\tdevice\n"},
		"-s " + serial + " get-state":                            {stdout: "device\n"},
		"-s " + serial + " shell getprop ro.product.manufacturer": {stdout: "samsung\n"},
		"-s " + serial + " shell getprop ro.product.model":        {stdout: "SM-G991B\n"},
		"-s " + serial + " shell getprop ro.build.version.release": {stdout: "14\n"},
		"-s " + serial + " shell getprop ro.build.display.id":      {stdout: "UP1A.231005.007\n"},
		"-s " + serial + " shell ls -1 /sdcard":                    {stdout: "DCIM\nDownload\nAndroid\n.hidden\n"},
		"-s " + serial + " shell test -d /sdcard && echo exists":      {stdout: "exists\n"},
		"-s " + serial + " shell test -d /sdcard/DCIM && echo exists": {stdout: "exists\n"},
	}
}

// fakePrompter returns scripted answers for every prompt.
type fakePrompter struct {
	destinations []string
	destIdx      int
	advisoryOK   bool
	scope        SourceScope
	estimateGB   float64
	conflict     ConflictChoice

	advisories []string
}

func (p *fakePrompter) SelectDevice(devices []adb.Device) (string, error) {
	return devices[0].Serial, nil
}

func (p *fakePrompter) ChooseDestination(defaultPath string) (string, error) {
	if p.destIdx >= len(p.destinations) {
		return defaultPath, nil
	}
	dest := p.destinations[p.destIdx]
	p.destIdx++
	return dest, nil
}

func (p *fakePrompter) ConfirmAdvisory(message string) (bool, error) {
	p.advisories = append(p.advisories, message)
	return p.advisoryOK, nil
}

func (p *fakePrompter) ChooseScope([]string) (SourceScope, error) {
	return p.scope, nil
}

func (p *fakePrompter) EstimateSizeGB() (float64, error) {
	return p.estimateGB, nil
}

func (p *fakePrompter) ChooseConflictAction(string, int) (ConflictChoice, error) {
	return p.conflict, nil
}

// fakeReporter records everything the engine reports.
type fakeReporter struct {
	device  adb.DeviceInfo
	reports []DiskSpaceReport
	notices []string
}

func (r *fakeReporter) DeviceDetected(info adb.DeviceInfo) { r.device = info }
func (r *fakeReporter) SpaceReport(rep DiskSpaceReport)    { r.reports = append(r.reports, rep) }
func (r *fakeReporter) Notice(msg string)                  { r.notices = append(r.notices, msg) }

func newTestEngine(script *scriptedADB, prompt *fakePrompter, report *fakeReporter) *Engine {
	client := adb.NewClientWithCommander(script, logger.Nop())
	return NewEngine(client, prompt, report, &config.Config{BackupLocation: "/tmp/default"}, logger.Nop())
}

func TestPrepareHappyPathCreatesPendingSession(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "backup")
	script := &scriptedADB{responses: happyResponses("SER1")}
	prompt := &fakePrompter{
		destinations: []string{dst},
		scope:        SubfolderScope("DCIM"),
		estimateGB:   0.001,
	}
	report := &fakeReporter{}

	session, err := newTestEngine(script, prompt, report).Prepare(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SessionPending, session.State())
	assert.True(t, session.CreatedDestinationDir)
	assert.Equal(t, dst, session.Target.DestinationPath)
	assert.Equal(t, "/sdcard/DCIM", session.Target.Scope.RemotePath())
	assert.Equal(t, int64(prompt.estimateGB*GiB), session.Target.EstimatedSizeBytes)
	assert.Equal(t, "SM-G991B", report.device.Model)
	require.Len(t, report.reports, 1)
	assert.Equal(t, SpaceOK, report.reports[0].Verdict)
}

func TestPrepareCancelOnConflictMutatesNothing(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "existing.jpg"), "user data")

	script := &scriptedADB{responses: happyResponses("SER1")}
	prompt := &fakePrompter{
		destinations: []string{dst},
		scope:        FullDeviceScope(),
		estimateGB:   0.001,
		conflict:     ChoiceCancel,
	}

	_, err := newTestEngine(script, prompt, &fakeReporter{}).Prepare(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.FileExists(t, filepath.Join(dst, "existing.jpg"))
}

func TestPrepareInsufficientSpaceDeclinedNeverRuns(t *testing.T) {
	script := &scriptedADB{responses: happyResponses("SER1")}
	prompt := &fakePrompter{
		destinations: []string{filepath.Join(t.TempDir(), "backup")},
		scope:        FullDeviceScope(),
		estimateGB:   8e9, // nobody has eight billion gigabytes free
		advisoryOK:   false,
	}
	report := &fakeReporter{}

	session, err := newTestEngine(script, prompt, report).Prepare(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, session, "session must never exist, let alone reach running")
	require.Len(t, report.reports, 1)
	assert.Equal(t, SpaceInsufficient, report.reports[0].Verdict)
	assert.NotEmpty(t, prompt.advisories)
}

func TestPrepareUnauthorizedDevice(t *testing.T) {
	script := &scriptedADB{responses: map[string]adbResponse{
		"version": {stdout: "Version 35.0.2\n"},
		"devices": {stdout: "List of devices attached\nSER1\tunauthorized\n"},
	}}

	_, err := newTestEngine(script, &fakePrompter{}, &fakeReporter{}).Prepare(context.Background())
	assert.ErrorIs(t, err, adb.ErrUnauthorized)
}

func TestPrepareNoDeviceRestartsServerOnce(t *testing.T) {
	script := &scriptedADB{responses: map[string]adbResponse{
		"version":      {stdout: "Version 35.0.2\n"},
		"devices":      {stdout: "List of devices attached\n"},
		"kill-server":  {},
		"start-server": {},
	}}
	report := &fakeReporter{}

	_, err := newTestEngine(script, &fakePrompter{}, report).Prepare(context.Background())
	assert.ErrorIs(t, err, adb.ErrNoDevice)
	assert.True(t, script.called("kill-server"))
	assert.True(t, script.called("start-server"))
	assert.NotEmpty(t, report.notices)
}

func TestPrepareRejectedDestinationReprompts(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	good := filepath.Join(t.TempDir(), "backup")

	script := &scriptedADB{responses: happyResponses("SER1")}
	prompt := &fakePrompter{
		destinations: []string{home, good},
		scope:        FullDeviceScope(),
		estimateGB:   0.001,
	}
	report := &fakeReporter{}

	session, err := newTestEngine(script, prompt, report).Prepare(context.Background())
	require.NoError(t, err)
	assert.Equal(t, good, session.Target.DestinationPath)
	assert.NotEmpty(t, report.notices, "the rejection must be reported, not silent")
}

func TestTransferCompletedWritesMarkerAndSkipsCleanup(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "backup")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	engine := newTestEngine(&scriptedADB{responses: happyResponses("SER1")}, &fakePrompter{}, &fakeReporter{})
	engine.pullStarter = &fakeStarter{
		pull:    newFakePull("", "", nil),
		payload: map[string]string{"DCIM/photo.jpg": "jpeg bytes"},
	}

	session := NewSession(BackupTarget{
		Scope:              FullDeviceScope(),
		DestinationPath:    dst,
		EstimatedSizeBytes: 1 << 20,
	}, true)

	var snapshots []ProgressSnapshot
	summary, err := engine.Transfer(context.Background(), session, func(s ProgressSnapshot) {
		snapshots = append(snapshots, s)
	})
	require.NoError(t, err)

	assert.Equal(t, SessionCompleted, summary.State)
	assert.Equal(t, SessionCompleted, session.State())
	assert.DirExists(t, dst, "completed sessions are never cleaned up")
	assert.FileExists(t, filepath.Join(dst, CompletionMarkerName))

	require.NotEmpty(t, snapshots)
	assert.Equal(t, 1.0, snapshots[len(snapshots)-1].Percent)
}

func TestTransferCancelledCleansUpCreatedDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "backup")
	require.NoError(t, os.MkdirAll(dst, 0o755))

	pull := newBlockingPull("")
	engine := newTestEngine(&scriptedADB{responses: happyResponses("SER1")}, &fakePrompter{}, &fakeReporter{})
	engine.pullStarter = &fakeStarter{pull: pull}

	session := NewSession(BackupTarget{
		Scope:           FullDeviceScope(),
		DestinationPath: dst,
	}, true)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	summary, err := engine.Transfer(ctx, session, func(ProgressSnapshot) {})
	require.NoError(t, err)

	assert.Equal(t, SessionCancelled, summary.State)
	assert.True(t, pull.wasKilled())
	assert.NoDirExists(t, dst, "freshly created destination is removed on interruption")
}

func TestTransferFailedKeepsPreExistingDir(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "existing.jpg"), "user data")

	engine := newTestEngine(&scriptedADB{responses: happyResponses("SER1")}, &fakePrompter{}, &fakeReporter{})
	engine.pullStarter = &fakeStarter{
		pull: newFakePull("", "adb: error: device offline\n", errors.New("exit status 1")),
	}

	session := NewSession(BackupTarget{
		Scope:           FullDeviceScope(),
		DestinationPath: dst,
	}, false)

	summary, err := engine.Transfer(context.Background(), session, func(ProgressSnapshot) {})
	require.Error(t, err)

	assert.Equal(t, SessionFailed, summary.State)
	assert.Equal(t, CauseDeviceDisconnected, summary.FailureCause)
	assert.DirExists(t, dst)
	assert.FileExists(t, filepath.Join(dst, "existing.jpg"))
}
