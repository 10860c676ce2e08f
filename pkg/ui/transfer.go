package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mirbyte/androidArchiver/internal/util"
	"github.com/mirbyte/androidArchiver/pkg/adb"
	"github.com/mirbyte/androidArchiver/pkg/backup"
)

// SnapshotMsg carries a progress snapshot from the engine into the TUI.
// The engine's onProgress callback forwards snapshots with Program.Send.
type SnapshotMsg backup.ProgressSnapshot

// DoneMsg carries the final summary and quits the TUI.
type DoneMsg struct {
	Summary backup.Summary
}

const (
	maxBarWidth   = 60
	unknownETA    = "--:--:--"
	transferHelp  = "ctrl+c cancel"
	cancellingMsg = "Cancelling, waiting for adb to stop..."
)

// TransferModel renders a running transfer: device header, progress bar and
// a rate/ETA line. Pressing ctrl+c invokes cancel; the model keeps running
// until the engine reports the terminal DoneMsg so the cleanup outcome is
// never cut off mid-flight.
type TransferModel struct {
	device      adb.DeviceInfo
	source      string
	destination string

	bar  progress.Model
	spin spinner.Model

	snapshot   backup.ProgressSnapshot
	cancelling bool
	done       bool

	cancel func()
}

// NewTransferModel builds the transfer view. cancel is invoked once when
// the user interrupts.
func NewTransferModel(device adb.DeviceInfo, source, destination string, cancel func()) TransferModel {
	return TransferModel{
		device:      device,
		source:      source,
		destination: destination,
		bar:         progress.New(progress.WithDefaultGradient()),
		spin:        NewSpinner(),
		cancel:      cancel,
	}
}

func (m TransferModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m TransferModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		if m.bar.Width > maxBarWidth {
			m.bar.Width = maxBarWidth
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling {
				m.cancelling = true
				m.cancel()
			}
		}
		return m, nil

	case SnapshotMsg:
		m.snapshot = backup.ProgressSnapshot(msg)
		return m, m.bar.SetPercent(m.snapshot.Percent)

	case DoneMsg:
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m TransferModel) View() string {
	if m.done {
		return ""
	}

	eta := unknownETA
	if m.snapshot.ETAKnown {
		eta = util.FormatDuration(m.snapshot.ETA)
	}
	stats := fmt.Sprintf("%s  |  %d files  |  %s/s  |  ETA %s",
		util.FormatSize(m.snapshot.Bytes),
		m.snapshot.Files,
		util.FormatSize(int64(m.snapshot.RateBytesPerSec)),
		eta,
	)

	status := fmt.Sprintf("%s Pulling %s", m.spin.View(), HighlightStyle.Render(m.source))
	if m.cancelling {
		status = WarnStyle.Render(cancellingMsg)
	}
	_ = status

	return fmt.Sprintf("\n %s\n %s\n\n %s\n %s\n\n %s\n",
		TitleStyle.Render(m.device.Manufacturer+" "+m.device.Model),
		LabelStyle.Render("-> "+m.destination),
		m.bar.View(),
		ValueStyle.Render(stats),
		HelpStyle.Render(transferHelp),
	)
}
