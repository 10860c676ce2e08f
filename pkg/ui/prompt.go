package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mirbyte/androidArchiver/internal/util"
	"github.com/mirbyte/androidArchiver/pkg/adb"
	"github.com/mirbyte/androidArchiver/pkg/backup"
)

// ConsolePrompter implements backup.Prompter and backup.Reporter over
// stdin/stdout. Every method re-prompts on invalid input rather than
// failing the run.
type ConsolePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsolePrompter returns a prompter bound to the process terminal.
func NewConsolePrompter() *ConsolePrompter {
	return &ConsolePrompter{
		in:  bufio.NewScanner(os.Stdin),
		out: os.Stdout,
	}
}

func (p *ConsolePrompter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Banner prints the application header.
func (p *ConsolePrompter) Banner(version string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, TitleStyle.Render("androidArchiver"), HelpStyle.Render(version))
	fmt.Fprintln(p.out, HelpStyle.Render("Back up your Android device over USB."))
	fmt.Fprintln(p.out)
}

// SelectDevice asks the user to pick one of several attached devices.
func (p *ConsolePrompter) SelectDevice(devices []adb.Device) (string, error) {
	fmt.Fprintln(p.out, "Multiple devices attached:")
	for i, d := range devices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, ValueStyle.Render(d.Serial))
	}
	for {
		fmt.Fprintf(p.out, "Select device [1-%d]: ", len(devices))
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(devices) {
			return devices[n-1].Serial, nil
		}
		fmt.Fprintln(p.out, WarnStyle.Render("Please enter a number from the list."))
	}
}

// ChooseDestination asks for the backup destination, offering defaultPath
// when the user just presses enter.
func (p *ConsolePrompter) ChooseDestination(defaultPath string) (string, error) {
	fmt.Fprintf(p.out, "Backup destination [%s]: ", HighlightStyle.Render(defaultPath))
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return defaultPath, nil
	}
	return line, nil
}

// ConfirmAdvisory asks a yes/no question for a non-fatal warning.
func (p *ConsolePrompter) ConfirmAdvisory(message string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", WarnStyle.Render(message))
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, WarnStyle.Render("Please answer y or n."))
	}
}

// ChooseScope offers a full-device backup or one of the device's top-level
// folders. With no folders to offer the scope is the full device.
func (p *ConsolePrompter) ChooseScope(folders []string) (backup.SourceScope, error) {
	if len(folders) == 0 {
		return backup.FullDeviceScope(), nil
	}

	fmt.Fprintln(p.out, "What should be backed up?")
	fmt.Fprintf(p.out, "  0) %s\n", ValueStyle.Render("Entire device ("+backup.DeviceRoot+")"))
	for i, folder := range folders {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, ValueStyle.Render(folder))
	}
	for {
		fmt.Fprintf(p.out, "Select [0-%d]: ", len(folders))
		line, err := p.readLine()
		if err != nil {
			return backup.SourceScope{}, err
		}
		n, err := strconv.Atoi(line)
		switch {
		case err != nil || n < 0 || n > len(folders):
			fmt.Fprintln(p.out, WarnStyle.Render("Please enter a number from the list."))
		case n == 0:
			return backup.FullDeviceScope(), nil
		default:
			return backup.SubfolderScope(folders[n-1]), nil
		}
	}
}

// EstimateSizeGB asks for the rough size of the data on the device. The
// value only feeds the free-space advisory and the progress percentage, so
// zero is acceptable.
func (p *ConsolePrompter) EstimateSizeGB() (float64, error) {
	for {
		fmt.Fprint(p.out, "Estimated size of the data in GB (0 if unknown): ")
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return 0, nil
		}
		gb, err := strconv.ParseFloat(strings.ReplaceAll(line, ",", "."), 64)
		if err == nil && gb >= 0 {
			return gb, nil
		}
		fmt.Fprintln(p.out, WarnStyle.Render("Please enter a non-negative number."))
	}
}

// ChooseConflictAction resolves an existing non-empty destination.
func (p *ConsolePrompter) ChooseConflictAction(path string, existingEntries int) (backup.ConflictChoice, error) {
	fmt.Fprintf(p.out, "%s already contains %d entries.\n", HighlightStyle.Render(path), existingEntries)
	for {
		fmt.Fprint(p.out, "[m]erge, [r]eplace contents or [c]ancel? ")
		line, err := p.readLine()
		if err != nil {
			return backup.ChoiceCancel, err
		}
		switch strings.ToLower(line) {
		case "m", "merge":
			return backup.ChoiceMerge, nil
		case "r", "replace":
			return backup.ChoiceReplace, nil
		case "c", "cancel", "":
			return backup.ChoiceCancel, nil
		}
		fmt.Fprintln(p.out, WarnStyle.Render("Please answer m, r or c."))
	}
}

// labelWidth aligns the detail labels printed under headers.
const labelWidth = 12

func (p *ConsolePrompter) detail(label, value string) {
	fmt.Fprintf(p.out, "  %s %s\n",
		LabelStyle.Render(util.PadRight(label, labelWidth)), ValueStyle.Render(value))
}

// DeviceDetected prints the identity of the connected device.
func (p *ConsolePrompter) DeviceDetected(info adb.DeviceInfo) {
	fmt.Fprintln(p.out, SuccessStyle.Render("Device connected:"))
	p.detail("Device", info.Manufacturer+" "+info.Model)
	p.detail("Android", info.AndroidVersion)
	p.detail("Build", info.BuildNumber)
	p.detail("Serial", info.SerialNumber)
	fmt.Fprintln(p.out)
}

// SpaceReport prints the free-space check result.
func (p *ConsolePrompter) SpaceReport(report backup.DiskSpaceReport) {
	line := fmt.Sprintf("Free space: %s, estimated need: %s",
		util.FormatSize(report.AvailableBytes), util.FormatSize(report.RequiredBytes))
	switch report.Verdict {
	case backup.SpaceOK:
		fmt.Fprintln(p.out, SuccessStyle.Render(line))
	default:
		fmt.Fprintln(p.out, WarnStyle.Render(line))
	}
}

// Notice prints a non-fatal warning or progress note.
func (p *ConsolePrompter) Notice(message string) {
	fmt.Fprintln(p.out, WarnStyle.Render(message))
}

// ShowSummary prints the final outcome of a session.
func (p *ConsolePrompter) ShowSummary(s backup.Summary) {
	fmt.Fprintln(p.out)
	switch s.State {
	case backup.SessionCompleted:
		fmt.Fprintln(p.out, SuccessStyle.Render("Backup completed."))
	case backup.SessionCancelled:
		fmt.Fprintln(p.out, WarnStyle.Render("Backup cancelled."))
	case backup.SessionFailed:
		fmt.Fprintln(p.out, ErrorStyle.Render("Backup failed: "+s.FailureCause.String()))
	}
	p.detail("Source", s.Source)
	p.detail("Destination", s.Destination)
	p.detail("Transferred", fmt.Sprintf("%s in %d files", util.FormatSize(s.Bytes), s.Files))
	p.detail("Elapsed", util.FormatDuration(s.Elapsed))
	if s.SkippedFiles > 0 {
		fmt.Fprintf(p.out, "  %s\n", WarnStyle.Render(fmt.Sprintf(
			"Skipped %d permission-protected entries, see %s", s.SkippedFiles, backup.ErrorLogName)))
	}
}
