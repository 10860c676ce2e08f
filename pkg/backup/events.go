package backup

// TransferEvent is a marker interface for events emitted by the transfer
// driver. The unexported method ensures only types from this package (by
// embedding event) satisfy it.
type TransferEvent interface {
	isTransferEvent()
}

type event struct{}

func (event) isTransferEvent() {}

// BytesProgress reports the cumulative bytes and file count written to the
// destination so far.
type BytesProgress struct {
	event
	Bytes int64
	Files int
}

// TransferCompleted signals a successful pull. SkippedFiles counts source
// entries skipped due to on-device permission protection.
type TransferCompleted struct {
	event
	SkippedFiles int
}

// TransferFailed signals a fatal termination of the pull.
type TransferFailed struct {
	event
	Cause FailureCause
	Err   error
}

// TransferCancelled signals a user-requested interruption.
type TransferCancelled struct {
	event
}

// FailureCause classifies fatal pull terminations. The raw bridge-tool
// stderr is never surfaced unclassified.
type FailureCause int

const (
	// CauseBridgeTool covers unclassified adb failures.
	CauseBridgeTool FailureCause = iota
	// CauseDeviceDisconnected indicates the device vanished mid-transfer.
	CauseDeviceDisconnected
	// CauseDestinationWrite indicates a host-side write failure such as a
	// full disk.
	CauseDestinationWrite
)

// String returns a human-readable description of the cause.
func (c FailureCause) String() string {
	switch c {
	case CauseDeviceDisconnected:
		return "device disconnected during transfer"
	case CauseDestinationWrite:
		return "destination write error (disk full?)"
	default:
		return "bridge tool error"
	}
}
