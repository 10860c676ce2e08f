package backup

import "path"

// DeviceRoot is the shared-storage root pulled for a full-device backup.
const DeviceRoot = "/sdcard"

// ProtectedFolder is the on-device folder whose contents are permission
// protected; pulling it produces expected per-file skips.
const ProtectedFolder = "Android"

// SourceScope selects what to pull from the device: the whole shared
// storage root, or a single named subfolder.
type SourceScope struct {
	FullDevice bool
	Subfolder  string
}

// FullDeviceScope returns a scope covering the entire device storage root.
func FullDeviceScope() SourceScope {
	return SourceScope{FullDevice: true}
}

// SubfolderScope returns a scope covering one folder under the device root.
func SubfolderScope(name string) SourceScope {
	return SourceScope{Subfolder: name}
}

// RemotePath returns the device-side path this scope addresses.
func (s SourceScope) RemotePath() string {
	if s.FullDevice {
		return DeviceRoot
	}
	return path.Join(DeviceRoot, s.Subfolder)
}

// String describes the scope for logs and the completion summary.
func (s SourceScope) String() string {
	if s.FullDevice {
		return "full device (" + DeviceRoot + ")"
	}
	return s.RemotePath()
}

// BackupTarget describes one backup run: what to pull and where to put it.
// Immutable once the conflict resolver gate has passed; DestinationPath
// must pass the safety validator before any write occurs.
type BackupTarget struct {
	Scope              SourceScope
	DestinationPath    string
	EstimatedSizeBytes int64
}
