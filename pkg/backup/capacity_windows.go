//go:build windows

package backup

import "golang.org/x/sys/windows"

// freeSpace returns the bytes available to the caller on the volume
// holding path.
func freeSpace(path string) (int64, error) {
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(p, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, err
	}
	return int64(freeBytesAvailable), nil
}
