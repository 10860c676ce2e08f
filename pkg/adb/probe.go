package adb

import (
	"context"
	"strings"
)

// UnknownValue is substituted for any device property that cannot be read.
const UnknownValue = "unknown"

// DeviceInfo is an immutable identity snapshot of the connected device,
// taken once per session.
type DeviceInfo struct {
	Manufacturer   string
	Model          string
	AndroidVersion string
	BuildNumber    string
	SerialNumber   string
}

// Android system properties backing each DeviceInfo field.
const (
	propManufacturer   = "ro.product.manufacturer"
	propModel          = "ro.product.model"
	propAndroidVersion = "ro.build.version.release"
	propBuildNumber    = "ro.build.display.id"
)

// Probe assembles a DeviceInfo for the device with the given serial. A
// failing property query degrades that single field to UnknownValue; it
// never fails the probe as a whole.
func (c *Client) Probe(ctx context.Context, serial string) DeviceInfo {
	return DeviceInfo{
		Manufacturer:   c.getProp(ctx, serial, propManufacturer),
		Model:          c.getProp(ctx, serial, propModel),
		AndroidVersion: c.getProp(ctx, serial, propAndroidVersion),
		BuildNumber:    c.getProp(ctx, serial, propBuildNumber),
		SerialNumber:   serial,
	}
}

func (c *Client) getProp(ctx context.Context, serial, prop string) string {
	ctx, cancel := context.WithTimeout(ctx, c.propTimeout)
	defer cancel()

	stdout, _, err := c.run.Run(ctx, "-s", serial, "shell", "getprop "+prop)
	if err != nil {
		c.log.Warn().Err(err).Str("prop", prop).Msg("getprop failed")
		return UnknownValue
	}
	value := strings.TrimSpace(stdout)
	if value == "" {
		return UnknownValue
	}
	return value
}
