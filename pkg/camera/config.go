// Package camera provides the webcam frame source for go-memey.
// Settings follow the same Config/Validate/preset pattern as the rest of the
// tunable packages.
package camera

// Config holds the webcam capture parameters.
type Config struct {
	// Device is the capture device index (0 = default camera).
	Device int `json:"device" mapstructure:"index"`

	// === Resolution ===
	Width     int `json:"width" mapstructure:"width"`         // Frame width in pixels
	Height    int `json:"height" mapstructure:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" mapstructure:"framerate"` // Requested FPS

	// Mirror flips frames horizontally so the preview behaves like a mirror.
	Mirror bool `json:"mirror" mapstructure:"mirror"`
}

// Capture limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
	MaxDevice    = 63
)

// DefaultConfig returns the recommended webcam configuration.
// 640x480 keeps classification fast on a laptop CPU.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Mirror:    true,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 || c.Device > MaxDevice {
		errors = append(errors, "camera index must be between 0 and 63")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}

	return errors
}
