package domain

import "fmt"

// Device selects the inference execution provider.
type Device string

// Supported inference devices.
const (
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ParseDevice validates a device selector string.
func ParseDevice(s string) (Device, error) {
	switch Device(s) {
	case DeviceCPU, DeviceCUDA:
		return Device(s), nil
	default:
		return "", fmt.Errorf("%w: unknown device %q (want cpu or cuda)", ErrInvalidInput, s)
	}
}

// EncoderConfig identifies the embedding model and how to run it.
type EncoderConfig struct {
	// ModelID is the model hub identifier, e.g. "intfloat/e5-small-v2".
	ModelID string

	// ModelFilename overrides the conventional model filenames when the
	// hub repository uses a non-standard layout. Empty means try the
	// ordered candidate list.
	ModelFilename string

	// Device selects the execution provider.
	Device Device
}

// ModelTag returns the composite identifier stored alongside embeddings.
// It binds the model and the inference device because vectors produced by
// different models or devices are not comparable.
func (c EncoderConfig) ModelTag() string {
	return fmt.Sprintf("%s@onnx-%s", c.ModelID, c.Device)
}
