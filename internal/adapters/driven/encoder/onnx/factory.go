package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.EncoderFactory = (*Factory)(nil)

var (
	ortOnce    sync.Once
	ortInitErr error
)

// initRuntime initializes the shared ONNX Runtime environment. The
// library stays loaded for the life of the process.
func initRuntime(sharedLibraryPath string) error {
	ortOnce.Do(func() {
		if sharedLibraryPath != "" {
			ort.SetSharedLibraryPath(sharedLibraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return fmt.Errorf("%w: initialize onnxruntime: %v", domain.ErrInference, ortInitErr)
	}
	return nil
}

// Factory builds Encoder instances on demand so callers only pay the
// model-load cost when an embedding is actually needed.
type Factory struct {
	cacheRoot         string
	sharedLibraryPath string
}

// NewFactory creates an encoder factory. cacheRoot is the directory
// model assets are cached under; sharedLibraryPath optionally points at
// the onnxruntime shared library when it is not on the default search
// path.
func NewFactory(cacheRoot, sharedLibraryPath string) *Factory {
	return &Factory{cacheRoot: cacheRoot, sharedLibraryPath: sharedLibraryPath}
}

// New loads the encoder selected by cfg.
func (f *Factory) New(ctx context.Context, cfg domain.EncoderConfig) (driven.Encoder, error) {
	if err := initRuntime(f.sharedLibraryPath); err != nil {
		return nil, err
	}
	return New(ctx, f.cacheRoot, cfg)
}
