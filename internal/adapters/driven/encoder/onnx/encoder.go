// Package onnx runs sentence-transformer bi-encoders locally through
// ONNX Runtime. Model and tokenizer assets are fetched from the
// Hugging Face hub on first use and cached on disk.
package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/logger"
)

// Ensure Encoder implements the interface.
var _ driven.Encoder = (*Encoder)(nil)

// Asymmetric role prefixes. E5-family models are trained with these and
// degrade noticeably without them.
const (
	passagePrefix = "passage: "
	queryPrefix   = "query: "
)

// maxSeqLen is the token budget per input. Longer inputs are truncated
// by the tokenizer.
const maxSeqLen = 512

// Well-known transformer graph input names.
const (
	inputIDsName      = "input_ids"
	attentionMaskName = "attention_mask"
	tokenTypeIDsName  = "token_type_ids"
)

// Encoder embeds text with a local ONNX session. Safe for concurrent
// use; ONNX Runtime sessions are serialized behind a mutex.
type Encoder struct {
	cfg        domain.EncoderConfig
	tk         *tokenizer.Tokenizer
	session    *ort.DynamicAdvancedSession
	inputNames []string

	mu     sync.Mutex
	closed bool
}

// New loads the model named by cfg, resolving assets under cacheRoot.
// The ONNX Runtime environment must already be initialized.
func New(ctx context.Context, cacheRoot string, cfg domain.EncoderConfig) (*Encoder, error) {
	assets, err := resolveAssets(ctx, cacheRoot, cfg.ModelID, cfg.ModelFilename)
	if err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(assets.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load tokenizer: %v", domain.ErrModelAssets, err)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{MaxLength: maxSeqLen})

	inputs, outputs, err := ort.GetInputOutputInfo(assets.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: inspect model graph: %v", domain.ErrModelAssets, err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model graph has no outputs", domain.ErrModelAssets)
	}
	inputNames := graphInputNames(inputs)
	if len(inputNames) == 0 {
		return nil, fmt.Errorf("%w: model graph exposes no known inputs", domain.ErrModelAssets)
	}

	opts, err := sessionOptions(cfg.Device)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		assets.ModelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %v", domain.ErrInference, err)
	}

	logger.Info("Loaded encoder %s (device=%s, inputs=%v)", cfg.ModelID, cfg.Device, inputNames)
	return &Encoder{
		cfg:        cfg,
		tk:         tk,
		session:    session,
		inputNames: inputNames,
	}, nil
}

// graphInputNames filters the graph's inputs down to the transformer
// inputs we know how to feed, preserving graph order.
func graphInputNames(inputs []ort.InputOutputInfo) []string {
	var names []string
	for _, in := range inputs {
		switch in.Name {
		case inputIDsName, attentionMaskName, tokenTypeIDsName:
			names = append(names, in.Name)
		}
	}
	return names
}

// sessionOptions builds execution-provider options for the device.
func sessionOptions(device domain.Device) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: session options: %v", domain.ErrInference, err)
	}
	if device == domain.DeviceCUDA {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("%w: cuda provider: %v", domain.ErrInference, err)
		}
		defer cudaOpts.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("%w: enable cuda: %v", domain.ErrInference, err)
		}
	}
	return opts, nil
}

// EmbedPassages embeds document chunks with the passage role prefix.
func (e *Encoder) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, passagePrefix)
}

// EmbedQueries embeds search queries with the query role prefix.
func (e *Encoder) EmbedQueries(ctx context.Context, texts []string) ([][]float32, error) {
	return e.embed(ctx, texts, queryPrefix)
}

// EmbedQuery embeds a single search query.
func (e *Encoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedQueries(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// ModelTag identifies the model and runtime that produced the vectors.
func (e *Encoder) ModelTag() string {
	return e.cfg.ModelTag()
}

// Close releases the ONNX session. Safe to call more than once.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.session.Destroy()
}

// batch is a padded, tokenized input ready for the graph.
type batch struct {
	ids    []int64
	mask   []int64
	count  int
	tokens int
}

func (e *Encoder) embed(ctx context.Context, texts []string, prefix string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := e.tokenize(texts, prefix)
	if err != nil {
		return nil, err
	}

	hidden, shape, err := e.run(ctx, b)
	if err != nil {
		return nil, err
	}
	return e.pool(hidden, shape, b)
}

// tokenize encodes each text with the role prefix and pads the batch to
// a rectangle.
func (e *Encoder) tokenize(texts []string, prefix string) (batch, error) {
	encodings := make([]*tokenizer.Encoding, len(texts))
	maxLen := 0
	for i, text := range texts {
		enc, err := e.tk.EncodeSingle(prefix+text, true)
		if err != nil {
			return batch{}, fmt.Errorf("%w: tokenize input %d: %v", domain.ErrInference, i, err)
		}
		encodings[i] = enc
		if len(enc.Ids) > maxLen {
			maxLen = len(enc.Ids)
		}
	}
	if maxLen == 0 {
		maxLen = 1
	}

	b := batch{
		ids:    make([]int64, len(texts)*maxLen),
		mask:   make([]int64, len(texts)*maxLen),
		count:  len(texts),
		tokens: maxLen,
	}
	for i, enc := range encodings {
		base := i * maxLen
		for j, id := range enc.Ids {
			b.ids[base+j] = int64(id)
		}
		for j, m := range enc.AttentionMask {
			b.mask[base+j] = int64(m)
		}
	}
	return b, nil
}

// run executes the graph and copies out the first output tensor.
func (e *Encoder) run(ctx context.Context, b batch) ([]float32, []int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	shape := ort.NewShape(int64(b.count), int64(b.tokens))
	idsTensor, err := ort.NewTensor(shape, b.ids)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: input_ids tensor: %v", domain.ErrInference, err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, b.mask)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: attention_mask tensor: %v", domain.ErrInference, err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor(shape, make([]int64, len(b.ids)))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: token_type_ids tensor: %v", domain.ErrInference, err)
	}
	defer typeTensor.Destroy()

	inputs := make([]ort.Value, 0, len(e.inputNames))
	for _, name := range e.inputNames {
		switch name {
		case inputIDsName:
			inputs = append(inputs, idsTensor)
		case attentionMaskName:
			inputs = append(inputs, maskTensor)
		case tokenTypeIDsName:
			inputs = append(inputs, typeTensor)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, nil, fmt.Errorf("%w: encoder is closed", domain.ErrInference)
	}

	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, nil, fmt.Errorf("%w: run session: %v", domain.ErrInference, err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, nil, fmt.Errorf("%w: model output is not float32", domain.ErrInference)
	}
	defer out.Destroy()

	data := make([]float32, len(out.GetData()))
	copy(data, out.GetData())
	return data, out.GetShape(), nil
}

// pool reduces the raw output to one unit vector per input. Rank-3
// outputs are token-level hidden states and get mask-weighted mean
// pooling; rank-2 outputs are already sentence vectors.
func (e *Encoder) pool(data []float32, shape []int64, b batch) ([][]float32, error) {
	out := make([][]float32, b.count)

	switch len(shape) {
	case 3:
		tokens, dim := int(shape[1]), int(shape[2])
		if tokens != b.tokens {
			return nil, fmt.Errorf("%w: output has %d tokens, batch has %d",
				domain.ErrInference, tokens, b.tokens)
		}
		per := tokens * dim
		for i := 0; i < b.count; i++ {
			hidden := data[i*per : (i+1)*per]
			mask := b.mask[i*b.tokens : (i+1)*b.tokens]
			out[i] = l2Normalize(meanPool(hidden, mask, tokens, dim))
		}

	case 2:
		dim := int(shape[1])
		for i := 0; i < b.count; i++ {
			row := make([]float32, dim)
			copy(row, data[i*dim:(i+1)*dim])
			out[i] = l2Normalize(row)
		}

	default:
		return nil, fmt.Errorf("%w: unexpected output rank %d", domain.ErrInference, len(shape))
	}
	return out, nil
}
