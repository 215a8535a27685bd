package services

import (
	"context"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockCandidateStore implements driven.CandidateStore.
type mockCandidateStore struct {
	dim        int
	hasVectors bool
	dimErr     error

	candidates []domain.CandidateRow
	fetchErr   error

	// captured from the last FetchCandidates call
	lastQuery  driven.CandidateQuery
	fetchCalls int
}

func (m *mockCandidateStore) AnyEmbeddingDim(_ context.Context) (int, bool, error) {
	if m.dimErr != nil {
		return 0, false, m.dimErr
	}
	return m.dim, m.hasVectors, nil
}

func (m *mockCandidateStore) FetchCandidates(
	ctx context.Context, _ []float32, q driven.CandidateQuery,
) ([]domain.CandidateRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.fetchCalls++
	m.lastQuery = q
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if q.TopN < int64(len(m.candidates)) {
		return m.candidates[:q.TopN], nil
	}
	return m.candidates, nil
}

// mockIndexAdmin implements driven.IndexAdmin.
type mockIndexAdmin struct {
	lists    int
	listsErr error

	reindexErr error
	buildErr   error
	swapErr    error
	analyzeErr error

	reindexed bool
	built     bool
	builtWith int
	swapped   bool
	analyzed  bool
}

func (m *mockIndexAdmin) IndexLists(_ context.Context) (int, error) {
	if m.listsErr != nil {
		return 0, m.listsErr
	}
	return m.lists, nil
}

func (m *mockIndexAdmin) ReindexInPlace(_ context.Context) error {
	if m.reindexErr != nil {
		return m.reindexErr
	}
	m.reindexed = true
	return nil
}

func (m *mockIndexAdmin) BuildReplacementIndex(_ context.Context, lists int) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.built = true
	m.builtWith = lists
	return nil
}

func (m *mockIndexAdmin) SwapReplacementIndex(_ context.Context) error {
	if m.swapErr != nil {
		return m.swapErr
	}
	m.swapped = true
	return nil
}

func (m *mockIndexAdmin) AnalyzeEmbeddings(_ context.Context) error {
	if m.analyzeErr != nil {
		return m.analyzeErr
	}
	m.analyzed = true
	return nil
}

// mockEmbeddingStore implements driven.EmbeddingStore backed by an
// in-memory chunk list and embedding map.
type mockEmbeddingStore struct {
	chunks     []domain.Chunk
	embeddings map[int64]domain.Embedding // keyed by chunk ID

	// rows overrides EmbeddingCount when > 0, for corpus sizes too
	// large to materialize.
	rows int64

	countErr  error
	listErr   error
	upsertErr error

	upsertCalls int
}

func newMockEmbeddingStore(chunks ...domain.Chunk) *mockEmbeddingStore {
	return &mockEmbeddingStore{
		chunks:     chunks,
		embeddings: make(map[int64]domain.Embedding),
	}
}

func (m *mockEmbeddingStore) EmbeddingCount(_ context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	if m.rows > 0 {
		return m.rows, nil
	}
	return int64(len(m.embeddings)), nil
}

func (m *mockEmbeddingStore) missing(modelTag string) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range m.chunks {
		if emb, ok := m.embeddings[c.ChunkID]; !ok || emb.ModelTag != modelTag {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockEmbeddingStore) CountEmbedCandidates(_ context.Context, modelTag string, force bool) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	if force {
		return int64(len(m.chunks)), nil
	}
	return int64(len(m.missing(modelTag))), nil
}

func (m *mockEmbeddingStore) ListEmbedCandidates(
	_ context.Context, modelTag string, force bool, limit int64,
) ([]domain.Chunk, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	pool := m.chunks
	if !force {
		pool = m.missing(modelTag)
	}
	if limit < int64(len(pool)) {
		pool = pool[:limit]
	}
	return pool, nil
}

func (m *mockEmbeddingStore) SampleEmbedCandidateIDs(
	ctx context.Context, modelTag string, force bool, limit int64,
) ([]int64, error) {
	chunks, err := m.ListEmbedCandidates(ctx, modelTag, force, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids, nil
}

func (m *mockEmbeddingStore) UpsertEmbedding(_ context.Context, emb domain.Embedding) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upsertCalls++
	m.embeddings[emb.ChunkID] = emb
	return nil
}

// mockEncoder implements driven.Encoder with deterministic output: every
// vector is the configured prototype. Role-distinct behaviour is not
// needed at the service layer.
type mockEncoder struct {
	dim      int
	embedErr error
	closed   bool

	passageCalls int
	queryCalls   int
}

func (m *mockEncoder) vector() []float32 {
	v := make([]float32, m.dim)
	if m.dim > 0 {
		v[0] = 1
	}
	return v
}

func (m *mockEncoder) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	m.passageCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector()
	}
	return out, nil
}

func (m *mockEncoder) EmbedQueries(_ context.Context, texts []string) ([][]float32, error) {
	m.queryCalls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.vector()
	}
	return out, nil
}

func (m *mockEncoder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedQueries(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEncoder) ModelTag() string { return "mock@onnx-cpu" }

func (m *mockEncoder) Close() error {
	m.closed = true
	return nil
}

// countingFactory tracks how often the encoder was constructed.
type countingFactory struct {
	enc    *mockEncoder
	newErr error
	calls  int
}

func (f *countingFactory) New(_ context.Context, _ domain.EncoderConfig) (driven.Encoder, error) {
	f.calls++
	if f.newErr != nil {
		return nil, f.newErr
	}
	return f.enc, nil
}

// recordingSink captures plan/result payloads.
type recordingSink struct {
	plans   []any
	results []any
	infos   []string
}

func (s *recordingSink) Plan(_ string, payload any) error {
	s.plans = append(s.plans, payload)
	return nil
}

func (s *recordingSink) Result(_ string, payload any) error {
	s.results = append(s.results, payload)
	return nil
}

func (s *recordingSink) Info(_ string, message string) {
	s.infos = append(s.infos, message)
}

// testEncoderConfig is the encoder selector used across the tests.
func testEncoderConfig() domain.EncoderConfig {
	return domain.EncoderConfig{ModelID: "intfloat/e5-small-v2", Device: domain.DeviceCPU}
}
