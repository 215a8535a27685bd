package domain

// DefaultPlanLimit is how many candidate chunk IDs an embed plan samples.
const DefaultPlanLimit = 10

// EmbedRequest describes one embedding job invocation.
type EmbedRequest struct {
	// Encoder selects the model producing the vectors.
	Encoder EncoderConfig

	// Dim is the expected output dimension. Vectors of any other
	// dimension abort the job before writing.
	Dim int

	// Batch is how many chunks are encoded per inference call.
	Batch int

	// Max caps the number of chunks processed, 0 for no cap.
	Max int64

	// Force re-embeds every chunk instead of only the ones missing an
	// embedding under the model tag.
	Force bool

	// PlanLimit is how many sample chunk IDs a plan reports.
	PlanLimit int
}

// EmbedPlan reports what an embedding job would do, without loading the
// model or touching the store's write path.
type EmbedPlan struct {
	// ModelTag is the tag the job would write under.
	ModelTag string `json:"model"`

	// Dim is the expected vector dimension.
	Dim int `json:"dim"`

	// Batch is the inference batch size.
	Batch int `json:"batch"`

	// Force indicates a full re-embed.
	Force bool `json:"force"`

	// Candidates is the total number of chunks the job would consider.
	Candidates int64 `json:"candidates"`

	// Planned is min(Candidates, Max): the number actually processed.
	Planned int64 `json:"planned"`

	// SampleChunkIDs are the first few affected chunk IDs.
	SampleChunkIDs []int64 `json:"sample_chunk_ids"`
}

// EmbedResult reports an executed embedding job.
type EmbedResult struct {
	// TotalEmbedded is the number of chunks embedded and upserted.
	TotalEmbedded int64 `json:"total_embedded"`
}
