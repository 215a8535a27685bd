package domain

import "time"

// Query defaults mirroring the CLI flag defaults.
const (
	DefaultTopN   = 100
	DefaultTopK   = 6
	DefaultDocCap = 2
)

// QueryRequest describes one retrieval invocation.
type QueryRequest struct {
	// Query is the user question to search for.
	Query string

	// TopN is the candidate pool size fetched from the ANN index.
	// Deliberately larger than TopK to leave room for deduplication.
	TopN int64

	// TopK is the final number of results returned.
	TopK int

	// DocCap is the maximum results sharing one document.
	DocCap int

	// Probes overrides the ivfflat probe count when > 0.
	// When 0, probes are derived from the index's lists parameter.
	Probes int

	// FeedID restricts results to one source feed when > 0.
	FeedID int64

	// Since restricts results to documents fetched at or after this
	// time. Zero means no freshness filter.
	Since time.Time

	// IncludePreview requests a short text preview per result.
	IncludePreview bool

	// IncludeText requests the full chunk text per result.
	IncludeText bool

	// Encoder selects the embedding model for the query vector.
	Encoder EncoderConfig
}

// CandidateRow is a raw ANN hit before post-filtering.
type CandidateRow struct {
	// ChunkID is the matched chunk.
	ChunkID int64

	// DocID is the chunk's parent document.
	DocID int64

	// Title is the parent document's title, if any.
	Title string

	// Distance is the cosine distance to the query vector (lower is closer).
	Distance float32

	// Preview is a short excerpt of the chunk text, when requested.
	Preview string

	// Text is the full chunk text, when requested.
	Text string
}

// ResultRow is a ranked, per-document-capped retrieval result.
type ResultRow struct {
	// Rank is the 1-based, contiguous output position.
	Rank int `json:"rank"`

	// Distance is the cosine distance of the hit.
	Distance float32 `json:"distance"`

	// ChunkID is the matched chunk.
	ChunkID int64 `json:"chunk_id"`

	// DocID is the chunk's parent document.
	DocID int64 `json:"doc_id"`

	// Title is the parent document's title, if any.
	Title string `json:"title,omitempty"`

	// Preview is a short excerpt, when requested.
	Preview string `json:"preview,omitempty"`

	// Text is the full chunk text, when requested.
	Text string `json:"text,omitempty"`
}

// QueryOutcome is the result of one retrieval invocation.
type QueryOutcome struct {
	// Rows are the ranked results, at most TopK of them.
	Rows []ResultRow `json:"rows"`

	// Probes is the effective ivfflat probe count used for the search,
	// 0 when no probe setting was applied (no index metadata available).
	Probes int `json:"probes"`
}

// CapByDocument walks candidates in distance order, skipping any candidate
// whose document already contributed docCap rows, and assigns contiguous
// 1-based ranks until topk rows are accepted. Ties in distance keep their
// original candidate order; there is no secondary sort key.
func CapByDocument(candidates []CandidateRow, topk, docCap int) []ResultRow {
	rows := make([]ResultRow, 0, min(topk, len(candidates)))
	if topk <= 0 || docCap <= 0 {
		return rows
	}

	perDoc := make(map[int64]int)
	for _, cand := range candidates {
		if perDoc[cand.DocID] >= docCap {
			continue
		}
		perDoc[cand.DocID]++
		rows = append(rows, ResultRow{
			Rank:     len(rows) + 1,
			Distance: cand.Distance,
			ChunkID:  cand.ChunkID,
			DocID:    cand.DocID,
			Title:    cand.Title,
			Preview:  cand.Preview,
			Text:     cand.Text,
		})
		if len(rows) >= topk {
			break
		}
	}

	return rows
}
