package domain

// IngestRequest carries the caller's free text, an uploaded file, or both
type IngestRequest struct {
	Text string
	File *RawDocument
}

// HasInput reports whether there is anything to ingest
func (r IngestRequest) HasInput() bool {
	return hasText(r.Text) || r.File != nil
}

func hasText(s string) bool {
	for _, c := range s {
		switch c {
		case ' ', '\n', '\r', '\t', '\b', '\v', '\f':
		default:
			return true
		}
	}
	return false
}

// IngestStatusSuccess is the only status an IngestResult is returned with;
// failures are reported as errors.
const IngestStatusSuccess = "success"

// IngestResult summarises a completed ingestion
type IngestResult struct {
	Status      string   `json:"status" example:"success"`
	ChunksSaved int      `json:"chunks_saved" example:"3"`
	Chunks      []string `json:"chunks"`
}
