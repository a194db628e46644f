package domain

// Payload is the metadata stored alongside each vector.
// ID mirrors the point id so search results are self-describing.
type Payload struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	Part   *int   `json:"part,omitempty"`
}

// Point is a stored vector. Points are immutable once written.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector,omitempty"`
	Payload Payload   `json:"payload"`
}

// ScoredPoint is a similarity search hit
type ScoredPoint struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	Payload Payload `json:"payload"`
}

// PointFilter restricts a search to one owner
type PointFilter struct {
	UserID string
}

// UserFilter builds the owner filter used on every caller-facing query
func UserFilter(userID string) *PointFilter {
	return &PointFilter{UserID: userID}
}

// Matches reports whether a payload passes the filter. A nil filter matches
// everything; a filter with no owner matches nothing.
func (f *PointFilter) Matches(p Payload) bool {
	if f == nil {
		return true
	}
	return f.UserID != "" && p.UserID == f.UserID
}
