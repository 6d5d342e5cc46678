// Package retrieval defines the contract with the external knowledge
// retrieval service. The decision core only consumes scored candidates; it
// never performs retrieval itself.
package retrieval

import "context"

// Candidate is one scored knowledge document returned by the retrieval
// service. Immutable once received.
type Candidate struct {
	Similarity float64  `json:"similarity"`
	Keywords   []string `json:"keywords"`
	Content    string   `json:"content"`
}

// Searcher is the retrieval collaborator. Implementations are expected to
// return candidates ranked by similarity, best first.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Candidate, error)
}
