// Package intent defines the contract with the external free-text intent
// classifier.
package intent

import "context"

// Classification is the classifier's verdict for one message.
type Classification struct {
	Name       string   `json:"intent_name"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Unclear is the reserved intent name for messages the classifier could not
// place. An unclear classification never counts as a topic shift.
const Unclear = "unclear"

// Classifier is the intent-classification collaborator.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}
