package port

import (
	"context"

	"github.com/rl1809/westock/internal/core/domain"
)

type ImageClassifier interface {
	// Classify suggests a name and category for an item photo. It always
	// returns a usable suggestion; failures degrade to a placeholder.
	Classify(ctx context.Context, image []byte, mimeType string) domain.Suggestion
}
