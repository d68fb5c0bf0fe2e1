package classifier

import (
	"context"
	"log/slog"

	"github.com/rl1809/westock/internal/core/domain"
	"github.com/rl1809/westock/internal/port"
)

const (
	DefaultName     = "Unnamed item"
	DefaultCategory = "Uncategorized"

	// FallbackCategory is suggested when the model call fails.
	FallbackCategory = "Misc"

	minAPIKeyLength = 10
)

type Config struct {
	APIKey string
	Model  string
}

// Placeholder suggests fixed values; used when no API key is configured.
type Placeholder struct{}

func (Placeholder) Classify(ctx context.Context, image []byte, mimeType string) domain.Suggestion {
	return domain.Suggestion{Name: DefaultName, Category: DefaultCategory}
}

// New returns the Anthropic-backed classifier, or the placeholder when the
// key is missing or obviously not a real key.
func New(cfg Config, log *slog.Logger) port.ImageClassifier {
	if len(cfg.APIKey) < minAPIKeyLength {
		log.Info("classifier api key not set, using placeholder suggestions")
		return Placeholder{}
	}
	return NewAnthropic(cfg, log)
}
