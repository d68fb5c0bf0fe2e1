package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/rl1809/westock/internal/core/domain"
)

const (
	DefaultModel = "claude-3-5-haiku-latest"

	prompt = `Look at this clothing or accessory item and suggest a short product name and a category.
Output ONLY a JSON object of the form {"name": "<name>", "category": "<category>"}.
Use a single word category such as Tops, Bottoms, Dresses, Outerwear, Shoes, Bags or Accessories.`
)

var errNoJSON = errors.New("no JSON object found in response")

type messageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic asks a Claude model to name and categorize an item photo.
// It never fails: any error yields a generic suggestion.
type Anthropic struct {
	messages messageSender
	model    string
	log      *slog.Logger
}

func NewAnthropic(cfg Config, log *slog.Logger) *Anthropic {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic{
		messages: &client.Messages,
		model:    model,
		log:      log.With("adapter", "classifier"),
	}
}

func (a *Anthropic) Classify(ctx context.Context, image []byte, mimeType string) domain.Suggestion {
	s, err := a.classify(ctx, image, mimeType)
	if err != nil {
		a.log.Warn("classification failed", slog.Any("error", err))
		return domain.Suggestion{Name: DefaultName, Category: FallbackCategory}
	}
	return s
}

func (a *Anthropic) classify(ctx context.Context, image []byte, mimeType string) (domain.Suggestion, error) {
	if len(image) == 0 {
		return domain.Suggestion{}, errors.New("empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	msg, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mimeType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("llm api call: %w", err)
	}
	if len(msg.Content) == 0 {
		return domain.Suggestion{}, errors.New("empty response")
	}

	return parseSuggestion(msg.Content[0].Text)
}

// parseSuggestion reads the first JSON object in the reply. Blank fields fall
// back to the defaults.
func parseSuggestion(text string) (domain.Suggestion, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return domain.Suggestion{}, errNoJSON
	}

	var s domain.Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return domain.Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Category = strings.TrimSpace(s.Category)
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.Category == "" {
		s.Category = DefaultCategory
	}
	return s, nil
}
