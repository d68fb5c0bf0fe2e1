package classifier

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/westock/internal/core/domain"
)

type stubSender struct {
	reply string
	err   error
	calls int
}

func (s *stubSender) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.Message{Content: []anthropic.ContentBlockUnion{{Type: "text", Text: s.reply}}}, nil
}

func newStubbed(sender *stubSender) *Anthropic {
	return &Anthropic{messages: sender, model: DefaultModel, log: slog.New(slog.DiscardHandler)}
}

func TestNew_ShortKeyUsesPlaceholder(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	c := New(Config{APIKey: "abc"}, log)
	_, ok := c.(Placeholder)
	require.True(t, ok)
	assert.Equal(t, domain.Suggestion{Name: DefaultName, Category: DefaultCategory},
		c.Classify(context.Background(), []byte{1}, "image/png"))

	_, ok = New(Config{APIKey: "sk-ant-0123456789"}, log).(*Anthropic)
	assert.True(t, ok)
}

func TestAnthropic_ParsesReply(t *testing.T) {
	sender := &stubSender{reply: "Sure!\n{\"name\": \" Linen Shirt \", \"category\": \"Tops\"}\n"}
	got := newStubbed(sender).Classify(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")

	assert.Equal(t, domain.Suggestion{Name: "Linen Shirt", Category: "Tops"}, got)
	assert.Equal(t, 1, sender.calls)
}

func TestAnthropic_FallsBack(t *testing.T) {
	want := domain.Suggestion{Name: DefaultName, Category: FallbackCategory}

	for name, sender := range map[string]*stubSender{
		"api error": {err: errors.New("overloaded")},
		"no json":   {reply: "I cannot tell."},
		"bad json":  {reply: "{name: Shirt}"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, newStubbed(sender).Classify(context.Background(), []byte{1}, ""))
		})
	}

	empty := &stubSender{}
	assert.Equal(t, want, newStubbed(empty).Classify(context.Background(), nil, "image/png"))
	assert.Zero(t, empty.calls)
}

func TestParseSuggestion_BlankFields(t *testing.T) {
	s, err := parseSuggestion(`{"name": "", "category": ""}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Suggestion{Name: DefaultName, Category: DefaultCategory}, s)
}
