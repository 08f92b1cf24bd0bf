package study

import (
	"context"

	"github.com/example/engcards/pkg/models"
)

const (
	DefaultLocale = "en-US"
	DefaultRate   = 0.9
)

// Voice holds the text-to-speech settings used when reading items aloud
type Voice struct {
	Locale string
	Rate   float64
}

// DefaultVoice returns the default speech settings
func DefaultVoice() Voice {
	return Voice{Locale: DefaultLocale, Rate: DefaultRate}
}

// SpeechOutput reads text aloud
type SpeechOutput interface {
	Speak(ctx context.Context, text, locale string, rate float64) error
}

// SpeechInput streams recognised speech
type SpeechInput interface {
	StartSession(ctx context.Context) (<-chan TranscriptEvent, error)
}

// TranscriptEvent is one partial or final recognition result
type TranscriptEvent struct {
	Text  string
	Final bool
}

// NopSpeech is used where no speech capability exists.
// Both directions report models.ErrUnsupportedEnvironment.
type NopSpeech struct{}

func (NopSpeech) Speak(context.Context, string, string, float64) error {
	return models.ErrUnsupportedEnvironment
}

func (NopSpeech) StartSession(context.Context) (<-chan TranscriptEvent, error) {
	return nil, models.ErrUnsupportedEnvironment
}

// Collect drains a transcript stream and returns the final text.
// If the stream closes without a final event the last partial text is returned.
func Collect(ctx context.Context, events <-chan TranscriptEvent) (string, error) {
	var last string
	for {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return last, nil
			}
			last = ev.Text
			if ev.Final {
				return ev.Text, nil
			}
		}
	}
}
