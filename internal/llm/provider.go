package llm

import "context"

// DraftProvider defines the two drafting operations the workflow can request.
// Both are single-shot calls; the provider keeps no state between them.
type DraftProvider interface {
	GenerateFromBrief(ctx context.Context, req ComposeRequest) (string, error)
	ImproveExisting(ctx context.Context, req ImproveRequest) (string, error)
}

// Tone labels the voice the model should write in.
type Tone string

const (
	ToneFriendly     Tone = "Friendly"
	ToneProfessional Tone = "Professional"
	ToneFormal       Tone = "Formal"
	ToneCasual       Tone = "Casual"
	ToneApologetic   Tone = "Apologetic"
	ToneUrgent       Tone = "Urgent"
	TonePromotional  Tone = "Promotional"
	ToneCustom       Tone = "Custom" // valid only when generating from a brief
)

// ComposeTones lists the tones selectable for brief-driven generation.
func ComposeTones() []Tone {
	return []Tone{ToneFriendly, ToneProfessional, ToneFormal, ToneCasual, ToneApologetic, ToneUrgent, TonePromotional, ToneCustom}
}

// ImproveTones is ComposeTones without Custom.
func ImproveTones() []Tone {
	return []Tone{ToneFriendly, ToneProfessional, ToneFormal, ToneCasual, ToneApologetic, ToneUrgent, TonePromotional}
}

// ComposeRequest is the immutable input to a generate-from-brief call,
// constructed fresh per attempt.
type ComposeRequest struct {
	Brief     string
	Tone      Tone
	Extras    string
	WantEmoji bool
}

// ImproveRequest is the immutable input to an improve-existing call.
type ImproveRequest struct {
	Original string
	Tone     Tone
	Shorten  bool
}
