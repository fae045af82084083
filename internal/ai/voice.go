package ai

import "math/rand/v2"

// Voices are the speech voices offered by the speech model
var Voices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// VoiceSelector picks the voice for one narration
type VoiceSelector interface {
	Voice() string
}

// RandomVoices draws uniformly from Voices on every call
type RandomVoices struct{}

func (RandomVoices) Voice() string {
	return Voices[rand.IntN(len(Voices))]
}

// FixedVoice always returns the same voice
type FixedVoice string

func (v FixedVoice) Voice() string {
	return string(v)
}
