package speech

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig selects the models and voices for the Gemini adapter.
type GeminiConfig struct {
	APIKey        string
	STTModel      string
	ChatModel     string
	TTSModel      string
	Voice         string
	SampleRateHz  int
	TTSChunkBytes int
	STTPrompt     string
}

// DefaultGeminiConfig returns the standard model selection.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		STTModel:      "gemini-2.5-flash",
		ChatModel:     "gemini-2.5-flash",
		TTSModel:      "gemini-2.5-flash-preview-tts",
		Voice:         "Kore",
		SampleRateHz:  16000,
		TTSChunkBytes: 12000,
		STTPrompt:     "Transcribe the spoken audio verbatim. Output only the transcript text.",
	}
}

// Gemini implements STTClient, ChatClient and TTSClient on the Gemini API.
type Gemini struct {
	client *genai.Client
	config GeminiConfig
}

// NewGemini builds the adapter.
func NewGemini(ctx context.Context, config GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if config.TTSChunkBytes <= 0 {
		config.TTSChunkBytes = 12000
	}
	return &Gemini{client: client, config: config}, nil
}

// Transcribe sends raw PCM to the STT model. A non-empty langHint pins the
// transcription language; empty lets the model auto-detect.
func (g *Gemini) Transcribe(ctx context.Context, pcm []byte, langHint string) (string, error) {
	prompt := g.config.STTPrompt
	if langHint != "" {
		prompt += " The speaker is using language: " + langHint + "."
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(pcm, fmt.Sprintf("audio/pcm;rate=%d", g.config.SampleRateHz)),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.config.STTModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini stt: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// Complete runs the agent fallback model.
func (g *Gemini) Complete(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.config.ChatModel, genai.Text(user), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	return resp.Text(), nil
}

// Speak synthesizes text and emits fixed-size PCM chunks. Emission stops as
// soon as ctx is cancelled so barge-in cuts audio quickly.
func (g *Gemini) Speak(ctx context.Context, text, lang string, emit func(chunk []byte) error) error {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.config.Voice},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.config.TTSModel, genai.Text(text), cfg)
	if err != nil {
		return fmt.Errorf("gemini tts: %w", err)
	}

	var audio []byte
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil {
				audio = append(audio, part.InlineData.Data...)
			}
		}
	}
	if len(audio) == 0 {
		return fmt.Errorf("gemini tts: empty audio for %q", truncate(text, 40))
	}

	chunk := g.config.TTSChunkBytes
	for off := 0; off < len(audio); off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + chunk
		if end > len(audio) {
			end = len(audio)
		}
		if err := emit(audio[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
