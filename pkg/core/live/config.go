package live

// SessionState represents the current state of the live session.
type SessionState int

const (
	// StateConfiguring is the initial state before the session is started.
	StateConfiguring SessionState = iota
	// StateListening is when the segmenter is capturing user speech.
	StateListening
	// StateProcessing is when a turn is being transcribed and answered.
	StateProcessing
	// StateSpeaking is when synthesized audio is being streamed out.
	StateSpeaking
	// StateClosed is when the session has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateConfiguring:
		return "CONFIGURING"
	case StateListening:
		return "LISTENING"
	case StateProcessing:
		return "PROCESSING"
	case StateSpeaking:
		return "SPEAKING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SegmenterConfig tunes the energy-gate voice activity detector.
type SegmenterConfig struct {
	// FrameMs is the expected duration of each inbound PCM frame.
	FrameMs int `json:"frame_ms"`

	// EnergyFloor is the normalized RMS level at or above which a frame
	// counts as speech. Range 0.0 to 1.0.
	EnergyFloor float64 `json:"energy_floor"`

	// SpeechConfirmFrames is how many consecutive speech frames are needed
	// before an utterance opens. Filters out clicks and breath noise.
	SpeechConfirmFrames int `json:"speech_confirm_frames"`

	// PrerollMs is how much pre-speech audio is kept and prepended to each
	// utterance so the first syllable is not clipped.
	PrerollMs int `json:"preroll_ms"`

	// MinUtteranceMs is the minimum utterance length. Shorter utterances
	// are discarded at silence end.
	MinUtteranceMs int `json:"min_utterance_ms"`

	// SilenceEndMs is the trailing silence that closes an utterance.
	SilenceEndMs int `json:"silence_end_ms"`

	// MaxUtteranceMs force-closes an utterance regardless of silence.
	MaxUtteranceMs int `json:"max_utterance_ms"`

	// StartupIgnoreMs mutes the gate right after connect, when line noise
	// and greeting echo are common.
	StartupIgnoreMs int `json:"startup_ignore_ms"`
}

// DefaultSegmenterConfig returns the standard telephone-audio tuning.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		FrameMs:             20,
		EnergyFloor:         0.006,
		SpeechConfirmFrames: 3,
		PrerollMs:           240,
		MinUtteranceMs:      900,
		SilenceEndMs:        650,
		MaxUtteranceMs:      20000,
		StartupIgnoreMs:     1500,
	}
}

// AssemblerConfig tunes the pause-merge window that groups segments into
// one logical turn.
type AssemblerConfig struct {
	// PauseMergeMs is the normal wait for a follow-on segment.
	PauseMergeMs int `json:"pause_merge_ms"`

	// PauseMergeFragmentMs is the longer wait used while the held audio is
	// still short. Short fragments are usually mid-sentence.
	PauseMergeFragmentMs int `json:"pause_merge_fragment_ms"`

	// FragmentMaxBytes is the held-buffer size at or below which the
	// fragment window applies.
	FragmentMaxBytes int `json:"fragment_max_bytes"`
}

// DefaultAssemblerConfig returns the standard merge windows.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		PauseMergeMs:         1800,
		PauseMergeFragmentMs: 3200,
		FragmentMaxBytes:     16000,
	}
}

// BargeInConfig tunes interruption of in-flight speech output.
type BargeInConfig struct {
	// Enabled turns server-side energy barge-in on or off. Client control
	// messages always work.
	Enabled bool `json:"enabled"`

	// RMSThreshold is the raw 16-bit RMS level that triggers a barge-in
	// while the agent is speaking.
	RMSThreshold float64 `json:"rms_threshold"`

	// DebounceMs ignores repeat triggers within this window.
	DebounceMs int `json:"debounce_ms"`
}

// DefaultBargeInConfig returns the standard barge-in tuning.
func DefaultBargeInConfig() BargeInConfig {
	return BargeInConfig{
		Enabled:      true,
		RMSThreshold: 450.0,
		DebounceMs:   250,
	}
}

// LivenessConfig tunes idle detection and reprompting.
type LivenessConfig struct {
	// CheckIntervalMs is how often idleness is evaluated.
	CheckIntervalMs int `json:"check_interval_ms"`

	// IdleSec is the silence (from the last anchor) that triggers a
	// reprompt. Values below MinIdleSec are clamped.
	IdleSec int `json:"idle_sec"`

	// ConnectGraceSec suppresses prompts right after connect.
	ConnectGraceSec int `json:"connect_grace_sec"`

	// MaxPrompts is how many unanswered reprompts end the call.
	MaxPrompts int `json:"max_prompts"`
}

// MinIdleSec is the floor for LivenessConfig.IdleSec.
const MinIdleSec = 25

// DefaultLivenessConfig returns the standard liveness tuning.
func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{
		CheckIntervalMs: 1000,
		IdleSec:         28,
		ConnectGraceSec: 10,
		MaxPrompts:      2,
	}
}

// SessionConfig holds all configuration for a live session.
type SessionConfig struct {
	Audio     AudioConfig     `json:"audio"`
	Segmenter SegmenterConfig `json:"segmenter"`
	Assembler AssemblerConfig `json:"assembler"`
	BargeIn   BargeInConfig   `json:"barge_in"`
	Liveness  LivenessConfig  `json:"liveness"`

	// EventBuffer is the capacity of the session event channel.
	EventBuffer int `json:"event_buffer"`
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Audio:       DefaultAudioConfig(),
		Segmenter:   DefaultSegmenterConfig(),
		Assembler:   DefaultAssemblerConfig(),
		BargeIn:     DefaultBargeInConfig(),
		Liveness:    DefaultLivenessConfig(),
		EventBuffer: 256,
	}
}

// AudioConfig specifies audio format parameters.
type AudioConfig struct {
	// SampleRate in Hz. Telephony input runs at 16000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultAudioConfig returns the standard audio configuration.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:    16000,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// BytesPerSecond returns the audio byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c AudioConfig) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c AudioConfig) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}
