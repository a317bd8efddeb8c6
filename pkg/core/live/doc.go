// Package live implements the real-time turn-based voice conversation
// runtime for OrderVox.
//
// # Architecture
//
// The package provides the core components of the audio pipeline:
//
//   - Session: the orchestrator that coordinates the full pipeline
//   - Segmenter: energy-gate VAD that cuts inbound audio into utterances
//   - TurnAssembler: merges closely spaced utterances into one logical turn
//   - BargeInCoordinator: cuts agent speech when the caller talks over it
//   - LivenessSupervisor: reprompts on dead air and expires stale sessions
//
// # Data Flow
//
//	Audio In → Segmenter → TurnAssembler → STT → Dialog → TTS → Audio Out
//
// Turn handling is last-turn-wins: a new captured segment cancels in-flight
// transcription or dialog work, and the superseded transcript is prepended
// to the next dispatched turn.
//
// # State Machine
//
// The session progresses through these states:
//
//	CONFIGURING → LISTENING → PROCESSING → SPEAKING
//	                  ↑                        │
//	                  └──────(barge-in)────────┘
//
// # Usage
//
//	cfg := live.DefaultSessionConfig()
//	session := live.NewSession(cfg, sttClient, ttsClient, engine)
//	session.Start(ctx)
//
//	// Send audio chunks
//	session.SendAudio(pcmData)
//
//	// Receive events
//	for event := range session.Events() {
//	    switch e := event.(type) {
//	    case *live.TranscriptFinalEvent:
//	        fmt.Println("User said:", e.Transcript)
//	    case *live.AudioDeltaEvent:
//	        playAudio(e.Data)
//	    }
//	}
package live
