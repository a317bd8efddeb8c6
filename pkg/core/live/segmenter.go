package live

import (
	"fmt"
	"sync"
	"time"
)

type segmenterPhase int

const (
	segIdle segmenterPhase = iota
	segConfirming
	segInSpeech
)

// Segmenter is an energy-gate voice activity detector. Frames below the
// energy floor are silence; a run of consecutive speech frames opens an
// utterance, which closes on sustained trailing silence or the length cap.
//
// Pre-roll audio captured while idle is prepended to each utterance so the
// first syllable survives the confirmation delay.
type Segmenter struct {
	config SegmenterConfig
	audio  AudioConfig

	mu         sync.Mutex
	phase      segmenterPhase
	preroll    *RingBuffer
	pending    []byte // frames seen while confirming
	confirmRun int
	buf        []byte
	utterMs    int
	silenceMs  int
	muteUntil  time.Time

	now func() time.Time

	// Callbacks
	onSegment func(pcm []byte, durationMs int, forced bool)
	onDebug   func(category, message string)
}

// NewSegmenter creates a segmenter. The startup mute window begins now.
func NewSegmenter(config SegmenterConfig, audio AudioConfig) *Segmenter {
	s := &Segmenter{
		config:  config,
		audio:   audio,
		preroll: NewRingBuffer(audio, config.PrerollMs),
		now:     time.Now,
	}
	s.muteUntil = s.now().Add(time.Duration(config.StartupIgnoreMs) * time.Millisecond)
	return s
}

// SetCallbacks sets the event callbacks.
func (s *Segmenter) SetCallbacks(
	onSegment func(pcm []byte, durationMs int, forced bool),
	onDebug func(category, message string),
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSegment = onSegment
	s.onDebug = onDebug
}

// Feed processes one PCM frame. Called from the session audio loop.
func (s *Segmenter) Feed(frame []byte) {
	if len(frame) == 0 {
		return
	}

	s.mu.Lock()
	if s.now().Before(s.muteUntil) {
		s.mu.Unlock()
		return
	}

	energy := CalculateRMSEnergy(frame)
	speech := energy >= s.config.EnergyFloor

	var emitPCM []byte
	var emitMs int
	var emitForced bool

	switch s.phase {
	case segIdle:
		if !speech {
			s.preroll.Write(frame)
			break
		}
		s.pending = append(s.pending[:0], frame...)
		s.confirmRun = 1
		s.phase = segConfirming
		if s.confirmRun >= s.config.SpeechConfirmFrames {
			s.openUtterance()
		}

	case segConfirming:
		if !speech {
			// False start: push the held frames back into pre-roll.
			s.preroll.Write(s.pending)
			s.preroll.Write(frame)
			s.pending = s.pending[:0]
			s.confirmRun = 0
			s.phase = segIdle
			break
		}
		s.pending = append(s.pending, frame...)
		s.confirmRun++
		if s.confirmRun >= s.config.SpeechConfirmFrames {
			s.openUtterance()
		}

	case segInSpeech:
		s.buf = append(s.buf, frame...)
		s.utterMs += s.config.FrameMs
		if speech {
			s.silenceMs = 0
		} else {
			s.silenceMs += s.config.FrameMs
		}

		if s.utterMs >= s.config.MaxUtteranceMs {
			emitMs = s.utterMs
			emitPCM, emitForced = s.closeUtterance(), true
			break
		}
		if s.silenceMs >= s.config.SilenceEndMs {
			spokenMs := s.utterMs - s.silenceMs
			if spokenMs >= s.config.MinUtteranceMs {
				emitMs = s.utterMs
				emitPCM = s.closeUtterance()
			} else {
				s.debug("SEG", fmt.Sprintf("discarded short utterance (%dms spoken)", spokenMs))
				s.closeUtterance()
			}
		}
	}

	onSegment := s.onSegment
	s.mu.Unlock()

	if emitPCM != nil && onSegment != nil {
		onSegment(emitPCM, emitMs, emitForced)
	}
}

// openUtterance seeds the buffer with pre-roll plus the confirmed frames.
// Caller holds the lock.
func (s *Segmenter) openUtterance() {
	pre := s.preroll.Read()
	s.buf = append(s.buf[:0], pre...)
	s.buf = append(s.buf, s.pending...)
	s.utterMs = s.config.FrameMs * s.confirmRun
	s.silenceMs = 0
	s.pending = s.pending[:0]
	s.confirmRun = 0
	s.preroll.Clear()
	s.phase = segInSpeech
	s.debug("SEG", fmt.Sprintf("utterance opened (%d bytes pre-roll)", len(pre)))
}

// closeUtterance returns the finished buffer and resets all gate state.
// Caller holds the lock.
func (s *Segmenter) closeUtterance() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	s.buf = s.buf[:0]
	s.utterMs = 0
	s.silenceMs = 0
	s.confirmRun = 0
	s.pending = s.pending[:0]
	s.preroll.Clear()
	s.phase = segIdle
	return out
}

// Reset drops all gate state including any open utterance.
func (s *Segmenter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeUtterance()
}

// InSpeech reports whether an utterance is currently open.
func (s *Segmenter) InSpeech() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == segInSpeech
}

func (s *Segmenter) debug(category, message string) {
	if s.onDebug != nil {
		go s.onDebug(category, message)
	}
}
