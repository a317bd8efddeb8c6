// Package protocol defines the websocket wire messages for /v1/live.
//
// Caller audio arrives as raw binary frames (PCM s16le, 16 kHz, mono) and
// synthesized agent audio leaves the same way. Everything else, in both
// directions, is a JSON text frame with a "type" discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Client message types.
const (
	TypeBargeIn      = "barge_in"
	TypeEndCall      = "end_call"
	TypeHeartbeatAck = "heartbeat_ack"
	TypeSetLanguage  = "set_language"
)

// Server message types.
const (
	TypeSessionReady    = "session_ready"
	TypeUserText        = "user_text"
	TypeAgentText       = "agent_text"
	TypeThinking        = "thinking"
	TypeClearThinking   = "clear_thinking"
	TypeTTSEnd          = "tts_end"
	TypeClearAudioQueue = "clear_audio_queue"
	TypeHeartbeat       = "heartbeat"
	TypeError           = "error"
	TypeBye             = "bye"
)

var supportedLanguages = map[string]struct{}{
	"en": {},
	"nl": {},
	"tr": {},
}

// SupportedLanguage reports whether lang may be requested via set_language.
func SupportedLanguage(lang string) bool {
	_, ok := supportedLanguages[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// ClientBargeIn asks the server to cut in-flight agent speech.
type ClientBargeIn struct {
	Type string `json:"type"`
}

// ClientEndCall asks the server to say goodbye and hang up.
type ClientEndCall struct {
	Type string `json:"type"`
}

// ClientHeartbeatAck answers a server heartbeat.
type ClientHeartbeatAck struct {
	Type string `json:"type"`
}

// ClientSetLanguage pins the conversation language.
type ClientSetLanguage struct {
	Type string `json:"type"`
	Lang string `json:"lang"`
}

// DecodeClientMessage parses one JSON control frame from the client.
func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case TypeBargeIn:
		return ClientBargeIn{Type: TypeBargeIn}, nil
	case TypeEndCall:
		return ClientEndCall{Type: TypeEndCall}, nil
	case TypeHeartbeatAck:
		return ClientHeartbeatAck{Type: TypeHeartbeatAck}, nil
	case TypeSetLanguage:
		var msg ClientSetLanguage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid set_language", "")
		}
		msg.Lang = strings.ToLower(strings.TrimSpace(msg.Lang))
		if msg.Lang == "" {
			return nil, badRequest("set_language.lang is required", "lang")
		}
		if !SupportedLanguage(msg.Lang) {
			return nil, unsupported("unsupported language", "lang")
		}
		return msg, nil
	default:
		return nil, unsupported("unsupported message type", "type")
	}
}

// ServerSessionReady is the first frame after a successful upgrade.
type ServerSessionReady struct {
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
	SampleRateHz int    `json:"sample_rate_hz"`
	Channels     int    `json:"channels"`
	Lang         string `json:"lang"`
}

// ServerUserText carries the final transcript of one caller turn.
type ServerUserText struct {
	Type    string `json:"type"`
	TurnID  string `json:"turn_id"`
	Text    string `json:"text"`
	Retried bool   `json:"retried,omitempty"`
}

// ServerAgentText carries the text of a spoken agent reply.
type ServerAgentText struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`
	Text   string `json:"text"`
	Lang   string `json:"lang,omitempty"`
	Source string `json:"source,omitempty"`
}

// ServerThinking signals that a caller turn entered processing.
type ServerThinking struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`
}

// ServerClearThinking retracts a thinking indicator, as after a
// superseded turn.
type ServerClearThinking struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`
}

// ServerTTSEnd marks the end of synthesized audio for one reply. The
// audio itself travels as binary frames before this marker.
type ServerTTSEnd struct {
	Type   string `json:"type"`
	TurnID string `json:"turn_id,omitempty"`
}

// ServerClearAudioQueue tells the client to discard buffered playback.
type ServerClearAudioQueue struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}

// ServerHeartbeat is a periodic liveness prompt the client should ack.
type ServerHeartbeat struct {
	Type string `json:"type"`
	Seq  int    `json:"seq"`
}

// ServerError reports a session-scope failure.
type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Close   bool   `json:"close,omitempty"`
}

// ServerBye is the last frame before the server closes the socket.
type ServerBye struct {
	Type   string `json:"type"`
	Reason string `json:"reason,omitempty"`
}
