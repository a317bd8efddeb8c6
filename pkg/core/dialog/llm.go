package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChatClient is the agent fallback. Implementations are expected to be slow
// and unreliable compared to the deterministic path; calls always carry the
// turn context so cancellation propagates.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AgentItem is one cart mutation proposed by the model.
type AgentItem struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// AgentReply is the strict JSON contract for fallback responses.
type AgentReply struct {
	Reply  string      `json:"reply"`
	Add    []AgentItem `json:"add"`
	Remove []string    `json:"remove"`
}

// ParseAgentReply decodes the model output, tolerating code fences and
// leading prose around the JSON object.
func ParseAgentReply(raw string) (AgentReply, error) {
	var out AgentReply
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return out, fmt.Errorf("agent reply has no JSON object: %.80q", raw)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return out, fmt.Errorf("decode agent reply: %w", err)
	}
	if strings.TrimSpace(out.Reply) == "" {
		return out, fmt.Errorf("agent reply missing text")
	}
	return out, nil
}

// sanitizeAgentReply enforces the removal rule: the model may only remove
// when the user explicitly asked. Unrequested removals are dropped.
func sanitizeAgentReply(reply AgentReply, userText string) AgentReply {
	if len(reply.Remove) > 0 && !DetectExplicitRemove(userText) {
		reply.Remove = nil
	}
	for i := range reply.Add {
		if reply.Add[i].Qty <= 0 {
			reply.Add[i].Qty = 1
		}
		if reply.Add[i].Qty > 10 {
			reply.Add[i].Qty = 10
		}
	}
	return reply
}
