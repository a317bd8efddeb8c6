package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedact_Email(t *testing.T) {
	got := Redact("send the receipt to jan.devries@example.com please")
	require.Equal(t, "send the receipt to [email] please", got)
}

func TestRedact_Phone(t *testing.T) {
	got := Redact("call me on +31 6 1234 5678 after five")
	require.NotContains(t, got, "1234")
	require.Contains(t, got, "[phone]")
}

func TestRedact_LongDigitRun(t *testing.T) {
	got := Redact("order 98765 is ready")
	require.Equal(t, "order [digits] is ready", got)
}

func TestRedact_ShortDigitsKept(t *testing.T) {
	got := Redact("table 12 wants 3 colas")
	require.Equal(t, "table 12 wants 3 colas", got)
}

func TestRedact_TruncatesLongText(t *testing.T) {
	in := strings.Repeat("a", 150)
	got := Redact(in)
	require.Equal(t, strings.Repeat("a", 48)+" … "+strings.Repeat("a", 48), got)
}

func TestRedact_Empty(t *testing.T) {
	require.Equal(t, "", Redact(""))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(Event{Kind: "session_started", SessionID: "s1"})
}
