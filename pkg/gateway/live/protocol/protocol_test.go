package protocol

import (
	"testing"
)

func TestDecodeClientMessage_BargeIn(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"barge_in"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	if _, ok := msg.(ClientBargeIn); !ok {
		t.Fatalf("decoded type = %T, want ClientBargeIn", msg)
	}
}

func TestDecodeClientMessage_EndCall(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"end_call"}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	if _, ok := msg.(ClientEndCall); !ok {
		t.Fatalf("decoded type = %T, want ClientEndCall", msg)
	}
}

func TestDecodeClientMessage_SetLanguage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"set_language","lang":" NL "}`))
	if err != nil {
		t.Fatalf("DecodeClientMessage() error = %v", err)
	}
	sl, ok := msg.(ClientSetLanguage)
	if !ok {
		t.Fatalf("decoded type = %T, want ClientSetLanguage", msg)
	}
	if sl.Lang != "nl" {
		t.Fatalf("lang=%q, want nl", sl.Lang)
	}
}

func TestDecodeClientMessage_SetLanguageUnsupported(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"set_language","lang":"xx"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "unsupported" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_SetLanguageMissingLang(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"set_language"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "bad_request" || decErr.Param != "lang" {
		t.Fatalf("code=%q param=%q", decErr.Code, decErr.Param)
	}
}

func TestDecodeClientMessage_UnknownType(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"reboot"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "unsupported" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_InvalidJSON(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("err type = %T", err)
	}
	if decErr.Code != "bad_request" {
		t.Fatalf("code=%q", decErr.Code)
	}
}

func TestDecodeClientMessage_MissingType(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"lang":"en"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	decErr := err.(*DecodeError)
	if decErr.Param != "type" {
		t.Fatalf("param=%q", decErr.Param)
	}
}

func TestSupportedLanguage(t *testing.T) {
	for _, lang := range []string{"en", "nl", "tr", " EN "} {
		if !SupportedLanguage(lang) {
			t.Errorf("SupportedLanguage(%q) = false", lang)
		}
	}
	for _, lang := range []string{"", "de", "english"} {
		if SupportedLanguage(lang) {
			t.Errorf("SupportedLanguage(%q) = true", lang)
		}
	}
}
