package speech

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const voiceListJSON = `[
  {"Name":"Microsoft Server Speech Text to Speech Voice (en-US, AriaNeural)",
   "ShortName":"en-US-AriaNeural","Gender":"Female","Locale":"en-US",
   "SuggestedCodec":"audio-24khz-48kbitrate-mono-mp3",
   "FriendlyName":"Microsoft Aria Online (Natural) - English (United States)","Status":"GA"},
  {"Name":"Microsoft Server Speech Text to Speech Voice (en-US, ChristopherNeural)",
   "ShortName":"en-US-ChristopherNeural","Gender":"Male","Locale":"en-US",
   "SuggestedCodec":"audio-24khz-48kbitrate-mono-mp3",
   "FriendlyName":"Microsoft Christopher Online (Natural) - English (United States)","Status":"GA"}
]`

func TestListVoicesDecodesCatalogue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(voiceListJSON))
	}))
	defer server.Close()

	client := NewClient(Config{
		VoiceListURL: server.URL,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer client.Close()

	voices, err := client.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices, got %d", len(voices))
	}
	if voices[0].ShortName != "en-US-AriaNeural" || voices[0].Gender != "Female" {
		t.Fatalf("unexpected first voice: %+v", voices[0])
	}
}

func TestListVoicesRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(voiceListJSON))
	}))
	defer server.Close()

	client := NewClient(Config{
		VoiceListURL:       server.URL,
		VoicesRetries:      2,
		VoicesRetryBackoff: 10 * time.Millisecond,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer client.Close()

	voices, err := client.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("expected 2 voices after retry, got %d", len(voices))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}
