package speech

import (
	"bytes"
	"strings"
	"testing"
)

func testAudioFrame(id string, payload []byte) []byte {
	header := "X-RequestId:" + id + "\r\nContent-Type:audio/mpeg\r\nPath:audio\r\n"
	return append([]byte(header), payload...)
}

func testTerminalFrame(id string) []byte {
	// Real terminal frames begin with the two-byte header length
	// followed by the header text, which is what the marker matches.
	frame := []byte{0x00, 0x67}
	frame = append(frame, []byte("X-RequestId:"+id+"\r\nPath:turn.end\r\n\r\n{}")...)
	return frame
}

func TestParseInboundAudioFrame(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04}
	frame := parseInbound(testAudioFrame("abc123", payload))

	if frame.terminal {
		t.Fatalf("audio frame misread as terminal")
	}
	if frame.id != "abc123" {
		t.Fatalf("expected id abc123, got %q", frame.id)
	}
	if !bytes.Equal(frame.payload, payload) {
		t.Fatalf("payload mismatch: %v", frame.payload)
	}
}

func TestParseInboundTerminalFrame(t *testing.T) {
	frame := parseInbound(testTerminalFrame("abc123"))
	if !frame.terminal {
		t.Fatalf("expected terminal frame")
	}
	if frame.id != "abc123" {
		t.Fatalf("expected id abc123, got %q", frame.id)
	}
	if len(frame.payload) != 0 {
		t.Fatalf("terminal frame must not carry payload")
	}
}

func TestParseInboundWithoutRequestID(t *testing.T) {
	frame := parseInbound([]byte("Path:turn.start\r\n\r\n{}"))
	if frame.id != "" {
		t.Fatalf("expected empty id, got %q", frame.id)
	}
}

func TestParseInboundPayloadContainingCRLF(t *testing.T) {
	payload := []byte("bytes\r\nwith\r\nheader-looking content")
	frame := parseInbound(testAudioFrame("x", payload))
	if !bytes.Equal(frame.payload, payload) {
		t.Fatalf("payload truncated: %q", frame.payload)
	}
}

func TestRequestFrameLayout(t *testing.T) {
	frame := string(requestFrame("id-1", "<speak/>"))
	want := "X-RequestId:id-1\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n<speak/>"
	if frame != want {
		t.Fatalf("unexpected request frame:\n%q", frame)
	}
}

func TestConfigFrameCarriesOutputFormat(t *testing.T) {
	frame := string(configFrame(defaultOutputFormat))
	if !strings.HasPrefix(frame, "Content-Type:application/json\r\nPath:speech.config\r\n\r\n") {
		t.Fatalf("unexpected config frame header:\n%q", frame)
	}
	if !strings.Contains(frame, `"outputFormat":"audio-24khz-48kbitrate-mono-mp3"`) {
		t.Fatalf("output format missing from config frame:\n%q", frame)
	}
}
