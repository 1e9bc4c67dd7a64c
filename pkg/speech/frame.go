package speech

import (
	"bytes"
	"fmt"
)

const (
	trustedClientToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	defaultEndpoint = "wss://speech.platform.bing.com/consumer/speech/synthesize/" +
		"readaloud/edge/v1"
	voiceListEndpoint = "https://speech.platform.bing.com/consumer/speech/synthesize/" +
		"readaloud/voices/list?trustedclienttoken=" + trustedClientToken

	secMSGECVersion = "1-130.0.2849.68"

	defaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"
)

const (
	requestIDHeader = "X-RequestId:"
	headerSep       = "\r\n"
	audioDelimiter  = "Path:audio\r\n"
)

// terminalMarker is the first three raw bytes of the frame that closes
// an audio stream. Frames starting with anything else carry audio.
var terminalMarker = []byte{0x00, 0x67, 0x58}

// configFrame is the payload sent once per connection, before any
// synthesis request, to fix the output encoding.
func configFrame(outputFormat string) []byte {
	return []byte("Content-Type:application/json\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"outputFormat":"` + outputFormat + `"}}}}`)
}

// requestFrame wraps an SSML document in the headers the service
// routes by: the request id and the ssml path.
func requestFrame(id RequestID, ssml string) []byte {
	return []byte(fmt.Sprintf(
		"X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s",
		id, ssml))
}

// inboundFrame is one decoded message off the socket.
type inboundFrame struct {
	id       RequestID
	terminal bool
	payload  []byte
}

// parseInbound classifies a raw frame. Frames without a request id
// header yield a zero id; the caller discards those.
func parseInbound(raw []byte) inboundFrame {
	frame := inboundFrame{id: extractRequestID(raw)}
	if bytes.HasPrefix(raw, terminalMarker) {
		frame.terminal = true
		return frame
	}
	if idx := bytes.Index(raw, []byte(audioDelimiter)); idx >= 0 {
		frame.payload = raw[idx+len(audioDelimiter):]
	}
	return frame
}

func extractRequestID(raw []byte) RequestID {
	start := bytes.Index(raw, []byte(requestIDHeader))
	if start < 0 {
		return ""
	}
	rest := raw[start+len(requestIDHeader):]
	end := bytes.Index(rest, []byte(headerSep))
	if end < 0 {
		return ""
	}
	return RequestID(rest[:end])
}
