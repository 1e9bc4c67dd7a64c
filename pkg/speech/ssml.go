package speech

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// buildSSML wraps text in the speak/voice/prosody structure the
// service expects. Text is escaped; the prosody directives come
// straight from the voice configuration.
func buildSSML(text string, cfg VoiceConfig) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))

	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'>`+
			`<voice name='%s'><prosody pitch='%s' rate='%s' volume='%s'>%s</prosody></voice></speak>`,
		cfg.Locale, cfg.Voice, cfg.Pitch, cfg.Rate, cfg.Volume, escaped.String())
}
