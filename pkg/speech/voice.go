package speech

// VoiceConfig selects the voice and prosody for one synthesis call.
// It is immutable per call; the zero value is filled in by Normalize.
type VoiceConfig struct {
	Locale string
	Voice  string
	Pitch  string
	Rate   string
	Volume string
}

// DefaultVoiceConfig matches what the reading app plays when the user
// never touched the voice settings.
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Locale: "en-US",
		Voice:  "en-US-AriaNeural",
		Pitch:  "default",
		Rate:   "default",
		Volume: "default",
	}
}

// Normalize fills empty fields with defaults so callers can set only
// what they care about.
func (c VoiceConfig) Normalize() VoiceConfig {
	def := DefaultVoiceConfig()
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.Voice == "" {
		c.Voice = def.Voice
	}
	if c.Pitch == "" {
		c.Pitch = def.Pitch
	}
	if c.Rate == "" {
		c.Rate = def.Rate
	}
	if c.Volume == "" {
		c.Volume = def.Volume
	}
	return c
}

// voiceAliases maps the short names the application historically used
// to concrete voice identifiers.
var voiceAliases = map[string]string{
	"default": "en-US-AriaNeural",
	"male":    "en-US-ChristopherNeural",
	"female":  "en-US-JennyNeural",
}

// ResolveVoice maps a user-facing alias to a voice name. Unknown
// values pass through untouched so full voice names keep working.
func ResolveVoice(alias string) string {
	if name, ok := voiceAliases[alias]; ok {
		return name
	}
	return alias
}
