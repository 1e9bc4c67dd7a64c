package speech

import (
	"strings"
	"testing"
)

func TestBuildSSMLStructure(t *testing.T) {
	cfg := VoiceConfig{
		Locale: "en-US",
		Voice:  "en-US-AriaNeural",
		Pitch:  "default",
		Rate:   "default",
		Volume: "default",
	}
	doc := buildSSML("Hello", cfg)

	for _, want := range []string{
		`xml:lang='en-US'`,
		`<voice name='en-US-AriaNeural'>`,
		`<prosody pitch='default' rate='default' volume='default'>Hello</prosody>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("ssml missing %q:\n%s", want, doc)
		}
	}
}

func TestBuildSSMLEscapesText(t *testing.T) {
	doc := buildSSML(`Tom & Jerry say "1 < 2"`, DefaultVoiceConfig())
	if strings.Contains(doc, "Tom & Jerry") {
		t.Fatalf("ampersand not escaped:\n%s", doc)
	}
	if !strings.Contains(doc, "Tom &amp; Jerry") {
		t.Fatalf("expected escaped ampersand:\n%s", doc)
	}
	if !strings.Contains(doc, "1 &lt; 2") {
		t.Fatalf("expected escaped angle bracket:\n%s", doc)
	}
}

func TestVoiceConfigNormalize(t *testing.T) {
	cfg := VoiceConfig{Voice: "en-GB-SoniaNeural"}.Normalize()
	if cfg.Voice != "en-GB-SoniaNeural" {
		t.Fatalf("explicit voice overridden: %s", cfg.Voice)
	}
	if cfg.Locale != "en-US" || cfg.Pitch != "default" || cfg.Rate != "default" || cfg.Volume != "default" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestResolveVoiceAliases(t *testing.T) {
	cases := map[string]string{
		"default":                 "en-US-AriaNeural",
		"male":                    "en-US-ChristopherNeural",
		"female":                  "en-US-JennyNeural",
		"en-US-ChristopherNeural": "en-US-ChristopherNeural",
	}
	for alias, want := range cases {
		if got := ResolveVoice(alias); got != want {
			t.Fatalf("ResolveVoice(%q) = %q, want %q", alias, got, want)
		}
	}
}
