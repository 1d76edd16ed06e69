package detector

import (
	"strings"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// DefaultSampleRunes bounds how much of a long text is fed to the detector.
const DefaultSampleRunes = 2000

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectCode detects the language of a sample of text and returns its
// lowercase ISO 639-1 code, the form used on the command line.
func (d *Detector) DetectCode(text string) (string, bool) {
	code, ok := d.DetectISO(Sample(text, DefaultSampleRunes))
	if !ok {
		return "", false
	}
	return strings.ToLower(code), true
}

// Sample returns at most maxRunes runes from the middle of text, cut at
// whitespace. Book openings are often title pages and front matter in
// another script, so the middle is more representative.
func Sample(text string, maxRunes int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return text
	}

	start := (len(runes) - maxRunes) / 2
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	end := min(start+maxRunes, len(runes))
	for end > start && end < len(runes) && !unicode.IsSpace(runes[end]) {
		end--
	}
	if end <= start {
		end = min(start+maxRunes, len(runes))
	}
	return strings.TrimSpace(string(runes[start:end]))
}
