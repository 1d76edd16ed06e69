// Package validator checks that a translation result is in the expected target language.
package validator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/booktran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// Validator checks that a translation result is written in the expected target language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det         *detector.Detector
	sampleRunes int
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New(), sampleRunes: detector.DefaultSampleRunes}
}

// IsValid returns true when translatedText appears to be written in targetLang.
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. Long texts are judged on a sample.
// targetLang may be a full BCP 47 tag such as "pt-BR"; only its base language
// is compared. When the detected language differs the returned error names
// both codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(detector.Sample(text, v.sampleRunes))
	if !ok {
		// Ambiguous language, cannot validate.
		return true, nil
	}

	if !strings.EqualFold(detected, baseLanguage(targetLang)) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, strings.ToLower(detected))
	}

	return true, nil
}

// baseLanguage reduces a language tag to its ISO 639-1 base, leaving
// unparseable input as given.
func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := t.Base()
	return base.String()
}
