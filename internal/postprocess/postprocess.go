// Package postprocess removes common LLM artifacts from translated book
// passages. It is applied to the raw text returned by every LLM-backed
// service before the chunk reaches the stitcher.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text and returns the trimmed result:
//  1. Thinking / reasoning block removal
//  2. Instruction echo removal (prompt leakage)
//  3. Continuation marker and context echo removal
//  4. Quote wrapping removal
//  5. Blank line normalisation
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeContinuationMarkers(text)
	text = removeQuoteWrapping(text)
	text = normalizeBlankLines(text)
	return strings.TrimSpace(text)
}

// --- Phase 1: thinking blocks ---

// Each tag variant is listed explicitly because RE2 has no backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// --- Phase 2: instruction echoes ---

// echoPatterns are anchored to the start of the text and require a colon to
// reduce false positives on legitimate prose.
var echoPatterns = []*regexp.Regexp{
	// "Here is / Here's [the] [translated] translation|text|passage:"
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text|passage)\s*:`),
	// "[The] [translated] translation|passage:"
	regexp.MustCompile(`(?i)^(?:the )?(?:refined |polished )?(?:translation|translated text|translated passage)\s*:`),
	// "Certainly / Sure / Of course[,] here is [the] translation:"
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:refined |polished |translated )?(?:translation|text|passage)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// --- Phase 3: continuation markers ---

// continuationLineRe matches a line that only says the text continues, such
// as "[Continued]", "(continuation)" or "Continued:".
var continuationLineRe = regexp.MustCompile(
	`(?im)^[ \t]*[\[(]?(?:continued|continuation|cont\.)[\])]?[ \t]*:?[ \t]*(?:\r?\n|$)`,
)

// contextEchoRe matches a leading "CONTEXT: ..." paragraph copied from the
// prompt.
var contextEchoRe = regexp.MustCompile(`(?is)^context\b[^:\n]*:.*?(?:\n[ \t]*\n|$)`)

// leadingEllipsisRe matches an ellipsis the model puts before a continued
// passage.
var leadingEllipsisRe = regexp.MustCompile(`^(?:\.\.\.|…)[ \t]*`)

func removeContinuationMarkers(text string) string {
	text = continuationLineRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if loc := contextEchoRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}
	return leadingEllipsisRe.ReplaceAllString(text, "")
}

// --- Phase 4: quote wrapping ---

// removeQuoteWrapping strips a matching pair of outer quotes when the whole
// text is wrapped in them. Passages that use the same quote character inside
// are left alone, since they usually start and end with dialogue.
//
//	"…"  '…'  «…»  "…"  '…'
func removeQuoteWrapping(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	first, last := runes[0], runes[n-1]
	if (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') || // " "
		(first == '‘' && last == '’') { //  ' '
		inner := string(runes[1 : n-1])
		if strings.ContainsRune(inner, first) || strings.ContainsRune(inner, last) {
			return text
		}
		return strings.TrimSpace(inner)
	}
	return text
}

// --- Phase 5: blank lines ---

var extraBlankLinesRe = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// normalizeBlankLines collapses runs of blank lines into one.
func normalizeBlankLines(text string) string {
	return extraBlankLinesRe.ReplaceAllString(text, "\n\n")
}
