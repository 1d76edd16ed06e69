package translator

import (
	"fmt"
	"sort"
	"strings"
)

// buildSystemPrompt constructs the system prompt shared by the LLM services,
// optionally injecting glossary terms, the previous passage for continuity,
// and extra instructions.
func buildSystemPrompt(req TranslateRequest) string {
	var sb strings.Builder

	sourceLang := req.SourceLang
	if sourceLang == "" || sourceLang == "auto" {
		sourceLang = "the detected language"
	}

	sb.WriteString(fmt.Sprintf("You are a professional literary translator. Translate the following passage of a book from %s to %s.\n", sourceLang, req.TargetLang))
	sb.WriteString("Preserve paragraph breaks, dialogue and tone. Only respond with the translation, nothing else. No explanations, no notes.")

	if req.IsContinuation {
		sb.WriteString("\n\nThis passage continues a chapter already in progress. Do not add a title or heading, and do not summarise what came before.")
	} else if req.ChapterTitle != "" {
		sb.WriteString(fmt.Sprintf("\n\nThis passage starts the chapter %q.", req.ChapterTitle))
	}

	if req.Instructions != "" {
		sb.WriteString(" ")
		sb.WriteString(req.Instructions)
	}

	if len(req.GlossaryTerms) > 0 {
		sources := make([]string, 0, len(req.GlossaryTerms))
		for src := range req.GlossaryTerms {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		for _, src := range sources {
			sb.WriteString(fmt.Sprintf("  %s → %s\n", src, req.GlossaryTerms[src]))
		}
	}

	if req.PreviousContext != "" {
		sb.WriteString(fmt.Sprintf("\n\nCONTEXT (end of the previous translated passage, for continuity; do NOT translate or repeat it):\n...%s", req.PreviousContext))
	}

	return sb.String()
}
