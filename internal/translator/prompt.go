package translator

import (
	"fmt"
	"strings"
)

// buildPrompt renders the instruction prompt shared by the LLM-backed
// providers. The conventions mirror the style block emitted at the top
// of every batch document so machine and human translators receive the
// same brief.
func buildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Translate the following %s text into %s.\n",
		langName(req.SourceLang), langName(req.TargetLang))
	b.WriteString("Respond with the translation only, nothing else.\n")
	b.WriteString("Use Western digits, straight double quotes, and end with punctuation matching the source.\n")
	if len(req.PreserveTerms) > 0 {
		fmt.Fprintf(&b, "Keep these terms untranslated: %s.\n",
			strings.Join(req.PreserveTerms, ", "))
	}
	b.WriteString("\n")

	if req.ContextPrev != "" {
		fmt.Fprintf(&b, "Preceding text (context only, do not translate): %s\n", req.ContextPrev)
	}
	fmt.Fprintf(&b, "Text: %s\n", req.Text)
	if req.ContextNext != "" {
		fmt.Fprintf(&b, "Following text (context only, do not translate): %s\n", req.ContextNext)
	}

	b.WriteString("\nTranslation:")
	return b.String()
}

func langName(code string) string {
	switch code {
	case "ar":
		return "Arabic"
	case "en":
		return "English"
	case "", "auto":
		return "the source language"
	default:
		return code
	}
}
