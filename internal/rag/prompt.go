package rag

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ziadkadry99/docrag/internal/index"
)

// FallbackAnswer is returned when nothing relevant was found or the model
// produced nothing usable.
const FallbackAnswer = "I don't have enough information to answer that question."

const promptTemplate = `You are a helpful AI assistant. Your task is to provide a clear and complete answer to the question using only the information from the context below.

Context:
%s

Question: %s

Instructions:
1. Use ONLY the information provided in the context
2. Include ALL relevant information from the context, especially lists and bullet points
3. Maintain the structure and organization of lists from the context
4. Do not summarize or abbreviate lists
5. Do not add any information beyond what's in the context
6. Start your response directly with the answer

Answer:`

const contextSeparator = "\n\n---\n\n"

// BuildContext numbers the non-empty hits "Document 1", "Document 2", ... and
// joins them with a --- separator. Hits whose trimmed content is empty are
// skipped and do not consume a number.
func BuildContext(hits []index.Hit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		content := strings.TrimSpace(h.Content)
		if content == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Document %d:\n%s", len(parts)+1, content))
	}
	return strings.Join(parts, contextSeparator)
}

// BuildPrompt fills the instruction template.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, context, question)
}

var metaPhrases = []*regexp.Regexp{
	regexp.MustCompile(`Based on .*?:`),
	regexp.MustCompile(`According to .*?:`),
}

// Sanitize removes "Based on ...:" and "According to ...:" preambles, trims
// every line and drops blank ones. An empty result becomes FallbackAnswer.
func Sanitize(response string) string {
	for _, re := range metaPhrases {
		response = re.ReplaceAllString(response, "")
	}

	lines := strings.Split(response, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return FallbackAnswer
	}
	return strings.Join(kept, "\n")
}
