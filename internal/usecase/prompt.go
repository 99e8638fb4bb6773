package usecase

import (
	_ "embed"
	"strings"
	"text/template"
)

const (
	// ContextSeparator joins retrieved contexts inside the prompt.
	ContextSeparator = "\n\n---\n\n"

	// NotFoundSentinel is the exact reply the model is told to give when the
	// context does not contain the answer.
	NotFoundSentinel = "Not found in context."

	// DefaultMaxContextChars bounds the joined context, in characters.
	DefaultMaxContextChars = 3500
)

//go:embed templates/answer_prompt.txt
var answerPromptText string

var answerPrompt = template.Must(
	template.New("answer").Parse(strings.TrimRight(answerPromptText, "\n")),
)

type promptData struct {
	Context  string
	Question string
	Sentinel string
}

// BuildPrompt joins contexts in ranking order, cuts the result to maxChars
// characters and renders the grounded-answer instructions around it.
// A maxChars of zero or less selects DefaultMaxContextChars.
func BuildPrompt(query string, contexts []string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	ctx := truncateRunes(strings.Join(contexts, ContextSeparator), maxChars)

	var sb strings.Builder
	// The template is fixed and its data is plain strings, so Execute cannot fail.
	_ = answerPrompt.Execute(&sb, promptData{
		Context:  ctx,
		Question: query,
		Sentinel: NotFoundSentinel,
	})
	return sb.String()
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
