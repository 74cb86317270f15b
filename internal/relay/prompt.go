// Package relay drives the producer/reviewer alternation: it builds the
// prompts, decides what is forwarded between the agents and when the
// session ends.
package relay

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/rsdouglas/leonard/prompts"
)

// Templates are embedded at compile time; a parse failure is a bug.
var (
	producerTaskTmpl     = template.Must(template.New("producer_task").Parse(prompts.ProducerTaskTemplate))
	reviewerFirstTmpl    = template.Must(template.New("reviewer_first").Parse(prompts.ReviewerFirstTemplate))
	reviewerContinueTmpl = template.Must(template.New("reviewer_continue").Parse(prompts.ReviewerContinueTemplate))
)

// promptData holds the template data for prompt rendering.
type promptData struct {
	Task    string
	Context string
	Output  string
	Token   string
}

// BuildProducerPrompt renders the producer's opening prompt. Either task or
// context may be empty but not both.
func BuildProducerPrompt(task, context string) (string, error) {
	if strings.TrimSpace(task) == "" && strings.TrimSpace(context) == "" {
		return "", ErrNoTask
	}
	return render(producerTaskTmpl, promptData{Task: task, Context: context})
}

// BuildReviewerPrompt wraps the producer's forwarded output for the
// reviewer. The first call frames the review with the task and context; a
// continuation only carries the new output since the reviewer keeps its own
// session history.
func BuildReviewerPrompt(task, context, output string, continuation bool) (string, error) {
	data := promptData{Task: task, Context: context, Output: output, Token: CompletionToken}
	if continuation {
		return render(reviewerContinueTmpl, data)
	}
	return render(reviewerFirstTmpl, data)
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
