// Package prompts embeds the prompt templates sent to the agents.
package prompts

import _ "embed"

//go:embed producer/task.md.tmpl
var ProducerTaskTemplate string

//go:embed reviewer/first.md.tmpl
var ReviewerFirstTemplate string

//go:embed reviewer/continue.md.tmpl
var ReviewerContinueTemplate string
