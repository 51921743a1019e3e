package orchestrator

import (
	"fmt"

	"github.com/edgard/rojitobot/internal/ai"
	"github.com/edgard/rojitobot/internal/config"
	"github.com/edgard/rojitobot/internal/state"
)

const (
	defaultPromptTemplate  = "%s (respond in %s)"
	defaultContextTemplate = "context: %s"
)

// PromptBuilder assembles generation input. It is the only place where
// history, reply context and the language annotation are combined.
type PromptBuilder struct {
	promptTemplate  string
	contextTemplate string
}

// NewPromptBuilder returns a builder with the default templates. The prompt
// template takes the prompt and the language name; the context template
// takes the replied-to text.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		promptTemplate:  defaultPromptTemplate,
		contextTemplate: defaultContextTemplate,
	}
}

// WithTemplates returns a copy of b using the given templates. Empty values
// keep the current template.
func (b *PromptBuilder) WithTemplates(prompt, context string) *PromptBuilder {
	out := *b
	if prompt != "" {
		out.promptTemplate = prompt
	}
	if context != "" {
		out.contextTemplate = context
	}
	return &out
}

// Build returns history oldest first, then the reply context entry when
// replyContext is not empty, then prompt annotated with the language of lang.
func (b *PromptBuilder) Build(history []state.Message, prompt, replyContext, lang string) []ai.Message {
	msgs := make([]ai.Message, 0, len(history)+2)
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == state.RoleAssistant {
			role = ai.RoleAssistant
		}
		msgs = append(msgs, ai.Message{Role: role, Content: m.Content})
	}
	if replyContext != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf(b.contextTemplate, replyContext)})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf(b.promptTemplate, prompt, config.LanguageName(lang))})
	return msgs
}
