package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/owngpt/internal/core/ports/driven"
	"github.com/custodia-labs/owngpt/internal/logger"
	"github.com/custodia-labs/owngpt/internal/observability"
)

// ApologyMessage is returned in place of an answer when generation fails.
const ApologyMessage = "Sorry, I couldn't generate a response at the moment."

// DefaultAnswerPrompt is used when the prompt store has no usable "answer"
// template. {context} and {query} are replaced with the retrieved context
// and the query; any other text, including %, is sent as written.
const DefaultAnswerPrompt = `Context: {context}

Query: {query}

Based on the provided context and query, generate a comprehensive and informative response. Ensure the response is:
- Directly relevant to the query
- Synthesized only from the given context
- Clear, descriptive and explanatory
- Written in English

If the query is a greeting or small talk, reply briefly and naturally.
Answer directly. Do not mention the context or these instructions.`

// DefaultSystemPrompt is prepended to the answer prompt.
const DefaultSystemPrompt = "You are OwnGPT, a helpful assistant that answers questions using web content retrieved for each query."

// DefaultPrompts returns the built-in prompts keyed by prompt name.
// File-backed prompt stores seed new prompt files from it.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptAnswer: DefaultAnswerPrompt,
		driven.PromptSystem: DefaultSystemPrompt,
	}
}

// Generator produces an answer from a query and retrieved context.
type Generator struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	opts    driven.ChatOptions
}

// NewGenerator creates a generator. Both arguments may be nil:
// without an LLM every answer is the apology, and without a prompt
// store the default prompts are used.
func NewGenerator(llm driven.LLMService, prompts driven.PromptStore) *Generator {
	return &Generator{
		llm:     llm,
		prompts: prompts,
		opts: driven.ChatOptions{
			MaxTokens:   1024,
			Temperature: 0.3,
		},
	}
}

// Generate streams an answer to onFragment and returns the full text.
//
// Any inference failure, or an empty completion, yields ApologyMessage with
// degraded set. The apology is also sent to onFragment, so stream consumers
// always see a terminal message.
func (g *Generator) Generate(ctx context.Context, query, retrieved string, onFragment func(string)) (string, bool) {
	emit := func(s string) {
		if onFragment != nil {
			onFragment(s)
		}
	}
	apologise := func(reason string, err error) (string, bool) {
		if err != nil {
			logger.Warn("Generation degraded (%s): %v", reason, err)
		} else {
			logger.Warn("Generation degraded (%s)", reason)
		}
		emit(ApologyMessage)
		return ApologyMessage, true
	}

	if g.llm == nil {
		return apologise("no LLM configured", nil)
	}

	ctx, span := observability.StartLLMSpan(ctx, g.llm.ModelName())
	defer span.End()

	messages := g.buildMessages(query, retrieved)

	var answer strings.Builder
	err := g.llm.ChatStream(ctx, messages, g.opts, func(fragment string) error {
		answer.WriteString(fragment)
		emit(fragment)
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return apologise("inference failed", err)
	}

	text := answer.String()
	if strings.TrimSpace(text) == "" {
		return apologise("empty completion", nil)
	}
	return text, false
}

// Placeholders substituted into the answer prompt.
const (
	PlaceholderContext = "{context}"
	PlaceholderQuery   = "{query}"
)

// buildMessages renders the prompt as a single user message.
func (g *Generator) buildMessages(query, retrieved string) []driven.ChatMessage {
	return []driven.ChatMessage{
		{Role: "user", Content: g.renderPrompt(query, retrieved)},
	}
}

func (g *Generator) renderPrompt(query, retrieved string) string {
	// One pass, so placeholder text inside the query or context is left alone.
	body := strings.NewReplacer(
		PlaceholderContext, retrieved,
		PlaceholderQuery, query,
	).Replace(g.answerTemplate())
	return g.systemPrompt() + "\n\n" + body
}

func (g *Generator) answerTemplate() string {
	tmpl := g.loadPrompt(driven.PromptAnswer)
	if !strings.Contains(tmpl, PlaceholderContext) || !strings.Contains(tmpl, PlaceholderQuery) {
		if tmpl != "" {
			logger.Warn("Prompt %q needs %s and %s placeholders, using default",
				driven.PromptAnswer, PlaceholderContext, PlaceholderQuery)
		}
		return DefaultAnswerPrompt
	}
	return tmpl
}

func (g *Generator) systemPrompt() string {
	if p := g.loadPrompt(driven.PromptSystem); p != "" {
		return p
	}
	return DefaultSystemPrompt
}

func (g *Generator) loadPrompt(name string) string {
	if g.prompts == nil {
		return ""
	}
	p, err := g.prompts.Load(name)
	if err != nil {
		logger.Debug("Prompt %q not loaded: %v", name, err)
		return ""
	}
	return strings.TrimSpace(p)
}
