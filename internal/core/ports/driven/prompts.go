package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer builds the generation prompt.
	// The template uses {context} and {query} placeholders.
	PromptAnswer = "answer"

	// PromptSystem is optional text placed before the answer prompt.
	// It has no placeholders.
	PromptSystem = "system"
)
