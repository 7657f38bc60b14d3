package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/errors"
	"github.com/schemarag/schemarag/internal/logging"
	"github.com/schemarag/schemarag/internal/validate"
)

// NoAnswerSentinel is the literal answer the model is instructed to return
// when the schema context cannot answer the question.
const NoAnswerSentinel = "I do not know"

// promptTemplate is the fixed prompt layout. The [QUESTION], [START_SCHEMA],
// [END_SCHEMA] and [SQL] markers are part of the model contract and must not
// change. The forbidden operations line mirrors the validator's list so the
// model is told the exact rules it will be checked against.
const promptTemplate = `### Task
Generate a SQL query to answer [QUESTION]%s[/QUESTION]

### Instructions
- If you cannot answer the question with the available database schema, return '%s'
- Use SQLite dialect.
- Never use any of the following operations: %s

### Database Schema
The query will run on a database with the following schema:
[START_SCHEMA]
%s
[END_SCHEMA]

### Answer
Given the database schema, the question [QUESTION]%s[/QUESTION] is answered with the following SQL query:
[SQL]
`

// Generator renders the prompt and invokes the model
type Generator struct {
	client       Completer
	maxNewTokens int
	stops        []string
	logger       *logging.Logger
}

// NewGenerator creates a generator from configuration
func NewGenerator(client Completer, cfg config.LLMConfig, logger *logging.Logger) (*Generator, error) {
	if cfg.MaxNewTokens <= 0 {
		return nil, errors.Newf(errors.ErrTypeConfig,
			"max new tokens must be positive, got %d", cfg.MaxNewTokens)
	}

	if logger == nil {
		logger = logging.GetLogger()
	}

	return &Generator{
		client:       client,
		maxNewTokens: cfg.MaxNewTokens,
		stops:        cfg.Stops,
		logger:       logger,
	}, nil
}

// BuildPrompt renders the fixed template with the question and schema
// context. The question appears twice, once in the task statement and once
// right before the expected completion.
func BuildPrompt(question, schemaContext string) string {
	return fmt.Sprintf(promptTemplate,
		question,
		NoAnswerSentinel,
		strings.Join(validate.ForbiddenKeywords, ", "),
		schemaContext,
		question,
	)
}

// Generate produces the raw candidate SQL for a question. The model output
// is returned untouched; validation and any cleanup are separate passes.
func (g *Generator) Generate(ctx context.Context, question, schemaContext string) (string, error) {
	prompt := BuildPrompt(question, schemaContext)

	g.logger.WithFields(map[string]interface{}{
		"prompt_chars": len(prompt),
		"max_tokens":   g.maxNewTokens,
	}).Debug("generating SQL")

	text, err := g.client.Complete(ctx, prompt, g.maxNewTokens, g.stops)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTypeGeneration, "SQL generation failed")
	}

	return text, nil
}

// IsNoAnswer reports whether the generated text is the model declining to
// answer rather than a SQL candidate. Models sometimes quote the sentinel or
// change its case, so the comparison is forgiving about both.
func IsNoAnswer(text string) bool {
	trimmed := strings.Trim(strings.TrimSpace(text), `'"`)

	return strings.EqualFold(trimmed, NoAnswerSentinel)
}
