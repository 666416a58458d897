package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/marcus/taskpilot/internal/logging"
)

// DefaultModel is the Gemini model used for intent extraction.
const DefaultModel = "gemini-2.5-flash"

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 15 * time.Second

// GenAIExtractor implements Extractor and Responder against the Gemini API.
type GenAIExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logging.Logger
}

// NewGenAIExtractor creates an extractor. The API key is required; model and
// timeout fall back to defaults when zero.
func NewGenAIExtractor(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	return &GenAIExtractor{
		client:  client,
		model:   model,
		timeout: timeout,
		log:     logging.Component("nlu"),
	}, nil
}

// Extract asks the model for a schema-conforming intent guess. Any failure
// (transport, timeout, malformed output) is reported as ErrOracle so the
// router can fall back without a partially-applied action.
func (g *GenAIExtractor) Extract(ctx context.Context, text string, history []string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := buildExtractionPrompt(text, history, time.Now())

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		g.log.Err(err).Msg("extraction call failed")
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	raw := resp.Text()
	data, err := salvageJSON(raw)
	if err != nil {
		g.log.WarnCtx("unparseable extraction output", map[string]any{"output": truncate(raw, 200)})
		return nil, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	var extraction Extraction
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, fmt.Errorf("%w: decode extraction: %v", ErrOracle, err)
	}

	g.log.InfoCtx("extraction", map[string]any{
		"intent":     extraction.Intent,
		"task_id":    extraction.TaskID,
		"confidence": extraction.Confidence,
	})
	return &extraction, nil
}

// Respond rewrites an operation outcome into a short conversational reply.
func (g *GenAIExtractor) Respond(ctx context.Context, userRequest, outcome string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`The user of a task manager asked: %q

The operation produced this result:
%s

Reply to the user in one or two friendly sentences summarizing the result.
Plain text only, no markdown.`, userRequest, outcome)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("%w: empty response", ErrOracle)
	}
	return reply, nil
}

func buildExtractionPrompt(text string, history []string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Extract the task-management intent from a chat message.
Current date: %s

Return a JSON object with exactly these keys (omit keys that do not apply):
- "intent": one of "create", "list", "update", "delete", "stats", "dedupe", "unknown"
- "title": task title (string)
- "description": task description (string)
- "priority": "low", "medium" or "high", only if explicitly mentioned
- "status": "pending", "in_progress" or "completed", only if explicitly mentioned
- "due_date": YYYY-MM-DD; convert relative dates like "tomorrow" or "next friday"
- "task_id": integer, only if the message references a task id
- "add_to_calendar": true only if the user asked for a calendar entry
- "confidence": your confidence in the intent label, 0.0 to 1.0

Use "dedupe" when the user asks to find, check or remove duplicate tasks.
Use "unknown" when the message is not a task-management request.
`, now.Format("2006-01-02"))

	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "- %s\n", turn)
		}
	}

	fmt.Fprintf(&b, "\nMessage: %q\n\nRespond ONLY with the JSON object.", text)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
