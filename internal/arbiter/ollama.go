package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
)

// OllamaArbiter judges candidate translations with a local Ollama model.
type OllamaArbiter struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaArbiter(model, baseURL string) *OllamaArbiter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaArbiter{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Evaluate asks the judge model to pick or compose the best English
// rendering of the Arabic source. With a single candidate there is
// nothing to judge and it is returned as-is.
func (a *OllamaArbiter) Evaluate(ctx context.Context, source string, results []translator.Result) (*Verdict, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no results to evaluate")
	}
	if len(results) == 1 {
		return &Verdict{
			SelectedService: results[0].ServiceName,
			FinalText:       results[0].TranslatedText,
			Reasoning:       "only one candidate",
		}, nil
	}

	reqBody := ollamaRequest{
		Model:  a.model,
		Prompt: buildJudgePrompt(source, results),
		Stream: false,
		Format: "json",
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", a.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbiter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arbiter returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return parseVerdict(ollamaResp.Response)
}

func buildJudgePrompt(source string, results []translator.Result) string {
	var sb strings.Builder
	sb.WriteString("You are a professional Arabic-to-English translation evaluator.\n")
	sb.WriteString("Given the original Arabic text:\n")
	fmt.Fprintf(&sb, "%q\n\nAnd these candidate English translations:\n", source)

	for i, r := range results {
		fmt.Fprintf(&sb, "  %d. [%s]: %q\n", i+1, r.ServiceName, r.TranslatedText)
	}

	sb.WriteString(`Select the best translation or compose an improved one from the candidates.
Respond ONLY in JSON:
{
  "selected_service": "<service name or composite>",
  "final_text": "...",
  "reasoning": "..."
}
`)
	return sb.String()
}

func parseVerdict(response string) (*Verdict, error) {
	var parsed struct {
		SelectedService string `json:"selected_service"`
		FinalText       string `json:"final_text"`
		Reasoning       string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse arbiter response as JSON: %w", err)
	}
	if parsed.FinalText == "" {
		return nil, fmt.Errorf("arbiter returned empty final_text")
	}
	return &Verdict{
		SelectedService: parsed.SelectedService,
		FinalText:       parsed.FinalText,
		IsComposite:     parsed.SelectedService == "composite",
		Reasoning:       parsed.Reasoning,
	}, nil
}
