package refiner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/postprocess"
)

// OllamaRefiner uses a local Ollama model as the literary editor.
type OllamaRefiner struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaRefiner creates a refiner backed by a local Ollama model.
func NewOllamaRefiner(model, baseURL string) *OllamaRefiner {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaRefiner{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Refine sends the draft to the editor model and returns the polished
// translation. An empty model answer falls back to the draft.
func (r *OllamaRefiner) Refine(ctx context.Context, sourceText, draftText string, preserveTerms []string) (string, error) {
	reqBody := ollamaRequest{
		Model:  r.model,
		Prompt: buildRefinementPrompt(sourceText, draftText, preserveTerms),
		Stream: false,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal refinement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/generate", r.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create refinement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refiner returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode refinement response: %w", err)
	}

	refined := postprocess.Clean(ollamaResp.Response)
	if refined == "" {
		return draftText, nil
	}
	return refined, nil
}

func buildRefinementPrompt(sourceText, draftText string, preserveTerms []string) string {
	var terms string
	if len(preserveTerms) > 0 {
		terms = fmt.Sprintf("\n- These terms stay untranslated: %s", strings.Join(preserveTerms, ", "))
	}

	return fmt.Sprintf(`You are an elite English literary editor polishing a translation from Arabic.

ORIGINAL (Arabic):
%s

DRAFT TRANSLATION (English):
%s

Rewrite the draft with natural, idiomatic English while preserving the
original meaning exactly.

Rules:
- Fix awkward literal phrasing and unnatural word order
- Keep all factual content, names, and proper nouns
- Use Western digits and straight double quotes%s
- If the draft is already good, return it unchanged

Output ONLY the refined English translation. No explanation.`,
		sourceText, draftText, terms)
}
