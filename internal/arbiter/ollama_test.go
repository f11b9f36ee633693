package arbiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/translator"
)

func TestOllamaArbiter_New(t *testing.T) {
	a := NewOllamaArbiter("llama3.2", "http://localhost:11434")

	if a == nil {
		t.Fatal("expected non-nil arbiter")
	}
	if a.model != "llama3.2" {
		t.Errorf("expected model 'llama3.2', got %q", a.model)
	}
	if a.baseURL != "http://localhost:11434" {
		t.Errorf("expected baseURL 'http://localhost:11434', got %q", a.baseURL)
	}
	if a.client == nil {
		t.Error("expected non-nil HTTP client")
	}
}

func TestOllamaArbiter_New_DefaultURL(t *testing.T) {
	a := NewOllamaArbiter("llama3.2", "")
	if a.baseURL != "http://localhost:11434" {
		t.Errorf("expected default baseURL, got %q", a.baseURL)
	}
}

func TestOllamaArbiter_Evaluate_NoResults(t *testing.T) {
	a := NewOllamaArbiter("llama3.2", "http://localhost:11434")

	_, err := a.Evaluate(context.Background(), "مرحبا", nil)
	if err == nil {
		t.Error("expected error for empty results")
	}
}

func TestOllamaArbiter_Evaluate_SingleResult(t *testing.T) {
	a := NewOllamaArbiter("llama3.2", "http://localhost:11434")

	results := []translator.Result{
		{ServiceName: "google", TranslatedText: "Greetings"},
	}

	// A single candidate needs no judge call, so no server is required.
	verdict, err := a.Evaluate(context.Background(), "مرحبا", results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.SelectedService != "google" {
		t.Errorf("expected selected service 'google', got %q", verdict.SelectedService)
	}
	if verdict.FinalText != "Greetings" {
		t.Errorf("expected final text 'Greetings', got %q", verdict.FinalText)
	}
	if verdict.IsComposite {
		t.Error("expected not composite for single result")
	}
}

func TestOllamaArbiter_Evaluate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("expected /api/generate, got %s", r.URL.Path)
		}
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %q", req.Model)
		}
		if req.Format != "json" {
			t.Error("expected format 'json'")
		}

		resp := ollamaResponse{
			Response: `{"selected_service": "google", "final_text": "Greetings", "reasoning": "most faithful"}`,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewOllamaArbiter("llama3.2", server.URL)

	results := []translator.Result{
		{ServiceName: "google", TranslatedText: "Greetings"},
		{ServiceName: "ollama", TranslatedText: "Hello there"},
	}

	verdict, err := a.Evaluate(context.Background(), "مرحبا", results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.SelectedService != "google" {
		t.Errorf("expected selected service 'google', got %q", verdict.SelectedService)
	}
	if verdict.FinalText != "Greetings" {
		t.Errorf("expected final text 'Greetings', got %q", verdict.FinalText)
	}
}

func TestOllamaArbiter_Evaluate_CompositeResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ollamaResponse{
			Response: `{"selected_service": "composite", "final_text": "A combined rendering", "reasoning": "merged best parts"}`,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewOllamaArbiter("llama3.2", server.URL)

	results := []translator.Result{
		{ServiceName: "google", TranslatedText: "Part one"},
		{ServiceName: "ollama", TranslatedText: "Part two"},
	}

	verdict, err := a.Evaluate(context.Background(), "مرحبا", results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.IsComposite {
		t.Error("expected IsComposite=true for composite verdict")
	}
}

func TestOllamaArbiter_Evaluate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := NewOllamaArbiter("llama3.2", server.URL)

	results := []translator.Result{
		{ServiceName: "google", TranslatedText: "one"},
		{ServiceName: "ollama", TranslatedText: "two"},
	}

	if _, err := a.Evaluate(context.Background(), "مرحبا", results); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestBuildJudgePrompt(t *testing.T) {
	results := []translator.Result{
		{ServiceName: "google", TranslatedText: "Greetings"},
		{ServiceName: "ollama", TranslatedText: "Hello"},
	}

	prompt := buildJudgePrompt("مرحبا", results)

	if len(prompt) == 0 {
		t.Fatal("expected non-empty prompt")
	}
	for _, want := range []string{"google", "ollama", "مرحبا", "selected_service"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestParseVerdict_ValidJSON(t *testing.T) {
	verdict, err := parseVerdict(`{"selected_service": "google", "final_text": "Greetings", "reasoning": "best match"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.SelectedService != "google" {
		t.Errorf("expected 'google', got %q", verdict.SelectedService)
	}
	if verdict.FinalText != "Greetings" {
		t.Errorf("expected 'Greetings', got %q", verdict.FinalText)
	}
	if verdict.Reasoning != "best match" {
		t.Errorf("expected 'best match', got %q", verdict.Reasoning)
	}
}

func TestParseVerdict_EmptyFinalText(t *testing.T) {
	if _, err := parseVerdict(`{"selected_service": "google", "final_text": ""}`); err == nil {
		t.Error("expected error for empty final_text")
	}
}

func TestParseVerdict_InvalidJSON(t *testing.T) {
	if _, err := parseVerdict("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseVerdict_WithWhitespace(t *testing.T) {
	verdict, err := parseVerdict(`  {"selected_service": "google", "final_text": "Greetings", "reasoning": "ok"}  `)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.SelectedService != "google" {
		t.Errorf("expected 'google', got %q", verdict.SelectedService)
	}
}
