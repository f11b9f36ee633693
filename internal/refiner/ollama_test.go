package refiner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaRefiner_New(t *testing.T) {
	r := NewOllamaRefiner("llama3.2", "http://localhost:11434")

	if r == nil {
		t.Fatal("expected non-nil refiner")
	}
	if r.model != "llama3.2" {
		t.Errorf("expected model 'llama3.2', got %q", r.model)
	}
	if r.baseURL != "http://localhost:11434" {
		t.Errorf("expected baseURL 'http://localhost:11434', got %q", r.baseURL)
	}
	if r.client == nil {
		t.Error("expected non-nil HTTP client")
	}
}

func TestOllamaRefiner_Refine_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %q", req.Model)
		}
		if req.Stream != false {
			t.Error("expected stream=false")
		}

		resp := ollamaResponse{
			Response: "A polished English rendering",
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	r := NewOllamaRefiner("llama3.2", server.URL)

	result, err := r.Refine(context.Background(), "مرحبا بالعالم", "Hello to the world", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "A polished English rendering" {
		t.Errorf("expected polished text, got %q", result)
	}
}

func TestOllamaRefiner_Refine_EmptyAnswerFallsBackToDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{Response: ""})
	}))
	defer server.Close()

	r := NewOllamaRefiner("llama3.2", server.URL)

	result, err := r.Refine(context.Background(), "مرحبا", "Draft translation", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Draft translation" {
		t.Errorf("expected original draft when response empty, got %q", result)
	}
}

func TestOllamaRefiner_Refine_StripsThinkingBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaResponse{
			Response: "<thinking>weighing word order</thinking>Refined text",
		})
	}))
	defer server.Close()

	r := NewOllamaRefiner("llama3.2", server.URL)

	result, err := r.Refine(context.Background(), "مرحبا", "Draft", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Refined text" {
		t.Errorf("expected cleaned text, got %q", result)
	}
}

func TestOllamaRefiner_Refine_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	r := NewOllamaRefiner("llama3.2", server.URL)

	if _, err := r.Refine(context.Background(), "مرحبا", "Draft", nil); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestBuildRefinementPrompt(t *testing.T) {
	prompt := buildRefinementPrompt("النص الأصلي", "The draft", []string{"Tawhid", "Sunnah"})

	if !strings.Contains(prompt, "النص الأصلي") {
		t.Error("expected prompt to contain the Arabic source")
	}
	if !strings.Contains(prompt, "The draft") {
		t.Error("expected prompt to contain the draft")
	}
	if !strings.Contains(prompt, "Tawhid, Sunnah") {
		t.Error("expected prompt to list preserve terms")
	}
}

func TestBuildRefinementPrompt_NoTerms(t *testing.T) {
	prompt := buildRefinementPrompt("النص", "Draft", nil)
	if strings.Contains(prompt, "stay untranslated") {
		t.Error("expected no preserve-term line without terms")
	}
}

func TestRefinerInterface(t *testing.T) {
	var _ Refiner = (*OllamaRefiner)(nil)
}
