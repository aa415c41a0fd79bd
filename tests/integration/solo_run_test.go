//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

type runView struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CurrentScore int    `json:"current_score"`
	MaxAttempts  int    `json:"max_attempts"`
	AttemptsUsed int    `json:"attempts_used"`
	WordLength   int    `json:"word_length"`
}

type resultView struct {
	Run        runView `json:"run"`
	IsCorrect  bool    `json:"is_correct"`
	IsGameOver bool    `json:"is_game_over"`
	FinalScore int     `json:"final_score"`
}

func TestSoloRunFlow(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "SoloPlayer")

	// Start a run.
	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/start", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected start response status: %d", resp.StatusCode)
	}
	var started runView
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		t.Fatalf("decode start response failed: %v", err)
	}
	if started.Status != "active" {
		t.Fatalf("expected active run, got %q", started.Status)
	}
	if started.WordLength != 5 {
		t.Fatalf("expected 5-letter words, got %d", started.WordLength)
	}
	if started.AttemptsUsed != 0 {
		t.Fatalf("fresh run should have no attempts used, got %d", started.AttemptsUsed)
	}

	// Fetch it back.
	resp = makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/runs/solo", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected get response status: %d", resp.StatusCode)
	}
	var fetched runView
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response failed: %v", err)
	}
	if fetched.ID != started.ID {
		t.Fatalf("run ID mismatch: %s vs %s", fetched.ID, started.ID)
	}

	// Wrong-length guess is rejected without burning an attempt.
	resp = makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/guess", baseURL), guest.AccessToken, map[string]string{"guess_word": "cat"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short guess, got %d", resp.StatusCode)
	}

	// Valid dictionary guess.
	resp = makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/guess", baseURL), guest.AccessToken, map[string]string{"guess_word": "crane"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected guess response status: %d", resp.StatusCode)
	}
	var result resultView
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode guess response failed: %v", err)
	}
	if !result.IsCorrect && result.Run.AttemptsUsed != 1 {
		t.Fatalf("wrong guess should burn one attempt, got %d", result.Run.AttemptsUsed)
	}

	// Repeating the same wrong guess within a word is a conflict.
	if !result.IsCorrect && !result.IsGameOver {
		resp = makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/guess", baseURL), guest.AccessToken, map[string]string{"guess_word": "crane"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("expected 409 for duplicate guess, got %d", resp.StatusCode)
		}
	}
}

func TestSoloAbandonEndsRun(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	guest := createGuest(t, baseURL, "Quitter")

	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/start", baseURL), guest.AccessToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected start response status: %d", resp.StatusCode)
	}

	resp = makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/runs/solo/abandon", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected abandon response status: %d", resp.StatusCode)
	}
	var result resultView
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode abandon response failed: %v", err)
	}
	if !result.IsGameOver {
		t.Fatal("abandon should end the game")
	}
	if result.Run.Status != "failed" {
		t.Fatalf("abandoned run should be failed, got %q", result.Run.Status)
	}

	// No active run remains.
	resp = makeAuthenticatedRequest(t, "GET", fmt.Sprintf("%s/v1/runs/solo", baseURL), guest.AccessToken, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after abandon, got %d", resp.StatusCode)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp, err := http.Get(fmt.Sprintf("%s/v1/records?limit=10", baseURL))
	if err != nil {
		t.Fatalf("records request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected records response status: %d", resp.StatusCode)
	}

	var out struct {
		Records []struct {
			Rank     int    `json:"rank"`
			Username string `json:"username"`
			Record   int    `json:"record"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode records response failed: %v", err)
	}
}
