//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

type userInfo struct {
	ID           string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func createGuest(t *testing.T, baseURL, username string) userInfo {
	t.Helper()

	payload := map[string]string{
		"username": fmt.Sprintf("%s-%d", username, time.Now().UnixNano()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal guest payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/guest", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create guest request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected guest response status: %d", resp.StatusCode)
	}

	var out struct {
		GuestID      string `json:"guest_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode guest response failed: %v", err)
	}

	if out.AccessToken == "" {
		t.Fatalf("empty access token in guest response")
	}

	return userInfo{
		ID:           out.GuestID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func createRegisteredUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
		"username": fmt.Sprintf("player-%d", time.Now().UnixNano()),
	}
	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/auth/register", baseURL), "", payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register response status: %d", resp.StatusCode)
	}

	var out struct {
		UserID       string `json:"user_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response failed: %v", err)
	}

	return userInfo{
		ID:           out.UserID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func loginUser(t *testing.T, baseURL, email, password string) userInfo {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	resp := makeAuthenticatedRequest(t, "POST", fmt.Sprintf("%s/v1/auth/login", baseURL), "", payload)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login response status: %d", resp.StatusCode)
	}

	var out struct {
		UserID       string `json:"user_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}

	return userInfo{
		ID:           out.UserID,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func makeAuthenticatedRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
