package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSplitSteps(t *testing.T) {
	text := "1. Buy running shoes\n\n2) Run 5km three times a week\n- Sign up for a half marathon\n   \nStep 4: Increase long runs\n* Taper before race day\n6. Extra line"
	got := SplitSteps(text)
	want := []string{
		"Buy running shoes",
		"Run 5km three times a week",
		"Sign up for a half marathon",
		"Increase long runs",
		"Taper before race day",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d steps: %q", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitStepsKeepsLeadingNumbers(t *testing.T) {
	got := SplitSteps("1. Buy shoes\n2.5 km easy jog on Monday\n3) Rest\n-5 push-ups a day\n10k by June")
	want := []string{"Buy shoes", "2.5 km easy jog on Monday", "Rest", "-5 push-ups a day", "10k by June"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitStepsEmpty(t *testing.T) {
	if got := SplitSteps("\n  \n"); len(got) != 0 {
		t.Fatalf("expected no steps, got %q", got)
	}
}

func TestGenerateSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing api key header")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "Run a marathon" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if req.Messages[0].Content != stepsPrompt {
			t.Errorf("system prompt not the fixed template")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "Buy shoes\nTrain\nRace"}}},
		})
	}))
	defer srv.Close()

	c := NewClient("key", zap.NewNop(), WithURL(srv.URL))
	steps, err := c.GenerateSteps(context.Background(), "Run a marathon")
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 || steps[0] != "Buy shoes" {
		t.Fatalf("steps = %q", steps)
	}
}

func TestGenerateStepsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
	}))
	defer srv.Close()

	c := NewClient("key", zap.NewNop(), WithURL(srv.URL))
	_, err := c.GenerateSteps(context.Background(), "Run a marathon")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Status != http.StatusTooManyRequests || perr.Message != "rate limit reached" {
		t.Fatalf("unexpected provider error %+v", perr)
	}
}

func TestGenerateStepsNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClient("", zap.NewNop(), WithURL(srv.URL))
	if _, err := c.GenerateSteps(context.Background(), "x"); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("expected ErrNoChoices, got %v", err)
	}
}
