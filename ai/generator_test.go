// SPDX-License-Identifier: GPL-3.0-only

package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) GenerateText(context.Context, string, string) (string, error) {
	return s.text, s.err
}

type stubVisionGenerator struct {
	stubGenerator
	imageText string
	imageErr  error
}

func (s *stubVisionGenerator) GenerateFromImage(context.Context, string, []byte, string) (string, error) {
	return s.imageText, s.imageErr
}

func TestFallbackReturnsFirstSuccess(t *testing.T) {
	fallback := NewFallback(
		&stubGenerator{err: errors.New("primary down")},
		&stubGenerator{text: "from fallback"},
	)
	got, err := fallback.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if got != "from fallback" {
		t.Errorf("got %q", got)
	}
}

func TestFallbackDoesNotSkipHealthyPrimary(t *testing.T) {
	fallback := NewFallback(
		&stubGenerator{text: "primary"},
		&stubGenerator{text: "secondary"},
	)
	got, _ := fallback.GenerateText(context.Background(), "sys", "user")
	if got != "primary" {
		t.Errorf("got %q, want primary's answer", got)
	}
}

func TestFallbackAggregatesAllErrors(t *testing.T) {
	fallback := NewFallback(
		&stubGenerator{err: errors.New("first backend down")},
		&stubGenerator{err: errors.New("second backend down")},
	)
	_, err := fallback.GenerateText(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "first backend down") || !strings.Contains(err.Error(), "second backend down") {
		t.Errorf("error should name every attempt: %v", err)
	}
}

func TestFallbackWithoutGenerators(t *testing.T) {
	fallback := NewFallback()
	if _, err := fallback.GenerateText(context.Background(), "sys", "user"); err == nil {
		t.Error("expected an error with no generators")
	}
}

func TestGenerateFromImageSkipsTextOnlyProviders(t *testing.T) {
	fallback := NewFallback(
		&stubGenerator{text: "text only"},
		&stubVisionGenerator{imageText: "vision answer"},
	)
	got, err := fallback.GenerateFromImage(context.Background(), "prompt", []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("GenerateFromImage failed: %v", err)
	}
	if got != "vision answer" {
		t.Errorf("got %q", got)
	}
}

func TestGenerateFromImageNoVisionProviders(t *testing.T) {
	fallback := NewFallback(&stubGenerator{text: "text only"})
	if _, err := fallback.GenerateFromImage(context.Background(), "p", nil, "image/png"); err == nil {
		t.Error("expected an error without vision providers")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[{"a":1},{"b":2}]`, `[{"a":1},{"b":2}]`},
		{"surrounding prose", "Here you go:\n[{\"name\":\"Jane\"}]\nLet me know!", `[{"name":"Jane"}]`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"braces inside strings", `{"text":"a { b } c"}`, `{"text":"a { b } c"}`},
		{"escaped quotes", `{"text":"she said \"hi\""}`, `{"text":"she said \"hi\""}`},
		{"nested", `{"a":{"b":[1,2]}}`, `{"a":{"b":[1,2]}}`},
	}
	for _, tc := range cases {
		got, err := ExtractJSON(tc.in)
		if err != nil {
			t.Errorf("%s: ExtractJSON failed: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractJSONErrors(t *testing.T) {
	if _, err := ExtractJSON("no json here"); err == nil {
		t.Error("expected error for prose without JSON")
	}
	if _, err := ExtractJSON(`{"truncated":`); err == nil {
		t.Error("expected error for unterminated JSON")
	}
}
