// SPDX-License-Identifier: GPL-3.0-only

// Package ai wraps LLM providers behind small interfaces with an ordered
// fallback chain: providers are tried in sequence and the final failure
// aggregates every attempted error.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// VisionGenerator extracts text from an image alongside a prompt. Providers
// without vision support simply do not implement it.
type VisionGenerator interface {
	GenerateFromImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error)
}

// Fallback tries each generator in order and returns the first success.
type Fallback struct {
	generators []TextGenerator
}

func NewFallback(generators ...TextGenerator) *Fallback {
	return &Fallback{generators: generators}
}

func (f *Fallback) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if len(f.generators) == 0 {
		return "", errors.New("no text generators configured")
	}
	var attempts []error
	for _, g := range f.generators {
		text, err := g.GenerateText(ctx, systemPrompt, userPrompt)
		if err == nil {
			return text, nil
		}
		attempts = append(attempts, err)
	}
	return "", fmt.Errorf("all text generators failed: %w", errors.Join(attempts...))
}

func (f *Fallback) GenerateFromImage(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	var attempts []error
	tried := false
	for _, g := range f.generators {
		vision, ok := g.(VisionGenerator)
		if !ok {
			continue
		}
		tried = true
		text, err := vision.GenerateFromImage(ctx, prompt, imageData, mimeType)
		if err == nil {
			return text, nil
		}
		attempts = append(attempts, err)
	}
	if !tried {
		return "", errors.New("no vision-capable generators configured")
	}
	return "", fmt.Errorf("all vision generators failed: %w", errors.Join(attempts...))
}

// ExtractJSON pulls the first balanced JSON object or array out of model
// output, tolerating surrounding prose and code fences.
func ExtractJSON(s string) (string, error) {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", errors.New("no JSON found in model output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1]), nil
			}
		}
	}
	return "", errors.New("unterminated JSON in model output")
}
