// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const extractionPrompt = `Extract the date range the user is asking about. ` +
	`Respond with a single JSON object and nothing else: ` +
	`{"has_date_reference":bool,"period":"today|yesterday|this_week|last_week|this_month|last_month|custom|last_trip|none",` +
	`"start":"RFC3339","end":"RFC3339","human_readable":string,"confidence":number}`

// LLMResolver asks an OpenAI-compatible chat endpoint to extract a date
// range from ambiguous phrasing. It is the production FallbackResolver;
// tests use stubs instead.
type LLMResolver struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewLLMResolver creates a fallback resolver for the given chat-completions
// endpoint and model.
func NewLLMResolver(endpoint, apiKey, model string) *LLMResolver {
	return &LLMResolver{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{},
	}
}

// Resolve performs one bounded extraction call. Any transport, status or
// shape problem is returned as an error; the caller treats every error as
// "fallback unavailable".
func (l *LLMResolver) Resolve(ctx context.Context, query string, now time.Time, timezone string) (DateContext, error) {
	body, err := l.buildRequest(query, now, timezone)
	if err != nil {
		return DateContext{}, fmt.Errorf("build extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return DateContext{}, fmt.Errorf("create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return DateContext{}, fmt.Errorf("extraction call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return DateContext{}, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return DateContext{}, fmt.Errorf("extraction call returned status %d", resp.StatusCode)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if content == "" {
		return DateContext{}, fmt.Errorf("extraction response missing content")
	}
	return parseExtraction(content, timezone)
}

func (l *LLMResolver) buildRequest(query string, now time.Time, timezone string) ([]byte, error) {
	body := ""
	var err error
	if body, err = sjson.Set(body, "model", l.model); err != nil {
		return nil, err
	}
	if body, err = sjson.Set(body, "temperature", 0); err != nil {
		return nil, err
	}
	if body, err = sjson.Set(body, "messages.0.role", "system"); err != nil {
		return nil, err
	}
	if body, err = sjson.Set(body, "messages.0.content", extractionPrompt); err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Current time: %s (%s)\nQuery: %s", now.Format(time.RFC3339), timezone, query)
	if body, err = sjson.Set(body, "messages.1.role", "user"); err != nil {
		return nil, err
	}
	if body, err = sjson.Set(body, "messages.1.content", user); err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// parseExtraction maps the model's JSON object into a DateContext,
// rejecting anything that does not carry the full shape.
func parseExtraction(content, timezone string) (DateContext, error) {
	doc := gjson.Parse(content)
	if !doc.IsObject() {
		// Models sometimes wrap the object in prose or a code fence.
		open := strings.IndexByte(content, '{')
		last := strings.LastIndexByte(content, '}')
		if open < 0 || last <= open {
			return DateContext{}, fmt.Errorf("extraction reply is not a JSON object")
		}
		doc = gjson.Parse(content[open : last+1])
	}

	periodRaw := doc.Get("period")
	startRaw := doc.Get("start")
	endRaw := doc.Get("end")
	if !periodRaw.Exists() || !startRaw.Exists() || !endRaw.Exists() {
		return DateContext{}, fmt.Errorf("extraction reply missing required fields")
	}

	start, err := time.Parse(time.RFC3339, startRaw.String())
	if err != nil {
		return DateContext{}, fmt.Errorf("parse extraction start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, endRaw.String())
	if err != nil {
		return DateContext{}, fmt.Errorf("parse extraction end: %w", err)
	}

	return DateContext{
		HasDateReference: doc.Get("has_date_reference").Bool(),
		Period:           Period(periodRaw.String()),
		Start:            start,
		End:              end,
		HumanReadable:    doc.Get("human_readable").String(),
		Timezone:         timezone,
		Confidence:       doc.Get("confidence").Float(),
	}, nil
}

// NoopFallback is a FallbackResolver that always declines. It keeps the
// fast path independently testable without any network mocking.
type NoopFallback struct{}

// Resolve always reports the fallback as unavailable.
func (NoopFallback) Resolve(context.Context, string, time.Time, string) (DateContext, error) {
	return DateContext{}, fmt.Errorf("no fallback configured")
}
