// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package temporal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const extractionReply = `{"has_date_reference":true,"period":"yesterday",` +
	`"start":"2026-01-14T00:00:00Z","end":"2026-01-14T23:59:59Z",` +
	`"human_readable":"yesterday","confidence":0.92}`

func chatReply(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
}

func TestLLMResolver_Resolve(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		fmt.Fprint(w, chatReply(extractionReply))
	}))
	defer srv.Close()

	l := NewLLMResolver(srv.URL, "secret", "extractor-v1")
	dc, err := l.Resolve(context.Background(), "yesterday", testNow, "UTC")

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "extractor-v1", gjson.Get(gotBody, "model").String())
	assert.Equal(t, "system", gjson.Get(gotBody, "messages.0.role").String())
	assert.Contains(t, gjson.Get(gotBody, "messages.1.content").String(), "Query: yesterday")

	assert.True(t, dc.HasDateReference)
	assert.Equal(t, PeriodYesterday, dc.Period)
	assert.Equal(t, "UTC", dc.Timezone)
	assert.InDelta(t, 0.92, dc.Confidence, 1e-9)
	assert.True(t, dc.Start.Equal(time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC)))
}

func TestLLMResolver_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := NewLLMResolver(srv.URL, "", "extractor-v1")
	_, err := l.Resolve(context.Background(), "yesterday", testNow, "UTC")

	assert.ErrorContains(t, err, "status 503")
}

func TestLLMResolver_MissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	l := NewLLMResolver(srv.URL, "", "extractor-v1")
	_, err := l.Resolve(context.Background(), "yesterday", testNow, "UTC")

	assert.ErrorContains(t, err, "missing content")
}

func TestParseExtraction(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		dc, err := parseExtraction(extractionReply, "UTC")
		require.NoError(t, err)
		assert.Equal(t, PeriodYesterday, dc.Period)
		assert.Equal(t, "yesterday", dc.HumanReadable)
	})

	t.Run("object wrapped in prose", func(t *testing.T) {
		wrapped := "Sure, here is the range:\n```json\n" + extractionReply + "\n```"
		dc, err := parseExtraction(wrapped, "UTC")
		require.NoError(t, err)
		assert.Equal(t, PeriodYesterday, dc.Period)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := parseExtraction(`{"period":"yesterday"}`, "UTC")
		assert.ErrorContains(t, err, "missing required fields")
	})

	t.Run("no object at all", func(t *testing.T) {
		_, err := parseExtraction("I could not determine a range.", "UTC")
		assert.ErrorContains(t, err, "not a JSON object")
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := parseExtraction(`{"period":"custom","start":"not-a-time","end":"2026-01-14T23:59:59Z"}`, "UTC")
		assert.ErrorContains(t, err, "parse extraction start")
	})
}

func TestNoopFallback(t *testing.T) {
	_, err := NoopFallback{}.Resolve(context.Background(), "yesterday", testNow, "UTC")
	assert.Error(t, err)
}
