package inspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fjacquet/merchant-resolver/internal/detector"
	"fjacquet/merchant-resolver/internal/logging"
	"fjacquet/merchant-resolver/internal/models"
	"fjacquet/merchant-resolver/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	calls int
	names map[string]string
}

func (s *stubResolver) Resolve(_ context.Context, texts []string) []string {
	s.calls++
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = models.UnresolvedSentinel
		if n, ok := s.names[t]; ok {
			out[i] = n
		}
	}
	return out
}

func newBook(t *testing.T, seed ...models.Rule) (*rules.Book, *rules.MockRuleStore) {
	t.Helper()
	st := rules.NewMockRuleStore(seed...)
	b := rules.NewBook(st, nil)
	require.NoError(t, b.Refresh(context.Background()))
	return b, st
}

func TestInspector_Inspect(t *testing.T) {
	book, st := newBook(t,
		models.Rule{Pattern: "starbucks", Category: "Food", Subcategory: "Coffee"},
		models.Rule{Pattern: "zelle to jane", Category: "Family"},
	)
	res := &stubResolver{names: map[string]string{
		"ZELLE PAYMENT TO JANE DOE REF 12345": "Zelle To Jane Doe",
		"STARBUCKS STORE 00231 SEATTLE WA":    "Starbucks",
	}}
	ins := NewInspector(detector.NewDetector(), res, book)

	reports := ins.Inspect(context.Background(), []string{
		"ZELLE PAYMENT TO JANE DOE REF 12345",
		"STARBUCKS STORE 00231 SEATTLE WA",
		"VENMO CASHOUT",
	})
	require.Len(t, reports, 3)
	assert.Equal(t, 1, res.calls)

	z := reports[0]
	assert.Equal(t, "ZELLE PAYMENT TO JANE DOE", z.Normalized)
	assert.Equal(t, models.ProviderZelle, z.Provider)
	assert.Equal(t, models.DirectionTo, z.Direction)
	assert.Equal(t, "Jane Doe", z.Counterparty)
	assert.Equal(t, "Zelle To Jane Doe", z.CanonicalPhrase)
	assert.Equal(t, "Zelle To Jane Doe", z.Prefill)
	assert.Equal(t, "Zelle To Jane Doe", z.Resolved)
	assert.Equal(t, "zelle to jane", z.MatchedRule)

	s := reports[1]
	assert.Equal(t, models.ProviderNone, s.Provider)
	assert.Empty(t, s.Prefill)
	assert.Equal(t, "Starbucks", s.Resolved)
	assert.Equal(t, "starbucks", s.MatchedRule)

	v := reports[2]
	assert.Equal(t, models.ProviderVenmo, v.Provider)
	assert.Empty(t, v.Counterparty)
	assert.Empty(t, v.Prefill)
	assert.Equal(t, models.UnresolvedSentinel, v.Resolved)
	assert.Empty(t, v.MatchedRule)

	assert.Zero(t, st.UpsertCalls, "inspection never writes rules")
}

func TestInspector_WithoutResolver(t *testing.T) {
	ins := NewInspector(detector.NewDetector(), nil, nil)

	reports := ins.Inspect(context.Background(), []string{"VENMO PAYMENT TO JOHN SMITH", "CORNER DELI"})
	require.Len(t, reports, 2)
	assert.Equal(t, "Venmo To John Smith", reports[0].Resolved)
	assert.Equal(t, models.UnresolvedSentinel, reports[1].Resolved)
}

func TestInspector_Empty(t *testing.T) {
	res := &stubResolver{}
	ins := NewInspector(detector.NewDetector(), res, nil)
	assert.Empty(t, ins.Inspect(context.Background(), nil))
	assert.Zero(t, res.calls)
}

func TestHandler_Parse(t *testing.T) {
	ins := NewInspector(detector.NewDetector(), nil, nil)
	h := NewHandler(ins, logging.NewMockLogger())

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"ok", http.MethodPost, `{"lines":["ZELLE TO JANE DOE"]}`, http.StatusOK},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, `{"lines":`, http.StatusBadRequest},
		{"no lines", http.MethodPost, `{"lines":[]}`, http.StatusBadRequest},
		{"too many", http.MethodPost, `{"lines":[` + strings.TrimSuffix(strings.Repeat(`"x",`, MaxLines+1), ",") + `]}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/debug/parse", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.status != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHandler_ParseResponseShape(t *testing.T) {
	h := NewHandler(NewInspector(detector.NewDetector(), nil, nil), nil)
	req := httptest.NewRequest(http.MethodPost, "/debug/parse", strings.NewReader(`{"lines":["ZELLE TO JANE DOE","CORNER DELI"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []map[string]any `json:"results"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "Zelle", body.Results[0]["provider"])
	assert.Equal(t, "Zelle To Jane Doe", body.Results[0]["prefill"])
	assert.Equal(t, "", body.Results[1]["prefill"])
	assert.Equal(t, "Unknown", body.Results[1]["resolved"])
}

func TestHandler_Health(t *testing.T) {
	h := NewHandler(NewInspector(detector.NewDetector(), nil, nil), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRecovery(t *testing.T) {
	logger := logging.NewMockLogger()
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logger.HasEntry("ERROR", "Panic recovered"))
}
