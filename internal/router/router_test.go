package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/senyabanana/rfq-service/internal/compliance"
	"github.com/senyabanana/rfq-service/internal/handlers"
	"github.com/senyabanana/rfq-service/internal/models"
	"github.com/senyabanana/rfq-service/internal/report"
	"github.com/senyabanana/rfq-service/internal/repository"
	"github.com/senyabanana/rfq-service/internal/services"
	"github.com/senyabanana/rfq-service/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler   http.Handler
	reportDir string
	now       time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{reportDir: t.TempDir(), now: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return ts.now }

	repo := repository.NewMemoryRFQRepository(
		models.Vendor{ID: "A", Name: "Alpha Build", Email: "alpha@example.com"},
		models.Vendor{ID: "B", Name: "Beta Works", Email: "beta@example.com"},
	)
	tokens, err := token.NewService("router-test-secret", clock)
	require.NoError(t, err)

	gate := compliance.NewStaticGate([]string{"insurance"}, clock)
	gate.AddDocument(models.VendorDocument{VendorID: "A", Type: "insurance", Verified: true})

	svc := services.NewRFQService(repo, tokens, gate,
		report.NewFileRenderer(ts.reportDir, "http://localhost:8080/reports/"), nil, "http://portal.local/bid")
	svc.Now = clock

	ts.handler = InitRoutes(
		handlers.NewRFQHandler(svc, nil, time.Second),
		handlers.NewVendorHandler(svc, nil, time.Second),
		ts.reportDir,
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createRFQ(t *testing.T) (string, map[string]string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/rfqs/new", models.SolicitationRequest{
		ProjectID:        "p-1",
		Title:            "Roof repair",
		Lines:            []models.LineItem{{ID: "roof", Description: "Roofing", Quantity: 120, Unit: "m2"}},
		InvitedVendorIDs: []string{"A", "B"},
		DeadlineDays:     7,
		CreatedBy:        "buyer",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[models.SolicitationCreated](t, rec)
	tokens := make(map[string]string)
	for _, inv := range created.InvitedVendors {
		link, err := url.Parse(inv.AccessLink)
		require.NoError(t, err)
		tokens[inv.VendorID] = link.Query().Get("token")
	}
	return created.SolicitationID, tokens
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/ping", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/ping", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRFQLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id, tokens := ts.createRFQ(t)

	rec := ts.do(t, http.MethodPost, "/api/vendor/bids", models.BidRequest{
		TotalPrice: 100, TotalTime: 10, QualityScore: 8,
		Lines: []models.BidLine{{LineID: "roof", UnitPrice: 0.8, DeliveryDays: 10}},
	}, bearer(tokens["A"]))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[models.SubmitBidResponse](t, rec)
	assert.Equal(t, models.SubmittedBid, submitted.Status)

	ts.now = ts.now.Add(time.Minute)
	rec = ts.do(t, http.MethodPost, "/api/vendor/bids?token="+url.QueryEscape(tokens["B"]),
		models.BidRequest{TotalPrice: 120, TotalTime: 5, QualityScore: 9}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/vendor/bids",
		models.BidRequest{TotalPrice: 90, TotalTime: 5, QualityScore: 9}, bearer(tokens["A"]))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.ConflictError, decode[models.ErrorResponse](t, rec).Kind)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/compare",
		models.ScoringWeights{Price: 0.7, Time: 0.2, Quality: 0.1}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[models.ComparisonReport](t, rec)
	require.Len(t, rep.Offers, 2)
	assert.Equal(t, "A", rep.Offers[0].Bid.VendorID)
	assert.InDelta(t, 70, rep.Offers[0].Scoring.WeightedScore, 1e-9)
	assert.Equal(t, models.StrongRecommendation, rep.Offers[0].Recommendation)
	assert.Equal(t, "http://localhost:8080/reports/"+rep.ID+".json", rep.ReportURL)
	_, err := os.Stat(filepath.Join(ts.reportDir, rep.ID+".json"))
	assert.NoError(t, err)

	reportURL, err := url.Parse(rep.ReportURL)
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, reportURL.Path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rep.ID, decode[models.ComparisonReport](t, rec).ID)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/compare", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.DefaultScoringWeights, decode[models.ComparisonReport](t, rec).ScoringWeights)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/award", models.AwardRequest{VendorID: "B"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	blocked := decode[models.ErrorResponse](t, rec)
	assert.Equal(t, models.ComplianceError, blocked.Kind)
	assert.NotEmpty(t, blocked.Details)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/award", models.AwardRequest{VendorID: "A"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	award := decode[models.AwardResult](t, rec)
	assert.Equal(t, "A", award.AwardedTo)
	assert.False(t, award.OverrideUsed)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/award",
		models.AwardRequest{VendorID: "B", OverridePreCheck: true}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/rfqs/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sol := decode[models.Solicitation](t, rec)
	assert.Equal(t, models.AwardedSolicitation, sol.Status)
	require.NotNil(t, sol.AwardedTo)
	assert.Equal(t, "A", *sol.AwardedTo)
	assert.NotContains(t, rec.Body.String(), tokens["A"])

	rec = ts.do(t, http.MethodPut, "/api/rfqs/"+id+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rfq_http_requests_total")
	assert.Contains(t, rec.Body.String(), "rfq_awards_total")
}

func TestAwardOverride(t *testing.T) {
	ts := newTestServer(t)
	id, tokens := ts.createRFQ(t)

	rec := ts.do(t, http.MethodPost, "/api/vendor/bids",
		models.BidRequest{TotalPrice: 120, TotalTime: 5, QualityScore: 9}, bearer(tokens["B"]))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/award",
		models.AwardRequest{VendorID: "B", OverridePreCheck: true}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	award := decode[models.AwardResult](t, rec)
	assert.True(t, award.OverrideUsed)
	assert.False(t, award.PreCheckPassed)
}

func TestVendorErrors(t *testing.T) {
	ts := newTestServer(t)
	id, tokens := ts.createRFQ(t)
	bid := models.BidRequest{TotalPrice: 100, TotalTime: 10, QualityScore: 8}

	rec := ts.do(t, http.MethodPost, "/api/vendor/bids", bid, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/vendor/bids", bid, bearer(tokens["A"]+"x"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/vendor/bids", map[string]any{"totalPrice": 1, "bogus": true}, bearer(tokens["A"]))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/vendor/decline", nil, bearer(tokens["B"]))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.DeclinedVendor, decode[models.Invitation](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/api/vendor/bids", bid, bearer(tokens["B"]))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.now = ts.now.AddDate(0, 0, 8)
	rec = ts.do(t, http.MethodPost, "/api/vendor/bids", bid, bearer(tokens["A"]))
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, models.ExpiredError, decode[models.ErrorResponse](t, rec).Kind)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/compare", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRFQErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/rfqs/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/new", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/new", models.SolicitationRequest{
		ProjectID:        "p-1",
		Title:            "Roof repair",
		Lines:            []models.LineItem{{Description: "Roofing", Quantity: 1}},
		InvitedVendorIDs: []string{"nobody"},
		DeadlineDays:     7,
		CreatedBy:        "buyer",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invitedVendorIds", decode[models.ErrorResponse](t, rec).Field)

	id, _ := ts.createRFQ(t)
	rec = ts.do(t, http.MethodPut, "/api/rfqs/"+id+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CancelledSolicitation, decode[models.Solicitation](t, rec).Status)

	rec = ts.do(t, http.MethodPost, "/api/rfqs/"+id+"/award", models.AwardRequest{VendorID: "A"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
