package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fewknow/internal/interfaces"
	"fewknow/internal/jobs"
	"fewknow/internal/store"
	"fewknow/internal/types"
)

type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, ticker string) (*types.CompanyInfo, error) {
	if ticker == "ZZZZZ" {
		return nil, jobs.ErrNotFound
	}
	return &types.CompanyInfo{Ticker: ticker, Name: "Test Corp", Sector: "Technology"}, nil
}

type stubEarnings struct{}

func (stubEarnings) LatestEarnings(context.Context, string) (*types.EarningsMetadata, error) {
	return &types.EarningsMetadata{Date: "2026-07-30"}, nil
}

type stubPerformance struct{}

func (stubPerformance) Analyze(context.Context, string, string, string) (*types.PricePerformance, error) {
	return &types.PricePerformance{SinceEarnings: "+5.0%", Volatility: "low"}, nil
}

type stubNews struct{}

func (stubNews) Collect(context.Context, string, string, string) ([]types.NewsArticle, error) {
	return nil, nil
}

type stubDiscussions struct{}

func (stubDiscussions) Collect(context.Context, string, string, string) ([]types.DiscussionItem, error) {
	return []types.DiscussionItem{{Type: types.ItemSubmission, Title: "post", Score: 42}}, nil
}

type stubLLM struct{}

func (stubLLM) AnalyzeDiscussion(context.Context, string, string, []types.DiscussionItem) (*types.DiscussionAnalysis, error) {
	return &types.DiscussionAnalysis{OverallSummary: "bullish"}, nil
}

func (stubLLM) WriteReport(_ context.Context, rc *types.ReportContext) (*types.InsightReport, error) {
	return &types.InsightReport{Headline: rc.Ticker + " report"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := store.Default()
	st := jobs.NewStore()
	pipeline := jobs.NewPipeline(cfg, st, jobs.NewPublisher(st), jobs.Deps{
		Validator:   stubValidator{},
		Earnings:    stubEarnings{},
		Performance: stubPerformance{},
		News:        stubNews{},
		Discussions: stubDiscussions{},
		Analyzer:    stubLLM{},
		Writer:      stubLLM{},
	})
	var _ interfaces.TickerValidator = stubValidator{}
	return New(cfg, pipeline, stubValidator{})
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAnalyzeRequiresTicker(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodPost, "/api/analyze", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty ticker status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/analyze", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestAnalyzeToResultFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/analyze", `{"ticker":"NVDA"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("analyze status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatal(err)
	}
	if submitted.JobID == "" || submitted.Status != "pending" {
		t.Fatalf("submit response = %+v", submitted)
	}

	deadline := time.Now().Add(2 * time.Second)
	var st types.JobStatus
	for time.Now().Before(deadline) {
		rec = doJSON(t, s, http.MethodGet, "/api/status/"+submitted.JobID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status endpoint = %d", rec.Code)
		}
		json.Unmarshal(rec.Body.Bytes(), &st)
		if st.Status.Terminal() {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if st.Status != types.StatusCompleted {
		t.Fatalf("job never completed: %+v", st)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/result/"+submitted.JobID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d", rec.Code)
	}
	var res types.AnalysisResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Kind != types.ReportFull || res.InsightReport == nil {
		t.Errorf("result = %+v", res)
	}
}

func TestStatusAndResultNotFound(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodGet, "/api/status/ghost", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/api/result/ghost", ""); rec.Code != http.StatusNotFound {
		t.Errorf("result = %d, want 404", rec.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/validate/NVDA", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("validate = %d", rec.Code)
	}
	var info types.CompanyInfo
	json.Unmarshal(rec.Body.Bytes(), &info)
	if info.Name != "Test Corp" {
		t.Errorf("info = %+v", info)
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/validate/ZZZZZ", ""); rec.Code != http.StatusNotFound {
		t.Errorf("invalid ticker = %d, want 404", rec.Code)
	}
}
