package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/household-budget/internal/budget"
	"github.com/iwvelando/household-budget/internal/cache"
	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/internal/store"
	"go.uber.org/zap"
)

const coupleRecord = `{
  "label": "Family home",
  "household_type": "couple",
  "num_children": 2,
  "usage_type": "owner_occupied_with_rental",
  "living_area_m2": 140,
  "primary_salary": 3000,
  "partner_salary": 520,
  "planned_new_rent_income": 650,
  "current_warm_rent": 1100,
  "living_cost_stipend": 1450,
  "equity": 60000,
  "target_purchase_price": 420000
}`

func newTestHandler() http.Handler {
	return NewHandler(Options{Logger: zap.NewNop(), Version: "test"})
}

func TestHandleComputeSuccess(t *testing.T) {
	handler := newTestHandler()

	rr := performJSON(t, handler, "/api/compute", coupleRecord)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp computeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Label != "Family home" {
		t.Fatalf("expected label to be echoed, got %q", resp.Label)
	}
	if resp.Input.LivingCostStipend.Effective != 1450 || resp.Input.LivingCostStipend.Default != 2200 {
		t.Fatalf("expected overridden living stipend 1450 over default 2200, got %+v", resp.Input.LivingCostStipend)
	}
	if resp.Defaults.LivingCostStipend != 2200 {
		t.Fatalf("expected default living stipend 2200, got %v", resp.Defaults.LivingCostStipend)
	}
	if resp.Result.Target == nil {
		t.Fatal("expected target evaluation in response")
	}
	if resp.Result.RentVsBuyDelta == nil {
		t.Fatal("expected rent vs buy comparison in response")
	}
	if resp.Cached {
		t.Fatal("first computation must not be served from cache")
	}
	expected := engine.Compute(resp.Input)
	if resp.Result.DisposableAmount != expected.DisposableAmount {
		t.Fatalf("expected disposable %v, got %v", expected.DisposableAmount, resp.Result.DisposableAmount)
	}
}

func TestHandleComputeServedFromCache(t *testing.T) {
	memory := cache.NewMemoryCache(time.Hour, 10)
	handler := NewHandler(Options{Logger: zap.NewNop(), Cache: memory})

	first := performJSON(t, handler, "/api/compute", coupleRecord)
	second := performJSON(t, handler, "/api/compute", coupleRecord)

	var a, b computeResponse
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("failed to decode first response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("failed to decode second response: %v", err)
	}

	if a.Cached || !b.Cached {
		t.Fatalf("expected miss then hit, got %v then %v", a.Cached, b.Cached)
	}
	if memory.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", memory.Len())
	}
	if a.Result.MaxPurchasePrice != b.Result.MaxPurchasePrice {
		t.Fatalf("cached result differs: %v vs %v", a.Result.MaxPurchasePrice, b.Result.MaxPurchasePrice)
	}
}

func TestHandleComputeCacheStaysBounded(t *testing.T) {
	memory := cache.NewMemoryCache(time.Hour, 3)
	handler := NewHandler(Options{Logger: zap.NewNop(), Cache: memory})

	for i := 0; i < 50; i++ {
		body := fmt.Sprintf(`{"household_type": "single", "primary_salary": %d}`, 2000+i)
		rr := performJSON(t, handler, "/api/compute", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d: %s", i, rr.Code, rr.Body.String())
		}
	}
	if memory.Len() != 3 {
		t.Fatalf("expected the cache to hold at most 3 entries, got %d", memory.Len())
	}
}

func TestHandleComputeWarnings(t *testing.T) {
	rr := performJSON(t, newTestHandler(), "/api/compute", `{"household_type": "single", "partner_salary": 800, "primary_salary": 3000}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp computeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "partner salary") {
		t.Fatalf("expected partner salary warning, got %v", resp.Warnings)
	}
	if resp.Input.PartnerSalary != 0 {
		t.Fatalf("expected partner salary to be normalized away, got %v", resp.Input.PartnerSalary)
	}
}

func TestHandleComputeErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Malformed JSON", `{"primary_salary": `, http.StatusBadRequest},
		{"Wrong type", `{"num_children": "two"}`, http.StatusBadRequest},
		{"Unknown household type", `{"household_type": "commune"}`, http.StatusUnprocessableEntity},
		{"Negative amount", `{"equity": -5}`, http.StatusUnprocessableEntity},
	}

	handler := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, "/api/compute", tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" {
				t.Fatal("expected error message in response")
			}
		})
	}
}

func TestHandleImport(t *testing.T) {
	handler := newTestHandler()

	rr := performUpload(t, handler, "/api/import", coupleRecord, "household.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp computeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Label != "Family home" {
		t.Fatalf("expected label from record, got %q", resp.Label)
	}
	if resp.Input.HouseholdType != engine.Couple {
		t.Fatalf("expected couple household, got %s", resp.Input.HouseholdType)
	}
}

func TestHandleImportWarnsFromRecord(t *testing.T) {
	record := `{"label": "Solo", "household_type": "single", "partner_salary": 800, "primary_salary": 3000}`
	rr := performUpload(t, newTestHandler(), "/api/import", record, "solo.json")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp computeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Label != "Solo" {
		t.Fatalf("expected label from record, got %q", resp.Label)
	}
	if len(resp.Warnings) == 0 || !strings.Contains(resp.Warnings[0], "partner salary") {
		t.Fatalf("expected partner salary warning, got %v", resp.Warnings)
	}
	if resp.Input.PartnerSalary != 0 {
		t.Fatalf("expected partner salary to be dropped, got %v", resp.Input.PartnerSalary)
	}
}

func TestHandleImportErrors(t *testing.T) {
	handler := NewHandler(Options{Logger: zap.NewNop(), MaxUploadSize: 1024})

	tests := []struct {
		name    string
		content string
		status  int
	}{
		{"Malformed record", "household_type: couple", http.StatusBadRequest},
		{"Invalid record", `{"usage_type": "holiday_home"}`, http.StatusUnprocessableEntity},
		{"Upload too large", `{"label": "` + strings.Repeat("x", 4096) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, handler, "/api/import", tt.content, "household.json")
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleImportMissingFile(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("other", "value"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleExportJSON(t *testing.T) {
	rr := performJSON(t, newTestHandler(), "/api/export", coupleRecord)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="family-home.json"` {
		t.Fatalf("unexpected content disposition %q", got)
	}

	rec, in, err := store.Load(rr.Body, engine.DefaultProfile())
	if err != nil {
		t.Fatalf("exported record does not load: %v", err)
	}
	if rec.Label != "Family home" {
		t.Fatalf("expected label Family home, got %q", rec.Label)
	}
	if in.LivingCostStipend.Effective != 1450 {
		t.Fatalf("expected override to survive export, got %+v", in.LivingCostStipend)
	}
}

func TestHandleExportYAMLLoadsAsConfiguration(t *testing.T) {
	rr := performJSON(t, newTestHandler(), "/api/export?format=yaml", coupleRecord)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Body.String(), "households:") {
		t.Fatalf("expected a households document, got:\n%s", rr.Body.String())
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("exported YAML does not load as configuration: %v", err)
	}
	reports, err := budget.Evaluate(zap.NewNop(), *conf)
	if err != nil {
		t.Fatalf("exported household does not evaluate: %v", err)
	}
	if len(reports) != 1 || reports[0].Name != "Family home" {
		t.Fatalf("expected a single Family home report, got %+v", reports)
	}

	var draft store.Record
	if err := json.Unmarshal([]byte(coupleRecord), &draft); err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}
	original, err := draft.Draft.Build(engine.DefaultProfile())
	if err != nil {
		t.Fatalf("failed to build fixture: %v", err)
	}
	if reports[0].Input != original {
		t.Fatalf("round trip through YAML changed the input:\n got %+v\nwant %+v", reports[0].Input, original)
	}
}

func TestHandleExportUnsupportedFormat(t *testing.T) {
	rr := performJSON(t, newTestHandler(), "/api/export?format=pdf", coupleRecord)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleDefaults(t *testing.T) {
	rr := performJSON(t, newTestHandler(), "/api/defaults", `{"household_type": "couple", "num_children": 1, "living_area_m2": 100}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp engine.Suggestions
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	expected := engine.Suggestions{LivingCostStipend: 1900, OperatingCostStipend: 400, MaintenanceBuffer: 250}
	if resp != expected {
		t.Fatalf("expected %+v, got %+v", expected, resp)
	}
}

func TestHandleDefaultsUsesProfile(t *testing.T) {
	profile := engine.DefaultProfile()
	profile.Stipends.MaintenanceMode = engine.MaintenanceByArea
	handler := NewHandler(Options{Logger: zap.NewNop(), Profile: &profile})

	rr := performJSON(t, handler, "/api/defaults", `{"living_area_m2": 260}`)
	var resp engine.Suggestions
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.MaintenanceBuffer != 260 {
		t.Fatalf("expected area scaled maintenance buffer of 260, got %v", resp.MaintenanceBuffer)
	}
}

func TestHandleEvaluateSuccess(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	rr := performUpload(t, newTestHandler(), "/api/evaluate", string(data), "test_config.yaml")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Households) != 3 {
		t.Fatalf("expected three active households, got %v", resp.Households)
	}
	if len(resp.Reports) != 3 {
		t.Fatalf("expected three reports, got %d", len(resp.Reports))
	}
	if !strings.HasPrefix(resp.CSV, "metric,") {
		t.Fatalf("expected CSV data in response, got %q", resp.CSV)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleEvaluateInvalidHousehold(t *testing.T) {
	content := "households:\n  - name: Broken\n    active: true\n    householdType: commune\n"
	rr := performUpload(t, newTestHandler(), "/api/evaluate", content, "config.yaml")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleEvaluateRejectsNonFiniteValues(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"NaN salary", "primarySalary: .nan"},
		{"Infinite equity", "equity: .inf"},
		{"Negative infinite rent", "currentWarmRent: -.inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := "households:\n  - name: Broken\n    active: true\n    " + tt.value + "\n"
			rr := performUpload(t, newTestHandler(), "/api/evaluate", content, "config.yaml")
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), engine.ErrNonFinite.Error()) {
				t.Fatalf("expected non-finite error in body, got %q", rr.Body.String())
			}
		})
	}
}

func TestWriteJSONUnencodablePayload(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	rr := httptest.NewRecorder()
	h.writeJSON(rr, http.StatusOK, map[string]float64{"value": math.NaN()})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("expected an error body")
	}
}

func TestHandleEvaluateInvalidYAML(t *testing.T) {
	rr := performUpload(t, newTestHandler(), "/api/evaluate", "households: [unclosed", "config.yaml")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleVersion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	newTestHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "test" {
		t.Fatalf("expected version test, got %q", resp["version"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler()
	for _, path := range []string{"/api/compute", "/api/import", "/api/export", "/api/defaults", "/api/evaluate"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("GET %s: expected status 405, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /api/version: expected status 405, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	handler := NewHandler(Options{Logger: zap.NewNop(), Limiter: limiter})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rr.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}

	other := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	other.RemoteAddr = "198.51.100.7:4321"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected other clients to be unaffected, got %d", rr.Code)
	}
}

func TestRateLimiterRefillsAfterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	if !limiter.Allow("a") {
		t.Fatal("first request must pass")
	}
	if limiter.Allow("a") {
		t.Fatal("second request within the window must be rejected")
	}

	current = current.Add(time.Minute)
	if !limiter.Allow("a") {
		t.Fatal("request after the window must pass")
	}

	current = current.Add(2 * time.Hour)
	limiter.sweep()
	if len(limiter.buckets) != 0 {
		t.Fatalf("expected idle clients to be swept, got %d", len(limiter.buckets))
	}
}

func TestRateLimiterRefillsGradually(t *testing.T) {
	limiter := NewRateLimiter(4, time.Minute)
	defer limiter.Stop()

	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 4; i++ {
		if !limiter.Allow("a") {
			t.Fatalf("request %d within the burst must pass", i+1)
		}
	}
	ok, wait := limiter.take("a")
	if ok {
		t.Fatal("drained bucket must reject")
	}
	if wait != 15*time.Second {
		t.Fatalf("expected to wait 15s for the next token, got %s", wait)
	}

	current = current.Add(15 * time.Second)
	if !limiter.Allow("a") {
		t.Fatal("one token must be back after a quarter window")
	}
	if limiter.Allow("a") {
		t.Fatal("only one token must be back after a quarter window")
	}

	limiter.sweep()
	if len(limiter.buckets) != 1 {
		t.Fatalf("expected a partly drained bucket to survive the sweep, got %d", len(limiter.buckets))
	}
}

func performJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performUpload(t *testing.T, handler http.Handler, path, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
