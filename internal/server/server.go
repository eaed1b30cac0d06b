package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/iwvelando/household-budget/internal/budget"
	"github.com/iwvelando/household-budget/internal/cache"
	"github.com/iwvelando/household-budget/internal/config"
	"github.com/iwvelando/household-budget/internal/engine"
	"github.com/iwvelando/household-budget/internal/store"
	"github.com/iwvelando/household-budget/pkg/constants"
	"github.com/iwvelando/household-budget/pkg/output"
	"github.com/iwvelando/household-budget/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures the API handler. Zero values fall back to defaults: the
// stock profile, a bounded in-process cache and no rate limit.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	Profile       *engine.Profile
	Cache         cache.Cache
	Limiter       *RateLimiter
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	profile       engine.Profile
	cache         cache.Cache
}

// NewHandler constructs the HTTP handler that serves the household API.
func NewHandler(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	profile := engine.DefaultProfile()
	if opts.Profile != nil {
		profile = *opts.Profile
	}

	resultCache := opts.Cache
	if resultCache == nil {
		ttl, _ := time.ParseDuration(constants.DefaultCacheTTL)
		resultCache = cache.NewMemoryCache(ttl, constants.DefaultMemoryCacheEntries)
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		version:       trimmedVersion,
		profile:       profile,
		cache:         resultCache,
	}

	mux := http.NewServeMux()

	// Single household from a JSON record
	mux.HandleFunc("/api/compute", h.handleCompute)

	// Saved record upload
	mux.HandleFunc("/api/import", h.handleImport)

	// Normalized record download
	mux.HandleFunc("/api/export", h.handleExport)

	// Suggested stipends while a form is being filled in
	mux.HandleFunc("/api/defaults", h.handleDefaults)

	// Whole configuration file upload
	mux.HandleFunc("/api/evaluate", h.handleEvaluate)

	mux.HandleFunc("/api/version", h.handleVersion)

	return RateLimitMiddleware(logger, opts.Limiter, mux)
}

type computeResponse struct {
	Label    string                 `json:"label,omitempty"`
	Input    engine.HouseholdInput  `json:"input"`
	Result   engine.HouseholdResult `json:"result"`
	Defaults engine.Suggestions     `json:"defaults"`
	Warnings []string               `json:"warnings,omitempty"`
	Cached   bool                   `json:"cached"`
}

type evaluateResponse struct {
	Households []string        `json:"households"`
	Reports    []budget.Report `json:"reports"`
	CSV        string          `json:"csv"`
	Warnings   []string        `json:"warnings,omitempty"`
	Duration   string          `json:"duration"`
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompute"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rec, ok := h.decodeRecord(w, r, op)
	if !ok {
		return
	}

	in, err := rec.Draft.Build(h.profile)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	h.respondComputed(r.Context(), w, rec, in, op)
}

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}

	rec, in, err := store.Load(bytes.NewReader(data), h.profile)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, store.ErrMalformed) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	h.respondComputed(r.Context(), w, rec, in, op)
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format), op)
		return
	}

	rec, ok := h.decodeRecord(w, r, op)
	if !ok {
		return
	}

	in, err := rec.Draft.Build(h.profile)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	var buf bytes.Buffer
	contentType := "application/json"
	if format == "yaml" {
		contentType = "application/yaml"
		err = encodeConfigHousehold(&buf, rec.Label, in)
	} else {
		err = store.Save(&buf, rec.Label, in)
	}
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(rec.Label, format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write export", zap.String("op", op), zap.Error(err))
	}
}

// configHousehold mirrors a households entry of the configuration file.
type configHousehold struct {
	Name         string `yaml:"name"`
	Active       bool   `yaml:"active"`
	engine.Draft `yaml:",inline"`
}

func encodeConfigHousehold(w io.Writer, label string, in engine.HouseholdInput) error {
	doc := map[string][]configHousehold{
		"households": {{Name: label, Active: true, Draft: engine.DraftFromInput(in)}},
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode household: %w", err)
	}
	return encoder.Close()
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func exportFilename(label, format string) string {
	base := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if base == "" {
		base = "household"
	}
	return base + "." + format
}

func (h *handler) handleDefaults(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDefaults"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	rec, ok := h.decodeRecord(w, r, op)
	if !ok {
		return
	}

	in, err := rec.Draft.Build(h.profile)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	h.writeJSON(w, http.StatusOK, h.profile.Suggest(in))
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	data, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(data))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	warnings := conf.ValidateConfiguration()

	reports, err := budget.Evaluate(h.logger, *conf)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}

	var csvBuf bytes.Buffer
	if err := output.CsvFormat(&csvBuf, reports); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
		return
	}

	names := make([]string, 0, len(reports))
	for _, report := range reports {
		names = append(names, report.Name)
	}

	elapsed := time.Since(start)
	h.logger.Info("configuration evaluated",
		zap.String("op", op),
		zap.Int("households", len(reports)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		Households: names,
		Reports:    reports,
		CSV:        csvBuf.String(),
		Warnings:   warnings,
		Duration:   elapsed.String(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondComputed(ctx context.Context, w http.ResponseWriter, rec store.Record, in engine.HouseholdInput, op string) {
	res, cached := h.compute(ctx, in, op)

	check := config.Household{Name: rec.Label, Active: true, Draft: rec.Draft}.Check()
	h.writeJSON(w, http.StatusOK, computeResponse{
		Label:    rec.Label,
		Input:    in,
		Result:   res,
		Defaults: h.profile.Suggest(in),
		Warnings: validation.ValidateHousehold(check),
		Cached:   cached,
	})
}

// compute returns the memoized result for in when present. Cache failures
// only cost a recomputation.
func (h *handler) compute(ctx context.Context, in engine.HouseholdInput, op string) (engine.HouseholdResult, bool) {
	key, err := cache.Key(in)
	if err != nil {
		h.logger.Warn("failed to derive cache key", zap.String("op", op), zap.Error(err))
		return engine.Compute(in), false
	}

	if cached, ok := h.cache.Get(ctx, key); ok {
		var res engine.HouseholdResult
		if err := json.Unmarshal([]byte(cached), &res); err == nil {
			return res, true
		}
		h.logger.Warn("discarding unreadable cache entry", zap.String("op", op), zap.String("key", key))
	}

	res := engine.Compute(in)
	data, err := json.Marshal(res)
	if err == nil {
		err = h.cache.Set(ctx, key, string(data))
	}
	if err != nil {
		h.logger.Warn("failed to cache result", zap.String("op", op), zap.Error(err))
	}
	return res, false
}

func (h *handler) decodeRecord(w http.ResponseWriter, r *http.Request, op string) (store.Record, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var rec store.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return rec, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode household: %v", err), op)
		return rec, false
	}
	return rec, true
}

// readUpload returns the contents of the multipart "file" field.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing file field", op)
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %v", err), op)
		return nil, false
	}
	return data, true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON encodes before writing the header so an unencodable payload
// becomes a 500 instead of an empty 200.
func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
