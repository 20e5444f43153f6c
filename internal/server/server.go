package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/inmoreal/internal/analysis"
	"github.com/iwvelando/inmoreal/internal/calculator"
	"github.com/iwvelando/inmoreal/internal/config"
	"github.com/iwvelando/inmoreal/internal/estimator"
	"github.com/iwvelando/inmoreal/internal/regions"
	"github.com/iwvelando/inmoreal/pkg/constants"
	"github.com/iwvelando/inmoreal/pkg/format"
	"github.com/iwvelando/inmoreal/pkg/output"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

// Options configures the HTTP handler.
type Options struct {
	MaxUploadSize     int64
	Version           string
	RequestsPerSecond float64
	Burst             int
	// TrustedProxies lists proxy addresses or networks whose X-Forwarded-For
	// header identifies the client for rate limiting. Empty trusts no one.
	TrustedProxies []string
	// Base supplies the estimator, region table, defaults and municipal gain
	// policy. Nil selects built-in defaults.
	Base *config.Configuration
	// Estimator overrides the estimator built from Base.
	Estimator estimator.Estimator
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	base          *config.Configuration
	table         *regions.Table
	estimator     estimator.Estimator
}

// NewHandler constructs the HTTP handler that serves the web UI and calculation API.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = constants.DefaultServerRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = constants.DefaultServerBurst
	}

	trusted, err := ParseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	base := opts.Base
	if base == nil {
		base = &config.Configuration{}
		base.ApplyDefaults()
	}

	table, err := base.RegionTable()
	if err != nil {
		return nil, fmt.Errorf("failed to build region table: %w", err)
	}
	if _, err := base.GainPolicy(); err != nil {
		return nil, err
	}

	est := opts.Estimator
	if est == nil {
		est, err = base.NewEstimator(logger)
		if err != nil {
			return nil, err
		}
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
		base:          base,
		table:         table,
		estimator:     est,
	}

	mux := http.NewServeMux()

	// Single sale/purchase calculation
	mux.HandleFunc("/api/calculate", h.handleCalculate)

	// Scenario analysis (configuration file upload)
	mux.HandleFunc("/api/analyze", h.handleAnalyze)

	mux.HandleFunc("/api/regions", h.handleRegions)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare embedded static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(sub)))

	limiter := newRateLimiter(logger, opts.RequestsPerSecond, opts.Burst, trusted)
	return limiter.middleware(mux), nil
}

type calculateRequest struct {
	Name          string                      `json:"name"`
	Sale          config.Sale                 `json:"sale"`
	Purchase      config.Purchase             `json:"purchase"`
	MunicipalGain *config.MunicipalGainConfig `json:"municipalGain,omitempty"`
}

type calculateResponse struct {
	Analysis output.Report `json:"analysis"`
	Duration string        `json:"duration"`
}

type analyzeResponse struct {
	Scenarios []output.Report `json:"scenarios"`
	CSV       string          `json:"csv"`
	Warnings  []string        `json:"warnings,omitempty"`
	Duration  string          `json:"duration"`
}

type regionRate struct {
	Region  string  `json:"region"`
	Rate    float64 `json:"rate"`
	Display string  `json:"display"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	conf := *h.base
	if req.MunicipalGain != nil {
		conf.MunicipalGain = *req.MunicipalGain
		conf.ApplyDefaults()
	}
	policy, err := conf.GainPolicy()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "calculation"
	}
	scenario := config.Scenario{Name: name, Active: true, Sale: req.Sale, Purchase: req.Purchase}

	calc := calculator.New(h.table, policy)
	a, err := analysis.Evaluate(r.Context(), h.logger, &conf, h.estimator, calc, scenario, time.Now())
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("calculation completed",
		zap.String("op", op),
		zap.String("sale_region", a.Sale.Region),
		zap.String("purchase_region", a.Purchase.Region),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, calculateResponse{Analysis: output.NewReport(a), Duration: elapsed.String()})
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var warnings []string
	if cfg.Regions.File != "" {
		warnings = append(warnings, "regions.file is ignored for uploaded configurations")
		cfg.Regions.File = ""
	}
	warnings = append(warnings, cfg.ValidateConfiguration()...)

	calc, err := cfg.NewCalculator()
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	analyses, err := analysis.RunScenarios(r.Context(), h.logger, cfg, h.estimator, calc, analysis.DefaultParallelism)
	if err != nil {
		h.respondErrorWithOp(w, statusFor(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("analysis computed",
		zap.String("op", op),
		zap.Int("scenarios", len(analyses)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, analyzeResponse{
		Scenarios: output.NewReports(analyses),
		CSV:       output.CsvString(analyses),
		Warnings:  warnings,
		Duration:  elapsed.String(),
	})
}

func (h *handler) handleRegions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	names := h.table.Regions()
	rates := make([]regionRate, 0, h.table.Len())
	for _, name := range names {
		rate, err := h.table.Rate(name)
		if err != nil {
			continue
		}
		rates = append(rates, regionRate{Region: name, Rate: rate, Display: format.Percent(rate)})
	}
	h.writeJSON(w, http.StatusOK, map[string][]regionRate{"regions": rates})
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

// statusFor maps calculation errors to HTTP status codes. Anything other
// than an unknown region stems from invalid input.
func statusFor(err error) int {
	var unknown *regions.UnknownRegionError
	if errors.As(err, &unknown) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
