// Package channel hosts the inbound HTTP transport: the Telegram webhook
// route, the direct-download route, and operational endpoints.
package channel

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xrelay/internal/domain"
	"xrelay/internal/metrics"
	"xrelay/internal/relay"
)

// WebhookConfig configures the webhook server.
type WebhookConfig struct {
	Addr           string // listen address, e.g. ":8080"
	Path           string // Telegram update path (default: /webhook)
	SecretToken    string // X-Telegram-Bot-Api-Secret-Token check, empty = disabled
	MetricsEnabled bool
	MetricsPath    string
	Logger         *slog.Logger
}

// Webhook accepts Telegram updates and direct-download requests over HTTP
// and feeds them into the relay pipeline.
type Webhook struct {
	addr           string
	path           string
	secretToken    string
	metricsEnabled bool
	metricsPath    string
	pipeline       *relay.Pipeline
	logger         *slog.Logger
	server         *http.Server
}

// downloadRequest is the expected JSON body for the direct-download route.
type downloadRequest struct {
	ChatID int64  `json:"chat_id"`
	URL    string `json:"url"`
}

// NewWebhook creates the webhook server around a relay pipeline.
func NewWebhook(cfg WebhookConfig, pipeline *relay.Pipeline) *Webhook {
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Webhook{
		addr:           cfg.Addr,
		path:           cfg.Path,
		secretToken:    cfg.SecretToken,
		metricsEnabled: cfg.MetricsEnabled,
		metricsPath:    cfg.MetricsPath,
		pipeline:       pipeline,
		logger:         cfg.Logger,
	}
}

// Start runs the HTTP server until the context is cancelled.
func (w *Webhook) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleUpdate)
	mux.HandleFunc("/download", w.handleDownload)
	mux.HandleFunc("/healthz", w.handleHealth)
	if w.metricsEnabled {
		mux.HandleFunc(w.metricsPath, metrics.Collector.Handler())
	}

	w.server = &http.Server{
		Addr:              w.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	w.logger.Info("webhook server starting", "addr", w.addr, "path", w.path)

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("webhook server: %w", err)
	}
}

// handleUpdate consumes one Telegram update. Processing is synchronous:
// Telegram retries undelivered updates, so answering after the pipeline
// finishes keeps per-chat ordering intact.
func (w *Webhook) handleUpdate(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if w.secretToken != "" {
		token := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(w.secretToken)) != 1 {
			http.Error(rw, "Forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(rw, "Invalid JSON", http.StatusBadRequest)
		return
	}

	w.pipeline.HandleUpdate(r.Context(), update)

	writeJSON(rw, http.StatusOK, map[string]any{"ok": true})
}

// handleDownload runs the direct-download mode: a (chat_id, url) pair in,
// a structured verdict out, no transient chat messaging.
func (w *Webhook) handleDownload(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid JSON"})
		return
	}
	defer r.Body.Close()

	w.logger.Info("direct download requested", "chat_id", req.ChatID, "url", req.URL)

	if err := w.pipeline.ValidateDirect(req.ChatID, req.URL); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": validationErr.Reason})
			return
		}
		writeJSON(rw, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	result := w.pipeline.HandleDirectDownload(r.Context(), req.ChatID, req.URL)
	if !result.OK {
		writeJSON(rw, http.StatusInternalServerError, map[string]any{"ok": false, "error": result.Error})
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "message": "Download success."})
}

func (w *Webhook) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(rw http.ResponseWriter, status int, body any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	json.NewEncoder(rw).Encode(body)
}
