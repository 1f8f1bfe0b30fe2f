package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/pipeline"
)

func (s *runtimeState) newServeCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := listen
			if addr == "" {
				addr = s.settings.ListenAddr
			}
			log := s.log
			if !s.settings.Verbose {
				// The server always logs requests, console flag or not.
				log = newServerLogger(s.runner.stderr)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           NewChatHandler(s.pipeline, s.requestBudget(), log),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("chat API listening", zap.String("addr", addr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return clierr.Wrap(clierr.CodeInternal, "serve chat API", err)
				}
			case <-ctx.Done():
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return clierr.Wrap(clierr.CodeInternal, "shutdown chat API", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}

func newServerLogger(stderr io.Writer) *zap.Logger {
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(writerSyncer{stderr}), zapcore.InfoLevel)
	return zap.New(core)
}

type chatHandler struct {
	pipeline *pipeline.Pipeline
	budget   time.Duration
	log      *zap.Logger
	mux      *http.ServeMux
}

// NewChatHandler serves the same pipeline the CLI uses over HTTP.
func NewChatHandler(p *pipeline.Pipeline, budget time.Duration, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if budget <= 0 {
		budget = time.Minute
	}
	h := &chatHandler{pipeline: p, budget: budget, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat", h.handleChat)
	mux.HandleFunc("POST /v1/followups", h.handleFollowUps)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux = mux
	return h
}

func (h *chatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.mux.ServeHTTP(w, r)
	h.log.Info("request handled",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("elapsed", time.Since(start)))
}

type chatRequest struct {
	Message string `json:"message"`
	Wallet  string `json:"wallet,omitempty"`
}

type followUpRequest struct {
	LastBotMessage string `json:"last_bot_message"`
}

func (h *chatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, clierr.Wrap(clierr.CodeUsage, "decode request body", err))
		return
	}
	if req.Message == "" {
		writeError(w, clierr.New(clierr.CodeUsage, "message must not be empty"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	response, err := h.pipeline.Handle(ctx, req.Message, req.Wallet)
	if err != nil {
		h.log.Warn("chat request failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *chatHandler) handleFollowUps(w http.ResponseWriter, r *http.Request) {
	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, clierr.Wrap(clierr.CodeUsage, "decode request body", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.budget)
	defer cancel()

	followUps, err := h.pipeline.FollowUps(ctx, req.LastBotMessage)
	if err != nil {
		h.log.Warn("follow-up request failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, followUps)
}

func (h *chatHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	typ := "internal_error"
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		typ = errorType(cErr.Code)
		status = httpStatus(cErr.Code)
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"type":    typ,
			"message": message,
		},
	})
}

func httpStatus(code clierr.Code) int {
	switch code {
	case clierr.CodeUsage, clierr.CodeMissingAddress, clierr.CodeInvalidNetwork, clierr.CodeAirdropLimit:
		return http.StatusBadRequest
	case clierr.CodeAuth:
		return http.StatusUnauthorized
	case clierr.CodeRateLimited:
		return http.StatusTooManyRequests
	case clierr.CodeUnavailable, clierr.CodeClassification, clierr.CodePriceUnavailable:
		return http.StatusBadGateway
	case clierr.CodeUnsupported:
		return http.StatusUnprocessableEntity
	case clierr.CodeTimeout:
		return http.StatusGatewayTimeout
	case clierr.CodeTransactionNotFound, clierr.CodeTokenNotFound:
		return http.StatusNotFound
	case clierr.CodeInsufficientBalance:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
