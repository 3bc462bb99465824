package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/muratoffalex/ytscribe/internal/database"
	"github.com/muratoffalex/ytscribe/internal/logger"
	"github.com/muratoffalex/ytscribe/internal/metrics"
	"github.com/muratoffalex/ytscribe/internal/pipeline"
	"github.com/muratoffalex/ytscribe/internal/transcript"
)

const (
	HeaderSource  = "X-Transcript-Source"
	HeaderVideoID = "X-Video-Id"

	defaultAttemptsLimit = 20
)

type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) (transcript.Result, error)
}

type AttemptStore interface {
	RecentAttempts(ctx context.Context, videoID string, limit int) ([]database.AttemptRecord, error)
}

type Localizer interface {
	Hint(acceptLanguage string, hint transcript.Hint) string
	Localize(acceptLanguage, messageID string, data map[string]any) string
}

type Handler struct {
	pipeline        Pipeline
	attempts        AttemptStore
	localizer       Localizer
	throttle        *Throttle
	metrics         *metrics.Metrics
	defaultLanguage string
	requestTimeout  time.Duration
	logger          logger.Logger
}

type HandlerConfig struct {
	DefaultLanguage string
	RequestTimeout  time.Duration
}

// NewHandler wires the HTTP surface. attempts and m may be nil.
func NewHandler(
	p Pipeline,
	attempts AttemptStore,
	localizer Localizer,
	throttle *Throttle,
	m *metrics.Metrics,
	cfg HandlerConfig,
	l logger.Logger,
) *Handler {
	return &Handler{
		pipeline:        p,
		attempts:        attempts,
		localizer:       localizer,
		throttle:        throttle,
		metrics:         m,
		defaultLanguage: cfg.DefaultLanguage,
		requestTimeout:  cfg.RequestTimeout,
		logger:          l,
	}
}

type errorBody struct {
	Error    string               `json:"error"`
	Hint     string               `json:"hint"`
	Attempts []transcript.Attempt `json:"attempts"`
}

type wrappedTranscript struct {
	Source   string `json:"source"`
	VideoID  string `json:"videoId"`
	Format   string `json:"format"`
	Language string `json:"language,omitempty"`
	Text     string `json:"text"`
}

func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	log := h.logger.WithField("http_request_id", middleware.GetReqID(r.Context()))

	ref, err := transcript.ParseVideoRef(query.Get("url"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	format, err := transcript.ParseFormat(query.Get("format"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	lang := strings.TrimSpace(query.Get("lang"))
	if lang == "" {
		lang = h.defaultLanguage
	}

	release, err := h.throttle.Acquire(r.Context())
	if err != nil {
		var throttled *ThrottledError
		if errors.As(err, &throttled) {
			if h.metrics != nil {
				h.metrics.RequestsThrottled.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(throttled.RetryAfterSeconds()))
			h.writeJSON(w, http.StatusTooManyRequests, errorBody{
				Error: h.localizer.Localize(r.Header.Get("Accept-Language"), "error_throttled",
					map[string]any{"RetryAfter": throttled.RetryAfterSeconds()}),
				Attempts: []transcript.Attempt{},
			})
			return
		}
		log.WithError(err).Debug("Client gone while waiting for a slot")
		return
	}
	defer release()

	if h.metrics != nil {
		h.metrics.RequestsInFlight.Inc()
		defer h.metrics.RequestsInFlight.Dec()
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	req := pipeline.Request{
		ID:       uuid.NewString(),
		Ref:      ref,
		Language: lang,
		Format:   format,
	}
	w.Header().Set("X-Request-Id", req.ID)

	started := time.Now()
	result, err := h.pipeline.Run(ctx, req)
	if h.metrics != nil {
		h.metrics.RecordRequest(err, time.Since(started))
	}
	if err != nil {
		if r.Context().Err() != nil {
			log.WithField("request_id", req.ID).Info("Client disconnected before the transcript was ready")
			return
		}
		h.writeError(w, r, statusFor(err), err)
		return
	}

	log.WithFields(logger.Fields{
		"request_id": req.ID,
		"video_id":   ref.ID,
		"source":     result.Source,
		"format":     string(format),
		"duration":   time.Since(started).String(),
	}).Info("Transcript served")

	body := format.Render(result.Segments)
	w.Header().Set(HeaderSource, result.Source)
	w.Header().Set(HeaderVideoID, result.VideoID)

	if query.Get("wrap") == "json" {
		w.Header().Set("Content-Disposition", attachment(result.VideoID, "json"))
		h.writeJSON(w, http.StatusOK, wrappedTranscript{
			Source:   result.Source,
			VideoID:  result.VideoID,
			Format:   string(format),
			Language: result.Language,
			Text:     body,
		})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(result.VideoID, string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func attachment(videoID, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s.%s"`, videoID, ext)
}

func (h *Handler) Attempts(w http.ResponseWriter, r *http.Request) {
	if h.attempts == nil {
		http.Error(w, "attempt history is disabled", http.StatusNotFound)
		return
	}

	videoID := r.URL.Query().Get("video")
	if !transcript.IsVideoID(videoID) {
		if ref, err := transcript.ParseVideoRef(videoID); err == nil {
			videoID = ref.ID
		} else {
			h.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	limit := defaultAttemptsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: limit must be a positive integer", transcript.ErrInvalidInput))
			return
		}
		limit = n
	}

	records, err := h.attempts.RecentAttempts(r.Context(), videoID, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load attempts")
		http.Error(w, "failed to load attempts", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []database.AttemptRecord{}
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, transcript.ErrInvalidInput):
		return http.StatusBadRequest
	case transcript.IsFatal(err):
		return http.StatusInternalServerError
	case errors.Is(err, transcript.ErrExhausted):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	attempts := transcript.AttemptsOf(err)
	if attempts == nil {
		attempts = []transcript.Attempt{}
	}
	hint := transcript.HintFor(err)

	h.logger.WithFields(logger.Fields{
		"status": status,
		"hint":   string(hint),
		"kind":   transcript.KindOf(err),
	}).WithError(err).Warn("Transcript request failed")

	h.writeJSON(w, status, errorBody{
		Error:    err.Error(),
		Hint:     h.localizer.Hint(r.Header.Get("Accept-Language"), hint),
		Attempts: attempts,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Warn("Failed to write response")
	}
}
