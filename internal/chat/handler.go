// Package chat orchestrates the inbound request pipeline: quota, content
// checks, the completion call and response shaping.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/bappa-ai/gateway/internal/api"
	"github.com/bappa-ai/gateway/internal/auth"
	"github.com/bappa-ai/gateway/internal/completion"
	"github.com/bappa-ai/gateway/internal/events"
	"github.com/bappa-ai/gateway/internal/guard"
	"github.com/bappa-ai/gateway/internal/history"
	"github.com/bappa-ai/gateway/internal/metrics"
	"github.com/bappa-ai/gateway/internal/middleware"
	"github.com/bappa-ai/gateway/internal/quota"
)

// maxHistoryTurns caps how much trailing conversation is forwarded to the
// provider.
const maxHistoryTurns = 10

// CompletionClient is the downstream completion provider.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt string, history []completion.Turn, message string) (*completion.Result, error)
}

// HistoryStore records finished turns. Nil disables recording.
type HistoryStore interface {
	Append(ctx context.Context, userID, sessionID string, entries ...history.Entry) error
}

// UsagePublisher emits usage events. Nil disables publishing.
type UsagePublisher interface {
	PublishChatUsage(ctx context.Context, u events.ChatUsage) error
	PublishQuotaDenied(ctx context.Context, d events.QuotaDenied) error
}

// Deps are the handler's collaborators. Completions and Daily are required;
// the rest are optional.
type Deps struct {
	Completions CompletionClient
	Daily       *quota.Limiter
	History     HistoryStore
	Usage       UsagePublisher
}

type Handler struct {
	deps     Deps
	validate *validator.Validate
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, validate: validator.New()}
}

// Request is the /chat body.
type Request struct {
	Message             string            `json:"message" validate:"required"`
	ConversationHistory []completion.Turn `json:"conversationHistory" validate:"omitempty,dive"`
	SessionID           string            `json:"sessionId" validate:"omitempty,max=128"`
}

// Chat handles POST /chat. The auth middleware has already populated the
// Principal; everything after the daily quota check runs on sanitized input
// only.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())

	// Daily cap keys on the principal, falling back to the client address
	// for the unauthenticated edge case.
	key := "ip:" + middleware.ClientIP(r)
	if principal != nil {
		key = "user:" + principal.UserID
	}
	d := h.deps.Daily.Allow(r.Context(), key)
	middleware.SetRateLimitHeaders(w, d)
	if !d.Allowed {
		h.recordQuotaDenied(principal)
		api.HandleError(w, api.ErrDailyLimitReached)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrInvalidMessage)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.ErrInvalidMessage)
		return
	}
	if err := guard.Validate(req.Message); err != nil {
		api.HandleError(w, err)
		return
	}

	// Validation passing is not enough: nothing unsanitized leaves the
	// gateway, history included.
	message := guard.Sanitize(req.Message)
	if message == "" {
		api.HandleError(w, api.ErrInvalidMessage)
		return
	}
	turns := sanitizeHistory(req.ConversationHistory)

	// The provider call deliberately survives a client disconnect: the
	// upstream meters the tokens either way, so an abandoned result is
	// just discarded by the failing write.
	result, err := h.deps.Completions.Complete(context.WithoutCancel(r.Context()), SystemPrompt, turns, message)
	if err != nil {
		h.handleProviderError(w, principal, err)
		return
	}
	if result.Content == "" {
		result = &completion.Result{
			Content:   fallbackReply,
			Model:     result.Model,
			Usage:     result.Usage,
			Timestamp: result.Timestamp,
		}
	}

	api.JSON(w, http.StatusOK, result)

	h.recordUsage(chimw.GetReqID(r.Context()), principal, req.SessionID, message, result)
}

// handleProviderError maps a completion failure onto the client-facing
// taxonomy. An upstream quota rejection is presented exactly like a local
// daily-cap denial so provider internals never leak.
func (h *Handler) handleProviderError(w http.ResponseWriter, principal *auth.Principal, err error) {
	var perr *completion.ProviderError
	if errors.As(err, &perr) && perr.RateLimited() {
		metrics.CompletionsTotal.WithLabelValues("rate_limited").Inc()
		h.recordQuotaDenied(principal)
		api.HandleError(w, api.ErrDailyLimitReached)
		return
	}
	metrics.CompletionsTotal.WithLabelValues("provider_error").Inc()
	slog.Error("completion call failed", "error", err)
	api.HandleError(w, api.ErrInternal)
}

// recordUsage logs and publishes token usage and appends the finished turn
// to the history store. It runs after the response is written and must not
// block or fail the request.
func (h *Handler) recordUsage(requestID string, principal *auth.Principal, sessionID, message string, result *completion.Result) {
	userID, trust := "", ""
	if principal != nil {
		userID = principal.UserID
		trust = principal.Trust.String()
	}
	if sessionID == "" {
		sessionID = "default"
	}

	metrics.CompletionsTotal.WithLabelValues("ok").Inc()
	metrics.CompletionTokensTotal.WithLabelValues("prompt").Add(float64(result.Usage.PromptTokens))
	metrics.CompletionTokensTotal.WithLabelValues("completion").Add(float64(result.Usage.CompletionTokens))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("chat completion",
			"request_id", requestID,
			"user_id", userID,
			"trust", trust,
			"model", result.Model,
			"total_tokens", result.Usage.TotalTokens,
		)

		if h.deps.Usage != nil {
			err := h.deps.Usage.PublishChatUsage(ctx, events.ChatUsage{
				RequestID:        requestID,
				UserID:           userID,
				Trust:            trust,
				Model:            result.Model,
				PromptTokens:     result.Usage.PromptTokens,
				CompletionTokens: result.Usage.CompletionTokens,
				TotalTokens:      result.Usage.TotalTokens,
				Timestamp:        result.Timestamp,
			})
			if err != nil {
				slog.Warn("publishing usage event", "error", err)
			}
		}

		if h.deps.History != nil && userID != "" {
			err := h.deps.History.Append(ctx, userID, sessionID,
				history.Entry{Role: "user", Content: message, Timestamp: result.Timestamp},
				history.Entry{Role: "assistant", Content: result.Content, Timestamp: result.Timestamp},
			)
			if err != nil {
				slog.Warn("appending chat history", "error", err)
			}
		}
	}()
}

func (h *Handler) recordQuotaDenied(principal *auth.Principal) {
	metrics.RateLimitDeniedTotal.WithLabelValues("daily").Inc()
	if h.deps.Usage == nil || principal == nil {
		return
	}
	userID := principal.UserID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := h.deps.Usage.PublishQuotaDenied(ctx, events.QuotaDenied{
			UserID:    userID,
			Scope:     "daily",
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			slog.Warn("publishing quota denial event", "error", err)
		}
	}()
}

// sanitizeHistory trims the history to the trailing window and sanitizes
// every turn. Turns that sanitize to nothing are dropped.
func sanitizeHistory(turns []completion.Turn) []completion.Turn {
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	out := make([]completion.Turn, 0, len(turns))
	for _, t := range turns {
		content := guard.Sanitize(t.Content)
		if content == "" {
			continue
		}
		out = append(out, completion.Turn{Role: t.Role, Content: content})
	}
	return out
}
