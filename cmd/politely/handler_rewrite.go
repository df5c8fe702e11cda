package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeready-toolchain/politely/pkg/audit"
	"github.com/codeready-toolchain/politely/pkg/orchestrator"
	"github.com/codeready-toolchain/politely/pkg/sse"
	"github.com/codeready-toolchain/politely/pkg/types"
)

// newRewriteHandler builds the POST /v1/rewrite handler. auditClient may
// be nil when the audit log is disabled; the write after a successful run
// is fire-and-forget and never blocks or fails the response.
func newRewriteHandler(orch *orchestrator.Orchestrator, auditClient *audit.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req rewriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		reqID := uuid.NewString()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Writer.Flush()

		sink := sse.New(c.Writer)

		contexts := make([]types.ContextTag, 0, len(req.Contexts))
		for _, ctag := range req.Contexts {
			contexts = append(contexts, types.ContextTag(ctag))
		}

		var sender *types.SenderInfo
		if req.SenderName != "" || req.SenderRole != "" {
			sender = &types.SenderInfo{Name: req.SenderName, Role: req.SenderRole}
		}

		orchReq := orchestrator.Request{
			ID:       reqID,
			Text:     req.Text,
			Persona:  types.Persona(req.Persona),
			Contexts: contexts,
			Tone:     types.Tone(req.Tone),
			Hint:     req.Hint,
			Sender:   sender,
			Policy: orchestrator.Policy{
				ForceIdentityBooster:   req.ForceIdentityBooster,
				ForceSituationAnalysis: req.ForceSituationAnalysis,
				ContextGatingEnabled:   req.ContextGatingEnabled,
				Debug:                  req.Debug,
			},
		}

		stats, err := orch.Run(c.Request.Context(), orchReq, sink)
		if err != nil {
			slog.Error("rewrite request failed", "reqID", reqID, "error", err)
			return
		}

		if auditClient != nil {
			go writeAuditRecord(auditClient, reqID, req, stats)
		}
	}
}

func writeAuditRecord(auditClient *audit.Client, reqID string, req rewriteRequest, stats orchestrator.Stats) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := uuid.Parse(reqID)
	if err != nil {
		slog.Error("audit write skipped", "reqID", reqID, "error", err)
		return
	}

	record := audit.Record{
		ID:               id,
		Persona:          req.Persona,
		Contexts:         req.Contexts,
		Tone:             req.Tone,
		TemplateID:       stats.TemplateID,
		LockedSpanCount:  stats.LockedSpanCount,
		GreenCount:       stats.GreenCount,
		YellowCount:      stats.YellowCount,
		RedCount:         stats.RedCount,
		RetryCount:       stats.RetryCount,
		PromptTokens:     stats.PromptTokens,
		CompletionTokens: stats.CompletionTokens,
		LatencyMs:        stats.LatencyMs,
	}

	if err := auditClient.Insert(ctx, record); err != nil {
		slog.Error("audit write failed", "reqID", reqID, "error", err)
	}
}
