package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/politely/pkg/config"
	"github.com/codeready-toolchain/politely/pkg/llm"
	"github.com/codeready-toolchain/politely/pkg/orchestrator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubClient struct {
	content    string
	streamText string
}

func (c *stubClient) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	return llm.Response{Content: c.content, PromptTokens: 5, CompletionTokens: 3}, nil
}

func (c *stubClient) Stream(_ context.Context, _ llm.Request) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk, 2)
	ch <- llm.TextChunk{Content: c.streamText}
	ch <- llm.UsageChunk{PromptTokens: 20, CompletionTokens: 10}
	close(ch)
	return ch, nil
}

func newTestRouter() *gin.Engine {
	client := &stubClient{
		content:    "T1|CORE_FACT|확인 부탁드립니다\nSUMMARY: 확인 요청",
		streamText: "확인 부탁드립니다.",
	}
	orch := orchestrator.New(client, config.Defaults(), nil)

	router := gin.New()
	router.POST("/v1/rewrite", newRewriteHandler(orch, nil))
	return router
}

func TestRewriteHandler_RejectsMissingText(t *testing.T) {
	router := newTestRouter()

	body := strings.NewReader(`{"persona":"BOSS","tone":"POLITE"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/rewrite", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewriteHandler_RejectsUnknownPersona(t *testing.T) {
	router := newTestRouter()

	body := strings.NewReader(`{"text":"확인 부탁드립니다.","persona":"NOT_A_PERSONA","tone":"POLITE"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/rewrite", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewriteHandler_StreamsSSEOnValidRequest(t *testing.T) {
	router := newTestRouter()

	body := strings.NewReader(`{"text":"확인 부탁드립니다.","persona":"BOSS","tone":"POLITE"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/rewrite", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event:done")
}
