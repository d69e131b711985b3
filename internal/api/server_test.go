package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/futig/vitos-assistant/internal/agent"
	chatapi "github.com/futig/vitos-assistant/internal/api/chat"
	conversationapi "github.com/futig/vitos-assistant/internal/api/conversation"
	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/futig/vitos-assistant/internal/integration/guard"
	"github.com/futig/vitos-assistant/internal/integration/llm"
	"github.com/futig/vitos-assistant/internal/integration/rerank"
	"github.com/futig/vitos-assistant/internal/knowledge"
	"github.com/futig/vitos-assistant/internal/pkg/formatter"
	"github.com/futig/vitos-assistant/internal/pkg/validator"
	"github.com/futig/vitos-assistant/internal/repository"
	"github.com/futig/vitos-assistant/internal/sqltoolkit"
	"github.com/futig/vitos-assistant/internal/usecase/chat"
	"github.com/futig/vitos-assistant/internal/usecase/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDataset = `
CREATE TABLE menu (id INTEGER PRIMARY KEY, name TEXT, price REAL);
INSERT INTO menu VALUES (1, 'Margherita', 12.5);
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()

	store := knowledge.NewMemoryStore(knowledge.HashedEmbedding, log)
	require.NoError(t, store.Index(ctx, []entity.Chunk{
		{ID: "menu-0", Content: "# Menu\nMargherita pizza 12.5", Source: "menu.md"},
		{ID: "hours-0", Content: "# Hours\nOpen daily 11:00-22:00", Source: "hours.md"},
	}))

	toolkit, err := sqltoolkit.FromScript(ctx, testDataset, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = toolkit.Close() })

	var tools []agent.Tool
	for _, tool := range toolkit.Tools() {
		tools = append(tools, tool)
	}

	repo := repository.NewConversationMemoryRepository(20, 0, log)
	v := validator.New()
	chatUC := chat.NewUsecase(repo, store, rerank.NewMockConnector(log), guard.NewMockConnector(log),
		agent.New(llm.NewMockModel(log), tools, 10, log), v,
		chat.Config{SearchK: 5, RerankTopN: 3, TurnTimeout: 5 * time.Second}, log)
	convUC := conversation.NewUsecase(repo, formatter.NewFactory(), v, log)

	router := SetupRouter(chatapi.NewHandler(chatUC), conversationapi.NewHandler(convUC), 10*time.Second, log)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postChat(t *testing.T, srv *httptest.Server, prefix, id, msg string) entity.ChatResponse {
	t.Helper()
	body, _ := json.Marshal(entity.ChatRequest{Message: msg, ConversationID: id})
	resp, err := http.Post(srv.URL+prefix+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out entity.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func getJSON(t *testing.T, url string, dst any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t)

	var welcome map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/", &welcome))
	assert.Equal(t, "Welcome to Vito's Pizza Cafe API", welcome["message"])
	assert.Equal(t, "/docs", welcome["docs"])

	var health entity.HealthResponse
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestChat_FreshConversation(t *testing.T) {
	srv := newTestServer(t)

	out := postChat(t, srv, "", "scenario-1", "What's on the menu?")
	assert.NotEmpty(t, out.Response)
	assert.Contains(t, out.Response, "menu")
	assert.Equal(t, "scenario-1", out.ConversationID)

	var history entity.ConversationHistoryDTO
	getJSON(t, srv.URL+"/conversations/scenario-1/history", &history)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "What's on the menu?", history.Messages[0].User)
	assert.Equal(t, out.Response, history.Messages[0].Assistant)
}

func TestChat_DefaultsConversationID(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out entity.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "default", out.ConversationID)
}

func TestChat_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	for name, body := range map[string]string{
		"missing message": `{"conversation_id":"x"}`,
		"blank message":   `{"message":"   "}`,
		"malformed json":  `{"message":`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	var ids []string
	getJSON(t, srv.URL+"/conversations", &ids)
	assert.Empty(t, ids)
}

func TestClearAfterThreeTurns(t *testing.T) {
	srv := newTestServer(t)

	for i := 1; i <= 3; i++ {
		postChat(t, srv, APIPrefix, "scenario-3", fmt.Sprintf("question %d", i))
	}

	var history entity.ConversationHistoryDTO
	getJSON(t, srv.URL+APIPrefix+"/conversations/scenario-3/history", &history)
	require.Len(t, history.Messages, 3)

	resp := do(t, http.MethodPost, srv.URL+APIPrefix+"/conversations/scenario-3/clear")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	getJSON(t, srv.URL+APIPrefix+"/conversations/scenario-3/history", &history)
	assert.Empty(t, history.Messages)

	var ids []string
	getJSON(t, srv.URL+APIPrefix+"/conversations", &ids)
	assert.Contains(t, ids, "scenario-3")
}

func TestDeleteConversation(t *testing.T) {
	srv := newTestServer(t)
	postChat(t, srv, "", "to-delete", "hello")

	resp := do(t, http.MethodDelete, srv.URL+"/conversations/to-delete")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var msg entity.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "Conversation to-delete deleted successfully", msg.Message)

	var ids []string
	getJSON(t, srv.URL+"/conversations", &ids)
	assert.NotContains(t, ids, "to-delete")

	resp = do(t, http.MethodDelete, srv.URL+"/conversations/to-delete")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportConversation(t *testing.T) {
	srv := newTestServer(t)
	postChat(t, srv, "", "export-me", "What's on the menu?")

	resp := do(t, http.MethodGet, srv.URL+"/conversations/export-me/export?format=markdown")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Equal(t, "attachment; filename=conversation-export-me.md", resp.Header.Get("Content-Disposition"))

	resp = do(t, http.MethodGet, srv.URL+"/conversations/export-me/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/conversations/nobody/export")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/conversations/export-me/export?format=docx")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodOptions, srv.URL+"/chat")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
