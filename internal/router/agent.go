package router

import (
	"errors"
	"net/http"
	"strings"

	"czagent/internal/agent"
	"czagent/internal/intent"
	"czagent/internal/workflow"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgentHandler 负责自然语言查询相关的 HTTP 请求。
type AgentHandler struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewAgentHandler 构建一个新的 AgentHandler。
func NewAgentHandler(a *agent.Agent, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{agent: a, logger: logger}
}

// RegisterRoutes 将查询路由注册到给定的路由组。
func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/query", h.handleQuery)
	rg.POST("/chat", h.handleChat)
	rg.GET("/messages", h.handleMessages)
	rg.DELETE("/messages", h.handleClear)
}

// SessionHeader 对话会话 id 所在的请求/响应头。
const SessionHeader = "X-Session-ID"

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	RunID           string                  `json:"run_id"`
	Response        string                  `json:"response"`
	Intent          intent.Intent           `json:"intent"`
	Confidence      float64                 `json:"confidence"`
	Entities        map[string]string       `json:"entities"`
	History         []workflow.HistoryEntry `json:"execution_history"`
	ExecutionTimeMS int64                   `json:"execution_time_ms"`
	Error           string                  `json:"error,omitempty"`
}

func (h *AgentHandler) bindQuery(c *gin.Context) (queryRequest, bool) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return req, false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is empty"})
		return req, false
	}
	return req, true
}

// sessionID 依次从请求头、查询参数读取会话 id。
func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("session_id"))
}

func (h *AgentHandler) sessionError(c *gin.Context, id string, err error) {
	if errors.Is(err, agent.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "session_id": id})
		return
	}
	h.logger.Error("对话会话处理失败", zap.String("session_id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *AgentHandler) handleQuery(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	st := h.agent.Query(c.Request.Context(), req.Query)
	if st == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "workflow returned no state"})
		return
	}
	resp := queryResponse{
		RunID:           st.RunID,
		Response:        st.Response,
		Intent:          st.Intent(),
		Entities:        map[string]string{},
		History:         st.History,
		ExecutionTimeMS: st.ExecutionTime.Milliseconds(),
		Error:           st.Error,
	}
	if st.Analysis != nil {
		resp.Confidence = st.Analysis.Confidence
		for k, v := range st.Analysis.Entities {
			resp.Entities[k] = v
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleChat 未携带会话 id 时新建会话，id 通过响应体和 X-Session-ID 头返回。
func (h *AgentHandler) handleChat(c *gin.Context) {
	req, ok := h.bindQuery(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		id = sessionID(c)
	}
	id, resp, err := h.agent.ChatSession(c.Request.Context(), id, req.Query)
	if err != nil {
		h.sessionError(c, id, err)
		return
	}
	c.Header(SessionHeader, id)
	c.JSON(http.StatusOK, gin.H{"session_id": id, "response": resp})
}

func (h *AgentHandler) handleMessages(c *gin.Context) {
	id := sessionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id is required"})
		return
	}
	msgs, err := h.agent.SessionMessages(id)
	if err != nil {
		h.sessionError(c, id, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "messages": msgs})
}

func (h *AgentHandler) handleClear(c *gin.Context) {
	id := sessionID(c)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id is required"})
		return
	}
	if err := h.agent.CloseSession(id); err != nil {
		h.sessionError(c, id, err)
		return
	}
	c.Status(http.StatusNoContent)
}
