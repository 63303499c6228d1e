package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/transport/http/response"
)

type ChatHandler struct {
	queryService *app.QueryService
}

type QueryRequest struct {
	Query string `json:"query" binding:"required,max=2000"`
}

func NewChatHandler(queryService *app.QueryService) *ChatHandler {
	return &ChatHandler{queryService: queryService}
}

func (h *ChatHandler) Query(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answerText, err := h.queryService.Ask(c.Request.Context(), userID, companyID, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrQueryEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			// Never leak internal detail or stale cross-tenant data; degrade.
			response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer,
				"the answering service is temporarily unavailable, please try again")
		}
		return
	}

	response.OK(c, gin.H{"answer": answerText})
}

func (h *ChatHandler) QueryStream(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	stream, err := h.queryService.AskStream(c.Request.Context(), userID, companyID, req.Query)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	// Client disconnect cancels c.Request.Context(), which stops the
	// producer side of the stream and releases the generation request.
	var full strings.Builder
	for fragment := range stream.Fragments() {
		full.WriteString(fragment)
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(fragment) + "\n\n")); writeErr != nil {
			return
		}
		flusher.Flush()
	}

	if err := stream.Err(); err != nil {
		if _, writeErr := c.Writer.Write([]byte("event: error\ndata: answer generation failed\n\n")); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	h.queryService.FinishStream(c.Request.Context(), userID, companyID, req.Query, full.String())

	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: \n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	history, err := h.queryService.History(userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		return
	}
	response.OK(c, history)
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
