package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/service"
)

func (h HandlerSet) SendMessage(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req service.SendMessageInput
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.chat.SendMessage(c.Request.Context(), caller, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Message sent successfully", result)
}

func (h HandlerSet) ChatHistory(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	page, errPage := queryInt(c, "page", 1)
	limit, errLimit := queryInt(c, "limit", service.DefaultHistoryLimit)
	if errPage != nil || errLimit != nil {
		h.respondError(c, apperr.Validation("Invalid pagination parameters. Page must be >= 1, limit must be between 1-50"))
		return
	}

	result, err := h.chat.GetChatHistory(c.Request.Context(), caller, service.HistoryQuery{
		OtherPartyID:  c.Param("receiverId"),
		Page:          page,
		Limit:         limit,
		LastMessageID: c.Query("lastMessageId"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Chat history retrieved successfully", result)
}

func (h HandlerSet) OlderMessages(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit", service.DefaultOlderLimit)
	if err != nil {
		h.respondError(c, apperr.Validation("Limit must be between 1-50"))
		return
	}

	result, err := h.chat.LoadOlderMessages(c.Request.Context(), caller, service.OlderQuery{
		OtherPartyID:    c.Param("receiverId"),
		BeforeMessageID: c.Query("beforeMessageId"),
		Limit:           limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Older messages loaded successfully", result)
}

func (h HandlerSet) ChatSessions(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	sessions, err := h.chat.ListSessions(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Chat sessions retrieved successfully", sessions)
}

func (h HandlerSet) MarkRead(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	result, err := h.chat.MarkRead(c.Request.Context(), caller, c.Param("receiverId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Messages marked as read", result)
}

func (h HandlerSet) UploadAttachment(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, apperr.Validation("file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respondError(c, apperr.Validation("file could not be read"))
		return
	}
	defer file.Close()

	result, err := h.attachments.Upload(c.Request.Context(), caller, service.AttachmentInput{
		File:         file,
		FileName:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Attachment uploaded successfully", result)
}

// queryInt reads an integer query parameter, returning def when it is absent.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
