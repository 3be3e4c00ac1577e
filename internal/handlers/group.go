package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/service"
)

type groupRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Subject        string   `json:"subject"`
	MaxMembers     int      `json:"max_Members"`
	ProfControlled bool     `json:"prof_controlled"`
	StudentIDs     []string `json:"student_id"`
}

type groupPatchRequest struct {
	Name           *string   `json:"name"`
	Description    *string   `json:"description"`
	Subject        *string   `json:"subject"`
	MaxMembers     *int      `json:"max_Members"`
	ProfControlled *bool     `json:"prof_controlled"`
	StudentIDs     *[]string `json:"student_id"`
}

func (r groupPatchRequest) patch() models.GroupPatch {
	return models.GroupPatch{
		Name:           r.Name,
		Description:    r.Description,
		Subject:        r.Subject,
		MaxMembers:     r.MaxMembers,
		ProfControlled: r.ProfControlled,
		StudentIDs:     r.StudentIDs,
	}
}

func (h HandlerSet) CreateGroup(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req groupRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	group, err := h.groups.Create(c.Request.Context(), caller, service.GroupInput(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Study group created successfully", group)
}

func (h HandlerSet) UpdateGroup(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req groupPatchRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	group, err := h.groups.Update(c.Request.Context(), caller, c.Query("groupId"), req.patch())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Study group updated successfully", group)
}

func (h HandlerSet) GetGroup(c *gin.Context) {
	group, err := h.groups.GetByID(c.Request.Context(), c.Query("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Study group fetched successfully", group)
}

func (h HandlerSet) MyGroups(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	groups, err := h.groups.ListMine(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Study groups fetched successfully", groups)
}

func (h HandlerSet) DeleteGroup(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	if err := h.groups.Delete(c.Request.Context(), caller, c.Query("id")); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Study group deleted successfully", nil)
}

func (h HandlerSet) JoinGroup(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	group, err := h.groups.Join(c.Request.Context(), caller, c.Query("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Joined study group", group)
}

func (h HandlerSet) LeaveGroup(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	group, err := h.groups.Leave(c.Request.Context(), caller, c.Query("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Left study group", group)
}
