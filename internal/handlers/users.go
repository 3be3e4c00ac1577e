package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type directoryResponse struct {
	Admin    []userResponse `json:"admin"`
	Teacher  []userResponse `json:"teacher"`
	Students []userResponse `json:"students"`
}

func (h HandlerSet) GetAllUsers(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	dir, err := h.profiles.GetAllUsers(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", directoryResponse{
		Admin:    newUserResponses(dir.Admin),
		Teacher:  newUserResponses(dir.Teacher),
		Students: newUserResponses(dir.Students),
	})
}

func (h HandlerSet) GetUsersBySemester(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	users, err := h.profiles.GetBySemester(c.Request.Context(), caller, c.Query("semester"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", newUserResponses(users))
}

func (h HandlerSet) GetStudentsByDepartment(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	users, err := h.profiles.GetStudentsByDepartment(c.Request.Context(), caller, c.Query("department"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Users fetched successfully", newUserResponses(users))
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	user, err := h.profiles.GetByID(c.Request.Context(), caller, c.Query("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile fetched successfully", newUserResponse(user))
}

func (h HandlerSet) GetTeachers(c *gin.Context) {
	teachers, err := h.profiles.ListTeachers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Teachers fetched successfully", newUserResponses(teachers))
}

func (h HandlerSet) MyProfile(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	user, err := h.profiles.MyProfile(c.Request.Context(), caller)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile fetched successfully", newUserResponse(user))
}

func (h HandlerSet) EditProfile(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.profiles.EditProfile(c.Request.Context(), caller, req.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated successfully", newUserResponse(user))
}

func (h HandlerSet) DeleteProfile(c *gin.Context) {
	caller, ok := h.identity(c)
	if !ok {
		return
	}

	if err := h.profiles.DeleteProfile(c.Request.Context(), caller); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile deleted successfully", nil)
}
