package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/service"
)

// profileRequest carries the editable profile fields. Field names follow the
// public user document.
type profileRequest struct {
	Name           *string   `json:"name"`
	Avatar         *string   `json:"avatar"`
	Department     *string   `json:"department"`
	StudentID      *string   `json:"studentid"`
	Year           *string   `json:"year"`
	Batch          *string   `json:"batch"`
	Semester       *string   `json:"semester"`
	ProfessorID    *string   `json:"professorid"`
	Specialisation *[]string `json:"specialisation"`
	Bio            *string   `json:"bio"`
	OfficeHours    *string   `json:"officeHours"`
	Subjects       *[]string `json:"subjects"`
}

func (r profileRequest) fields() models.ProfileFields {
	return models.ProfileFields{
		Name:           r.Name,
		AvatarURL:      r.Avatar,
		Department:     r.Department,
		StudentID:      r.StudentID,
		Year:           r.Year,
		Batch:          r.Batch,
		Semester:       r.Semester,
		ProfessorID:    r.ProfessorID,
		Specialisation: r.Specialisation,
		Bio:            r.Bio,
		OfficeHours:    r.OfficeHours,
		Subjects:       r.Subjects,
	}
}

type registerRequest struct {
	profileRequest
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

type userResponse struct {
	ID             string    `json:"_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Avatar         string    `json:"avatar"`
	EmailVerified  bool      `json:"emailVerified"`
	Role           string    `json:"role"`
	Department     string    `json:"department,omitempty"`
	StudentID      string    `json:"studentid,omitempty"`
	Year           string    `json:"year,omitempty"`
	Batch          string    `json:"batch,omitempty"`
	Semester       string    `json:"semester,omitempty"`
	ProfessorID    string    `json:"professorid,omitempty"`
	Specialisation []string  `json:"specialisation"`
	Bio            string    `json:"bio,omitempty"`
	OfficeHours    string    `json:"officeHours,omitempty"`
	Subjects       []string  `json:"subjects"`
	IsActive       bool      `json:"isActive"`
	IsOnline       bool      `json:"isOnline"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Avatar:         u.AvatarURL,
		EmailVerified:  u.EmailVerified,
		Role:           string(u.Role),
		Department:     u.Department,
		StudentID:      u.StudentID,
		Year:           u.Year,
		Batch:          u.Batch,
		Semester:       u.Semester,
		ProfessorID:    u.ProfessorID,
		Specialisation: nonNil(u.Specialisation),
		Bio:            u.Bio,
		OfficeHours:    u.OfficeHours,
		Subjects:       nonNil(u.Subjects),
		IsActive:       u.IsActive,
		IsOnline:       u.IsOnline,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h HandlerSet) registerAs(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}

		name := ""
		if req.Name != nil {
			name = *req.Name
		}

		result, err := h.auth.Register(c.Request.Context(), role, service.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			Name:     name,
			Profile:  req.fields(),
		})
		if err != nil {
			h.respondError(c, err)
			return
		}

		respond(c, http.StatusCreated, "User registered successfully", authResponse{
			User:  newUserResponse(result.User),
			Token: result.Token,
		})
	}
}

// loginAs serves the role-specific logins, which report whether the email or
// the password was wrong.
func (h HandlerSet) loginAs(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := bindJSON(c, &req); err != nil {
			h.respondError(c, err)
			return
		}
		h.login(c, service.LoginInput{
			Email:    req.Email,
			Password: req.Password,
			Role:     role,
			Strict:   true,
		})
	}
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}
	h.login(c, service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
}

func (h HandlerSet) login(c *gin.Context, input service.LoginInput) {
	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", authResponse{
		User:  newUserResponse(result.User),
		Token: result.Token,
	})
}
