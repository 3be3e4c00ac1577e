package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/middleware"
	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/realtime"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/service"
)

// Dependencies are the collaborators the HTTP layer needs.
type Dependencies struct {
	Tokens      *security.TokenIssuer
	Auth        *service.AuthService
	Chat        *service.ChatService
	Groups      *service.GroupService
	Profiles    *service.ProfileService
	Attachments *service.AttachmentService
	Gateway     *realtime.Gateway
	Checks      []HealthCheck
}

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	tokens      *security.TokenIssuer
	auth        *service.AuthService
	chat        *service.ChatService
	groups      *service.GroupService
	profiles    *service.ProfileService
	attachments *service.AttachmentService
	gateway     *realtime.Gateway
	checks      []HealthCheck
	upgrader    websocket.Upgrader
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		tokens:      deps.Tokens,
		auth:        deps.Auth,
		chat:        deps.Chat,
		groups:      deps.Groups,
		profiles:    deps.Profiles,
		attachments: deps.Attachments,
		gateway:     deps.Gateway,
		checks:      deps.Checks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowCORSOrigins),
		},
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/", h.Root)
	router.GET("/healthz", h.Health)
	router.GET("/ws", h.Realtime)

	v1 := router.Group("/api/v1")
	authed := middleware.Auth(h.tokens)
	staffOnly := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)

	auth := v1.Group("/auth")
	{
		auth.POST("/registerstudent", h.registerAs(models.RoleStudent))
		auth.POST("/registerteacher", h.registerAs(models.RoleTeacher))
		auth.POST("/registeradmin", h.registerAs(models.RoleAdmin))
		auth.POST("/loginstudent", h.loginAs(models.RoleStudent))
		auth.POST("/loginteacher", h.loginAs(models.RoleTeacher))
		auth.POST("/loginadmin", h.loginAs(models.RoleAdmin))
		auth.POST("/login", h.Login)
	}

	chat := v1.Group("/chat", authed)
	{
		chat.POST("/send", h.SendMessage)
		chat.GET("/history/:receiverId", h.ChatHistory)
		chat.GET("/older/:receiverId", h.OlderMessages)
		chat.GET("/sessions", h.ChatSessions)
		chat.PUT("/read/:receiverId", h.MarkRead)
		chat.POST("/attachments", h.UploadAttachment)
	}

	groups := v1.Group("/study-group", authed)
	{
		groups.POST("/addgroup", h.CreateGroup)
		groups.PUT("/updatedgroup", h.UpdateGroup)
		groups.GET("/getgroup", h.GetGroup)
		groups.DELETE("/deletegroup", h.DeleteGroup)
		groups.GET("/mygroups", h.MyGroups)
		groups.POST("/join", h.JoinGroup)
		groups.POST("/leave", h.LeaveGroup)
	}

	v1.GET("/users/getteachers", h.GetTeachers)
	users := v1.Group("/users", authed)
	{
		users.GET("/myprofile", h.MyProfile)
		users.PUT("/editprofile", h.EditProfile)
		users.DELETE("/deleteprofile", h.DeleteProfile)

		staff := users.Group("", staffOnly)
		staff.GET("/getallusers", h.GetAllUsers)
		staff.GET("/getuserbysemester", h.GetUsersBySemester)
		staff.GET("/getstudentbydepartment", h.GetStudentsByDepartment)
		staff.GET("/getprofile", h.GetProfile)
	}
}

func (h HandlerSet) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Chat Application API",
		"version": "1.0.0",
		"status":  "Server is running",
	})
}
