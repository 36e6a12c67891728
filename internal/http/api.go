package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"case-server/internal/assets"
	"case-server/internal/domain"
	"case-server/internal/service"
)

const (
	sessionCookie = "session"
	ctxUserIDKey  = "userID"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	progress  service.ProgressService
	sessions  service.SessionService
	resolver  *assets.Resolver
	cookieTTL int
	logger    *logrus.Logger
}

func NewHandler(users service.UserService, progress service.ProgressService, sessions service.SessionService, resolver *assets.Resolver, cookieTTLSeconds int, logger *logrus.Logger) *Handler {
	return &Handler{
		users:     users,
		progress:  progress,
		sessions:  sessions,
		resolver:  resolver,
		cookieTTL: cookieTTLSeconds,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/logout", h.requireAuth, h.logout)
		api.GET("/status", h.status)
		api.GET("/cases/:case_id/db", h.getCaseDatabase)
		api.GET("/progress", h.requireAuth, h.listProgress)
		api.POST("/progress", h.requireAuth, h.saveProgress)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", c.Request.Header.Get("Origin"))
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireAuth resolves the session cookie to a user id or aborts with 401.
func (h *Handler) requireAuth(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
		return
	}
	userID, ok := h.sessions.Validate(c.Request.Context(), token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "Authentication required"})
		return
	}
	c.Set(ctxUserIDKey, userID)
	c.Next()
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserIDKey)
}

type errorResponse struct {
	Error string `json:"error"`
}

type userSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    userSummary `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing username, email, or password"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Username, email, and password cannot be empty"})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, errorResponse{Error: "Username already exists"})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, errorResponse{Error: "Email already registered"})
		default:
			h.logger.WithError(err).Error("register user")
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "Registration failed due to a server error"})
		}
		return
	}

	// log the user in immediately after registration
	if !h.issueSession(c, user) {
		return
	}

	h.logger.WithField("username", user.Username).Info("user registered and logged in")
	c.JSON(http.StatusCreated, authResponse{
		Message: "Registration successful",
		User:    userSummary{ID: user.ID, Username: user.Username},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing username or password"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.WithField("username", req.Username).Info("failed login attempt")
			c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid username or password"})
			return
		}
		h.logger.WithError(err).Error("authenticate user")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Login failed due to a server error"})
		return
	}

	if !h.issueSession(c, user) {
		return
	}

	h.logger.WithField("username", user.Username).Info("user logged in")
	c.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		User:    userSummary{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) issueSession(c *gin.Context, user *domain.User) bool {
	token, err := h.sessions.Issue(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("issue session")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Login failed due to a server error"})
		return false
	}
	c.SetCookie(sessionCookie, token, h.cookieTTL, "/", "", false, true)
	return true
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			h.logger.WithError(err).Warn("revoke session")
		}
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, messageResponse{Message: "Logout successful"})
}

type statusResponse struct {
	IsLoggedIn bool         `json:"is_logged_in"`
	User       *userSummary `json:"user"`
}

func (h *Handler) status(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		c.JSON(http.StatusOK, statusResponse{IsLoggedIn: false})
		return
	}
	userID, ok := h.sessions.Validate(c.Request.Context(), token)
	if !ok {
		c.JSON(http.StatusOK, statusResponse{IsLoggedIn: false})
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		// a live session for a vanished user reads as logged out
		c.JSON(http.StatusOK, statusResponse{IsLoggedIn: false})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		IsLoggedIn: true,
		User:       &userSummary{ID: user.ID, Username: user.Username},
	})
}

func (h *Handler) getCaseDatabase(c *gin.Context) {
	caseID := c.Param("case_id")

	path, err := h.resolver.Resolve(caseID)
	if err != nil {
		switch {
		case errors.Is(err, assets.ErrInvalidID):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid case ID format"})
		case errors.Is(err, assets.ErrNotFound):
			c.JSON(http.StatusNotFound, errorResponse{Error: "Scenario database not found"})
		default:
			h.logger.WithError(err).WithField("case_id", caseID).Error("resolve scenario database")
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "Server error reading database file"})
		}
		return
	}

	// octet-stream so the client reads an ArrayBuffer, not an attachment
	c.Header("Content-Type", "application/octet-stream")
	c.File(path)
}

type progressListResponse struct {
	CompletedLevels []string `json:"completed_levels"`
}

func (h *Handler) listProgress(c *gin.Context) {
	userID := currentUserID(c)

	records, err := h.progress.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("list progress")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to fetch progress"})
		return
	}

	completed := make([]string, len(records))
	for i := range records {
		completed[i] = records[i].Key()
	}
	c.JSON(http.StatusOK, progressListResponse{CompletedLevels: completed})
}

type saveProgressRequest struct {
	ScenarioID string `json:"scenario_id"`
	LevelID    string `json:"level_id"`
}

func (h *Handler) saveProgress(c *gin.Context) {
	var req saveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ScenarioID == "" || req.LevelID == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing scenario_id or level_id"})
		return
	}

	userID := currentUserID(c)
	outcome, err := h.progress.Record(c.Request.Context(), userID, req.ScenarioID, req.LevelID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "Missing scenario_id or level_id"})
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("save progress")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to save progress due to server error"})
		return
	}

	if outcome == service.OutcomeAlreadyRecorded {
		c.JSON(http.StatusOK, messageResponse{Message: "Progress already recorded"})
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "Progress saved successfully"})
}
