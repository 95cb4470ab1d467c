package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/dto"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/middleware"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the users and exercise log endpoints.
type UserHandler struct {
	svc *service.UserService
	log *slog.Logger
}

// NewUserHandler returns a new UserHandler.
func NewUserHandler(svc *service.UserService, log *slog.Logger) *UserHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UserHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Success      200  {object}  dto.CreateUserResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.Describe(err)})
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), req.Username)
	if err != nil {
		h.writeServiceError(c, err, "error creating user")
		return
	}
	c.JSON(http.StatusOK, dto.CreateUserResponse{Username: u.Username, ID: u.ID})
}

// List godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {array}   dto.UserSummary
// @Failure      500  {object}  map[string]string
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err, "error fetching users")
		return
	}
	c.JSON(http.StatusOK, usersToSummaries(list))
}

// AddExercise godoc
// @Summary      Log an exercise for a user
// @Tags         exercises
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Produce      json
// @Param        _id          path      string  true   "User ID"
// @Param        description  formData  string  true   "Description"
// @Param        duration     formData  int     true   "Duration in minutes"
// @Param        date         formData  string  false  "Date (YYYY-MM-DD), defaults to today"
// @Success      200  {object}  dto.ExerciseResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{_id}/exercises [post]
func (h *UserHandler) AddExercise(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	var req dto.AddExerciseRequest
	if err := c.ShouldBind(&req); err != nil {
		// an unknown user is reported as such whatever the body holds
		if _, gerr := h.svc.GetUser(c.Request.Context(), userID); errors.Is(gerr, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.Describe(err)})
		return
	}

	u, ex, err := h.svc.AddExercise(c.Request.Context(), userID, req.ToNewExercise())
	if err != nil {
		h.writeServiceError(c, err, "error adding exercise")
		return
	}
	c.JSON(http.StatusOK, dto.ExerciseResponse{
		ID:          u.ID,
		Username:    u.Username,
		Description: ex.Description,
		Duration:    ex.Duration,
		Date:        ex.DisplayDate(),
	})
}

// Logs godoc
// @Summary      Get a user's exercise log
// @Tags         exercises
// @Produce      json
// @Param        _id    path   string  true   "User ID"
// @Param        from   query  string  false  "Earliest date, inclusive (YYYY-MM-DD)"
// @Param        to     query  string  false  "Latest date, inclusive (YYYY-MM-DD)"
// @Param        limit  query  int     false  "Maximum number of entries"
// @Success      200  {object}  dto.LogResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/{_id}/logs [get]
func (h *UserHandler) Logs(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	var q dto.LogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": dto.Describe(err)})
		return
	}

	log, err := h.svc.GetLog(c.Request.Context(), userID, q.ToQuery())
	if err != nil {
		h.writeServiceError(c, err, "error fetching logs")
		return
	}
	c.JSON(http.StatusOK, dto.LogResponse{
		ID:       log.User.ID,
		Username: log.User.Username,
		Count:    log.Count(),
		Log:      exercisesToEntries(log.Exercises),
	})
}

func parseUserID(c *gin.Context) (string, bool) {
	var p dto.UserPath
	if err := c.ShouldBindUri(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return "", false
	}
	return p.ID, true
}

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and answered with msg only.
func (h *UserHandler) writeServiceError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrNotConnected):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database not connected"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
	default:
		h.log.ErrorContext(c.Request.Context(), msg,
			"error", err,
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.RequestIDKey),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func usersToSummaries(list []dom.User) []dto.UserSummary {
	out := make([]dto.UserSummary, len(list))
	for i, u := range list {
		out[i] = dto.UserSummary{ID: u.ID, Username: u.Username}
	}
	return out
}

func exercisesToEntries(list []dom.Exercise) []dto.LogEntry {
	out := make([]dto.LogEntry, len(list))
	for i, e := range list {
		out[i] = dto.LogEntry{Description: e.Description, Duration: e.Duration, Date: e.DisplayDate()}
	}
	return out
}
