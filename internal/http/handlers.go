package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/scamwatch/internal/auth"
	"github.com/sujalbistaa/scamwatch/internal/models"
	"github.com/sujalbistaa/scamwatch/internal/moderation"
	"github.com/sujalbistaa/scamwatch/internal/ws"
)

// --- Structs for request binding ---

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// WarningInput is a new report. Fields only need to be non-empty.
type WarningInput struct {
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description" binding:"required,max=2000"`
	WarningSigns string `json:"warningSigns" binding:"required,max=1000"`
	ImageURL     string `json:"imageUrl" binding:"omitempty,url,max=500"`
	CategoryID   uint   `json:"categoryId" binding:"required,min=1"`
}

func (in WarningInput) toModeration() moderation.WarningInput {
	return moderation.WarningInput{
		Title:        in.Title,
		Description:  in.Description,
		WarningSigns: in.WarningSigns,
		ImageURL:     in.ImageURL,
		CategoryID:   in.CategoryID,
	}
}

// UpdateWarningInput is the admin edit. Unlike a new report it enforces
// minimum lengths.
type UpdateWarningInput struct {
	Title        string `json:"title" binding:"required,min=5,max=200"`
	Description  string `json:"description" binding:"required,min=20,max=2000"`
	WarningSigns string `json:"warningSigns" binding:"required,min=5,max=1000"`
	ImageURL     string `json:"imageUrl" binding:"omitempty,url,max=500"`
	CategoryID   uint   `json:"categoryId" binding:"required,min=1"`
	Status       string `json:"status" binding:"required,oneof=Pending Approved Rejected"`
}

func (in UpdateWarningInput) toModeration() moderation.UpdateInput {
	return moderation.UpdateInput{
		WarningInput: moderation.WarningInput{
			Title:        in.Title,
			Description:  in.Description,
			WarningSigns: in.WarningSigns,
			ImageURL:     in.ImageURL,
			CategoryID:   in.CategoryID,
		},
		Status: models.Status(in.Status),
	}
}

type CommentInput struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}

// --- WebSocket Payloads ---

// WsMessage is the envelope pushed to live feed subscribers.
type WsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Pinger checks that the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// --- Handlers ---

type Env struct {
	Engine   *moderation.Engine
	Comments *moderation.Comments
	Accounts *auth.Accounts
	Hub      *ws.Hub
	DB       Pinger
}

func (e *Env) Health(c *gin.Context) {
	if e.DB != nil {
		if err := e.DB.PingContext(c.Request.Context()); err != nil {
			slog.WarnContext(c.Request.Context(), "health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (e *Env) Register(c *gin.Context) {
	var input RegisterInput
	if !bindJSON(c, &input) {
		return
	}
	user, err := e.Accounts.Register(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		respondError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "userId": user.ID})
}

func (e *Env) Login(c *gin.Context) {
	var input LoginInput
	if !bindJSON(c, &input) {
		return
	}
	token, user, err := e.Accounts.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err, "log in")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (e *Env) GetCategories(c *gin.Context) {
	categories, err := e.Engine.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (e *Env) GetWarnings(c *gin.Context) {
	warnings, err := e.Engine.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch warnings")
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (e *Env) SearchWarnings(c *gin.Context) {
	var categoryID uint
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		categoryID = uint(id)
	}
	warnings, err := e.Engine.Search(c.Request.Context(), c.Query("searchTerm"), categoryID)
	if err != nil {
		respondError(c, err, "search warnings")
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (e *Env) GetPendingWarnings(c *gin.Context) {
	warnings, err := e.Engine.ListPending(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err, "fetch pending warnings")
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (e *Env) GetWarning(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	warning, err := e.Engine.Get(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err, "fetch warning")
		return
	}
	c.JSON(http.StatusOK, warning)
}

func (e *Env) CreateWarning(c *gin.Context) {
	var input WarningInput
	if !bindJSON(c, &input) {
		return
	}
	warning, err := e.Engine.Create(c.Request.Context(), callerFrom(c), input.toModeration())
	if err != nil {
		respondError(c, err, "create warning")
		return
	}
	c.Header("Location", "/api/warnings/"+strconv.FormatUint(uint64(warning.ID), 10))
	c.JSON(http.StatusCreated, warning)
}

func (e *Env) ApproveWarning(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	warning, err := e.Engine.Approve(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err, "approve warning")
		return
	}
	e.broadcastMessage(WsMessage{Type: "warning_approved", Data: warning})
	c.JSON(http.StatusOK, warning)
}

func (e *Env) RejectWarning(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	warning, err := e.Engine.Reject(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err, "reject warning")
		return
	}
	e.broadcastMessage(WsMessage{Type: "warning_removed", Data: gin.H{"id": warning.ID}})
	c.JSON(http.StatusOK, warning)
}

func (e *Env) GetComments(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	comments, err := e.Comments.List(c.Request.Context(), callerFrom(c), id)
	if err != nil {
		respondError(c, err, "fetch comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (e *Env) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	var input CommentInput
	if !bindJSON(c, &input) {
		return
	}
	comment, err := e.Comments.Add(c.Request.Context(), callerFrom(c), id, input.Text)
	if err != nil {
		respondError(c, err, "add comment")
		return
	}

	// only comments on publicly visible warnings go to the live feed
	if _, err := e.Engine.Get(c.Request.Context(), moderation.Caller{}, id); err == nil {
		e.broadcastMessage(WsMessage{Type: "comment_added", Data: comment})
	}
	c.JSON(http.StatusCreated, comment)
}

// --- Admin handlers ---

func (e *Env) VerifyAdmin(c *gin.Context) {
	id, ok := paramID(c, "userId", "user")
	if !ok {
		return
	}
	isAdmin, err := e.Engine.IsAdmin(c.Request.Context(), id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respondError(c, err, "verify admin")
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAdmin": isAdmin})
}

func (e *Env) GetAllWarnings(c *gin.Context) {
	warnings, err := e.Engine.ListAll(c.Request.Context(), callerFrom(c))
	if err != nil {
		respondError(c, err, "fetch warnings")
		return
	}
	c.JSON(http.StatusOK, warnings)
}

func (e *Env) UpdateWarning(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	var input UpdateWarningInput
	if !bindJSON(c, &input) {
		return
	}
	warning, err := e.Engine.Update(c.Request.Context(), callerFrom(c), id, input.toModeration())
	if err != nil {
		respondError(c, err, "update warning")
		return
	}

	if warning.Status == models.StatusApproved {
		e.broadcastMessage(WsMessage{Type: "warning_approved", Data: warning})
	} else {
		e.broadcastMessage(WsMessage{Type: "warning_removed", Data: gin.H{"id": warning.ID}})
	}
	c.JSON(http.StatusOK, warning)
}

func (e *Env) DeleteWarning(c *gin.Context) {
	id, ok := paramID(c, "id", "warning")
	if !ok {
		return
	}
	if err := e.Engine.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err, "delete warning")
		return
	}
	e.broadcastMessage(WsMessage{Type: "warning_removed", Data: gin.H{"id": id}})
	c.JSON(http.StatusOK, gin.H{"message": "Warning deleted successfully"})
}

func (e *Env) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id", "comment")
	if !ok {
		return
	}
	if err := e.Comments.Delete(c.Request.Context(), callerFrom(c), id); err != nil {
		respondError(c, err, "delete comment")
		return
	}
	e.broadcastMessage(WsMessage{Type: "comment_removed", Data: gin.H{"id": id}})
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// broadcastMessage pushes msg to live feed subscribers. A full queue drops it.
func (e *Env) broadcastMessage(msg WsMessage) {
	if e.Hub == nil {
		return
	}
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal websocket message", slog.String("type", msg.Type), slog.String("error", err.Error()))
		return
	}
	if !e.Hub.Publish(jsonMsg) {
		slog.Warn("websocket broadcast queue full, message dropped", slog.String("type", msg.Type))
	}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return false
	}
	return true
}

func paramID(c *gin.Context, name, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return uint(id), true
}
