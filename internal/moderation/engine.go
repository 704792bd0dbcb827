// Package moderation owns the Warning lifecycle: who may create, view,
// approve, reject, edit and delete warnings and comments, and which
// warnings each caller can see.
//
// A Warning starts Pending. Approve and Reject set the status from any
// state, and an admin Update may set it directly, so there is no terminal
// state. Concurrent writes to the same warning are last-write-wins.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sujalbistaa/scamwatch/internal/models"
	"github.com/sujalbistaa/scamwatch/internal/store"
)

// Caller is the resolved identity of whoever issued a request. The zero
// value is an anonymous caller.
type Caller struct {
	UserID  uint
	IsAdmin bool
}

// Authenticated reports whether the caller has an identity.
func (c Caller) Authenticated() bool { return c.UserID != 0 }

// Users is the identity store as seen by the engine.
type Users interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Categories is the category catalog.
type Categories interface {
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context) ([]models.Category, error)
}

// Warnings is the warning store.
type Warnings interface {
	Create(ctx context.Context, w *models.Warning) error
	Get(ctx context.Context, id uint) (*models.Warning, error)
	Save(ctx context.Context, w *models.Warning) error
	SetStatus(ctx context.Context, id uint, status models.Status) (*models.Warning, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f store.WarningFilter) ([]models.Warning, error)
}

// Engine enforces the moderation rules on top of the stores.
type Engine struct {
	users      Users
	categories Categories
	warnings   Warnings
	metrics    *Metrics
	now        func() time.Time
}

func NewEngine(users Users, categories Categories, warnings Warnings, metrics *Metrics) *Engine {
	return &Engine{
		users:      users,
		categories: categories,
		warnings:   warnings,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// IsAdmin is the single authorization predicate. Unknown users yield
// models.ErrNotFound.
func (e *Engine) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	u, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

// Categories lists the category catalog.
func (e *Engine) Categories(ctx context.Context) ([]models.Category, error) {
	return e.categories.List(ctx)
}

// Create files a new warning authored by the caller. It always starts Pending.
func (e *Engine) Create(ctx context.Context, caller Caller, in WarningInput) (models.WarningView, error) {
	if err := requireIdentity(caller); err != nil {
		return models.WarningView{}, err
	}
	if err := in.validate(); err != nil {
		return models.WarningView{}, err
	}
	if err := e.checkCategory(ctx, in.CategoryID); err != nil {
		return models.WarningView{}, err
	}

	w := &models.Warning{
		Title:        in.Title,
		Description:  in.Description,
		WarningSigns: in.WarningSigns,
		ImageURL:     in.ImageURL,
		AuthorID:     caller.UserID,
		CategoryID:   in.CategoryID,
		Status:       models.StatusPending,
		CreatedAt:    e.now(),
	}
	if err := e.warnings.Create(ctx, w); err != nil {
		return models.WarningView{}, fmt.Errorf("create warning: %w", err)
	}

	e.metrics.observe(models.StatusPending)
	slog.InfoContext(ctx, "warning submitted",
		slog.Uint64("warning_id", uint64(w.ID)),
		slog.Uint64("author_id", uint64(w.AuthorID)),
	)
	return models.NewWarningView(w), nil
}

// Approve makes a warning publicly visible.
func (e *Engine) Approve(ctx context.Context, caller Caller, id uint) (models.WarningView, error) {
	return e.transition(ctx, caller, id, models.StatusApproved)
}

// Reject hides a warning from the public.
func (e *Engine) Reject(ctx context.Context, caller Caller, id uint) (models.WarningView, error) {
	return e.transition(ctx, caller, id, models.StatusRejected)
}

func (e *Engine) transition(ctx context.Context, caller Caller, id uint, to models.Status) (models.WarningView, error) {
	if err := requireAdmin(caller); err != nil {
		return models.WarningView{}, err
	}
	w, err := e.warnings.SetStatus(ctx, id, to)
	if err != nil {
		return models.WarningView{}, err
	}

	e.metrics.observe(to)
	slog.InfoContext(ctx, "warning moderated",
		slog.Uint64("warning_id", uint64(id)),
		slog.String("status", string(to)),
		slog.Uint64("admin_id", uint64(caller.UserID)),
	)
	return models.NewWarningView(w), nil
}

// Update overwrites every editable field, status included. This is the
// admin override path and bypasses Approve/Reject.
func (e *Engine) Update(ctx context.Context, caller Caller, id uint, in UpdateInput) (models.WarningView, error) {
	if err := requireAdmin(caller); err != nil {
		return models.WarningView{}, err
	}
	if err := in.validate(); err != nil {
		return models.WarningView{}, err
	}
	w, err := e.warnings.Get(ctx, id)
	if err != nil {
		return models.WarningView{}, err
	}
	if err := e.checkCategory(ctx, in.CategoryID); err != nil {
		return models.WarningView{}, err
	}

	w.Title = in.Title
	w.Description = in.Description
	w.WarningSigns = in.WarningSigns
	w.ImageURL = in.ImageURL
	w.CategoryID = in.CategoryID
	w.Status = in.Status
	if err := e.warnings.Save(ctx, w); err != nil {
		return models.WarningView{}, fmt.Errorf("update warning: %w", err)
	}

	e.metrics.observe(in.Status)
	slog.InfoContext(ctx, "warning updated",
		slog.Uint64("warning_id", uint64(id)),
		slog.String("status", string(in.Status)),
		slog.Uint64("admin_id", uint64(caller.UserID)),
	)
	return models.NewWarningView(w), nil
}

// Delete removes a warning together with its comments.
func (e *Engine) Delete(ctx context.Context, caller Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if err := e.warnings.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "warning deleted",
		slog.Uint64("warning_id", uint64(id)),
		slog.Uint64("admin_id", uint64(caller.UserID)),
	)
	return nil
}

// Get returns one warning. Approved warnings are public; Pending and
// Rejected ones are visible only to admins and to their author, and look
// missing to everyone else.
func (e *Engine) Get(ctx context.Context, caller Caller, id uint) (models.WarningView, error) {
	w, err := e.warnings.Get(ctx, id)
	if err != nil {
		return models.WarningView{}, err
	}
	if !visible(caller, w) {
		return models.WarningView{}, fmt.Errorf("%w: warning %d", models.ErrNotFound, id)
	}
	return models.NewWarningView(w), nil
}

// ListApproved returns the public feed, newest first.
func (e *Engine) ListApproved(ctx context.Context) ([]models.WarningView, error) {
	return e.list(ctx, store.WarningFilter{Status: models.StatusApproved})
}

// ListPending returns the moderation queue. Admin only.
func (e *Engine) ListPending(ctx context.Context, caller Caller) ([]models.WarningView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return e.list(ctx, store.WarningFilter{Status: models.StatusPending})
}

// ListAll returns every warning regardless of status. Admin only.
func (e *Engine) ListAll(ctx context.Context, caller Caller) ([]models.WarningView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return e.list(ctx, store.WarningFilter{})
}

// Search filters approved warnings. term matches title or description
// case-insensitively; categoryID, when non-zero, must match exactly.
func (e *Engine) Search(ctx context.Context, term string, categoryID uint) ([]models.WarningView, error) {
	return e.list(ctx, store.WarningFilter{
		Status:     models.StatusApproved,
		CategoryID: categoryID,
		Term:       term,
	})
}

func (e *Engine) list(ctx context.Context, f store.WarningFilter) ([]models.WarningView, error) {
	warnings, err := e.warnings.List(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]models.WarningView, 0, len(warnings))
	for i := range warnings {
		views = append(views, models.NewWarningView(&warnings[i]))
	}
	return views, nil
}

func (e *Engine) checkCategory(ctx context.Context, id uint) error {
	ok, err := e.categories.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: category with id %d does not exist", models.ErrInvalidCategory, id)
	}
	return nil
}

func visible(caller Caller, w *models.Warning) bool {
	if w.Status == models.StatusApproved || caller.IsAdmin {
		return true
	}
	return caller.Authenticated() && caller.UserID == w.AuthorID
}

func requireIdentity(caller Caller) error {
	if !caller.Authenticated() {
		return fmt.Errorf("%w: sign in required", models.ErrUnauthorized)
	}
	return nil
}

func requireAdmin(caller Caller) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return fmt.Errorf("%w: admin access required", models.ErrUnauthorized)
	}
	return nil
}
