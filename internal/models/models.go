package models

import (
	"time"
)

// Status is the moderation state of a Warning.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Valid reports whether s is one of the three moderation states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// User is a registered account. Admins can moderate.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	Email        string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Category is one of the fixed scam categories a Warning is filed under.
type Category struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Emoji       string `gorm:"size:16" json:"emoji"`
}

// Warning is a user-submitted scam report.
type Warning struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Title        string    `gorm:"size:200;not null" json:"title"`
	Description  string    `gorm:"not null" json:"description"`
	WarningSigns string    `gorm:"not null" json:"warningSigns"`
	ImageURL     string    `gorm:"size:500" json:"imageUrl"`
	AuthorID     uint      `gorm:"not null;index" json:"authorId"`
	CategoryID   uint      `gorm:"not null;index" json:"categoryId"`
	Status       Status    `gorm:"size:20;not null;default:'Pending';index" json:"status"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`

	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Category Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	Comments []Comment `gorm:"foreignKey:WarningID;constraint:OnDelete:CASCADE" json:"-"`
}

// Comment is a note left by a user on a Warning.
type Comment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Text      string    `gorm:"size:1000;not null" json:"text"`
	WarningID uint      `gorm:"not null;index" json:"warningId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	// Deleting a user that still has comments is a constraint violation.
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:NO ACTION" json:"-"`
}

// WarningView is a Warning joined with its author and category for display.
type WarningView struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	WarningSigns   string    `json:"warningSigns"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	AuthorID       uint      `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	CategoryID     uint      `json:"categoryId"`
	CategoryName   string    `json:"categoryName"`
	CategoryEmoji  string    `json:"categoryEmoji,omitempty"`
}

// NewWarningView expects Author and Category to be loaded.
func NewWarningView(w *Warning) WarningView {
	return WarningView{
		ID:             w.ID,
		Title:          w.Title,
		Description:    w.Description,
		WarningSigns:   w.WarningSigns,
		ImageURL:       w.ImageURL,
		Status:         w.Status,
		CreatedAt:      w.CreatedAt,
		AuthorID:       w.AuthorID,
		AuthorUsername: w.Author.Username,
		CategoryID:     w.CategoryID,
		CategoryName:   w.Category.Name,
		CategoryEmoji:  w.Category.Emoji,
	}
}

// CommentView is a Comment annotated with the commenter's username.
type CommentView struct {
	ID        uint      `json:"id"`
	WarningID uint      `json:"warningId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    uint      `json:"userId"`
	Username  string    `json:"username"`
}

func NewCommentView(c *Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		WarningID: c.WarningID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UserID:    c.UserID,
		Username:  c.User.Username,
	}
}
