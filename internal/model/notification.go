package model

import (
	"time"
)

// Notification represents a single notification owned by a user account.
// The ID is server-assigned and is the only stable identity; IsRead only
// ever transitions from false to true.
type Notification struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	Type      string    `json:"type,omitempty" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"isRead" db:"is_read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Pagination mirrors the wire-level pagination envelope.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
}

// NotificationPage is one page of notifications plus the unread count across
// all pages for the owning user. UnreadCount is server-authoritative and is
// not derivable from the page contents alone.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Pagination    Pagination     `json:"pagination"`
	UnreadCount   int            `json:"unreadCount"`
}

// NotificationCreate represents data for creating a notification
type NotificationCreate struct {
	UserID  int    `json:"userId" binding:"required"`
	Type    string `json:"type,omitempty"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// MarkReadRequest is the body of PUT /notify/mark-read
type MarkReadRequest struct {
	NotificationIDs []int `json:"notificationIds" binding:"required,min=1"`
}

// MarkReadResponse represents the response after marking notifications as read
type MarkReadResponse struct {
	Success     bool `json:"success"`
	MarkedCount int  `json:"markedCount"`
}
