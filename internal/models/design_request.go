package models

import "time"

// RequestStatus defines lifecycle states for design requests.
type RequestStatus string

const (
	// RequestStatusNew is the initial state of a submitted request.
	RequestStatusNew RequestStatus = "new"
	// RequestStatusAccepted means staff took the request into work.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusCompleted means a design image was delivered. Terminal.
	RequestStatusCompleted RequestStatus = "completed"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusNew,
	RequestStatusAccepted,
	RequestStatusCompleted,
}

// ParseRequestStatus resolves a caller-supplied status literal. Only the
// exact lowercase literals are recognized.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	status := RequestStatus(raw)
	switch status {
	case RequestStatusNew, RequestStatusAccepted, RequestStatusCompleted:
		return status, true
	}
	return "", false
}

// IsReviewTarget reports whether staff may move a request into status.
func (s RequestStatus) IsReviewTarget() bool {
	return s == RequestStatusAccepted || s == RequestStatusCompleted
}

// CanTransition reports whether the lifecycle defines from -> to.
func CanTransition(from, to RequestStatus) bool {
	switch from {
	case RequestStatusNew:
		return to == RequestStatusAccepted || to == RequestStatusCompleted
	case RequestStatusAccepted:
		return to == RequestStatusCompleted
	default:
		return false
	}
}

// DesignRequest is a user-submitted design job.
type DesignRequest struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	OwnerID      uint          `gorm:"not null;index" json:"owner_id"`
	Owner        *User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Title        string        `gorm:"size:255;not null" json:"title"`
	Description  string        `gorm:"type:text;not null" json:"description"`
	CategoryID   uint          `gorm:"not null;index" json:"category_id"`
	Category     *Category     `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	Image        string        `gorm:"size:512;not null" json:"image"`
	Status       RequestStatus `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	AdminComment string        `gorm:"type:text;not null;default:''" json:"admin_comment"`
	DesignImage  *string       `gorm:"size:512" json:"design_image"`
	CreatedAt    time.Time     `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CanBeDeleted reports whether the request may still be withdrawn.
func (r *DesignRequest) CanBeDeleted() bool {
	return r.Status == RequestStatusNew
}

// HasDesignImage reports whether a finished design is on file.
func (r *DesignRequest) HasDesignImage() bool {
	return r.DesignImage != nil && *r.DesignImage != ""
}
