// internal/models/announcement.go
package models

import "time"

type Announcement struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title" validate:"required,min=3,max=200"`
	Content        string    `json:"content" validate:"required,min=1,max=5000"`
	Type           string    `json:"type" validate:"required,oneof=GENERAL URGENT POLICY EVENT UPDATE"`
	TargetAudience string    `json:"targetAudience" validate:"required,oneof=ALL ADMIN MANAGER HR EMPLOYEE"`
	CreatedByName  string    `json:"createdByName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Announcement types
const (
	AnnouncementTypeGeneral = "GENERAL"
	AnnouncementTypeUrgent  = "URGENT"
	AnnouncementTypePolicy  = "POLICY"
	AnnouncementTypeEvent   = "EVENT"
	AnnouncementTypeUpdate  = "UPDATE"
)

// Target audiences
const (
	AudienceAll      = "ALL"
	AudienceAdmin    = "ADMIN"
	AudienceManager  = "MANAGER"
	AudienceHR       = "HR"
	AudienceEmployee = "EMPLOYEE"
)

type CreateAnnouncementRequest struct {
	Title          string `json:"title" validate:"required,min=3,max=200"`
	Content        string `json:"content" validate:"required,min=1,max=5000"`
	Type           string `json:"type" validate:"required,oneof=GENERAL URGENT POLICY EVENT UPDATE"`
	TargetAudience string `json:"targetAudience" validate:"required,oneof=ALL ADMIN MANAGER HR EMPLOYEE"`
}

func (a *Announcement) IsUrgent() bool {
	return a.Type == AnnouncementTypeUrgent
}

// VisibleTo reports whether the announcement is addressed to the given role.
func (a *Announcement) VisibleTo(role string) bool {
	return a.TargetAudience == AudienceAll || a.TargetAudience == role
}

func (a *Announcement) IsRecent() bool {
	return time.Since(a.CreatedAt) < 24*time.Hour
}
