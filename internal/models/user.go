// internal/models/user.go
package models

import "strings"

// Identity is the session user, read from the credential store. Immutable for
// the lifetime of a session; used as a comparison key and as outbound headers.
type Identity struct {
	DisplayName    string `json:"displayName" validate:"required"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	OrganizationID *int64 `json:"organizationId,omitempty"`
}

// Key returns the partition key used for the notification inbox.
func (i Identity) Key() string {
	if i.Email != "" {
		return strings.ToLower(i.Email)
	}
	return i.DisplayName
}

// Owns reports whether an item attributed to createdByName belongs to this user.
func (i Identity) Owns(createdByName string) bool {
	return createdByName != "" && strings.EqualFold(createdByName, i.DisplayName)
}
