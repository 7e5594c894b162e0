package handlers

import (
	"time"

	"stickygoals/internal/models"
)

// UserDTO is the public profile; the password hash never leaves the server.
type UserDTO struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarRef   *string `json:"avatar_ref,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func toStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarRef:   toStringPtr(u.AvatarRef),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
