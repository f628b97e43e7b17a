package api

import (
	"time"

	"github.com/quranchallenge/server/domain"
	"github.com/quranchallenge/server/domain/entities"
	"github.com/quranchallenge/server/usecase"
)

// Response is the envelope every JSON route answers with
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadingRequest is the body of a reading submission. readingTypes is an
// older name for categories and is merged into it.
type ReadingRequest struct {
	Masjid         string              `json:"masjid"`
	ChildName      string              `json:"childName"`
	Categories     []entities.Category `json:"categories"`
	ReadingTypes   []entities.Category `json:"readingTypes"`
	Description    string              `json:"description"`
	ImamVerified   bool                `json:"imamVerified"`
	BulkSubmission bool                `json:"bulkSubmission"`
}

func (r ReadingRequest) toInput(ip, userAgent string) usecase.ReadingInput {
	categories := r.Categories
	if len(categories) == 0 {
		categories = r.ReadingTypes
	}
	return usecase.ReadingInput{
		Masjid:         r.Masjid,
		ChildName:      r.ChildName,
		Categories:     categories,
		Description:    r.Description,
		ImamVerified:   r.ImamVerified,
		BulkSubmission: r.BulkSubmission,
		IPAddress:      ip,
		UserAgent:      userAgent,
	}
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID     string        `json:"id"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Masjid string        `json:"masjid"`
	Role   entities.Role `json:"role"`
}

// AuthResponse carries a session token and the user it was issued to
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func newAuthResponse(res *usecase.AuthResult) AuthResponse {
	return AuthResponse{
		Token: res.Token,
		User: UserResponse{
			ID:     res.User.ID.Hex(),
			Email:  res.User.Email,
			Name:   res.User.Name,
			Masjid: res.User.Masjid,
			Role:   res.User.Role,
		},
	}
}
