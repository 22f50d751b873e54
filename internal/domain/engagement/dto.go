package engagement

// CreateRequest for POST /engagements
type CreateRequest struct {
	WorkerID string `json:"workerId" validate:"required"`
	PostID   string `json:"postId" validate:"required"`
	Message  string `json:"message" validate:"max=1000"`
}

// UpdateStatusRequest for PATCH /engagements/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined withdrawn"`
}

// Role selects which side of engagements to list
type Role string

const (
	RoleSent     Role = "sent"
	RoleReceived Role = "received"
)
