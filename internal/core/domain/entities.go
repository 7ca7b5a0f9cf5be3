package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleBroker       Role = "BROKER"
	RoleManager      Role = "MANAGER"
	RolePolicyHolder Role = "POLICYHOLDER"
	RoleAdmin        Role = "ADMIN"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleBroker, RoleManager, RolePolicyHolder, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the domain layer
type User struct {
	ID        uint
	Email     string
	Username  string
	Password  string // Hashed
	Role      Role
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// DocumentStatus is one resolved requirement line for a policyholder:
// which document type a service type expects and how far the holder has got.
type DocumentStatus struct {
	DocumentType string `json:"document_type"`
	Name         string `json:"name"`
	IsRequired   bool   `json:"is_required"`
	Uploaded     bool   `json:"uploaded"`
	Verified     bool   `json:"verified"`
	DocumentID   *uint  `json:"document_id,omitempty"`
}

// RequirementResult groups resolved requirements for one service type.
type RequirementResult struct {
	ServiceCode string           `json:"service_code"`
	Required    []DocumentStatus `json:"required"`
	Optional    []DocumentStatus `json:"optional"`
}

// MissingRequired returns the names of required documents that are not yet
// uploaded and verified.
func (r *RequirementResult) MissingRequired() []string {
	var missing []string
	for _, d := range r.Required {
		if !d.Uploaded || !d.Verified {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

// Complete reports whether every required document is uploaded and verified.
func (r *RequirementResult) Complete() bool {
	return len(r.MissingRequired()) == 0
}

// ApprovalStatistics summarises review throughput for dashboards.
type ApprovalStatistics struct {
	PendingCount           int64   `json:"pending_count"`
	UnderReviewCount       int64   `json:"under_review_count"`
	ApprovedTodayCount     int64   `json:"approved_today_count"`
	RejectedTodayCount     int64   `json:"rejected_today_count"`
	AverageReviewTimeHours float64 `json:"average_review_time_hours"`
	ApprovalRate           float64 `json:"approval_rate"`
}
