package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & Party Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'POLICYHOLDER'" json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Broker represents brokers table. CreatedAt orders the round-robin ring.
type Broker struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	LicenseNumber string         `gorm:"uniqueIndex;size:50;not null" json:"license_number"`
	AgencyName    string         `gorm:"size:100" json:"agency_name"`
	Phone         string         `gorm:"size:30" json:"phone"`
	IsActive      bool           `json:"is_active"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Broker) TableName() string {
	return "brokers"
}

// Manager represents managers table
type Manager struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Department string         `gorm:"size:100" json:"department"`
	CanApprove bool           `gorm:"default:false" json:"can_approve"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Manager) TableName() string {
	return "managers"
}

// PolicyHolder represents policy_holders table
type PolicyHolder struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      *uint          `gorm:"uniqueIndex" json:"user_id"`
	FirstName   string         `gorm:"size:50;not null" json:"first_name"`
	LastName    string         `gorm:"size:50;not null" json:"last_name"`
	IDNumber    string         `gorm:"uniqueIndex;size:30;not null" json:"id_number"`
	Email       string         `gorm:"size:100" json:"email"`
	Phone       string         `gorm:"size:30" json:"phone"`
	DateOfBirth *time.Time     `gorm:"type:date" json:"date_of_birth"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (PolicyHolder) TableName() string {
	return "policy_holders"
}

func (ph *PolicyHolder) FullName() string {
	return ph.FirstName + " " + ph.LastName
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & parties
		&User{},
		&RefreshToken{},
		&Broker{},
		&Manager{},
		&PolicyHolder{},
		// Reference tables
		&ServiceType{},
		&DocumentRequirement{},
		// Policy workflow
		&Policy{},
		&PolicyApproval{},
		&PolicyApprovalHistory{},
		&Document{},
	)
}
