package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Reference Tables
// ============================================================

// ServiceType ประเภทผลิตภัณฑ์ประกัน (Master)
type ServiceType struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ServiceType) TableName() string {
	return "service_types"
}

// DocumentRequirement required document per service type (Master)
type DocumentRequirement struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	ServiceTypeID        uint           `gorm:"not null;index" json:"service_type_id"`
	DocumentType         string         `gorm:"size:50;not null" json:"document_type"`
	Name                 string         `gorm:"size:100;not null" json:"name"`
	// No default tag: GORM omits zero values on insert when one is set,
	// which would store explicit false as true.
	IsRequired           bool           `json:"is_required"`
	IsConditional        bool           `gorm:"default:false" json:"is_conditional"`
	ConditionDescription string         `gorm:"type:text" json:"condition_description"`
	DisplayOrder         int            `gorm:"not null;default:0" json:"display_order"`
	ValidityDays         int            `gorm:"default:0" json:"validity_days"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	ServiceType *ServiceType `gorm:"foreignKey:ServiceTypeID" json:"service_type,omitempty"`
}

func (DocumentRequirement) TableName() string {
	return "document_requirements"
}

// ============================================================
// Main Tables
// ============================================================

// Policy Status
const (
	PolicyStatusDraft             = "DRAFT"
	PolicyStatusPendingSubmission = "PENDING_SUBMISSION"
	PolicyStatusSubmitted         = "SUBMITTED"
	PolicyStatusUnderReview       = "UNDER_REVIEW"
	PolicyStatusApproved          = "APPROVED"
	PolicyStatusActive            = "ACTIVE"
	PolicyStatusRejected          = "REJECTED"
	PolicyStatusCancelled         = "CANCELLED"
	PolicyStatusChangesRequired   = "CHANGES_REQUIRED"
)

// Policy กรมธรรม์ (ตารางหลัก)
type Policy struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	PolicyNumber   string         `gorm:"size:50;uniqueIndex;not null" json:"policy_number"`
	PolicyHolderID uint           `gorm:"not null;index" json:"policy_holder_id"`
	BrokerID       uint           `gorm:"not null;index" json:"broker_id"`
	ServiceTypeID  uint           `gorm:"not null" json:"service_type_id"`
	CoverageAmount float64        `gorm:"type:decimal(15,2);not null" json:"coverage_amount"`
	PremiumAmount  float64        `gorm:"type:decimal(15,2);not null" json:"premium_amount"`
	StartDate      *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate        *time.Time     `gorm:"type:date" json:"end_date"`
	Status         string         `gorm:"size:30;not null;default:'DRAFT';index" json:"status"`
	Notes          string         `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	PolicyHolder *PolicyHolder   `gorm:"foreignKey:PolicyHolderID" json:"policy_holder,omitempty"`
	Broker       *Broker         `gorm:"foreignKey:BrokerID" json:"broker,omitempty"`
	ServiceType  *ServiceType    `gorm:"foreignKey:ServiceTypeID" json:"service_type,omitempty"`
	Approval     *PolicyApproval `gorm:"foreignKey:PolicyID" json:"approval,omitempty"`
}

func (Policy) TableName() string {
	return "policies"
}

// CanSubmit reports whether the policy is in a submittable status
func (p *Policy) CanSubmit() bool {
	switch p.Status {
	case PolicyStatusDraft, PolicyStatusPendingSubmission, PolicyStatusChangesRequired:
		return true
	}
	return false
}

// PolicyResponse DTO
type PolicyResponse struct {
	ID               uint       `json:"id"`
	PolicyNumber     string     `json:"policy_number"`
	PolicyHolderID   uint       `json:"policy_holder_id"`
	PolicyHolderName string     `json:"policy_holder_name,omitempty"`
	BrokerID         uint       `json:"broker_id"`
	BrokerName       string     `json:"broker_name,omitempty"`
	ServiceTypeID    uint       `json:"service_type_id"`
	ServiceTypeCode  string     `json:"service_type_code,omitempty"`
	ServiceTypeName  string     `json:"service_type_name,omitempty"`
	CoverageAmount   float64    `json:"coverage_amount"`
	PremiumAmount    float64    `json:"premium_amount"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (p *Policy) ToResponse() *PolicyResponse {
	resp := &PolicyResponse{
		ID:             p.ID,
		PolicyNumber:   p.PolicyNumber,
		PolicyHolderID: p.PolicyHolderID,
		BrokerID:       p.BrokerID,
		ServiceTypeID:  p.ServiceTypeID,
		CoverageAmount: p.CoverageAmount,
		PremiumAmount:  p.PremiumAmount,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Status:         p.Status,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}

	if p.PolicyHolder != nil {
		resp.PolicyHolderName = p.PolicyHolder.FullName()
	}
	if p.Broker != nil {
		resp.BrokerName = p.Broker.AgencyName
		if p.Broker.User != nil {
			resp.BrokerName = p.Broker.User.Username
		}
	}
	if p.ServiceType != nil {
		resp.ServiceTypeCode = p.ServiceType.Code
		resp.ServiceTypeName = p.ServiceType.Name
	}

	return resp
}

// Approval Status
const (
	ApprovalStatusPending         = "PENDING"
	ApprovalStatusUnderReview     = "UNDER_REVIEW"
	ApprovalStatusApproved        = "APPROVED"
	ApprovalStatusRejected        = "REJECTED"
	ApprovalStatusRequiresChanges = "REQUIRES_CHANGES"
)

// PolicyApproval current review cycle (1:1 กับ policy)
// Reused in place across resubmissions; the full audit trail lives in
// policy_approval_histories only.
type PolicyApproval struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	PolicyID           uint       `gorm:"not null;uniqueIndex" json:"policy_id"`
	Status             string     `gorm:"size:30;not null;default:'PENDING';index" json:"status"`
	SubmittedBy        uint       `gorm:"not null" json:"submitted_by"`
	SubmittedAt        time.Time  `gorm:"not null" json:"submitted_at"`
	AssignedManagerID  *uint      `gorm:"index" json:"assigned_manager_id"`
	AssignedAt         *time.Time `json:"assigned_at"`
	DocumentsVerified  bool       `gorm:"default:false" json:"documents_verified"`
	ApprovedBy         *uint      `json:"approved_by"`
	ApprovedAt         *time.Time `json:"approved_at"`
	ApprovalNotes      string     `gorm:"type:text" json:"approval_notes"`
	RejectedBy         *uint      `json:"rejected_by"`
	RejectedAt         *time.Time `json:"rejected_at"`
	RejectionReason    string     `gorm:"type:text" json:"rejection_reason"`
	ChangesRequestedBy *uint      `json:"changes_requested_by"`
	ChangesRequestedAt *time.Time `json:"changes_requested_at"`
	ChangesRequired    string     `gorm:"type:text" json:"changes_required"`
	Version            uint       `gorm:"not null;default:0" json:"version"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Policy          *Policy  `gorm:"foreignKey:PolicyID" json:"policy,omitempty"`
	AssignedManager *Manager `gorm:"foreignKey:AssignedManagerID" json:"assigned_manager,omitempty"`
	Submitter       *Broker  `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
}

func (PolicyApproval) TableName() string {
	return "policy_approvals"
}

// IsOpen reports whether the approval can still be acted on
func (a *PolicyApproval) IsOpen() bool {
	return a.Status == ApprovalStatusPending || a.Status == ApprovalStatusUnderReview
}

// Actor Types for history rows
const (
	ActorTypeBroker  = "BROKER"
	ActorTypeManager = "MANAGER"
	ActorTypeSystem  = "SYSTEM"
)

// History Actions
const (
	ActionSubmitted        = "Submitted"
	ActionAssigned         = "Assigned"
	ActionApproved         = "Approved"
	ActionRejected         = "Rejected"
	ActionChangesRequested = "ChangesRequested"
)

// PolicyApprovalHistory append-only audit log ต่อ 1 transition
type PolicyApprovalHistory struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ApprovalID     uint      `gorm:"not null;index" json:"approval_id"`
	PolicyID       uint      `gorm:"not null;index" json:"policy_id"`
	Action         string    `gorm:"size:50;not null" json:"action"`
	ActorID        uint      `gorm:"not null" json:"actor_id"`
	ActorType      string    `gorm:"size:20;not null" json:"actor_type"`
	PreviousStatus string    `gorm:"size:30" json:"previous_status"`
	NewStatus      string    `gorm:"size:30;not null" json:"new_status"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Approval *PolicyApproval `gorm:"foreignKey:ApprovalID" json:"approval,omitempty"`
	Policy   *Policy         `gorm:"foreignKey:PolicyID" json:"policy,omitempty"`
}

func (PolicyApprovalHistory) TableName() string {
	return "policy_approval_histories"
}

// Document Status
const (
	DocumentStatusPending  = "PENDING"
	DocumentStatusVerified = "VERIFIED"
	DocumentStatusRejected = "REJECTED"
	DocumentStatusExpired  = "EXPIRED"
)

// Document uploaded supporting document (metadata only)
type Document struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	PolicyHolderID  uint       `gorm:"not null;index" json:"policy_holder_id"`
	PolicyID        *uint      `gorm:"index" json:"policy_id"`
	DocumentType    string     `gorm:"size:50;not null;index" json:"document_type"`
	FileName        string     `gorm:"size:255;not null" json:"file_name"`
	Checksum        string     `gorm:"size:64;not null" json:"checksum"`
	Status          string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	ExpiresAt       *time.Time `json:"expires_at"`
	UploadedBy      uint       `gorm:"not null" json:"uploaded_by"`
	VerifiedBy      *uint      `json:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	PolicyHolder *PolicyHolder `gorm:"foreignKey:PolicyHolderID" json:"policy_holder,omitempty"`
	Policy       *Policy       `gorm:"foreignKey:PolicyID" json:"policy,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}

// IsUsable reports whether the document still counts toward requirements
func (d *Document) IsUsable() bool {
	return d.Status != DocumentStatusRejected && d.Status != DocumentStatusExpired
}
