package services

import (
	"testing"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB opens an in-memory sqlite database with the full schema.
// The pool is pinned to one connection so every query sees the same
// in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// workflowFixture wires the full service graph over one test database.
// Notifications are disabled so workflow tests never touch SES.
type workflowFixture struct {
	db *gorm.DB

	brokerRepo      *repositories.BrokerRepository
	managerRepo     *repositories.ManagerRepository
	holderRepo      *repositories.PolicyHolderRepository
	serviceTypeRepo *repositories.ServiceTypeRepository
	requirementRepo *repositories.RequirementRepository
	documentRepo    *repositories.DocumentRepository
	policyRepo      *repositories.PolicyRepository
	approvalRepo    *repositories.ApprovalRepository
	historyRepo     *repositories.HistoryRepository

	requirementSvc *RequirementService
	assignmentSvc  *AssignmentService
	approvalSvc    *ApprovalService
	documentSvc    *DocumentService
	policySvc      *PolicyService
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	db := openTestDB(t)

	f := &workflowFixture{
		db:              db,
		brokerRepo:      repositories.NewBrokerRepository(db),
		managerRepo:     repositories.NewManagerRepository(db),
		holderRepo:      repositories.NewPolicyHolderRepository(db),
		serviceTypeRepo: repositories.NewServiceTypeRepository(db),
		requirementRepo: repositories.NewRequirementRepository(db),
		documentRepo:    repositories.NewDocumentRepository(db),
		policyRepo:      repositories.NewPolicyRepository(db),
		approvalRepo:    repositories.NewApprovalRepository(db),
		historyRepo:     repositories.NewHistoryRepository(db),
	}

	f.requirementSvc = NewRequirementService(f.serviceTypeRepo, f.requirementRepo, f.documentRepo)
	f.assignmentSvc = NewAssignmentService(f.brokerRepo, f.managerRepo)

	notifySvc := &NotificationService{}

	f.approvalSvc = NewApprovalService(db, f.policyRepo, f.approvalRepo, f.historyRepo,
		f.managerRepo, f.requirementSvc, f.assignmentSvc, notifySvc)
	f.documentSvc = NewDocumentService(f.documentRepo, f.requirementRepo, f.holderRepo,
		f.managerRepo, f.requirementSvc)
	f.policySvc = NewPolicyService(f.policyRepo, f.holderRepo, f.serviceTypeRepo, f.assignmentSvc)

	return f
}

func (f *workflowFixture) createUser(t *testing.T, username, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:    username + "@coverhub.test",
		Username: username,
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *workflowFixture) createBroker(t *testing.T, username string) *models.Broker {
	t.Helper()
	user := f.createUser(t, username, "BROKER")
	broker := &models.Broker{
		UserID:        user.ID,
		LicenseNumber: "LIC-" + username,
		AgencyName:    username + " agency",
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(broker).Error)
	broker.User = user
	return broker
}

func (f *workflowFixture) createManager(t *testing.T, username string, canApprove bool) *models.Manager {
	t.Helper()
	user := f.createUser(t, username, "MANAGER")
	manager := &models.Manager{
		UserID:     user.ID,
		Department: "Underwriting",
		CanApprove: canApprove,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(manager).Error)
	manager.User = user
	return manager
}

func (f *workflowFixture) createHolder(t *testing.T, firstName, lastName, idNumber string) *models.PolicyHolder {
	t.Helper()
	holder := &models.PolicyHolder{
		FirstName: firstName,
		LastName:  lastName,
		IDNumber:  idNumber,
		Email:     firstName + "@holder.test",
	}
	require.NoError(t, f.db.Create(holder).Error)
	return holder
}

func (f *workflowFixture) createServiceType(t *testing.T, code, name string) *models.ServiceType {
	t.Helper()
	st := &models.ServiceType{Code: code, Name: name, IsActive: true}
	require.NoError(t, f.db.Create(st).Error)
	return st
}

func (f *workflowFixture) createRequirement(t *testing.T, serviceTypeID uint, docType, name string, required bool, order, validityDays int) {
	t.Helper()
	req := &models.DocumentRequirement{
		ServiceTypeID: serviceTypeID,
		DocumentType:  docType,
		Name:          name,
		IsRequired:    required,
		DisplayOrder:  order,
		ValidityDays:  validityDays,
	}
	require.NoError(t, f.db.Create(req).Error)
}

// createMotorServiceType seeds MOTOR with two required documents and one
// optional one, the smallest checklist that exercises the document gate.
func (f *workflowFixture) createMotorServiceType(t *testing.T) *models.ServiceType {
	t.Helper()
	st := f.createServiceType(t, "MOTOR", "Motor Insurance")
	f.createRequirement(t, st.ID, "ID_CARD", "ID card", true, 1, 365)
	f.createRequirement(t, st.ID, "VEHICLE_REGISTRATION", "Vehicle registration", true, 2, 0)
	f.createRequirement(t, st.ID, "VEHICLE_PHOTO", "Vehicle photo", false, 3, 0)
	return st
}

func (f *workflowFixture) createPolicy(t *testing.T, holder *models.PolicyHolder, broker *models.Broker, st *models.ServiceType, status string) *models.Policy {
	t.Helper()
	policy := &models.Policy{
		PolicyNumber:   newPolicyNumber(),
		PolicyHolderID: holder.ID,
		BrokerID:       broker.ID,
		ServiceTypeID:  st.ID,
		CoverageAmount: 1000000,
		PremiumAmount:  15000,
		Status:         status,
	}
	require.NoError(t, f.db.Create(policy).Error)
	return policy
}

func (f *workflowFixture) addDocument(t *testing.T, holderID uint, docType, status string) *models.Document {
	t.Helper()
	doc := &models.Document{
		PolicyHolderID: holderID,
		DocumentType:   docType,
		FileName:       docType + ".pdf",
		Checksum:       "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Status:         status,
		UploadedBy:     holderID,
	}
	require.NoError(t, f.db.Create(doc).Error)
	return doc
}

// verifiedMotorDocuments uploads and verifies every required MOTOR document
func (f *workflowFixture) verifiedMotorDocuments(t *testing.T, holderID uint) {
	t.Helper()
	f.addDocument(t, holderID, "ID_CARD", models.DocumentStatusVerified)
	f.addDocument(t, holderID, "VEHICLE_REGISTRATION", models.DocumentStatusVerified)
}
