package repositories

import (
	"context"
	"testing"

	"coverhub/internal/adapters/persistence/models"

	"github.com/stretchr/testify/require"
)

func TestRequirement_OptionalFlagPersists(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequirementRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.ServiceType{ID: 1, Code: "MOTOR", Name: "Motor", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.DocumentRequirement{
		ServiceTypeID: 1,
		DocumentType:  "VEHICLE_PHOTO",
		Name:          "Vehicle photo",
		IsRequired:    false,
		DisplayOrder:  1,
	}).Error)
	require.NoError(t, db.Create(&models.DocumentRequirement{
		ServiceTypeID: 1,
		DocumentType:  "ID_CARD",
		Name:          "ID card",
		IsRequired:    true,
		DisplayOrder:  2,
	}).Error)

	reqs, err := repo.ListByServiceTypeID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	byType := map[string]bool{}
	for _, r := range reqs {
		byType[r.DocumentType] = r.IsRequired
	}
	require.False(t, byType["VEHICLE_PHOTO"], "optional requirement must stay optional")
	require.True(t, byType["ID_CARD"])
}

func TestInactiveFlagsPersist(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&models.ServiceType{Code: "LEGACY", Name: "Legacy", IsActive: false}).Error)
	require.NoError(t, db.Create(&models.User{
		Email:    "gone@coverhub.test",
		Username: "gone",
		Password: "x",
		Role:     "BROKER",
		IsActive: false,
	}).Error)

	var st models.ServiceType
	require.NoError(t, db.Where("code = ?", "LEGACY").First(&st).Error)
	require.False(t, st.IsActive)

	var user models.User
	require.NoError(t, db.Where("username = ?", "gone").First(&user).Error)
	require.False(t, user.IsActive)
}
