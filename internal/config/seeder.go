package config

import (
	"log"

	"coverhub/internal/adapters/persistence/models"
	"coverhub/internal/pkg/password"

	"gorm.io/gorm"
)

// SeedMasterData seeds initial master data
func SeedMasterData(db *gorm.DB) error {
	if err := seedServiceTypes(db); err != nil {
		return err
	}

	if err := seedDocumentRequirements(db); err != nil {
		return err
	}

	if err := seedAdminUser(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedServiceTypes(db *gorm.DB) error {
	serviceTypes := []models.ServiceType{
		{
			Code:        "MOTOR",
			Name:        "ประกันภัยรถยนต์",
			Description: "ความคุ้มครองรถยนต์ส่วนบุคคลและเชิงพาณิชย์",
			IsActive:    true,
		},
		{
			Code:        "HOME",
			Name:        "ประกันภัยที่อยู่อาศัย",
			Description: "ความคุ้มครองบ้านและทรัพย์สินภายใน",
			IsActive:    true,
		},
		{
			Code:        "LIFE",
			Name:        "ประกันชีวิต",
			Description: "ความคุ้มครองชีวิตและทุพพลภาพถาวร",
			IsActive:    true,
		},
	}

	for _, st := range serviceTypes {
		var existing models.ServiceType
		if err := db.Where("code = ?", st.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&st).Error; err != nil {
					return err
				}
				log.Printf("   Created service_type: %s", st.Name)
			}
		}
	}
	return nil
}

func seedDocumentRequirements(db *gorm.DB) error {
	// requirements keyed by service type code
	requirements := map[string][]models.DocumentRequirement{
		"MOTOR": {
			{DocumentType: "ID_CARD", Name: "สำเนาบัตรประชาชน", IsRequired: true, DisplayOrder: 1, ValidityDays: 365},
			{DocumentType: "VEHICLE_REGISTRATION", Name: "สำเนาทะเบียนรถ", IsRequired: true, DisplayOrder: 2},
			{DocumentType: "DRIVER_LICENSE", Name: "สำเนาใบขับขี่", IsRequired: true, DisplayOrder: 3, ValidityDays: 365},
			{DocumentType: "VEHICLE_PHOTO", Name: "รูปถ่ายรถยนต์", IsRequired: false, DisplayOrder: 4},
		},
		"HOME": {
			{DocumentType: "ID_CARD", Name: "สำเนาบัตรประชาชน", IsRequired: true, DisplayOrder: 1, ValidityDays: 365},
			{DocumentType: "HOUSE_REGISTRATION", Name: "สำเนาทะเบียนบ้าน", IsRequired: true, DisplayOrder: 2},
			{DocumentType: "TITLE_DEED", Name: "สำเนาโฉนดที่ดิน", IsRequired: true, DisplayOrder: 3},
			{
				DocumentType: "MORTGAGE_CONTRACT", Name: "สัญญาจำนอง", IsRequired: false,
				IsConditional: true, ConditionDescription: "กรณีบ้านติดจำนองกับธนาคาร", DisplayOrder: 4,
			},
		},
		"LIFE": {
			{DocumentType: "ID_CARD", Name: "สำเนาบัตรประชาชน", IsRequired: true, DisplayOrder: 1, ValidityDays: 365},
			{DocumentType: "MEDICAL_REPORT", Name: "ใบรับรองแพทย์", IsRequired: true, DisplayOrder: 2, ValidityDays: 90},
			{DocumentType: "INCOME_STATEMENT", Name: "เอกสารรับรองรายได้", IsRequired: true, DisplayOrder: 3, ValidityDays: 180},
			{
				DocumentType: "BENEFICIARY_CONSENT", Name: "หนังสือยินยอมผู้รับประโยชน์", IsRequired: false,
				IsConditional: true, ConditionDescription: "กรณีผู้รับประโยชน์ไม่ใช่ทายาทโดยธรรม", DisplayOrder: 4,
			},
		},
	}

	for code, reqs := range requirements {
		var st models.ServiceType
		if err := db.Where("code = ?", code).First(&st).Error; err != nil {
			continue
		}

		for _, req := range reqs {
			var existing models.DocumentRequirement
			err := db.Where("service_type_id = ? AND document_type = ?", st.ID, req.DocumentType).
				First(&existing).Error
			if err == gorm.ErrRecordNotFound {
				req.ServiceTypeID = st.ID
				if err := db.Create(&req).Error; err != nil {
					return err
				}
				log.Printf("   Created document_requirement: %s/%s", code, req.DocumentType)
			}
		}
	}
	return nil
}

// seedAdminUser creates the bootstrap admin account on first run
func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", "ADMIN").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash(getEnv("ADMIN_PASSWORD", "changeme123"))
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:    getEnv("ADMIN_EMAIL", "admin@coverhub.local"),
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Password: hashed,
		Role:     "ADMIN",
		IsActive: true,
	}

	if err := db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("   Created bootstrap admin: %s", admin.Username)
	return nil
}
