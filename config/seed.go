package config

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bnbillains/models"
)

// SeedDatabase fills an empty database with a small catalogue. Tables that
// already hold rows are left alone.
func SeedDatabase(db *gorm.DB, log *logrus.Logger) {
	// ---------------- Amenities ----------------
	var amenityCount int64
	db.Model(&models.Amenity{}).Count(&amenityCount)
	if amenityCount == 0 {
		amenities := []models.Amenity{
			{Name: "Shark tank", SelfDestruct: false},
			{Name: "Doomsday laser", SelfDestruct: true},
			{Name: "Volcano sauna", SelfDestruct: false},
			{Name: "Henchman quarters", SelfDestruct: false},
		}
		if err := db.Create(&amenities).Error; err != nil {
			log.WithError(err).Warn("failed to seed amenities")
		} else {
			log.Info("amenities seeded")
		}
	}

	// ---------------- Villains ----------------
	var villainCount int64
	db.Model(&models.Villain{}).Count(&villainCount)
	if villainCount == 0 {
		villains := []models.Villain{
			{Name: "Ernst Stavro", Alias: "Number One", LicenseCode: "007B000001", Email: "ernst@spectre.example"},
			{Name: "Auric Goldfinger", Alias: "Goldfinger", LicenseCode: "007G000002", Email: "auric@goldfinger.example"},
		}
		if err := db.Create(&villains).Error; err != nil {
			log.WithError(err).Warn("failed to seed villains")
		} else {
			log.Info("villains seeded")
		}
	}

	// ---------------- Lairs ----------------
	var lairCount int64
	db.Model(&models.Lair{}).Count(&lairCount)
	if lairCount > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("VOLCANO1"), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Warn("failed to hash seed access code")
		return
	}
	room := models.SecretRoom{AccessCodeHash: string(hash), MainFunction: "Orbital weapon control", EmergencyExit: true}
	if err := db.Create(&room).Error; err != nil {
		log.WithError(err).Warn("failed to seed secret room")
		return
	}

	var amenities []models.Amenity
	db.Find(&amenities)

	lairs := []models.Lair{
		{
			Name:         "Volcano Hideout",
			Description:  "Hollowed-out volcano with a retractable crater roof.",
			Location:     "Pacific Ocean",
			NightlyPrice: decimal.NewFromInt(950),
			SecretRoomID: &room.ID,
			Amenities:    amenities,
		},
		{
			Name:         "Arctic Ice Fortress",
			Description:  "Quiet retreat under the polar ice.",
			Location:     "Arctic",
			NightlyPrice: decimal.NewFromInt(620),
		},
	}
	if err := db.Create(&lairs).Error; err != nil {
		log.WithError(err).Warn("failed to seed lairs")
		return
	}
	log.Info("lairs seeded")
}
