package database

import (
	"errors"
	"log/slog"

	"github.com/sangkips/economy-api/internal/domain/entity"
	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/pkg/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultSkus is the launch catalogue, one or more SKUs per revenue stream
func DefaultSkus() []entity.Sku {
	return []entity.Sku{
		{SkuKey: "tournament_ticket_standard", Stream: string(enum.StreamTournamentTicket), Name: "Tournament Ticket", UnitAmount: 199,
			Metadata: datatypes.JSON(`{"ticketTier":"standard"}`)},
		{SkuKey: "xp_booster_125_60", Stream: string(enum.StreamXPBooster), Name: "XP Booster 1.25x (60 min)", UnitAmount: 99,
			Metadata: datatypes.JSON(`{"multiplier":1.25,"durationMinutes":60}`)},
		{SkuKey: "xp_booster_200_30", Stream: string(enum.StreamXPBooster), Name: "XP Booster 2x (30 min)", UnitAmount: 149,
			Metadata: datatypes.JSON(`{"multiplier":2.0,"durationMinutes":30}`)},
		{SkuKey: "character_pack_night_terrors", Stream: string(enum.StreamCharacterPack), Name: "Night Terrors Pack", UnitAmount: 499,
			Metadata: datatypes.JSON(`{"characterKeys":["wraith","ghoul","banshee"]}`)},
		{SkuKey: "season_pass_annual", Stream: string(enum.StreamSeasonPass), Name: "Annual Season Pass", UnitAmount: 2999,
			Metadata: datatypes.JSON(`{}`)},
		{SkuKey: "founder_edition", Stream: string(enum.StreamFounderEdition), Name: "Founder's Edition", UnitAmount: 4999,
			Metadata: datatypes.JSON(`{}`)},
	}
}

// SeedDefaultData seeds the catalogue. Existing SKUs are left untouched.
func SeedDefaultData(db *gorm.DB) error {
	slog.Info("seeding default data")

	for _, sku := range DefaultSkus() {
		var existing entity.Sku
		err := db.Where("sku_key = ?", sku.SkuKey).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sku.ID = utils.NewID("sku")
		sku.Currency = "USD"
		sku.IsActive = true
		if err := db.Create(&sku).Error; err != nil {
			slog.Warn("failed to create sku", "sku_key", sku.SkuKey, "error", err)
		}
	}

	slog.Info("default data seeded")
	return nil
}
