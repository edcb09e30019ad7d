package services

import (
	"cycup_backend/internal/models"
	"cycup_backend/pkg/apperrors"
)

// pricing - поля, которые зависят от режима объявления
type pricing struct {
	ItemType     models.ItemType
	SellingPrice *float64
	LendingPrice *float64
	RentUnit     *models.RentUnit
}

func hasPrice(p *float64) bool {
	return p != nil && *p > 0
}

func hasRentUnit(u *models.RentUnit) bool {
	return u != nil && *u != ""
}

// normalize приводит "пустые" значения к nil, чтобы в БД не было 0 и ""
func (p pricing) normalize() pricing {
	if !hasPrice(p.SellingPrice) {
		p.SellingPrice = nil
	}
	if !hasPrice(p.LendingPrice) {
		p.LendingPrice = nil
	}
	if !hasRentUnit(p.RentUnit) {
		p.RentUnit = nil
	}
	return p
}

func (p pricing) validate() error {
	switch p.ItemType {
	case models.ItemTypeSelling:
		if !hasPrice(p.SellingPrice) {
			return apperrors.ErrInvalidPricing("Selling price is required for selling items.")
		}
		if hasPrice(p.LendingPrice) || hasRentUnit(p.RentUnit) {
			return apperrors.ErrInvalidPricing("Selling items cannot have lending price or rent unit.")
		}
	case models.ItemTypeLending:
		if !hasPrice(p.LendingPrice) || !hasRentUnit(p.RentUnit) {
			return apperrors.ErrInvalidPricing("Lending price and rent unit are required for lending items.")
		}
		if hasPrice(p.SellingPrice) {
			return apperrors.ErrInvalidPricing("Lending items cannot have selling price.")
		}
	case models.ItemTypeGiveaway:
		if hasPrice(p.SellingPrice) || hasPrice(p.LendingPrice) || hasRentUnit(p.RentUnit) {
			return apperrors.ErrInvalidPricing("Giveaway items cannot have prices or rent unit.")
		}
	default:
		return apperrors.ErrInvalidPricing("Unknown item type.")
	}
	return nil
}

// mergePricing: переданные значения поверх сохраненных; при смене режима
// поля, недопустимые для нового режима, обнуляются
func mergePricing(existing, incoming pricing, typeSupplied bool) pricing {
	merged := existing
	if typeSupplied {
		merged.ItemType = incoming.ItemType
	}
	if incoming.SellingPrice != nil {
		merged.SellingPrice = incoming.SellingPrice
	}
	if incoming.LendingPrice != nil {
		merged.LendingPrice = incoming.LendingPrice
	}
	if incoming.RentUnit != nil {
		merged.RentUnit = incoming.RentUnit
	}

	if merged.ItemType != existing.ItemType {
		switch merged.ItemType {
		case models.ItemTypeGiveaway:
			merged.SellingPrice = nil
			merged.LendingPrice = nil
			merged.RentUnit = nil
		case models.ItemTypeSelling:
			merged.LendingPrice = nil
			merged.RentUnit = nil
		case models.ItemTypeLending:
			merged.SellingPrice = nil
		}
	}
	return merged
}
