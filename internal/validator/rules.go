package validator

import (
	"log"

	"cycup_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-item-type", validateItemType)
	mustRegister("is-item-condition", validateItemCondition)
	mustRegister("is-rent-unit", validateRentUnit)
}

// Пустые значения пропускаем - для них есть 'required'

func validateItemType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ItemType(value) {
	case models.ItemTypeSelling, models.ItemTypeLending, models.ItemTypeGiveaway:
		return true
	default:
		return false
	}
}

func validateItemCondition(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ItemCondition(value) {
	case models.ItemConditionNew, models.ItemConditionUsed:
		return true
	default:
		return false
	}
}

func validateRentUnit(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.RentUnit(value) {
	case models.RentUnitHour, models.RentUnitDay, models.RentUnitWeek, models.RentUnitMonth:
		return true
	default:
		return false
	}
}
