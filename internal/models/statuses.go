package models

type ItemType string
type ItemCondition string
type ItemStatus string
type RentUnit string

const (
	ItemTypeSelling  ItemType = "selling"
	ItemTypeLending  ItemType = "lending"
	ItemTypeGiveaway ItemType = "giveaway"

	ItemConditionNew  ItemCondition = "new"
	ItemConditionUsed ItemCondition = "used"

	// published - единственное начальное состояние, остальные конечные для владельца
	ItemStatusPublished ItemStatus = "published"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusDeleted   ItemStatus = "deleted"
	ItemStatusExpired   ItemStatus = "expired"
	ItemStatusDisabled  ItemStatus = "disabled"

	RentUnitHour  RentUnit = "hour"
	RentUnitDay   RentUnit = "day"
	RentUnitWeek  RentUnit = "week"
	RentUnitMonth RentUnit = "month"
)

// PendingPasswordHash - пароль еще не задан (пользователь не подтвердил email)
const PendingPasswordHash = "PENDING"
