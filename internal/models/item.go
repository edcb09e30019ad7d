package models

import "time"

type Item struct {
	BaseModel
	OwnerID           string  `gorm:"type:uuid;not null;index"`
	BuyerID           *string `gorm:"type:uuid"`
	Title             string  `gorm:"type:varchar(100);not null"`
	CategoryID        string  `gorm:"type:uuid;not null;index"`
	BrandName         *string
	Condition         ItemCondition `gorm:"type:varchar(10);not null"`
	Description       string        `gorm:"type:text;not null"`
	Address           string        `gorm:"not null"`
	CityID            string        `gorm:"type:uuid;not null;index"`
	ItemType          ItemType      `gorm:"type:varchar(20);not null"`
	SellingPrice      *float64      `gorm:"type:numeric(10,2)"`
	LendingPrice      *float64      `gorm:"type:numeric(10,2)"`
	RentUnit          *RentUnit     `gorm:"type:varchar(10)"`
	Status            ItemStatus    `gorm:"type:varchar(20);not null;index"`
	IsDisabledByAdmin bool          `gorm:"not null"`
	SoldAt            *time.Time

	Owner    *User       `gorm:"foreignKey:OwnerID"`
	Category *Category   `gorm:"foreignKey:CategoryID"`
	City     *City       `gorm:"foreignKey:CityID"`
	Photos   []ItemPhoto `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

type ItemPhoto struct {
	BaseModel
	ItemID       string `gorm:"type:uuid;not null;index"`
	PhotoURL     string `gorm:"not null"`
	IsMain       bool   `gorm:"not null"`
	DisplayOrder int    `gorm:"not null"`
}

type Category struct {
	BaseModel
	Name     string  `gorm:"not null"`
	ParentID *string `gorm:"type:uuid;index"`
}

type City struct {
	BaseModel
	Name string `gorm:"uniqueIndex;not null"`
}
