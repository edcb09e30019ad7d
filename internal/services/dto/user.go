package dto

import (
	"time"

	"cycup_backend/internal/models"
)

type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        *string   `json:"username"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	PostalCode      string    `json:"postalCode"`
	PhoneNumber     string    `json:"phoneNumber"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CityID          *string   `json:"cityId"`
	City            *string   `json:"city"`
	IsVerified      bool      `json:"isVerified"`
	IsBlocked       bool      `json:"isBlocked"`
	IsAdmin         bool      `json:"isAdmin"`
	CreatedAt       time.Time `json:"createdAt"`
}

func NewUserResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Username:        user.Username,
		Name:            user.Name,
		Address:         user.Address,
		PostalCode:      user.PostalCode,
		PhoneNumber:     user.PhoneNumber,
		ProfileImageURL: user.ProfileImageURL,
		CityID:          user.CityID,
		IsVerified:      user.IsVerified,
		IsBlocked:       user.IsBlocked,
		IsAdmin:         user.IsAdmin,
		CreatedAt:       user.CreatedAt,
	}
	if user.City != nil {
		resp.City = &user.City.Name
	}
	return resp
}

type BlockUserRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
