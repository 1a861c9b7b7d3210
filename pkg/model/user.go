package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	IDNumber  string    `json:"id_number" bson:"id_number" validate:"required,min=4,max=32"`
	Phone     string    `json:"phone" bson:"phone" validate:"required,e164"`
	Position  string    `json:"position,omitempty" bson:"position,omitempty" validate:"omitempty,max=100"`
	Role      string    `json:"role" bson:"role" validate:"required,oneof=admin user"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	IDNumber *string `json:"id_number,omitempty" validate:"omitempty,min=4,max=32"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Position *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

func (u *UserUpdate) Apply(user *User) *User {
	merged := *user
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.IDNumber != nil {
		merged.IDNumber = *u.IDNumber
	}
	if u.Phone != nil {
		merged.Phone = *u.Phone
	}
	if u.Position != nil {
		merged.Position = *u.Position
	}
	if u.Role != nil {
		merged.Role = *u.Role
	}
	return &merged
}

type LoginRequest struct {
	IDNumber string `json:"id_number" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}
