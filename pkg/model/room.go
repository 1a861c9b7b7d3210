package model

import "time"

type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Description string    `json:"description" bson:"description" validate:"omitempty,max=500"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=1000"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type RoomUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Capacity    *int    `json:"capacity,omitempty" validate:"omitempty,min=1,max=1000"`
}

func (u *RoomUpdate) Apply(r *Room) *Room {
	merged := *r
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.Capacity != nil {
		merged.Capacity = *u.Capacity
	}
	return &merged
}
