package validator

import (
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize room validator", "error", err)
	}

	return &RoomValidator{
		validate: v,
		logger:   log,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := validation.Struct(v.validate, room); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}

func (v *RoomValidator) ValidateUpdate(update *model.RoomUpdate) error {
	if update.Name == nil && update.Description == nil && update.Capacity == nil {
		return apperrors.InvalidInput("At least one of name, description, capacity is required")
	}
	if err := validation.Struct(v.validate, update); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}
