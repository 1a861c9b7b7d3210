package validator

import (
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize user validator", "error", err)
	}

	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

func (v *UserValidator) Validate(user *model.User) error {
	if err := validation.Struct(v.validate, user); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}

func (v *UserValidator) ValidateUpdate(update *model.UserUpdate) error {
	if update.Name == nil && update.IDNumber == nil && update.Phone == nil && update.Position == nil && update.Role == nil {
		return apperrors.InvalidInput("At least one field is required")
	}
	if err := validation.Struct(v.validate, update); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}

// ValidateLogin only checks presence. A phone that could not be
// normalised arrives here empty.
func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return validation.ToAppError(err)
	}
	return nil
}
