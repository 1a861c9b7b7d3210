package validator

import (
	"errors"

	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"
	"roomly/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator", "error", err)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// Validate checks a create request and returns its interval.
func (v *BookingValidator) Validate(req *model.BookingRequest) (model.Interval, error) {
	if err := validation.Struct(v.validate, req); err != nil {
		return model.Interval{}, validation.ToAppError(err)
	}
	if _, err := model.ParseDate(req.BookingDate); err != nil {
		return model.Interval{}, invalidDate(req.BookingDate)
	}
	return parseRange(req.StartTime, req.EndTime)
}

// ValidateUpdate checks the fields present in a partial update.
func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if update.IsEmpty() {
		return apperrors.InvalidInput("At least one of room_id, booking_date, start_time, end_time is required")
	}
	if err := validation.Struct(v.validate, update); err != nil {
		return validation.ToAppError(err)
	}
	if update.BookingDate != nil {
		if _, err := model.ParseDate(*update.BookingDate); err != nil {
			return invalidDate(*update.BookingDate)
		}
	}
	return nil
}

// ValidateMerged checks the booking that results from applying an update
// and returns its interval.
func (v *BookingValidator) ValidateMerged(b *model.Booking) (model.Interval, error) {
	return parseRange(b.StartTime, b.EndTime)
}

func parseRange(start, end string) (model.Interval, error) {
	interval, err := model.ParseInterval(start, end)
	if err != nil {
		if errors.Is(err, model.ErrInvalidRange) {
			return model.Interval{}, apperrors.InvalidRange(start, end)
		}
		return model.Interval{}, apperrors.Validation("Validation failed", map[string]any{
			"time": err.Error(),
		})
	}
	return interval, nil
}

func invalidDate(date string) *apperrors.AppError {
	return apperrors.Validation("Validation failed", map[string]any{
		"booking_date": "booking_date must be a valid calendar date, got " + date,
	})
}
