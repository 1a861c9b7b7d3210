package sanitizer

import (
	"strings"

	"roomly/pkg/model"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func removeSeparators(s string) string {
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(s)
}

func NormalizeIDNumber(id string) string {
	return Pipeline{
		strings.TrimSpace,
		removeSeparators,
		strings.ToUpper,
	}.Apply(id)
}

// NormalizeClock rewrites a parseable time of day in its canonical form.
func NormalizeClock(s string) string {
	s = strings.TrimSpace(s)
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return s
	}
	return t.String()
}

func NormalizeOptional(s *string, fn Strategy) *string {
	if s == nil {
		return nil
	}
	v := fn(*s)
	return &v
}

func SanitizeBookingRequest(req *model.BookingRequest) {
	req.RoomID = strings.TrimSpace(req.RoomID)
	req.BookingDate = strings.TrimSpace(req.BookingDate)
	req.StartTime = NormalizeClock(req.StartTime)
	req.EndTime = NormalizeClock(req.EndTime)
}

func SanitizeBookingUpdate(u *model.BookingUpdate) {
	u.RoomID = NormalizeOptional(u.RoomID, strings.TrimSpace)
	u.BookingDate = NormalizeOptional(u.BookingDate, strings.TrimSpace)
	u.StartTime = NormalizeOptional(u.StartTime, NormalizeClock)
	u.EndTime = NormalizeOptional(u.EndTime, NormalizeClock)
}

func SanitizeRoom(r *model.Room) {
	r.Name = NormalizeName(r.Name)
	r.Description = TrimAndNormalize(r.Description)
}

func SanitizeRoomUpdate(u *model.RoomUpdate) {
	u.Name = NormalizeOptional(u.Name, NormalizeName)
	u.Description = NormalizeOptional(u.Description, TrimAndNormalize)
}
