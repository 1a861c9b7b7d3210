//go:build integration

package bookings

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"roomly/pkg/client"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The suite expects the rooms, users and bookings services to be running
// against a migrated store seeded with an admin (SEED_ADMIN_* on the
// migrate job).
type suite struct {
	bookings *client.BookingClient
	rooms    *client.RoomClient
	users    *client.UserClient
	userID   string
	roomID   string
	date     string
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func setup(t *testing.T) *suite {
	t.Helper()

	idNumber := os.Getenv("TEST_ADMIN_ID_NUMBER")
	phone := os.Getenv("TEST_ADMIN_PHONE")
	if idNumber == "" || phone == "" {
		t.Skip("TEST_ADMIN_ID_NUMBER and TEST_ADMIN_PHONE are required")
	}

	s := &suite{
		bookings: client.NewBookingClient(getEnv("TEST_BOOKINGS_URL", "http://localhost:8080")),
		rooms:    client.NewRoomClient(getEnv("TEST_ROOMS_URL", "http://localhost:8081")),
		users:    client.NewUserClient(getEnv("TEST_USERS_URL", "http://localhost:8082")),
	}
	require.NoError(t, s.bookings.WaitForHealthy())

	login, err := s.users.Login(idNumber, phone)
	require.NoError(t, err)
	s.bookings.SetToken(login.AccessToken)
	s.rooms.SetToken(login.AccessToken)
	s.users.SetToken(login.AccessToken)

	resp, err := s.users.Me()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())
	me, err := s.users.DecodeUser(resp)
	require.NoError(t, err)
	s.userID = me.ID

	resp, err = s.rooms.Create(map[string]any{
		"name":     fmt.Sprintf("Integration %d", time.Now().UnixNano()),
		"capacity": 6,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())
	room, err := s.rooms.DecodeRoom(resp)
	require.NoError(t, err)
	s.roomID = room.ID
	t.Cleanup(func() {
		_, _ = s.rooms.Delete(room.ID)
	})

	// A date far enough out that reruns do not collide with stale data.
	s.date = time.Now().AddDate(1, 0, int(time.Now().UnixNano()%300)).Format(model.DateLayout)
	return s
}

func (s *suite) book(t *testing.T, start, end string) *client.Response {
	t.Helper()
	resp, err := s.bookings.Create(model.BookingRequest{
		RoomID:      s.roomID,
		BookingDate: s.date,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	return resp
}

func TestBookingLifecycle(t *testing.T) {
	s := setup(t)

	resp := s.book(t, "09:00", "10:00")
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())
	first, err := s.bookings.DecodeBooking(resp)
	require.NoError(t, err)
	assert.Equal(t, s.userID, first.UserID)
	assert.Equal(t, s.roomID, first.RoomID)

	t.Run("overlap is rejected with the blocking booking", func(t *testing.T) {
		resp := s.book(t, "09:30", "10:30")
		require.Equal(t, http.StatusConflict, resp.StatusCode, resp.String())
		conflict, err := s.bookings.DecodeConflict(resp)
		require.NoError(t, err)
		assert.Equal(t, first.ID, conflict.BookingID)
	})

	t.Run("touching boundary is allowed", func(t *testing.T) {
		resp := s.book(t, "10:00", "11:00")
		require.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())
		adjacent, err := s.bookings.DecodeBooking(resp)
		require.NoError(t, err)

		// Moving onto the first booking conflicts; moving within its own slot does not.
		resp, err = s.bookings.Update(adjacent.ID, map[string]any{"start_time": "09:45"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, resp.String())

		resp, err = s.bookings.Update(adjacent.ID, map[string]any{"end_time": "11:30"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, resp.String())
	})

	t.Run("details are enriched", func(t *testing.T) {
		resp, err := s.bookings.GetByID(first.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())
		details, err := s.bookings.DecodeDetails(resp)
		require.NoError(t, err)
		require.NotNil(t, details.Room)
		assert.Equal(t, s.roomID, details.Room.ID)
		require.NotNil(t, details.User)
		assert.Equal(t, s.userID, details.User.ID)
	})

	t.Run("search by room and date", func(t *testing.T) {
		resp, err := s.bookings.Search(model.BookingFilter{RoomID: s.roomID, BookingDate: s.date})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())
		found, err := s.bookings.DecodeBookings(resp)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("reversed range is rejected", func(t *testing.T) {
		resp := s.book(t, "15:00", "14:00")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.String())
	})

	t.Run("deleted booking is gone", func(t *testing.T) {
		resp, err := s.bookings.Delete(first.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, resp.String())

		resp, err = s.bookings.GetByID(first.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		// The freed slot can be taken again.
		resp = s.book(t, "09:00", "10:00")
		assert.Equal(t, http.StatusCreated, resp.StatusCode, resp.String())
	})
}

func TestUnknownRoomIsRejected(t *testing.T) {
	s := setup(t)

	resp, err := s.bookings.Create(model.BookingRequest{
		RoomID:      "does-not-exist",
		BookingDate: s.date,
		StartTime:   "09:00",
		EndTime:     "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, resp.String())
}
