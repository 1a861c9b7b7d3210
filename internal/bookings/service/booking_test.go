package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	bookingserrors "roomly/internal/bookings/errors"
	"roomly/internal/bookings/validator"
	"roomly/pkg/config"
	"roomly/pkg/db"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBookingRepo is an in-memory BookingRepository. It records every
// room/date pair the conflict checker asks for.
type memBookingRepo struct {
	mu        sync.Mutex
	bookings  map[string]*model.Booking
	nextID    int
	readDelay time.Duration
	lookups   [][2]string
	createErr error
	// onFind may rewrite the copy FindByID returns. calls counts from 1.
	onFind    func(calls int, b *model.Booking)
	findCalls int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: map[string]*model.Booking{}}
}

func (r *memBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	b.ID = strconv.Itoa(r.nextID)
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	stored := *b
	r.bookings[b.ID] = &stored
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	c := *b
	r.findCalls++
	if r.onFind != nil {
		r.onFind(r.findCalls, &c)
	}
	return &c, nil
}

func (r *memBookingRepo) resetLookups() {
	r.mu.Lock()
	r.lookups = nil
	r.mu.Unlock()
}

func (r *memBookingRepo) FindAll(_ context.Context) ([]*model.Booking, error) {
	return r.filter(func(*model.Booking) bool { return true }), nil
}

func (r *memBookingRepo) FindByRoomAndDate(_ context.Context, roomID, bookingDate string) ([]*model.Booking, error) {
	r.mu.Lock()
	r.lookups = append(r.lookups, [2]string{roomID, bookingDate})
	delay := r.readDelay
	r.mu.Unlock()

	result := r.filter(func(b *model.Booking) bool {
		return b.RoomID == roomID && b.BookingDate == bookingDate
	})
	// Widens the gap between check and write for the race tests.
	time.Sleep(delay)
	return result, nil
}

func (r *memBookingRepo) Search(_ context.Context, f model.BookingFilter) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		return (f.RoomID == "" || b.RoomID == f.RoomID) &&
			(f.BookingDate == "" || b.BookingDate == f.BookingDate) &&
			(f.UserID == "" || b.UserID == f.UserID)
	}), nil
}

func (r *memBookingRepo) Update(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[b.ID]; !ok {
		return bookingserrors.ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	stored := *b
	r.bookings[b.ID] = &stored
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	delete(r.bookings, id)
	return b, nil
}

func (r *memBookingRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.bookings)), nil
}

func (r *memBookingRepo) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return fn(ctx)
}

func (r *memBookingRepo) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range r.bookings {
		if keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BookingDate != out[j].BookingDate {
			return out[i].BookingDate < out[j].BookingDate
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memBookingRepo) snapshot() map[string]model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		out[id] = *b
	}
	return out
}

type memLockRepo struct {
	mu       sync.Mutex
	locks    map[string]model.BookingLock
	acquired int
}

func newMemLockRepo() *memLockRepo {
	return &memLockRepo{locks: map[string]model.BookingLock{}}
}

func (r *memLockRepo) Acquire(_ context.Context, lock *model.BookingLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.locks[lock.ID]; ok && !held.Expired(time.Now()) {
		return bookingserrors.ErrLockHeld
	}
	r.locks[lock.ID] = *lock
	r.acquired++
	return nil
}

func (r *memLockRepo) Release(_ context.Context, lock *model.BookingLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if held, ok := r.locks[lock.ID]; ok && held.Owner == lock.Owner {
		delete(r.locks, lock.ID)
	}
	return nil
}

func (r *memLockRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, l := range r.locks {
		if l.Expired(now) {
			delete(r.locks, id)
			n++
		}
	}
	return n, nil
}

type stubRooms map[string]*model.Room

func (s stubRooms) Find(_ context.Context, id string) (*model.Room, error) {
	return s[id], nil
}

type stubUsers map[string]*model.User

func (s stubUsers) Find(_ context.Context, id string) (*model.User, error) {
	return s[id], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ *model.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       BookingService
	repo      *memBookingRepo
	locks     *memLockRepo
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		Log:             log,
		BookingLockTTL:  5 * time.Second,
		BookingLockWait: 2 * time.Second,
	}
	rooms := stubRooms{
		"5": {ID: "5", Name: "Orchid", Capacity: 8},
		"6": {ID: "6", Name: "Lotus", Capacity: 4},
	}
	users := stubUsers{
		"u1": {ID: "u1", Name: "Somchai", Role: model.RoleUser},
	}

	f := &fixture{
		repo:      newMemBookingRepo(),
		locks:     newMemLockRepo(),
		publisher: &recordingPublisher{},
	}
	f.svc = NewBookingService(f.repo, f.locks, validator.NewBookingValidator(log), rooms, users, f.publisher, cfg)
	return f
}

func request(room, date, start, end string) *model.BookingRequest {
	return &model.BookingRequest{RoomID: room, BookingDate: date, StartTime: start, EndTime: end}
}

func (f *fixture) mustBook(t *testing.T, room, start, end string) *model.Booking {
	t.Helper()
	res, err := f.svc.Create(context.Background(), "u1", request(room, "2024-01-10", start, end))
	require.NoError(t, err)
	require.Equal(t, model.OutcomeBooked, res.Outcome, "expected %s-%s in room %s to be booked", start, end, room)
	return res.Booking
}

func strPtr(s string) *string { return &s }

func TestCreate_TouchingBoundaryIsNotConflict(t *testing.T) {
	f := newFixture(t)

	f.mustBook(t, "5", "09:00", "10:00")
	f.mustBook(t, "5", "10:00", "11:00")

	all, err := f.svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreate_OverlapDetectedOnlyInSameRoom(t *testing.T) {
	f := newFixture(t)
	first := f.mustBook(t, "5", "09:00", "10:00")

	res, err := f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", "09:30", "10:30"))
	require.NoError(t, err, "a conflict is an outcome, not an error")
	require.True(t, res.IsConflict())
	assert.Nil(t, res.Booking)
	assert.Equal(t, first.ID, res.Conflict.BookingID)
	assert.Equal(t, "09:00", res.Conflict.StartTime)
	assert.Equal(t, "10:00", res.Conflict.EndTime)

	f.mustBook(t, "6", "09:30", "10:30")

	other, err := f.svc.Create(context.Background(), "u1", request("5", "2024-01-11", "09:30", "10:30"))
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeBooked, other.Outcome, "same room on another date is free")
}

func TestCreate_InvalidRangeLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", "10:00", "09:00"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange), "got %v", err)

	assert.Empty(t, f.repo.snapshot())
	assert.Empty(t, f.repo.lookups, "validation must happen before any store access")
	assert.Zero(t, f.locks.acquired)
}

func TestCreate_MissingFieldsRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "u1", request("5", "", "09:00", "10:00"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
}

func TestCreate_UnknownRoomRejectedBeforeLocking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "u1", request("404", "2024-01-10", "09:00", "10:00"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Zero(t, f.locks.acquired)
	assert.Empty(t, f.repo.snapshot())
}

func TestCreate_RequiresCaller(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), "", request("5", "2024-01-10", "09:00", "10:00"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestCreate_PublishesAndReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.mustBook(t, "5", "09:00", "10:00")

	assert.Equal(t, []string{model.EventBookingCreated}, f.publisher.events)
	assert.Empty(t, f.locks.locks, "lock must be released after commit")
}

func TestCreate_LockWaitExhaustedIsTimeout(t *testing.T) {
	f := newFixture(t)
	f.svc.(*bookingService).cfg.BookingLockWait = 50 * time.Millisecond
	f.locks.locks[model.BookingLockID("5", "2024-01-10")] = model.BookingLock{
		ID:        model.BookingLockID("5", "2024-01-10"),
		Owner:     "someone-else",
		ExpiresAt: time.Now().Add(time.Minute),
	}

	_, err := f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", "09:00", "10:00"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTimeout), "got %v", err)
	assert.Empty(t, f.repo.snapshot())
	assert.Equal(t, "someone-else", f.locks.locks[model.BookingLockID("5", "2024-01-10")].Owner,
		"a waiter must not release a lock it does not own")
}

func TestCreate_ExpiredLockIsTakenOver(t *testing.T) {
	f := newFixture(t)
	f.locks.locks[model.BookingLockID("5", "2024-01-10")] = model.BookingLock{
		ID:        model.BookingLockID("5", "2024-01-10"),
		Owner:     "crashed",
		ExpiresAt: time.Now().Add(-time.Second),
	}

	f.mustBook(t, "5", "09:00", "10:00")
}

func TestCreate_StoreConstraintReportedAsConflict(t *testing.T) {
	f := newFixture(t)
	f.repo.createErr = bookingserrors.ErrTimeConflict

	res, err := f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", "09:00", "10:00"))
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	assert.Equal(t, "5", res.Conflict.RoomID)
	assert.Empty(t, f.publisher.events)
}

func TestCreate_ConcurrentOverlappingExactlyOneWins(t *testing.T) {
	for round := 0; round < 5; round++ {
		f := newFixture(t)
		f.repo.readDelay = 20 * time.Millisecond

		intervals := [][2]string{{"09:00", "10:00"}, {"09:30", "10:30"}}
		results := make([]*model.Reservation, len(intervals))
		errs := make([]error, len(intervals))

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, iv := range intervals {
			wg.Add(1)
			go func(i int, iv [2]string) {
				defer wg.Done()
				<-start
				results[i], errs[i] = f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", iv[0], iv[1]))
			}(i, iv)
		}
		close(start)
		wg.Wait()

		booked, conflicts := 0, 0
		for i := range results {
			require.NoError(t, errs[i])
			if results[i].IsConflict() {
				conflicts++
			} else {
				booked++
			}
		}
		assert.Equal(t, 1, booked, "round %d", round)
		assert.Equal(t, 1, conflicts, "round %d", round)
		assert.Len(t, f.repo.snapshot(), 1, "round %d", round)
	}
}

func TestCreate_ConcurrentDisjointSlotsBothSucceed(t *testing.T) {
	f := newFixture(t)
	f.repo.readDelay = 10 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]*model.Reservation, 4)
	errs := make([]error, 4)
	slots := [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}}
	for i, slot := range slots {
		wg.Add(1)
		go func(i int, slot [2]string) {
			defer wg.Done()
			results[i], errs[i] = f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", slot[0], slot[1]))
		}(i, slot)
	}
	wg.Wait()

	for i := range slots {
		require.NoError(t, errs[i])
		assert.Equal(t, model.OutcomeBooked, results[i].Outcome, "slot %v", slots[i])
	}
	assert.Len(t, f.repo.snapshot(), 4)
}

func TestUpdate_SelfExclusion(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	res, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{EndTime: strPtr("10:30")})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeBooked, res.Outcome)
	assert.Equal(t, "10:30", res.Booking.EndTime)

	stored, err := f.repo.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:30", stored.EndTime)
}

func TestUpdate_PartialInheritsRoomAndDate(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")
	f.repo.resetLookups()

	_, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{StartTime: strPtr("08:30")})
	require.NoError(t, err)

	require.NotEmpty(t, f.repo.lookups)
	for _, l := range f.repo.lookups {
		assert.Equal(t, [2]string{"5", "2024-01-10"}, l)
	}
}

func TestUpdate_ConflictLeavesStoredBookingUnchanged(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")
	b := f.mustBook(t, "5", "11:00", "12:00")
	before := f.repo.snapshot()

	res, err := f.svc.Update(context.Background(), b.ID, &model.BookingUpdate{StartTime: strPtr("09:30")})
	require.NoError(t, err)
	require.True(t, res.IsConflict())
	assert.Equal(t, a.ID, res.Conflict.BookingID)

	assert.Equal(t, before, f.repo.snapshot())
}

func TestUpdate_MoveToOtherRoomChecksTargetRoom(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")
	f.mustBook(t, "6", "09:00", "10:00")

	res, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{RoomID: strPtr("6")})
	require.NoError(t, err)
	assert.True(t, res.IsConflict())

	_, err = f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{RoomID: strPtr("404")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdate_InvalidMergedRange(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	_, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{StartTime: strPtr("10:00")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange), "got %v", err)
}

func TestUpdate_NotFoundAndEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), "999", &model.BookingUpdate{StartTime: strPtr("08:00")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)

	_, err = f.svc.Update(context.Background(), "1", &model.BookingUpdate{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput), "got %v", err)
}

func TestUpdate_ConcurrentMovesAndCreateIntoOneSlot(t *testing.T) {
	for round := 0; round < 5; round++ {
		f := newFixture(t)
		a := f.mustBook(t, "6", "09:00", "10:00")
		b := f.mustBook(t, "6", "11:00", "12:00")
		f.repo.readDelay = 20 * time.Millisecond

		ops := []func() (*model.Reservation, error){
			func() (*model.Reservation, error) {
				return f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{RoomID: strPtr("5")})
			},
			func() (*model.Reservation, error) {
				return f.svc.Update(context.Background(), b.ID, &model.BookingUpdate{
					RoomID:    strPtr("5"),
					StartTime: strPtr("09:30"),
					EndTime:   strPtr("10:30"),
				})
			},
			func() (*model.Reservation, error) {
				return f.svc.Create(context.Background(), "u1", request("5", "2024-01-10", "09:45", "11:00"))
			},
		}
		results := make([]*model.Reservation, len(ops))
		errs := make([]error, len(ops))

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, op := range ops {
			wg.Add(1)
			go func(i int, op func() (*model.Reservation, error)) {
				defer wg.Done()
				<-start
				results[i], errs[i] = op()
			}(i, op)
		}
		close(start)
		wg.Wait()

		booked := 0
		for i := range ops {
			require.NoError(t, errs[i], "round %d op %d", round, i)
			if !results[i].IsConflict() {
				booked++
			}
		}
		assert.Equal(t, 1, booked, "round %d", round)

		inRoom5 := 0
		for _, stored := range f.repo.snapshot() {
			if stored.RoomID == "5" && stored.BookingDate == "2024-01-10" {
				inRoom5++
			}
		}
		assert.Equal(t, 1, inRoom5, "round %d", round)
		assert.Empty(t, f.locks.locks, "round %d: every slot lock must be released", round)
	}
}

func TestUpdate_RetriesWhenBookingMovesUnderLock(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	// Every second read happens inside the critical section. Report the
	// booking there as already moved to another start time.
	f.repo.mu.Lock()
	f.repo.findCalls = 0
	f.repo.onFind = func(calls int, b *model.Booking) {
		if calls%2 == 0 {
			b.StartTime = "08:00"
		}
	}
	f.repo.mu.Unlock()

	_, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{EndTime: strPtr("10:30")})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)

	f.repo.mu.Lock()
	calls := f.repo.findCalls
	f.repo.mu.Unlock()
	assert.Equal(t, 2*maxUpdateAttempts, calls, "each attempt reads once before and once under the lock")

	stored := f.repo.snapshot()[a.ID]
	assert.Equal(t, "10:00", stored.EndTime, "nothing is written when the booking keeps moving")
	assert.Equal(t, []string{model.EventBookingCreated}, f.publisher.events)
	assert.Empty(t, f.locks.locks)
}

func TestUpdate_StaleReadRetrySucceeds(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	f.repo.mu.Lock()
	f.repo.findCalls = 0
	f.repo.onFind = func(calls int, b *model.Booking) {
		if calls == 2 {
			b.StartTime = "08:00"
		}
	}
	f.repo.mu.Unlock()

	res, err := f.svc.Update(context.Background(), a.ID, &model.BookingUpdate{EndTime: strPtr("10:30")})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeBooked, res.Outcome)
	assert.Equal(t, "10:30", f.repo.snapshot()[a.ID].EndTime)

	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	assert.Equal(t, 4, f.repo.findCalls, "one stale attempt, then one clean attempt")
}

func TestDeleteThenGet(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	removed, err := f.svc.Delete(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)

	_, err = f.svc.GetByID(context.Background(), a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Delete(context.Background(), a.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	assert.Equal(t, []string{model.EventBookingCreated, model.EventBookingDeleted}, f.publisher.events)
}

func TestGetAll_IsIdempotentAndEmptyIsNotError(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	f.mustBook(t, "5", "10:00", "11:00")
	f.mustBook(t, "6", "09:00", "10:00")

	first, err := f.svc.GetAll(context.Background())
	require.NoError(t, err)
	second, err := f.svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetByID_EnrichesAndToleratesMisses(t *testing.T) {
	f := newFixture(t)
	a := f.mustBook(t, "5", "09:00", "10:00")

	details, err := f.svc.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, details.User)
	require.NotNil(t, details.Room)
	assert.Equal(t, "Orchid", details.Room.Name)

	// Dangling references resolve to nil rather than failing the read.
	_, err = f.svc.Create(context.Background(), "ghost", request("6", "2024-01-10", "13:00", "14:00"))
	require.NoError(t, err)
	all, _ := f.svc.Search(context.Background(), model.BookingFilter{UserID: "ghost"})
	require.Len(t, all, 1)

	details, err = f.svc.GetByID(context.Background(), all[0].ID)
	require.NoError(t, err)
	assert.Nil(t, details.User)
	assert.NotNil(t, details.Room)
}

func TestSearch_RejectsMalformedDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Search(context.Background(), model.BookingFilter{BookingDate: "10/01/2024"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestConflictChecker_ExcludesOnlyNamedBooking(t *testing.T) {
	repo := newMemBookingRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.Booking{RoomID: "5", BookingDate: "2024-01-10", StartTime: "09:00", EndTime: "10:00"}))
	require.NoError(t, repo.Create(ctx, &model.Booking{RoomID: "5", BookingDate: "2024-01-10", StartTime: "09:30", EndTime: "11:00"}))

	interval, err := model.ParseInterval("09:15", "09:45")
	require.NoError(t, err)
	checker := NewConflictChecker(repo)

	got, err := checker.FindConflict(ctx, model.Candidate{RoomID: "5", BookingDate: "2024-01-10", Interval: interval, ExcludeID: "1"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.ID)

	got, err = checker.FindConflict(ctx, model.Candidate{RoomID: "5", BookingDate: "2024-01-11", Interval: interval})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTranslate(t *testing.T) {
	s := &bookingService{}
	tests := []struct {
		err  error
		code string
	}{
		{bookingserrors.ErrNotFound, apperrors.CodeNotFound},
		{bookingserrors.ErrInvalidID, apperrors.CodeInvalidInput},
		{context.DeadlineExceeded, apperrors.CodeTimeout},
		{errors.New("disk on fire"), apperrors.CodeInternal},
		{apperrors.Forbidden("nope"), apperrors.CodeForbidden},
	}
	for _, tt := range tests {
		assert.True(t, apperrors.HasCode(s.translate(tt.err, "42"), tt.code), "translate(%v)", tt.err)
	}
}
