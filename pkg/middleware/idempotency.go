package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "roomly/pkg/errors"
)

// IdempotencyStore remembers the outcome of keyed writes. A key is reserved
// before the handler runs and completed with the response afterwards, so a
// retry that arrives while the first attempt is still booking sees the
// reservation instead of racing it into a self-conflict.
type IdempotencyStore interface {
	Reserve(key, fingerprint string) (*IdempotencyEntry, bool)
	Complete(key string, response *CachedResponse)
	Release(key string)
	Stop()
}

type IdempotencyEntry struct {
	Fingerprint string
	// Response is nil while the first request is still in flight.
	Response  *CachedResponse
	CreatedAt time.Time
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*IdempotencyEntry
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries: make(map[string]*IdempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go store.sweep()

	return store
}

// Reserve returns the existing entry and true when key is already known.
// Otherwise it records a pending entry for fingerprint and returns false.
func (s *InMemoryIdempotencyStore) Reserve(key, fingerprint string) (*IdempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.entries[key]; ok && now.Sub(entry.CreatedAt) <= s.ttl {
		snapshot := *entry
		return &snapshot, true
	}

	s.entries[key] = &IdempotencyEntry{Fingerprint: fingerprint, CreatedAt: now}
	return nil, false
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		entry.Response = response
		entry.CreatedAt = s.now()
	}
}

func (s *InMemoryIdempotencyStore) Release(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *InMemoryIdempotencyStore) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, entry := range s.entries {
				if now.Sub(entry.CreatedAt) > s.ttl {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated write carrying the
// same key, route, caller and body. Only successful responses are kept; a
// failed or conflicting attempt releases the key so the client may retry.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scopedIdempotencyKey(r, headerName)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				writeAppError(w, apperrors.InvalidInput("Failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := digest(string(body))

			if entry, exists := store.Reserve(key, fingerprint); exists {
				switch {
				case entry.Fingerprint != fingerprint:
					writeAppError(w, apperrors.Validation(headerName+" was already used with a different request", nil))
				case entry.Response == nil:
					w.Header().Set("Retry-After", "1")
					writeAppError(w, apperrors.Conflict("A request with this "+headerName+" is still in progress"))
				default:
					replayCachedResponse(w, entry.Response)
				}
				return
			}

			completed := false
			defer func() {
				if !completed {
					store.Release(key)
				}
			}()

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Complete(key, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       bytes.Clone(capture.body.Bytes()),
				})
				completed = true
			}
		})
	}
}

// scopedIdempotencyKey binds the client supplied key to the route and the
// caller, so one caller cannot replay another caller's response.
func scopedIdempotencyKey(r *http.Request, headerName string) string {
	key := r.Header.Get(headerName)
	if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return ""
	}
	return strings.Join([]string{r.Method, r.URL.Path, DefaultClientKey(r), key}, "|")
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
