package identity

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// fakeUserStore simulates the user-storage collaborator, including its
// idempotent registration guarantee: concurrent registrations for the same
// subject resolve to one record.
type fakeUserStore struct {
	mu            sync.Mutex
	records       map[string]Registration
	registerCalls int
	validateErr   error
	registerErr   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{records: make(map[string]Registration)}
}

func (f *fakeUserStore) Validate(_ context.Context, userID string) (ValidationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.validateErr != nil {
		return StatusUnavailable, f.validateErr
	}
	if _, ok := f.records[userID]; ok {
		return StatusFound, nil
	}
	return StatusNotFound, nil
}

func (f *fakeUserStore) Register(_ context.Context, reg Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++
	if f.registerErr != nil {
		return f.registerErr
	}
	if _, ok := f.records[reg.SubjectID]; !ok {
		f.records[reg.SubjectID] = reg
	}
	return nil
}

type captureHandler struct {
	mu     sync.Mutex
	userID string
	calls  int
}

func (c *captureHandler) ServeHTTP(_ http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.userID = r.Header.Get(HeaderUserID)
}

func testLogger(t *testing.T) *log.Logger {
	t.Helper()
	return log.New(testWriter{t}, "", 0)
}

type testWriter struct{ t *testing.T }

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}

func bearerRequest(t *testing.T, subject string) *http.Request {
	t.Helper()
	token := signedToken(t, jwt.MapClaims{
		"sub":         subject,
		"email":       subject + "@example.com",
		"given_name":  "Test",
		"family_name": "User",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/activities", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestFilterRegistersUnknownSubjectAndRewritesHeader(t *testing.T) {
	store := newFakeUserStore()
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), bearerRequest(t, "sub-42"))

	require.Equal(t, 1, next.calls)
	require.Equal(t, "sub-42", next.userID)
	require.Equal(t, 1, store.registerCalls)
	require.Contains(t, store.records, "sub-42")
}

func TestFilterSkipsRegistrationForKnownSubject(t *testing.T) {
	store := newFakeUserStore()
	store.records["sub-42"] = Registration{SubjectID: "sub-42"}
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), bearerRequest(t, "sub-42"))

	require.Equal(t, 1, next.calls)
	require.Equal(t, "sub-42", next.userID)
	require.Equal(t, 0, store.registerCalls)
}

func TestFilterForwardsUnchangedWithoutToken(t *testing.T) {
	store := newFakeUserStore()
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	r := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, next.calls)
	require.Empty(t, next.userID)
	require.Equal(t, 0, store.registerCalls)
}

func TestFilterForwardsUnchangedWithMalformedToken(t *testing.T) {
	store := newFakeUserStore()
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	r := httptest.NewRequest(http.MethodGet, "/v1/activities", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	before := testutil.ToFloat64(reconciliationCounter.WithLabelValues(outcomeMalformed))
	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, next.calls)
	require.Empty(t, next.userID)
	// Malformed tokens count separately from absent ones.
	require.Equal(t, before+1, testutil.ToFloat64(reconciliationCounter.WithLabelValues(outcomeMalformed)))
}

func TestFilterPrefersExplicitUserIDHeader(t *testing.T) {
	store := newFakeUserStore()
	store.records["explicit-id"] = Registration{SubjectID: "explicit-id"}
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	r := bearerRequest(t, "sub-42")
	r.Header.Set(HeaderUserID, "explicit-id")
	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, "explicit-id", next.userID)
	require.Equal(t, 0, store.registerCalls)
}

func TestFilterForwardsWhenUserServiceUnavailable(t *testing.T) {
	store := newFakeUserStore()
	store.validateErr = errors.New("connection refused")
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), bearerRequest(t, "sub-42"))

	// Identity sync failed but the request still went through, id attached.
	require.Equal(t, 1, next.calls)
	require.Equal(t, "sub-42", next.userID)
	require.Equal(t, 0, store.registerCalls)
}

func TestFilterForwardsWhenRegistrationFails(t *testing.T) {
	store := newFakeUserStore()
	store.registerErr = errors.New("boom")
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))

	filter.Wrap(next).ServeHTTP(httptest.NewRecorder(), bearerRequest(t, "sub-42"))

	require.Equal(t, 1, next.calls)
	require.Equal(t, "sub-42", next.userID)
}

func TestConcurrentFirstSightingCreatesOneRecord(t *testing.T) {
	store := newFakeUserStore()
	next := &captureHandler{}
	filter := NewFilter(store, testLogger(t))
	wrapped := filter.Wrap(next)

	const replays = 16
	requests := make([]*http.Request, replays)
	for i := range requests {
		requests[i] = bearerRequest(t, "sub-42")
	}

	var wg sync.WaitGroup
	for _, r := range requests {
		wg.Add(1)
		go func(r *http.Request) {
			defer wg.Done()
			wrapped.ServeHTTP(httptest.NewRecorder(), r)
		}(r)
	}
	wg.Wait()

	require.Equal(t, replays, next.calls)
	require.Len(t, store.records, 1)
	require.Contains(t, store.records, "sub-42")
}
