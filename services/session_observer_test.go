package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revom/revom_backend/models"
)

func pendingPhoneFlow(t *testing.T, provider *fakeAuthProvider) *RegistrationFlow {
	t.Helper()

	flow := NewRegistrationFlow(provider, nil, nil)
	require.NoError(t, flow.SelectRole(models.RoleProducer))
	flow.SetMode(models.ModeSignUp)
	flow.SetName("Jane", "Doe")
	flow.SetPhone("+96170123456")
	flow.SetPassword("secret1")
	flow.SetConfirmPassword("secret1")
	require.NoError(t, flow.SubmitSignUp(context.Background()))
	return flow
}

func TestObserverCreatesProfileForPendingPhoneSignup(t *testing.T) {
	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	recorder := &noticeRecorder{}
	flow := pendingPhoneFlow(t, provider)

	var completions int64
	observer := NewSessionObserver(provider, store, flow, recorder, func() {
		atomic.AddInt64(&completions, 1)
	})
	observer.Start()
	defer observer.Stop()

	session := &models.AuthSession{
		AccessToken: "token",
		User:        &models.AuthUser{ID: "user-42", Email: ""},
	}
	provider.emit(models.EventSignedIn, session)

	require.Equal(t, 1, store.count())
	profile := store.profiles["user-42"]
	require.NotNil(t, profile)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Doe", profile.LastName)
	assert.Equal(t, models.RoleProducer, profile.Role)
	assert.Equal(t, "+96170123456", profile.Phone)

	notice, ok := recorder.last()
	require.True(t, ok)
	assert.Equal(t, "Welcome!", notice.Title)
	assert.Equal(t, int64(1), atomic.LoadInt64(&completions))
}

func TestObserverProfileCreationIsIdempotent(t *testing.T) {
	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	flow := pendingPhoneFlow(t, provider)

	observer := NewSessionObserver(provider, store, flow, nil, nil)
	observer.Start()
	defer observer.Stop()

	session := &models.AuthSession{User: &models.AuthUser{ID: "user-42"}}
	provider.emit(models.EventSignedIn, session)
	provider.emit(models.EventSignedIn, session)

	assert.Equal(t, 1, store.count())
	assert.Equal(t, 1, store.inserts)
}

func TestObserverIgnoresSignOutEvents(t *testing.T) {
	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	recorder := &noticeRecorder{}
	flow := pendingPhoneFlow(t, provider)

	observer := NewSessionObserver(provider, store, flow, recorder, nil)
	observer.Start()
	defer observer.Stop()

	provider.emit(models.EventSignedOut, nil)

	assert.Equal(t, 0, store.count())
	_, ok := recorder.last()
	assert.False(t, ok)
}

func TestObserverSignInWithoutPendingSignupSkipsProfile(t *testing.T) {
	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	recorder := &noticeRecorder{}
	flow := NewRegistrationFlow(provider, nil, nil)
	require.NoError(t, flow.SelectRole(models.RoleCustomer))

	var completed int64
	observer := NewSessionObserver(provider, store, flow, recorder, func() {
		atomic.AddInt64(&completed, 1)
	})
	observer.Start()
	defer observer.Stop()

	provider.emit(models.EventSignedIn, &models.AuthSession{User: &models.AuthUser{ID: "user-42"}})

	assert.Equal(t, 0, store.count(), "a plain sign-in must not create a profile")
	notice, ok := recorder.last()
	require.True(t, ok)
	assert.Equal(t, "Welcome!", notice.Title)
	assert.Equal(t, int64(1), atomic.LoadInt64(&completed))
}

func TestObserverRecoversIdentityFromAccessToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "observer-test-secret")
	t.Setenv("AUTH_JWKS_URL", "")

	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	flow := pendingPhoneFlow(t, provider)

	observer := NewSessionObserver(provider, store, flow, nil, nil)
	observer.Start()
	defer observer.Stop()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "token-user-7",
		"email": "jane@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("observer-test-secret"))
	require.NoError(t, err)

	// The provider response carried no user object, only the token
	provider.emit(models.EventSignedIn, &models.AuthSession{AccessToken: signed})

	require.Equal(t, 1, store.count())
	profile := store.profiles["token-user-7"]
	require.NotNil(t, profile)
	assert.Equal(t, "jane@example.com", profile.Email)
}

func TestObserverStopCancelsSubscription(t *testing.T) {
	provider := newFakeAuthProvider()
	store := newFakeProfileStore()
	recorder := &noticeRecorder{}
	flow := pendingPhoneFlow(t, provider)

	observer := NewSessionObserver(provider, store, flow, recorder, nil)
	observer.Start()
	observer.Start() // second Start must not double-subscribe
	observer.Stop()

	provider.emit(models.EventSignedIn, &models.AuthSession{User: &models.AuthUser{ID: "user-42"}})

	assert.Equal(t, 0, store.count())
	_, ok := recorder.last()
	assert.False(t, ok)
}

func TestObserverEndToEndPhoneVerification(t *testing.T) {
	provider := newFakeAuthProvider()
	provider.verifySession = &models.AuthSession{
		AccessToken: "token",
		User:        &models.AuthUser{ID: "user-99"},
	}
	store := newFakeProfileStore()
	recorder := &noticeRecorder{}
	flow := pendingPhoneFlow(t, provider)

	observer := NewSessionObserver(provider, store, flow, recorder, nil)
	observer.Start()
	defer observer.Stop()

	// Redeeming the code signs the user in; the observer picks the event up
	// and finishes profile creation.
	require.NoError(t, flow.InputOTP(context.Background(), "123456"))

	require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, time.Millisecond)
	profile := store.profiles["user-99"]
	require.NotNil(t, profile)
	assert.Equal(t, models.RoleProducer, profile.Role)

	require.Eventually(t, func() bool {
		for _, title := range recorder.titles() {
			if title == "Welcome!" {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}
