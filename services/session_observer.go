package services

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/utils"
)

// ProfileStore is the minimal profile record surface the observer needs
type ProfileStore interface {
	// FindByIdentity returns the profile for a provider identity, or
	// (nil, nil) when none exists
	FindByIdentity(ctx context.Context, userID string) (*models.Profile, error)
	// Insert stores a new profile record
	Insert(ctx context.Context, profile *models.Profile) error
}

// SessionObserver watches the auth provider's state stream. When a sign-in
// lands while a phone-channel signup is pending, it finishes the signup by
// creating the profile record the provider knows nothing about, then
// surfaces a welcome notice and invokes the completion callback.
type SessionObserver struct {
	provider   AuthProvider
	profiles   ProfileStore
	flow       *RegistrationFlow
	notifier   Notifier
	onComplete func()

	jwtSecret string
	jwksURL   string

	logger      *log.Logger
	unsubscribe func()
}

// NewSessionObserver creates an observer. onComplete may be nil.
func NewSessionObserver(provider AuthProvider, profiles ProfileStore, flow *RegistrationFlow, notifier Notifier, onComplete func()) *SessionObserver {
	if notifier == nil {
		notifier = NotifierFunc(func(models.Notice) {})
	}
	return &SessionObserver{
		provider:   provider,
		profiles:   profiles,
		flow:       flow,
		notifier:   notifier,
		onComplete: onComplete,
		jwtSecret:  os.Getenv("AUTH_JWT_SECRET"),
		jwksURL:    os.Getenv("AUTH_JWKS_URL"),
		logger:     log.New(os.Stdout, "[SESSION] ", log.LstdFlags),
	}
}

// Start subscribes to the provider's auth-state stream. It is intended to
// be called once per interactive lifetime; Stop tears the subscription down.
func (o *SessionObserver) Start() {
	if o.unsubscribe != nil {
		return
	}
	o.unsubscribe = o.provider.OnAuthStateChange(o.handleAuthChange)
}

// Stop cancels the subscription
func (o *SessionObserver) Stop() {
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

// handleAuthChange reacts to one auth-state event
func (o *SessionObserver) handleAuthChange(event models.AuthEvent, session *models.AuthSession) {
	if event != models.EventSignedIn || session == nil {
		return
	}

	if form, role, ok := o.flow.PendingPhoneSignup(); ok {
		if err := o.ensureProfile(session, form, role); err != nil {
			o.logger.Printf("Profile creation error: %v", err)
		}
	}

	o.notifier.Notify(models.Notice{
		Title:    "Welcome!",
		Message:  "Successfully signed in to your account.",
		Severity: models.NoticeInfo,
	})

	if o.onComplete != nil {
		o.onComplete()
	}
}

// ensureProfile creates the profile record for this identity if it does not
// exist yet. Lookup-before-insert keeps the operation idempotent when the
// provider delivers the same sign-in twice.
func (o *SessionObserver) ensureProfile(session *models.AuthSession, form models.RegistrationForm, role models.UserRole) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, email := o.identityFromSession(session)
	if userID == "" {
		o.logger.Printf("Signed-in session carries no identity; skipping profile creation")
		return nil
	}

	existing, err := o.profiles.FindByIdentity(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	return o.profiles.Insert(ctx, &models.Profile{
		UserID:    userID,
		Email:     email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Role:      role,
		Phone:     form.Phone,
	})
}

// identityFromSession resolves the provider identity for a session. The
// user object is authoritative; when the provider response omitted it, the
// identity is recovered from the access token claims.
func (o *SessionObserver) identityFromSession(session *models.AuthSession) (userID, email string) {
	if session.User != nil && session.User.ID != "" {
		return session.User.ID, session.User.Email
	}

	if session.AccessToken == "" {
		return "", ""
	}

	claims, err := utils.VerifySessionToken(session.AccessToken, o.jwtSecret, o.jwksURL)
	if err != nil {
		o.logger.Printf("Failed to verify session token: %v", err)
		return "", ""
	}
	return claims.UserID, claims.Email
}
