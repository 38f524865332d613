package services

import (
	"context"
	"errors"
	"sync"

	"github.com/revom/revom_backend/models"
)

// fakeAuthProvider records calls and plays back configured results
type fakeAuthProvider struct {
	mu sync.Mutex

	sendErr   error
	verifyErr error
	signInErr error
	signUpErr error

	verifySession *models.AuthSession
	signInSession *models.AuthSession

	sendCalls   []providerCall
	verifyCalls []providerCall
	signInCalls []providerCall
	signUpReqs  []models.SignUpRequest

	verifyStarted chan struct{}
	verifyRelease chan struct{}

	subscribers map[int]func(models.AuthEvent, *models.AuthSession)
	nextSubID   int
	session     *models.AuthSession
}

type providerCall struct {
	channel models.SignupChannel
	target  string
	code    string
}

func newFakeAuthProvider() *fakeAuthProvider {
	return &fakeAuthProvider{
		subscribers: make(map[int]func(models.AuthEvent, *models.AuthSession)),
	}
}

func (p *fakeAuthProvider) SendOTP(ctx context.Context, channel models.SignupChannel, target string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendCalls = append(p.sendCalls, providerCall{channel: channel, target: target})
	return p.sendErr
}

func (p *fakeAuthProvider) VerifyOTP(ctx context.Context, channel models.SignupChannel, target, code string) (*models.AuthSession, error) {
	p.mu.Lock()
	p.verifyCalls = append(p.verifyCalls, providerCall{channel: channel, target: target, code: code})
	started := p.verifyStarted
	release := p.verifyRelease
	p.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	session := p.verifySession
	if session == nil {
		session = &models.AuthSession{
			AccessToken: "token",
			User:        &models.AuthUser{ID: "identity-1"},
		}
	}
	p.emitLocked(models.EventSignedIn, session)
	return session, nil
}

func (p *fakeAuthProvider) SignInWithPassword(ctx context.Context, channel models.SignupChannel, identifier, password string) (*models.AuthSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signInCalls = append(p.signInCalls, providerCall{channel: channel, target: identifier, code: password})
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	session := p.signInSession
	if session == nil {
		session = &models.AuthSession{
			AccessToken: "token",
			User:        &models.AuthUser{ID: "identity-1"},
		}
	}
	p.emitLocked(models.EventSignedIn, session)
	return session, nil
}

func (p *fakeAuthProvider) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signUpReqs = append(p.signUpReqs, req)
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	return &models.AuthSession{User: &models.AuthUser{ID: "identity-1", Email: req.Email}}, nil
}

func (p *fakeAuthProvider) OnAuthStateChange(fn func(models.AuthEvent, *models.AuthSession)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

func (p *fakeAuthProvider) CurrentSession() *models.AuthSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// emitLocked must be called with p.mu held; subscribers run after unlock
// would deadlock on re-entrant provider calls, so the fake copies first.
func (p *fakeAuthProvider) emitLocked(event models.AuthEvent, session *models.AuthSession) {
	p.session = session
	fns := make([]func(models.AuthEvent, *models.AuthSession), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	go func() {
		for _, fn := range fns {
			fn(event, session)
		}
	}()
}

// emit delivers an event as if the provider signed a user in
func (p *fakeAuthProvider) emit(event models.AuthEvent, session *models.AuthSession) {
	p.mu.Lock()
	p.session = session
	fns := make([]func(models.AuthEvent, *models.AuthSession), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

func (p *fakeAuthProvider) sendCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sendCalls)
}

func (p *fakeAuthProvider) verifyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.verifyCalls)
}

// noticeRecorder captures user-facing feedback for assertions
type noticeRecorder struct {
	mu      sync.Mutex
	notices []models.Notice
}

func (r *noticeRecorder) Notify(notice models.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
}

func (r *noticeRecorder) last() (models.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return models.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func (r *noticeRecorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, 0, len(r.notices))
	for _, n := range r.notices {
		titles = append(titles, n.Title)
	}
	return titles
}

// fakeProfileStore is an in-memory ProfileStore
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	findErr  error
	inserts  int
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*models.Profile)}
}

func (s *fakeProfileStore) FindByIdentity(ctx context.Context, userID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.profiles[userID], nil
}

func (s *fakeProfileStore) Insert(ctx context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[profile.UserID]; exists {
		return errors.New("duplicate profile")
	}
	s.profiles[profile.UserID] = profile
	s.inserts++
	return nil
}

func (s *fakeProfileStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.profiles)
}
