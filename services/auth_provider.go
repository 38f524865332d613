package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/revom/revom_backend/models"
)

// AuthProvider is the external identity provider the registration flow talks
// to. It owns OTP challenges, credentials and sessions; this codebase only
// sequences calls against it.
type AuthProvider interface {
	// SendOTP dispatches a one-time passcode on the given channel
	SendOTP(ctx context.Context, channel models.SignupChannel, target string) error
	// VerifyOTP redeems a passcode; on the phone channel a successful
	// verify signs the user in directly
	VerifyOTP(ctx context.Context, channel models.SignupChannel, target, code string) (*models.AuthSession, error)
	// SignInWithPassword performs password authentication by phone or email
	SignInWithPassword(ctx context.Context, channel models.SignupChannel, identifier, password string) (*models.AuthSession, error)
	// SignUp creates a password-based account with attached profile metadata
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error)
	// OnAuthStateChange subscribes to auth-state events; the returned
	// function cancels the subscription
	OnAuthStateChange(fn func(event models.AuthEvent, session *models.AuthSession)) (unsubscribe func())
	// CurrentSession returns the last session observed, or nil
	CurrentSession() *models.AuthSession
}

// SupabaseAuthService is an AuthProvider backed by a GoTrue-compatible HTTP
// API (Supabase auth). Successful verifications and sign-ins are broadcast
// to auth-state subscribers.
type SupabaseAuthService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *log.Logger

	mu          sync.Mutex
	session     *models.AuthSession
	subscribers map[int]func(models.AuthEvent, *models.AuthSession)
	nextSubID   int
}

// NewSupabaseAuthService creates a new auth provider client from environment
// configuration
func NewSupabaseAuthService() *SupabaseAuthService {
	baseURL := os.Getenv("AUTH_PROVIDER_URL")
	apiKey := os.Getenv("AUTH_PROVIDER_API_KEY")

	if baseURL == "" || apiKey == "" {
		log.Printf("WARNING: Auth provider not fully configured:")
		if baseURL == "" {
			log.Printf("  - AUTH_PROVIDER_URL is missing")
		}
		if apiKey == "" {
			log.Printf("  - AUTH_PROVIDER_API_KEY is missing")
		}
		log.Printf("Please set these environment variables for signup and sign-in to work")
	}

	return &SupabaseAuthService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      log.New(os.Stdout, "[AUTH-PROVIDER] ", log.LstdFlags),
		subscribers: make(map[int]func(models.AuthEvent, *models.AuthSession)),
	}
}

// makeRequest performs an HTTP request against the provider API
func (s *SupabaseAuthService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, int, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return nil, 0, fmt.Errorf("missing auth provider credentials. Please set AUTH_PROVIDER_URL and AUTH_PROVIDER_API_KEY environment variables")
	}

	requestURL := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("X-Client-Info", "revom-backend/1.0")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	return respBody, resp.StatusCode, nil
}

// providerError extracts the human-readable message from a GoTrue error body
func providerError(body []byte, statusCode int) error {
	var errResp struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		for _, msg := range []string{errResp.ErrorDescription, errResp.Msg, errResp.Message, errResp.Error} {
			if msg != "" {
				return fmt.Errorf("%s", msg)
			}
		}
	}
	return fmt.Errorf("auth provider returned status %d", statusCode)
}

// SendOTP dispatches a one-time passcode by phone or email
func (s *SupabaseAuthService) SendOTP(ctx context.Context, channel models.SignupChannel, target string) error {
	payload := map[string]interface{}{
		"create_user": true,
	}
	if channel == models.ChannelPhone {
		payload["phone"] = target
	} else {
		payload["email"] = target
	}

	body, status, err := s.makeRequest(ctx, http.MethodPost, "/otp", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return providerError(body, status)
	}

	s.logger.Printf("OTP dispatched via %s", channel)
	return nil
}

// VerifyOTP redeems a passcode. GoTrue returns a full session when the code
// is accepted; on the phone channel that session is the sign-in itself.
func (s *SupabaseAuthService) VerifyOTP(ctx context.Context, channel models.SignupChannel, target, code string) (*models.AuthSession, error) {
	payload := map[string]interface{}{
		"token": code,
	}
	if channel == models.ChannelPhone {
		payload["type"] = "sms"
		payload["phone"] = target
	} else {
		payload["type"] = "email"
		payload["email"] = target
	}

	body, status, err := s.makeRequest(ctx, http.MethodPost, "/verify", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, providerError(body, status)
	}

	var session models.AuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	s.emit(models.EventSignedIn, &session)
	return &session, nil
}

// SignInWithPassword performs password authentication by phone or email
func (s *SupabaseAuthService) SignInWithPassword(ctx context.Context, channel models.SignupChannel, identifier, password string) (*models.AuthSession, error) {
	payload := map[string]interface{}{
		"password": password,
	}
	if channel == models.ChannelPhone {
		payload["phone"] = identifier
	} else {
		payload["email"] = identifier
	}

	body, status, err := s.makeRequest(ctx, http.MethodPost, "/token?grant_type=password", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, providerError(body, status)
	}

	var session models.AuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	s.emit(models.EventSignedIn, &session)
	return &session, nil
}

// SignUp creates a password-based account carrying the profile metadata
func (s *SupabaseAuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error) {
	payload := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
	}
	if len(req.Data) > 0 {
		payload["data"] = req.Data
	}

	endpoint := "/signup"
	if req.RedirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(req.RedirectTo)
	}

	body, status, err := s.makeRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, providerError(body, status)
	}

	var session models.AuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to parse signup response: %w", err)
	}

	return &session, nil
}

// OnAuthStateChange registers a subscriber for auth-state events. The
// returned function removes the subscription.
func (s *SupabaseAuthService) OnAuthStateChange(fn func(event models.AuthEvent, session *models.AuthSession)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// CurrentSession returns the last session observed, or nil
func (s *SupabaseAuthService) CurrentSession() *models.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// emit records the session and notifies subscribers
func (s *SupabaseAuthService) emit(event models.AuthEvent, session *models.AuthSession) {
	s.mu.Lock()
	s.session = session
	fns := make([]func(models.AuthEvent, *models.AuthSession), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}
