package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/utils"
)

// DefaultDebounceDelay is the quiet period after the last keystroke before
// a validation actually fires.
const DefaultDebounceDelay = 800 * time.Millisecond

// EmailChecker resolves one address to a deliverability verdict. A non-nil
// error means the check itself could not run (network-level failure), not a
// negative verdict.
type EmailChecker func(ctx context.Context, email string) (*models.ValidationResult, error)

// EmailValidator drives live validation of a single email input field. It
// debounces keystrokes, caches verdicts per exact address string, and keeps
// a small status machine the form reads to gate submission.
//
// Each armed validation carries a sequence number; a result whose sequence
// is no longer current is discarded, so a superseded keystroke's late reply
// never overwrites state produced by a newer one.
type EmailValidator struct {
	mu       sync.Mutex
	check    EmailChecker
	debounce time.Duration

	status models.ValidationStatus
	result *models.ValidationResult
	cache  map[string]*models.ValidationResult
	timer  *time.Timer
	seq    uint64
}

// NewEmailValidator creates a validator with the default debounce delay
func NewEmailValidator(check EmailChecker) *EmailValidator {
	return NewEmailValidatorWithDelay(check, DefaultDebounceDelay)
}

// NewEmailValidatorWithDelay creates a validator with a custom debounce delay
func NewEmailValidatorWithDelay(check EmailChecker, delay time.Duration) *EmailValidator {
	return &EmailValidator{
		check:    check,
		debounce: delay,
		status:   models.StatusIdle,
		cache:    make(map[string]*models.ValidationResult),
	}
}

// Validate reacts to the field's current value. It cancels any previously
// scheduled validation, so within a quiet window only the most recent
// keystroke triggers network work.
func (v *EmailValidator) Validate(email string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Invalidate anything scheduled or in flight
	v.seq++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}

	// If email is empty, reset to idle
	if strings.TrimSpace(email) == "" {
		v.status = models.StatusIdle
		v.result = nil
		return
	}

	// Set typing status immediately
	v.status = models.StatusTyping

	seq := v.seq
	v.timer = time.AfterFunc(v.debounce, func() {
		v.runValidation(seq, email)
	})
}

// runValidation is the debounced body of Validate
func (v *EmailValidator) runValidation(seq uint64, email string) {
	v.mu.Lock()

	if seq != v.seq {
		v.mu.Unlock()
		return
	}

	// Format failures are cheap and never hit the network
	if !utils.IsEmailFormat(email) {
		v.status = models.StatusInvalid
		v.result = &models.ValidationResult{
			IsValid: false,
			Message: "Please enter a valid email format",
		}
		v.mu.Unlock()
		return
	}

	// Replay a cached verdict without a network call
	if cached, ok := v.cache[email]; ok {
		v.applyLocked(cached)
		v.mu.Unlock()
		return
	}

	v.status = models.StatusValidating
	check := v.check
	v.mu.Unlock()

	result, err := check(context.Background(), email)

	v.mu.Lock()
	defer v.mu.Unlock()

	// A newer keystroke arrived while this call was in flight
	if seq != v.seq {
		return
	}

	if err != nil || result == nil {
		// Fail open, but do not cache the degraded verdict so a later
		// edit can reach the service again.
		v.status = models.StatusValid
		v.result = &models.ValidationResult{
			IsValid: true,
			Message: "Email validation service temporarily unavailable",
		}
		return
	}

	v.cache[email] = result
	v.applyLocked(result)
}

func (v *EmailValidator) applyLocked(result *models.ValidationResult) {
	if result.IsValid {
		v.status = models.StatusValid
	} else {
		v.status = models.StatusInvalid
	}
	v.result = result
}

// Status returns the field's current validation status
func (v *EmailValidator) Status() models.ValidationStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Result returns the most recent verdict, or nil
func (v *EmailValidator) Result() *models.ValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// IsValid reports whether the field holds a verified address
func (v *EmailValidator) IsValid() bool {
	return v.Status() == models.StatusValid
}

// IsInvalid reports whether the field holds a rejected address
func (v *EmailValidator) IsInvalid() bool {
	return v.Status() == models.StatusInvalid
}

// IsValidating reports whether a check is currently in flight
func (v *EmailValidator) IsValidating() bool {
	return v.Status() == models.StatusValidating
}

// Reset returns the field to idle and clears the session cache
func (v *EmailValidator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.status = models.StatusIdle
	v.result = nil
	v.cache = make(map[string]*models.ValidationResult)
}
