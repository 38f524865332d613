package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/utils"
)

// FlowState is the coarse position of a registration session
type FlowState string

const (
	StateRoleSelection   FlowState = "roleSelection"
	StateCredentialEntry FlowState = "credentialEntry"
	StateOtpVerification FlowState = "otpVerification"
)

// Notifier receives user-facing feedback from the flow (toasts in the web
// client)
type Notifier interface {
	Notify(notice models.Notice)
}

// NotifierFunc adapts a plain function to the Notifier interface
type NotifierFunc func(models.Notice)

// Notify implements Notifier
func (f NotifierFunc) Notify(notice models.Notice) {
	f(notice)
}

// RegistrationFlow drives one user's registration or sign-in session:
// role selection, signup-method selection, credential entry, OTP dispatch
// and verification, and account finalization. It owns the session state
// exclusively; the auth provider and deliverability gateway are reached
// only through their interfaces.
type RegistrationFlow struct {
	provider       AuthProvider
	emailValidator *EmailValidator
	notifier       Notifier
	redirectURL    string

	mu        sync.Mutex
	role      models.UserRole
	mode      models.AuthMode
	method    models.SignupChannel
	form      models.RegistrationForm
	otpStage  bool
	pending   models.SignupChannel // channel awaiting a code while otpStage
	otpCode   string
	verifying bool // a verify call is in flight; further verifies are ignored
}

// NewRegistrationFlow creates a flow in the role-selection state. The signup
// redirect URL is read from SIGNUP_REDIRECT_URL.
func NewRegistrationFlow(provider AuthProvider, emailValidator *EmailValidator, notifier Notifier) *RegistrationFlow {
	if notifier == nil {
		notifier = NotifierFunc(func(models.Notice) {})
	}
	return &RegistrationFlow{
		provider:       provider,
		emailValidator: emailValidator,
		notifier:       notifier,
		redirectURL:    os.Getenv("SIGNUP_REDIRECT_URL"),
		mode:           models.ModeSignIn,
		method:         models.ChannelPhone,
	}
}

// State reports the flow's current position
func (f *RegistrationFlow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.role == "":
		return StateRoleSelection
	case f.otpStage:
		return StateOtpVerification
	default:
		return StateCredentialEntry
	}
}

// SelectRole picks the user's role and moves to credential entry
func (f *RegistrationFlow) SelectRole(role models.UserRole) error {
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.role = role
	return nil
}

// ChangeRole abandons the session and returns to role selection
func (f *RegistrationFlow) ChangeRole() {
	f.mu.Lock()
	f.role = ""
	f.mode = models.ModeSignIn
	f.method = models.ChannelPhone
	f.form = models.RegistrationForm{}
	f.otpStage = false
	f.pending = ""
	f.otpCode = ""
	f.mu.Unlock()

	if f.emailValidator != nil {
		f.emailValidator.Reset()
	}
}

// SetMode toggles between the sign-in and sign-up forms
func (f *RegistrationFlow) SetMode(mode models.AuthMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

// SetSignupMethod picks the verification channel for a signup. Switching
// clears the other channel's field so only one channel is ever active.
func (f *RegistrationFlow) SetSignupMethod(method models.SignupChannel) {
	f.mu.Lock()
	f.method = method
	switch method {
	case models.ChannelPhone:
		f.form.Email = ""
	case models.ChannelEmail:
		f.form.Phone = ""
	}
	f.mu.Unlock()

	if method == models.ChannelPhone && f.emailValidator != nil {
		f.emailValidator.Reset()
	}
}

// SetName records the user's first and last name
func (f *RegistrationFlow) SetName(firstName, lastName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.FirstName = firstName
	f.form.LastName = lastName
}

// SetEmail updates the email field and feeds the live validation engine
func (f *RegistrationFlow) SetEmail(email string) {
	f.mu.Lock()
	f.form.Email = email
	f.mu.Unlock()

	if f.emailValidator != nil {
		f.emailValidator.Validate(email)
	}
}

// SetPhone updates the phone field
func (f *RegistrationFlow) SetPhone(phone string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.Phone = phone
}

// SetIdentifier updates the single sign-in identifier field. The value is
// mirrored into both channel fields so either authentication path can be
// attempted once its shape is detected at submit time.
func (f *RegistrationFlow) SetIdentifier(identifier string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.Phone = identifier
	f.form.Email = identifier
}

// SetPassword updates the password field
func (f *RegistrationFlow) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.Password = password
}

// SetConfirmPassword updates the password confirmation field
func (f *RegistrationFlow) SetConfirmPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form.ConfirmPassword = password
}

// Role returns the selected role, or empty
func (f *RegistrationFlow) Role() models.UserRole {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role
}

// Mode returns the current form mode
func (f *RegistrationFlow) Mode() models.AuthMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Method returns the selected signup channel
func (f *RegistrationFlow) Method() models.SignupChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// Form returns a snapshot of the credential-entry fields
func (f *RegistrationFlow) Form() models.RegistrationForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// PendingPhoneSignup reports whether a phone-channel signup is awaiting or
// just completed verification, and returns the collected profile fields.
// The session observer uses this to finish profile creation after the
// provider signs the user in.
func (f *RegistrationFlow) PendingPhoneSignup() (models.RegistrationForm, models.UserRole, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.otpStage || f.pending != models.ChannelPhone {
		return models.RegistrationForm{}, "", false
	}
	return f.form, f.role, true
}

// notify forwards a notice to the configured notifier
func (f *RegistrationFlow) notify(title, message string, severity models.NoticeSeverity) {
	f.notifier.Notify(models.Notice{
		Title:    title,
		Message:  message,
		Severity: severity,
	})
}

// SubmitSignUp validates the form and dispatches an OTP on the selected
// channel. No account exists until the destination has proven reachable;
// account creation happens only after verification.
func (f *RegistrationFlow) SubmitSignUp(ctx context.Context) error {
	f.mu.Lock()
	role := f.role
	method := f.method
	form := f.form
	f.mu.Unlock()

	if role == "" {
		f.notify("Role Required", "Please select your role before signing up.", models.NoticeDestructive)
		return errors.New("no role selected")
	}

	switch method {
	case models.ChannelEmail:
		if form.Email == "" {
			f.notify("Email Required", "Please enter your email address.", models.NoticeDestructive)
			return errors.New("email is required")
		}
		if f.emailValidator != nil && f.emailValidator.IsValidating() {
			f.notify("Verifying Email", "Please wait while we verify your email address.", models.NoticeDestructive)
			return errors.New("email validation in progress")
		}
		if f.emailValidator != nil && f.emailValidator.IsInvalid() {
			message := "Please enter a valid, existing email address."
			if result := f.emailValidator.Result(); result != nil && result.Message != "" {
				message = result.Message
			}
			f.notify("Invalid Email", message, models.NoticeDestructive)
			return errors.New("email failed validation")
		}
	case models.ChannelPhone:
		if form.Phone == "" {
			f.notify("Phone Required", "Please enter your phone number.", models.NoticeDestructive)
			return errors.New("phone is required")
		}
		if !utils.IsPhoneLike(form.Phone) {
			f.notify("Invalid Phone", "Please enter a valid phone number.", models.NoticeDestructive)
			return errors.New("phone failed validation")
		}
	}

	if form.Password != form.ConfirmPassword {
		f.notify("Password Mismatch", "Passwords don't match. Please try again.", models.NoticeDestructive)
		return errors.New("passwords do not match")
	}
	if len(form.Password) < 6 {
		f.notify("Password Too Short", "Password must be at least 6 characters.", models.NoticeDestructive)
		return errors.New("password too short")
	}

	target := form.Phone
	if method == models.ChannelEmail {
		target = form.Email
	}

	if err := f.provider.SendOTP(ctx, method, target); err != nil {
		if strings.Contains(err.Error(), "already registered") {
			f.notify("Account Exists",
				fmt.Sprintf("An account with this %s already exists. Please sign in instead.", method),
				models.NoticeDestructive)
		} else {
			f.notify("OTP Send Failed", err.Error(), models.NoticeDestructive)
		}
		return err
	}

	f.mu.Lock()
	f.otpStage = true
	f.pending = method
	f.otpCode = ""
	f.mu.Unlock()

	if method == models.ChannelPhone {
		f.notify("OTP Sent!", "Please check your phone for the verification code.", models.NoticeInfo)
	} else {
		f.notify("OTP Sent!", "Please check your email for the verification code.", models.NoticeInfo)
	}
	return nil
}

// InputOTP records the code as typed and auto-submits verification the
// moment the sixth digit lands
func (f *RegistrationFlow) InputOTP(ctx context.Context, code string) error {
	f.mu.Lock()
	if len(code) > 6 {
		code = code[:6]
	}
	f.otpCode = code
	complete := len(code) == 6
	busy := f.verifying
	f.mu.Unlock()

	if complete && !busy {
		return f.VerifyOTP(ctx)
	}
	return nil
}

// VerifyOTP redeems the entered code. On the phone channel a successful
// verify is the account-creation event; on the email channel it only proves
// address ownership and a separate signup call finishes the account.
func (f *RegistrationFlow) VerifyOTP(ctx context.Context) error {
	f.mu.Lock()
	if !f.otpStage {
		f.mu.Unlock()
		return errors.New("no verification pending")
	}
	if f.verifying {
		// A submit for this code is already in flight
		f.mu.Unlock()
		return nil
	}
	if len(f.otpCode) < 6 {
		f.mu.Unlock()
		f.notify("Invalid OTP", "Please enter the complete 6-digit verification code.", models.NoticeDestructive)
		return errors.New("incomplete verification code")
	}

	f.verifying = true
	channel := f.pending
	code := f.otpCode
	form := f.form
	role := f.role
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.verifying = false
		f.mu.Unlock()
	}()

	switch channel {
	case models.ChannelPhone:
		if _, err := f.provider.VerifyOTP(ctx, models.ChannelPhone, form.Phone, code); err != nil {
			f.notify("Verification Failed", err.Error(), models.NoticeDestructive)
			return err
		}
		// The provider signs the user in directly; the session observer
		// finishes profile creation from the collected fields.
		f.notify("Phone Verified!", "Your account has been created successfully.", models.NoticeInfo)
		return nil

	case models.ChannelEmail:
		if _, err := f.provider.VerifyOTP(ctx, models.ChannelEmail, form.Email, code); err != nil {
			f.notify("Verification Failed", err.Error(), models.NoticeDestructive)
			return err
		}

		// Address ownership proven; now create the actual account
		_, err := f.provider.SignUp(ctx, models.SignUpRequest{
			Email:      form.Email,
			Password:   form.Password,
			RedirectTo: f.redirectURL,
			Data: map[string]interface{}{
				"first_name": form.FirstName,
				"last_name":  form.LastName,
				"role":       role,
			},
		})
		if err != nil {
			f.notify("Account Creation Failed", err.Error(), models.NoticeDestructive)
			return err
		}

		f.mu.Lock()
		f.otpStage = false
		f.pending = ""
		f.otpCode = ""
		f.mode = models.ModeSignIn
		f.mu.Unlock()

		f.notify("Email Verified & Account Created!", "You can now sign in with your credentials.", models.NoticeInfo)
		return nil
	}

	return fmt.Errorf("unknown signup channel %q", channel)
}

// ResendOTP re-issues the dispatch call for the pending channel. Failures
// surface without altering the verification stage.
func (f *RegistrationFlow) ResendOTP(ctx context.Context) error {
	f.mu.Lock()
	if !f.otpStage {
		f.mu.Unlock()
		return errors.New("no verification pending")
	}
	channel := f.pending
	form := f.form
	f.mu.Unlock()

	target := form.Phone
	if channel == models.ChannelEmail {
		target = form.Email
	}

	if err := f.provider.SendOTP(ctx, channel, target); err != nil {
		f.notify("Resend Failed", err.Error(), models.NoticeDestructive)
		return err
	}

	f.notify("Code Resent",
		fmt.Sprintf("A new verification code has been sent to your %s.", channel),
		models.NoticeInfo)
	return nil
}

// BackToSignup abandons the pending verification and returns to credential
// entry, keeping the previously entered names and role
func (f *RegistrationFlow) BackToSignup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpStage = false
	f.pending = ""
	f.otpCode = ""
}

// SubmitSignIn attempts password authentication with whichever channel the
// identifier's shape suggests. Success is observed through the session
// observer, not a local state transition.
func (f *RegistrationFlow) SubmitSignIn(ctx context.Context) error {
	f.mu.Lock()
	role := f.role
	form := f.form
	f.mu.Unlock()

	if role == "" {
		f.notify("Role Required", "Please select your role before signing in.", models.NoticeDestructive)
		return errors.New("no role selected")
	}

	identifier := form.Email
	if identifier == "" {
		identifier = form.Phone
	}
	if identifier == "" {
		f.notify("Credentials Required", "Please enter your phone number or email.", models.NoticeDestructive)
		return errors.New("identifier is required")
	}

	channel := utils.DetectChannel(identifier)

	if _, err := f.provider.SignInWithPassword(ctx, channel, identifier, form.Password); err != nil {
		f.notify("Sign In Failed", err.Error(), models.NoticeDestructive)
		return err
	}
	return nil
}
