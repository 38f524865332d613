// models/auth.go

package models

// UserRole identifies how a user participates in the community
type UserRole string

const (
	RoleProducer  UserRole = "producer"
	RoleCustomer  UserRole = "customer"
	RoleTransport UserRole = "transport"
)

// ValidRoles lists the selectable roles in display order
var ValidRoles = []UserRole{RoleProducer, RoleCustomer, RoleTransport}

// IsValid reports whether the role is one of the selectable roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleProducer, RoleCustomer, RoleTransport:
		return true
	}
	return false
}

// Description returns the role copy shown next to the role picker
func (r UserRole) Description() string {
	switch r {
	case RoleProducer:
		return "Share your farm-fresh products with the community"
	case RoleCustomer:
		return "Discover and purchase local, fresh products"
	case RoleTransport:
		return "Provide pickup and delivery services"
	}
	return ""
}

// SignupChannel is the verification channel for a signup attempt.
// Exactly one channel is active per attempt.
type SignupChannel string

const (
	ChannelPhone SignupChannel = "phone"
	ChannelEmail SignupChannel = "email"
)

// AuthMode distinguishes the sign-in and sign-up form modes
type AuthMode string

const (
	ModeSignIn AuthMode = "signIn"
	ModeSignUp AuthMode = "signUp"
)

// RegistrationForm holds the credential-entry fields of one registration session
type RegistrationForm struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// SignUpRequest is the password-based account creation call made to the
// auth provider after the email channel has been verified
type SignUpRequest struct {
	Email      string                 `json:"email"`
	Password   string                 `json:"password"`
	RedirectTo string                 `json:"redirectTo,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// AuthUser is the provider's view of an authenticated identity
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// AuthSession is the session issued by the external auth provider
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	User         *AuthUser `json:"user,omitempty"`
}

// AuthEvent names an auth-state change delivered to subscribers
type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// NoticeSeverity mirrors the severity of user-facing feedback
type NoticeSeverity string

const (
	NoticeInfo        NoticeSeverity = "info"
	NoticeDestructive NoticeSeverity = "destructive"
)

// Notice is one piece of user-facing feedback (a toast in the web client)
type Notice struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Severity NoticeSeverity `json:"severity"`
}
