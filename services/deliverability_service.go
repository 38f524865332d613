package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/revom/revom_backend/models"
	"github.com/revom/revom_backend/utils"
)

const defaultValidationAPIURL = "https://emailvalidation.abstractapi.com/v1/"

// verdict cache keys live alongside the other transient keys in Redis
const verdictCachePrefix = "email_verdict:"

// DeliverabilityService checks whether an email address is a real,
// deliverable address using the AbstractAPI email validation service.
// Every failure of the service itself resolves to a permissive verdict:
// signup must never be blocked by our own verification dependency.
type DeliverabilityService struct {
	apiKey   string
	apiURL   string
	client   *http.Client
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *log.Logger
}

// NewDeliverabilityService creates a new deliverability service instance.
// redisClient may be nil, in which case verdicts are not cached server-side.
func NewDeliverabilityService(redisClient *redis.Client) *DeliverabilityService {
	apiKey := os.Getenv("EMAIL_VALIDATION_API_KEY")
	if apiKey == "" {
		log.Printf("WARNING: EMAIL_VALIDATION_API_KEY not configured")
		log.Printf("Email deliverability checks will be skipped (format-only validation)")
	}

	apiURL := os.Getenv("EMAIL_VALIDATION_API_URL")
	if apiURL == "" {
		apiURL = defaultValidationAPIURL
	}

	return &DeliverabilityService{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		redis:    redisClient,
		cacheTTL: 1 * time.Hour,
		logger:   log.New(os.Stdout, "[EMAIL-VALIDATION] ", log.LstdFlags),
	}
}

// CheckEmail returns the normalized deliverability verdict for one address.
// It never returns an error: degradation of the third-party service is
// translated into a permissive verdict with an explanatory message.
func (s *DeliverabilityService) CheckEmail(ctx context.Context, email string) *models.ValidationResult {
	// Basic email format validation
	if !utils.IsEmailFormat(email) {
		return &models.ValidationResult{
			IsValid: false,
			Message: "Invalid email format",
		}
	}

	// Replay a cached verdict if we have one
	if cached := s.cachedVerdict(ctx, email); cached != nil {
		return cached
	}

	if s.apiKey == "" {
		s.logger.Println("Email validation API key not configured, skipping validation")
		return &models.ValidationResult{
			IsValid: true,
			Message: "Email format valid - real verification skipped",
		}
	}

	verdict, err := s.queryAPI(ctx, email)
	if err != nil {
		s.logger.Printf("Error validating %s: %v", email, err)
		// If validation service fails, allow the email through
		return &models.ValidationResult{
			IsValid: true,
			Message: "Email validation service temporarily unavailable",
		}
	}

	// Only real verdicts are cached; the fail-open path above stays
	// uncached so a later retry can reach the API again.
	s.storeVerdict(ctx, email, verdict)

	return verdict
}

// queryAPI calls AbstractAPI and derives the verdict from its three signals
func (s *DeliverabilityService) queryAPI(ctx context.Context, email string) (*models.ValidationResult, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("email", email)

	fullURL := fmt.Sprintf("%s?%s", s.apiURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach validation API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp models.AbstractAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse validation response: %w", err)
	}

	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err != nil {
		details = nil
	}

	// Require all three signals: format validity, deliverability
	// classification, and mail-server (SMTP) acceptance.
	isValidFormat := apiResp.IsValidFormat.Value
	isDeliverable := apiResp.Deliverability == "DELIVERABLE"
	isValidSMTP := apiResp.IsSMTPValid.Value

	isValid := isValidFormat && isDeliverable && isValidSMTP

	var message string
	if !isValid {
		switch {
		case !isValidFormat:
			message = "Invalid email format"
		case !isDeliverable:
			message = "This email address does not exist or is not deliverable"
		case !isValidSMTP:
			message = "This email server does not accept emails"
		default:
			message = "Email verification failed"
		}
	} else {
		message = "Email verified - this is a real, active email address"
	}

	return &models.ValidationResult{
		IsValid: isValid,
		Message: message,
		Details: details,
	}, nil
}

// cachedVerdict returns the stored verdict for an address, or nil
func (s *DeliverabilityService) cachedVerdict(ctx context.Context, email string) *models.ValidationResult {
	if s.redis == nil {
		return nil
	}

	data, err := s.redis.Get(ctx, verdictCachePrefix+email).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Printf("Redis read error: %v", err)
		}
		return nil
	}

	var verdict models.ValidationResult
	if err := json.Unmarshal([]byte(data), &verdict); err != nil {
		s.logger.Printf("Failed to decode cached verdict: %v", err)
		return nil
	}
	return &verdict
}

// storeVerdict caches a verdict with the configured TTL
func (s *DeliverabilityService) storeVerdict(ctx context.Context, email string, verdict *models.ValidationResult) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(verdict)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, verdictCachePrefix+email, data, s.cacheTTL).Err(); err != nil {
		s.logger.Printf("Redis write error: %v", err)
	}
}
