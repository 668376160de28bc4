package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCode means the password is not made of digits only. The
	// backend expects the code as a JSON number.
	ErrInvalidCode = errors.New("password must contain digits only")
	// ErrMissingField means a required form field is blank.
	ErrMissingField = errors.New("required field is missing")
)

const (
	defaultSignInFailure = "Invalid credentials. Please try again."
	defaultSignUpFailure = "Something went wrong. Please try again."
)

// AuthError is a rejected sign-in or sign-up. Message is safe to show to the
// user: it is the server's message or a default text.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// SignInRequest is the sign-in form.
type SignInRequest struct {
	CountryCode string
	PhoneNumber string
	Password    string
}

// SignUpRequest is the registration form. Language is collected by the form
// but not sent; the backend does not accept it yet.
type SignUpRequest struct {
	Username         string
	Email            string
	Password         string
	CountryCode      string
	PhoneNumber      string
	Language         string
	HasDisability    bool
	DisabilityType   string
	AnswerPreference string
}

type signInBody struct {
	CountryCode string      `json:"countryCode"`
	PhoneNumber string      `json:"phone_number"`
	Code        json.Number `json:"code"`
}

type signUpBody struct {
	Username         string      `json:"username"`
	Email            string      `json:"email"`
	Code             json.Number `json:"code"`
	PhoneNumber      string      `json:"phone_number"`
	DisabilityIs     bool        `json:"disability_is"`
	DisabilityType   string      `json:"disability_type"`
	AnswerPreference string      `json:"answer_preference"`
}

type errorBody struct {
	Message string `json:"message"`
}

// SignIn authenticates with phone number and numeric password.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) error {
	code, err := ParseCode(req.Password)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone number", ErrMissingField)
	}

	countryCode := strings.TrimSpace(req.CountryCode)
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	body := signInBody{
		CountryCode: countryCode,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Code:        code,
	}
	return c.authPost(ctx, "/signin", body, defaultSignInFailure)
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) error {
	code, err := ParseCode(req.Password)
	if err != nil {
		return err
	}
	for name, value := range map[string]string{
		"username":     req.Username,
		"email":        req.Email,
		"phone number": req.PhoneNumber,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	disabilityType := ""
	if req.HasDisability {
		disabilityType = strings.TrimSpace(req.DisabilityType)
	}
	preference := strings.TrimSpace(req.AnswerPreference)
	if preference == "" {
		preference = DefaultAnswerPreference
	}

	body := signUpBody{
		Username:         strings.TrimSpace(req.Username),
		Email:            strings.TrimSpace(req.Email),
		Code:             code,
		PhoneNumber:      strings.TrimSpace(req.PhoneNumber),
		DisabilityIs:     req.HasDisability,
		DisabilityType:   disabilityType,
		AnswerPreference: preference,
	}
	return c.authPost(ctx, "/signup", body, defaultSignUpFailure)
}

func (c *Client) authPost(ctx context.Context, path string, body any, fallback string) error {
	status, raw, err := c.post(ctx, c.baseURL+path, body)
	if err != nil {
		c.logger.Warn("auth request failed", "path", path, "error", err)
		return &AuthError{Message: fallback}
	}
	if status >= 200 && status <= 299 {
		return nil
	}

	message := fallback
	var parsed errorBody
	if json.Unmarshal(raw, &parsed) == nil && strings.TrimSpace(parsed.Message) != "" {
		message = strings.TrimSpace(parsed.Message)
	}
	c.logger.Info("auth request rejected", "path", path, "status", status)
	return &AuthError{Status: status, Message: message}
}

// ParseCode validates a numeric password and returns it as a JSON number.
// Leading zeros are dropped, matching a numeric conversion of the input.
func ParseCode(password string) (json.Number, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", ErrInvalidCode
	}
	for _, r := range password {
		if r < '0' || r > '9' {
			return "", ErrInvalidCode
		}
	}
	trimmed := strings.TrimLeft(password, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return json.Number(trimmed), nil
}
