package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"docchat/internal/domain"
)

// Classify maps a transport or HTTP failure onto the provider error kinds.
// Only transient errors are worth retrying.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe
	}

	var missing *MissingCredentialError
	if errors.As(err, &missing) {
		return &domain.ProviderError{Kind: domain.ProviderAuth, Provider: provider, Message: missing.Error(), Err: err}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		msg := errorMessage(httpErr.Message)
		return &domain.ProviderError{
			Kind:       kindForStatus(httpErr.StatusCode, httpErr.Message),
			Provider:   provider,
			StatusCode: httpErr.StatusCode,
			Message:    msg,
			Err:        err,
		}
	}

	return &domain.ProviderError{Kind: domain.ProviderTransient, Provider: provider, Message: err.Error(), Err: err}
}

func kindForStatus(status int, body string) domain.ProviderErrorKind {
	lower := strings.ToLower(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ProviderAuth
	case status == http.StatusBadRequest && (strings.Contains(lower, "api_key_invalid") || strings.Contains(lower, "api key not valid")):
		return domain.ProviderAuth
	case status == http.StatusTooManyRequests:
		if strings.Contains(lower, "quota") {
			return domain.ProviderQuota
		}
		return domain.ProviderTransient
	case status == http.StatusRequestTimeout || status >= 500:
		return domain.ProviderTransient
	}
	return domain.ProviderRejected
}

// errorMessage pulls the message out of the {"error": {"message": ...}} body
// both OpenAI and Google return, falling back to a preview of the raw body.
func errorMessage(body string) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return preview([]byte(body))
}

const previewRunes = 200

// preview trims a raw body for error messages, cutting on a rune boundary.
func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if utf8.RuneCountInString(s) > previewRunes {
		s = string([]rune(s)[:previewRunes])
	}
	return s
}
