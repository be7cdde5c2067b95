package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
)

// Rejection messages returned in the AppError of ValidateImageURL.
const (
	MsgEmptyURL       = "URL cannot be empty"
	MsgMalformedURL   = "Invalid URL format"
	MsgSchemeRejected = "URL scheme not allowed"
	MsgMissingHost    = "URL must have a valid host"
	MsgHostRejected   = "URL host not allowed"
	MsgCredentials    = "URL must not embed credentials"
)

// URLValidator decides which remote image locations may be fetched.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any http or https host.
func NewURLValidator() *URLValidator {
	return NewURLValidatorWithOptions([]string{"http", "https"}, nil)
}

// NewURLValidatorWithOptions restricts schemes and hosts. An empty host
// list allows every host; "*.example.com" allows subdomains of example.com.
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL returns a validation AppError naming the first rule the
// URL breaks.
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError(MsgEmptyURL, nil)
	}

	u, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError(MsgMalformedURL, err)
	}

	switch {
	case !v.isSchemeAllowed(u.Scheme):
		return apperrors.NewValidationError(MsgSchemeRejected, nil).WithDetails(u.Scheme)
	case u.Hostname() == "":
		return apperrors.NewValidationError(MsgMissingHost, nil)
	case u.User != nil:
		return apperrors.NewValidationError(MsgCredentials, nil)
	case !v.isHostAllowed(u.Hostname()):
		return apperrors.NewValidationError(MsgHostRejected, nil).WithDetails(u.Hostname())
	}
	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed matches host case-insensitively. "*.example.com" matches
// subdomains only, not example.com itself.
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, allowed := range v.allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if suffix, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
