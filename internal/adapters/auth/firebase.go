package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/PabloGalante/guideon/internal/domain"
)

// GoogleJWKSURL serves the public keys Firebase Auth signs ID tokens with.
const GoogleJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const defaultLeeway = 30 * time.Second

// ErrUnauthenticated is returned for missing or invalid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// FirebaseVerifier validates Firebase ID tokens (RS256) and returns the uid.
type FirebaseVerifier struct {
	projectID string
	keyfunc   jwt.Keyfunc
	jwks      *keyfunc.JWKS
	leeway    time.Duration
}

// NewFirebaseVerifier fetches Google's JWKS and keeps it refreshed in the
// background until ctx is done or Close is called.
func NewFirebaseVerifier(ctx context.Context, projectID string, onRefreshError func(error)) (*FirebaseVerifier, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("firebase verifier requires a project id")
	}

	jwks, err := keyfunc.Get(GoogleJWKSURL, keyfunc.Options{
		Ctx:                 ctx,
		RefreshInterval:     time.Hour,
		RefreshUnknownKID:   true,
		RefreshErrorHandler: onRefreshError,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch firebase jwks: %w", err)
	}

	v := NewVerifierWithKeyfunc(projectID, jwks.Keyfunc)
	v.jwks = jwks
	return v, nil
}

// NewVerifierWithKeyfunc builds a verifier around a custom key lookup.
func NewVerifierWithKeyfunc(projectID string, kf jwt.Keyfunc) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: strings.TrimSpace(projectID),
		keyfunc:   kf,
		leeway:    defaultLeeway,
	}
}

// Close stops the background JWKS refresh.
func (v *FirebaseVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// VerifyIDToken implements domain.IdentityVerifier.
func (v *FirebaseVerifier) VerifyIDToken(_ context.Context, token string) (domain.UserID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", fmt.Errorf("%w: token subject missing", ErrUnauthenticated)
	}
	return domain.UserID(subject), nil
}

// StaticVerifier accepts every request as one fixed user. Only for REQUIRE_AUTH=false.
type StaticVerifier struct {
	UserID domain.UserID
}

func NewStaticVerifier(userID domain.UserID) *StaticVerifier {
	if userID == "" {
		userID = "dev-bypass"
	}
	return &StaticVerifier{UserID: userID}
}

func (s *StaticVerifier) VerifyIDToken(context.Context, string) (domain.UserID, error) {
	return s.UserID, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
