package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/logging"
)

const (
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
	keySetTTL            = time.Hour
	keySetMinRefresh     = time.Minute
	acceptableSkew       = 30 * time.Second
)

// IdentityVerifier turns a bearer token into an identity
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// FirebaseVerifier verifies Firebase Authentication ID tokens
type FirebaseVerifier struct {
	projectID string
	jwksURL   string
	cache     *tokenCache

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

var _ IdentityVerifier = &FirebaseVerifier{}

type FirebaseOption func(*FirebaseVerifier)

// WithJWKSURL overrides the key set location
func WithJWKSURL(url string) FirebaseOption {
	return func(v *FirebaseVerifier) {
		v.jwksURL = url
	}
}

func NewFirebaseVerifier(projectID string, opts ...FirebaseOption) *FirebaseVerifier {
	v := &FirebaseVerifier{
		projectID: projectID,
		jwksURL:   FirebaseJWKSURL,
		cache:     newTokenCache(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *FirebaseVerifier) keys(ctx context.Context, refresh bool) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keySet != nil {
		age := time.Since(v.fetchedAt)
		if age < keySetTTL && (!refresh || age < keySetMinRefresh) {
			return v.keySet, nil
		}
	}

	keySet, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch JWK set", goerr.V("url", v.jwksURL))
	}
	v.keySet = keySet
	v.fetchedAt = time.Now()
	return keySet, nil
}

func (v *FirebaseVerifier) parse(token string, keySet jwk.Set) (jwt.Token, error) {
	return jwt.Parse([]byte(token),
		jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithAcceptableSkew(acceptableSkew),
	)
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (model.Identity, error) {
	if uid, ok := v.cache.get(token); ok {
		return model.Authenticated{UserID: uid}, nil
	}

	keySet, err := v.keys(ctx, false)
	if err != nil {
		return nil, err
	}

	parsed, err := v.parse(token, keySet)
	if err != nil {
		// Keys rotate; retry once with a fresh set when the signing key is unknown
		var verifyErr error
		if keySet, verifyErr = v.keys(ctx, true); verifyErr == nil {
			parsed, err = v.parse(token, keySet)
		}
		if err != nil {
			logging.From(ctx).Debug("ID token rejected", "error", err)
			return nil, goerr.Wrap(errors.Join(ErrInvalidToken, err), "failed to verify ID token")
		}
	}

	uid := parsed.Subject()
	if uid == "" {
		return nil, goerr.Wrap(ErrInvalidToken, "ID token has no subject")
	}

	v.cache.set(token, uid, parsed.Expiration())
	return model.Authenticated{UserID: uid}, nil
}
