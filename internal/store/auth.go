package store

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	resty "github.com/go-resty/resty/v2"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	sheetsScope    = "https://www.googleapis.com/auth/spreadsheets"
	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionLifetime = time.Hour
	// refresh slightly early so an in-flight request never carries an
	// expired token
	expirySkew = time.Minute
)

type serviceAccountKey struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenSource mints Sheets API access tokens from a service account key by
// exchanging a signed JWT assertion at the OAuth token endpoint, caching the
// token until shortly before expiry.
type tokenSource struct {
	account serviceAccountKey
	signKey *rsa.PrivateKey
	http    *resty.Client
	now     func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(credentialsFile string, timeout time.Duration) (*tokenSource, error) {
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account key: %w", err)
	}

	var account serviceAccountKey
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode service account key: %w", err)
	}

	if account.ClientEmail == "" || account.PrivateKey == "" {
		return nil, fmt.Errorf("service account key is missing client_email or private_key")
	}

	if account.TokenURI == "" {
		account.TokenURI = "https://oauth2.googleapis.com/token"
	}

	signKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account private key: %w", err)
	}

	return &tokenSource{
		account: account,
		signKey: signKey,
		http:    resty.New().SetTimeout(timeout),
		now:     time.Now,
	}, nil
}

// Token returns a valid access token, minting a new one when the cached
// token is missing or about to expire.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiry.Add(-expirySkew)) {
		return s.token, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", err
	}

	var tok tokenResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": jwtBearerGrant,
			"assertion":  assertion,
		}).
		SetResult(&tok).
		Post(s.account.TokenURI)
	if err != nil {
		return "", fmt.Errorf("exchange token assertion: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("token endpoint returned %s: %s", resp.Status(), resp.String())
	}

	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	s.token = tok.AccessToken
	s.expiry = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	return s.token, nil
}

func (s *tokenSource) signAssertion() (string, error) {
	now := s.now()

	claims := jwt.MapClaims{
		"iss":   s.account.ClientEmail,
		"scope": sheetsScope,
		"aud":   s.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.signKey)
	if err != nil {
		return "", fmt.Errorf("sign token assertion: %w", err)
	}

	return assertion, nil
}
