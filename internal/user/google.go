package user

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const (
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	googleIssuer  = "https://accounts.google.com"
)

type googleClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// googleTokenVerifier validates Google ID tokens against Google's published
// JWKS. Keys are refetched when a token arrives signed by an unknown kid,
// which covers Google's key rotation without a background refresher.
type googleTokenVerifier struct {
	clientID string
	keys     jwk.Set
	fetched  time.Time
}

func NewGoogleVerifier(clientID string) GoogleVerifier {
	return &googleTokenVerifier{clientID: clientID}
}

func (gv *googleTokenVerifier) Verify(idToken string) (*GoogleProfile, error) {
	claims := &googleClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, gv.keyFunc,
		jwt.WithIssuer(googleIssuer),
		jwt.WithAudience(gv.clientID),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify google token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("google token is not valid")
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("google token has no email claim")
	}

	return &GoogleProfile{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (gv *googleTokenVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token has no kid header")
	}

	key, err := gv.lookupKey(kid)
	if err != nil {
		return nil, err
	}

	var publicKey rsa.PublicKey
	if err := jwk.Export(key, &publicKey); err != nil {
		return nil, fmt.Errorf("failed to export google public key: %w", err)
	}
	return &publicKey, nil
}

func (gv *googleTokenVerifier) lookupKey(kid string) (jwk.Key, error) {
	if gv.keys != nil {
		if key, ok := gv.keys.LookupKeyID(kid); ok {
			return key, nil
		}
	}

	// Unknown kid, refetch at most once per minute.
	if time.Since(gv.fetched) < time.Minute {
		return nil, fmt.Errorf("unknown google signing key %s", kid)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	set, err := jwk.Fetch(ctx, googleJWKSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google JWKS: %w", err)
	}
	gv.keys = set
	gv.fetched = time.Now()

	key, ok := gv.keys.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("unknown google signing key %s", kid)
	}
	return key, nil
}
