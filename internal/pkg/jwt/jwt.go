package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimUserID     = "user_id"
	ClaimDepartment = "department"
	ClaimType       = "type"

	TokenTypeAccess = "access"
)

var (
	ErrWrongTokenType = errors.New("token is not an access token")
	ErrMissingUserID  = errors.New("token has no user_id claim")
)

type Service interface {
	GenerateAccessToken(userID string, department string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) (Service, error) {
	expDuration, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration %q: %w", accessTokenExpirationTime, err)
	}
	return &JWTService{
		accessTokenExpiration: expDuration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}, nil
}

func (j *JWTService) GenerateAccessToken(userID string, department string) (token string, expiresAt int64, err error) {
	if userID == "" {
		return "", 0, ErrMissingUserID
	}
	issuedAt := j.now()
	expiresAt = issuedAt.Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		ClaimUserID: userID,
		ClaimType:   TokenTypeAccess,
		"iat":       issuedAt.Unix(),
		"exp":       expiresAt,
	}
	if department != "" {
		claims[ClaimDepartment] = department
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// UserIDFromClaims returns the user id of a verified access token's claims.
func UserIDFromClaims(claims map[string]interface{}) (string, error) {
	tokenType, ok := claims[ClaimType].(string)
	if !ok || tokenType != TokenTypeAccess {
		return "", ErrWrongTokenType
	}
	userID, ok := claims[ClaimUserID].(string)
	if !ok || userID == "" {
		return "", ErrMissingUserID
	}
	return userID, nil
}
