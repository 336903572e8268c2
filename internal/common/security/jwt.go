package security

import (
	"encoding/json"
	"errors"
	"time"

	"family_ledger/internal/domain/model"
	"family_ledger/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a token for the given session. The sid claim keys the
// server-side session record; the projection claims are a fallback for
// consumers that only need display data.
func GenerateToken(sid string, session model.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":      sid,
		"user_id":  session.UserID,
		"username": session.Username,
		"role":     string(session.Role),
		"exp":      time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// GetSessionIDFromClaims extracts the sid claim.
func GetSessionIDFromClaims(claims map[string]interface{}) (string, error) {
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}

// GetUserIDFromClaims extracts the numeric user id claim. JWT decoding
// yields json.Number or float64 depending on the parser, so both are
// accepted.
func GetUserIDFromClaims(claims map[string]interface{}) (int64, error) {
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	}
	return 0, errors.New("user_id claim is missing or not a number")
}
