package utils

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/restro/config"
	"github.com/ray-remotestate/restro/middlewares"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	passwordCost      = 12
	MinPasswordLength = 6
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,}$`)

func GenerateTokens(restaurantID int64, slug string) (accessToken string, refreshToken string, err error) {
	accessToken, err = GenerateAccessToken(restaurantID, slug)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = signToken(restaurantID, slug, middlewares.TokenRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func GenerateAccessToken(restaurantID int64, slug string) (string, error) {
	return signToken(restaurantID, slug, middlewares.TokenAccess, AccessTokenTTL)
}

func signToken(restaurantID int64, slug, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &middlewares.Claims{
		RestaurantID: restaurantID,
		Slug:         slug,
		Type:         tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(restaurantID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.SecretKey)
}

func HashPassword(pw string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pw), passwordCost)
	return string(bytes), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func ValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func SetRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  expires,
	})
}

func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}
