package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/middlewares"
	"github.com/ray-remotestate/restro/utils"
)

func Register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name     string  `json:"name"`
		Slug     string  `json:"slug"`
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Phone    *string `json:"phone"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Slug = dbhelper.NormalizeSlug(req.Slug)
	req.Email = dbhelper.NormalizeEmail(req.Email)

	if req.Name == "" || req.Slug == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "all fields are required", http.StatusBadRequest)
		return
	}
	if len(req.Name) < 3 {
		http.Error(w, "name must be at least 3 characters", http.StatusBadRequest)
		return
	}
	if !utils.ValidSlug(req.Slug) {
		http.Error(w, "slug must be at least 3 letters, digits or dashes", http.StatusBadRequest)
		return
	}
	if !utils.ValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if len(req.Password) < utils.MinPasswordLength {
		http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	taken, err := dbhelper.IsEmailTaken(ctx, req.Email)
	if err != nil {
		logrus.WithError(err).Error("failed to check email")
		http.Error(w, "failed to check restaurant existence", http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}
	taken, err = dbhelper.IsSlugTaken(ctx, req.Slug)
	if err != nil {
		logrus.WithError(err).Error("failed to check slug")
		http.Error(w, "failed to check restaurant existence", http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "slug already taken", http.StatusConflict)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	restaurantID, err := dbhelper.CreateRestaurant(ctx, req.Name, req.Slug, req.Email, hashedPassword, req.Phone)
	if err != nil {
		logrus.WithError(err).Error("failed to create restaurant")
		http.Error(w, "failed to register restaurant", http.StatusInternalServerError)
		return
	}
	if err := dbhelper.CreateDefaultCategories(ctx, restaurantID); err != nil {
		logrus.WithError(err).WithField("restaurant_id", restaurantID).Warn("failed to create default categories")
	}

	accToken, refToken, err := utils.GenerateTokens(restaurantID, req.Slug)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	utils.SetRefreshCookie(w, refToken, time.Now().Add(utils.RefreshTokenTTL))

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"restaurant_id": restaurantID,
		"name":          req.Name,
		"slug":          req.Slug,
		"email":         req.Email,
		"access_token":  accToken,
	})
}

func RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("refresh_token")
	if err != nil {
		http.Error(w, "refresh token missing", http.StatusUnauthorized)
		return
	}

	claims, err := middlewares.ParseToken(cookie.Value, middlewares.TokenRefresh)
	if err != nil {
		http.Error(w, "invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	newAccessToken, newRefreshToken, err := utils.GenerateTokens(claims.RestaurantID, claims.Slug)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	utils.SetRefreshCookie(w, newRefreshToken, time.Now().Add(utils.RefreshTokenTTL))

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"access_token": newAccessToken,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	restaurant, err := dbhelper.GetRestaurantByPassword(r.Context(), req.Email, req.Password)
	if errors.Is(err, database.ErrNoRows) || errors.Is(err, dbhelper.ErrIncorrectPassword) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load restaurant")
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if !restaurant.IsActive {
		http.Error(w, "account disabled", http.StatusForbidden)
		return
	}

	accessToken, refreshToken, err := utils.GenerateTokens(restaurant.ID, restaurant.Slug)
	if err != nil {
		http.Error(w, "failed to generate tokens", http.StatusInternalServerError)
		return
	}

	if err := dbhelper.UpdateLastLogin(r.Context(), restaurant.ID); err != nil {
		logrus.WithError(err).WithField("restaurant_id", restaurant.ID).Warn("failed to update last login")
	}

	utils.SetRefreshCookie(w, refreshToken, time.Now().Add(utils.RefreshTokenTTL))
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"restaurant_id": restaurant.ID,
		"name":          restaurant.Name,
		"slug":          restaurant.Slug,
		"email":         restaurant.Email,
		"access_token":  accessToken,
		"message":       "Successfully logged in",
	})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	if claims, err := middlewares.GetAuthenticatedRestaurant(r); err == nil {
		if err := dbhelper.UpdateLastLogout(r.Context(), claims.RestaurantID); err != nil {
			logrus.WithError(err).WithField("restaurant_id", claims.RestaurantID).Warn("failed to update last logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}
