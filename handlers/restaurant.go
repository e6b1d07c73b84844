package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database"
	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/middlewares"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/utils"
)

const statsHistoryDays = 30

func restaurantID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims, err := middlewares.GetAuthenticatedRestaurant(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return claims.RestaurantID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// storeError maps repository errors onto responses; anything unexpected is logged.
func storeError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, database.ErrNoRows):
		http.Error(w, notFound, http.StatusNotFound)
	case errors.Is(err, dbhelper.ErrInvalidProduct):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logrus.WithError(err).Error("storage request failed")
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func menuURL(r *http.Request, slug string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + "/menu/" + slug
}

func Dashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	restaurant, err := dbhelper.GetRestaurantByID(ctx, id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	categories, err := dbhelper.CountCategories(ctx, id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	products, err := dbhelper.CountProducts(ctx, id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	stats, err := database.Restro.RestaurantStats(ctx, id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, models.Dashboard{
		Restaurant:    restaurant.Public(),
		CategoryCount: categories,
		ProductCount:  products,
		MenuURL:       menuURL(r, restaurant.Slug),
		Stats:         stats,
	})
}

func Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}

	stats, err := database.Restro.RestaurantStats(r.Context(), id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	history, err := dbhelper.ListStatistics(r.Context(), id, statsHistoryDays)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"stats":   stats,
		"history": history,
	})
}

func QRCode(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}
	restaurant, err := dbhelper.GetRestaurantByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"menu_url": menuURL(r, restaurant.Slug),
		"qr_url":   menuURL(r, restaurant.Slug) + "?source=qr",
	})
}

func GetSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}
	restaurant, err := dbhelper.GetRestaurantByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, restaurant)
}

func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}

	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	if err := dbhelper.UpdateSettings(r.Context(), id, req); err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Settings updated",
	})
}

func ChangePassword(w http.ResponseWriter, r *http.Request) {
	type request struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}

	id, ok := restaurantID(w, r)
	if !ok {
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		http.Error(w, "new passwords do not match", http.StatusBadRequest)
		return
	}
	if len(req.NewPassword) < utils.MinPasswordLength {
		http.Error(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	restaurant, err := dbhelper.GetRestaurantByID(r.Context(), id)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	if !utils.CheckPassword(restaurant.Password, req.CurrentPassword) {
		http.Error(w, "current password is incorrect", http.StatusForbidden)
		return
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}
	if err := dbhelper.UpdatePassword(r.Context(), id, hashedPassword); err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed",
	})
}
