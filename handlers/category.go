package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/utils"
)

func ListCategories(w http.ResponseWriter, r *http.Request) {
	id, ok := restaurantID(w, r)
	if !ok {
		return
	}
	categories, err := dbhelper.ListCategories(r.Context(), id, r.URL.Query().Get("active") == "true")
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, categories)
}

func GetCategory(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	category, err := dbhelper.GetCategory(r.Context(), id, rid)
	if err != nil {
		storeError(w, err, "category not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, category)
}

func decodeCategory(w http.ResponseWriter, r *http.Request) (models.CategoryInput, bool) {
	var req models.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func CreateCategory(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	req, ok := decodeCategory(w, r)
	if !ok {
		return
	}

	id, err := dbhelper.CreateCategory(r.Context(), rid, req)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": "Category created",
	})
}

func UpdateCategory(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeCategory(w, r)
	if !ok {
		return
	}

	if err := dbhelper.UpdateCategory(r.Context(), id, rid, req); err != nil {
		storeError(w, err, "category not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Category updated",
	})
}

func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := dbhelper.DeleteCategory(r.Context(), id, rid); err != nil {
		storeError(w, err, "category not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Category deleted",
	})
}
