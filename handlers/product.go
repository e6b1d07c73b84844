package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/models"
	"github.com/ray-remotestate/restro/utils"
)

func ListProducts(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}

	var (
		products []models.Product
		err      error
	)
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			http.Error(w, "invalid category_id", http.StatusBadRequest)
			return
		}
		if _, err := dbhelper.GetCategory(r.Context(), categoryID, rid); err != nil {
			storeError(w, err, "category not found")
			return
		}
		products, err = dbhelper.ListProductsByCategory(r.Context(), categoryID, false)
	} else {
		products, err = dbhelper.ListProducts(r.Context(), rid)
	}
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, products)
}

func GetProduct(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := dbhelper.GetProduct(r.Context(), id, rid)
	if err != nil {
		storeError(w, err, "product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}

func CreateProduct(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}

	var req models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	id, err := dbhelper.CreateProduct(r.Context(), rid, req)
	if err != nil {
		storeError(w, err, "category not found")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"message": "Product created",
	})
}

func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := dbhelper.UpdateProduct(r.Context(), id, rid, req); err != nil {
		storeError(w, err, "product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Product updated",
	})
}

func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := dbhelper.DeleteProduct(r.Context(), id, rid); err != nil {
		storeError(w, err, "product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Product deleted",
	})
}

func ToggleProduct(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	available, err := dbhelper.ToggleProduct(r.Context(), id, rid)
	if err != nil {
		storeError(w, err, "product not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"id":           id,
		"is_available": available,
	})
}
