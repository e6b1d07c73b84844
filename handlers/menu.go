package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/database/dbhelper"
	"github.com/ray-remotestate/restro/utils"
)

// GetMenu serves the public menu. Visits are counted after the menu is built; a failed
// count never fails the page.
func GetMenu(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	menu, err := dbhelper.GetMenu(r.Context(), slug)
	if err != nil {
		storeError(w, err, "restaurant not found")
		return
	}

	fromQR := r.URL.Query().Get("source") == "qr"
	if err := dbhelper.RecordVisit(r.Context(), menu.Restaurant.ID, fromQR); err != nil {
		logrus.WithError(err).WithField("slug", slug).Warn("failed to record menu visit")
	}

	utils.RespondJSON(w, http.StatusOK, menu)
}
