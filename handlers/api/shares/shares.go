package shares

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"printstudio/core"
	"printstudio/stores"
)

type CreateResponse struct {
	ID string `json:"id"`
}

// HandleCreate stores an anonymous serialized scene and returns the id
// used to build a share link.
func HandleCreate(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to read share payload")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if len(body) == 0 {
			http.Error(w, "Share payload must not be empty", http.StatusBadRequest)
			return
		}

		share := core.Share{
			Data: *bytes.NewBuffer(body),
		}
		id, err := store.Create(r.Context(), &share)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to create share")
			http.Error(w, "Failed to create share", http.StatusInternalServerError)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{ID: id})
	}
}

// HandleGet returns a shared scene payload by id.
func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "Share id is required", http.StatusBadRequest)
			return
		}

		share, err := store.FindID(r.Context(), id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"share_id": id,
			}).Warn("Failed to get share")
			http.Error(w, "Share not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(share.Data.Bytes())
	}
}
