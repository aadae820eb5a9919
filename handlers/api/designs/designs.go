package designs

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"printstudio/core"
	"printstudio/stores"
)

// OwnerHeader carries the storefront account id. The storefront gateway
// authenticates the customer and forwards the id; this service trusts it.
const OwnerHeader = "X-Owner-ID"

func ownerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(OwnerHeader))
}

func HandleList(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		if owner == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Owner id header is required"})
			return
		}

		designs, err := store.List(r.Context(), owner)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":   err,
				"ownerID": owner,
			}).Error("Failed to list designs")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list designs"})
			return
		}

		// If designs is nil (e.g., owner has no designs), return an empty slice instead of null.
		if designs == nil {
			designs = []*core.Design{}
		}

		render.JSON(w, r, designs)
	}
}

func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		if owner == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Owner id header is required"})
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Design id is required"})
			return
		}

		design, err := store.Get(r.Context(), owner, id)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"ownerID":  owner,
				"designID": id,
			}).Warn("Failed to get design")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Design not found"})
			return
		}

		render.JSON(w, r, designResponse{
			Design:    design,
			SceneData: design.SceneData,
		})
	}
}

// designResponse exposes the scene payload that core.Design keeps out of
// its own JSON form.
type designResponse struct {
	*core.Design
	SceneData []byte `json:"sceneData,omitempty"`
}

// HandleGetPreview serves the stored preview render as PNG.
func HandleGetPreview(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		if owner == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Owner id header is required"})
			return
		}

		id := chi.URLParam(r, "id")
		design, err := store.Get(r.Context(), owner, id)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Design not found"})
			return
		}
		if len(design.Preview) == 0 {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Design has no preview"})
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Write(design.Preview)
	}
}

func HandleDelete(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := ownerID(r)
		if owner == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Owner id header is required"})
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Design id is required"})
			return
		}

		if err := store.Delete(r.Context(), owner, id); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"ownerID":  owner,
				"designID": id,
			}).Error("Failed to delete design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to delete design"})
			return
		}

		render.Status(r, http.StatusOK)
	}
}
