// Package sessions exposes live editor sessions over HTTP. A session is
// created against a product template, mutated through the endpoints below,
// and torn down explicitly; every mutation is fanned out to watching
// clients through the events hub.
package sessions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"printstudio/core"
	"printstudio/editor"
	"printstudio/handlers/api/designs"
	"printstudio/handlers/api/templates"
	"printstudio/scene"
	"printstudio/stores"
)

// Broadcaster fans a session's change notifications out to its watchers.
type Broadcaster interface {
	Broadcast(sessionID string, payload any)
}

type (
	CreateSessionRequest struct {
		TemplateID string `json:"templateId"`
	}

	CreateSessionResponse struct {
		ID       string               `json:"id"`
		Template core.ProductTemplate `json:"template"`
	}

	// SessionState is the full snapshot the storefront renders from.
	SessionState struct {
		ID           string               `json:"id"`
		Template     core.ProductTemplate `json:"template"`
		MockupColor  string               `json:"mockupColor"`
		GuideVisible bool                 `json:"guideVisible"`
		Selection    string               `json:"selection,omitempty"`
		Objects      []*core.SceneObject  `json:"objects"`
	}

	AddTextRequest struct {
		Content string `json:"content"`
	}

	AddShapeRequest struct {
		Variant core.ShapeVariant `json:"variant"`
	}

	AddObjectResponse struct {
		ID string `json:"id"`
	}

	PointerRequest struct {
		Phase string  `json:"phase"` // "down" | "move" | "up"
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}

	SetTemplateRequest struct {
		TemplateID string `json:"templateId"`
	}

	SetColorRequest struct {
		Color string `json:"color"`
	}

	SetGuideRequest struct {
		Visible bool `json:"visible"`
	}

	ReorderRequest struct {
		Direction scene.Direction `json:"direction"`
	}

	SetVisibilityRequest struct {
		Visible bool `json:"visible"`
	}

	SetLockRequest struct {
		Locked bool `json:"locked"`
	}

	SaveDesignRequest struct {
		// ID overwrites an existing design; empty creates a new record.
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	}

	LoadSceneRequest struct {
		TemplateID string          `json:"templateId"`
		SceneData  json.RawMessage `json:"sceneData"`
	}
)

// changePayload is what scene-update events carry to watchers.
type changePayload struct {
	Op string `json:"op"`
	ID string `json:"id,omitempty"`
}

func sessionFrom(manager *editor.Manager, w http.ResponseWriter, r *http.Request) (*editor.Editor, string, bool) {
	id := chi.URLParam(r, "sessionID")
	ed, err := manager.Get(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Session not found"})
		return nil, "", false
	}
	return ed, id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logrus.WithField("error", err).Error("Failed to decode request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// HandleCreate opens a new editor session mounted on a catalog template.
func HandleCreate(manager *editor.Manager, catalog *templates.Catalog, hub Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		t, ok := catalog.Get(req.TemplateID)
		if !ok {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Template not found"})
			return
		}

		id, ed, err := manager.Create(t)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"template": req.TemplateID,
			}).Error("Failed to create session")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create session"})
			return
		}

		if hub != nil {
			sessionID := id
			ed.Subscribe(func(c scene.Change) {
				hub.Broadcast(sessionID, changePayload{Op: string(c.Op), ID: c.ID})
			})
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateSessionResponse{ID: id, Template: t})
	}
}

// HandleGetState returns the full session snapshot.
func HandleGetState(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, id, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		render.JSON(w, r, SessionState{
			ID:           id,
			Template:     ed.Template(),
			MockupColor:  ed.MockupColor(),
			GuideVisible: ed.GuideVisible(),
			Selection:    ed.Selection(),
			Objects:      ed.Objects(),
		})
	}
}

// HandleClose tears the session down.
func HandleClose(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		manager.Close(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSetTemplate switches the session to another catalog template,
// preserving and re-clamping placed objects.
func HandleSetTemplate(manager *editor.Manager, catalog *templates.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req SetTemplateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		t, found := catalog.Get(req.TemplateID)
		if !found {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Template not found"})
			return
		}
		if err := ed.SetTemplate(t); err != nil {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusOK)
	}
}

// HandleSetColor changes the cosmetic mockup color.
func HandleSetColor(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req SetColorRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ed.SetMockupColor(req.Color)
		render.Status(r, http.StatusOK)
	}
}

// HandleSetGuide toggles the print-area guide overlay.
func HandleSetGuide(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req SetGuideRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ed.ShowGuide(req.Visible)
		render.Status(r, http.StatusOK)
	}
}

// HandleAddText places a new text object.
func HandleAddText(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req AddTextRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			http.Error(w, "Text content must not be empty", http.StatusBadRequest)
			return
		}
		id := ed.AddText(req.Content)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, AddObjectResponse{ID: id})
	}
}

// HandleAddShape places a new shape object.
func HandleAddShape(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req AddShapeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		id := ed.AddShape(req.Variant)
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, AddObjectResponse{ID: id})
	}
}

// uploadLimit caps image uploads at 20 MiB.
const uploadLimit = 20 << 20

// HandleAddImage decodes an uploaded image and places it scaled into the
// print area. The body is the raw image bytes.
func HandleAddImage(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, id, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, uploadLimit+1))
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusInternalServerError)
			return
		}
		defer r.Body.Close()
		if len(data) > uploadLimit {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}

		objectID, err := ed.AddImage(data)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"session_id": id,
			}).Warn("Rejected image upload")
			http.Error(w, "Unsupported or corrupt image", http.StatusUnprocessableEntity)
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, AddObjectResponse{ID: objectID})
	}
}

// HandlePointer feeds one pointer event into the session's drag protocol.
func HandlePointer(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req PointerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		switch req.Phase {
		case "down":
			ed.PointerDown(req.X, req.Y)
		case "move":
			ed.PointerMove(req.X, req.Y)
		case "up":
			ed.PointerUp()
		default:
			http.Error(w, "Pointer phase must be down, move or up", http.StatusBadRequest)
			return
		}
		render.JSON(w, r, map[string]string{"selection": ed.Selection()})
	}
}

// HandleSelect sets the selection from a layer list.
func HandleSelect(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		ed.Select(chi.URLParam(r, "objectID"))
		render.JSON(w, r, map[string]string{"selection": ed.Selection()})
	}
}

// HandleClearSelection deselects.
func HandleClearSelection(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		ed.ClearSelection()
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetPanel returns the property panel view for an object.
func HandleGetPanel(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		st, found := ed.PanelState(chi.URLParam(r, "objectID"))
		if !found {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Object not found"})
			return
		}
		render.JSON(w, r, st)
	}
}

// HandleUpdateStyle applies a style patch; fields that do not apply to the
// object's kind are ignored.
func HandleUpdateStyle(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var patch scene.StylePatch
		if !decodeBody(w, r, &patch) {
			return
		}
		ed.UpdateStyle(chi.URLParam(r, "objectID"), patch)
		render.Status(r, http.StatusOK)
	}
}

// HandleUpdateTransform applies a requested transform; the stored value is
// clamped into the print area.
func HandleUpdateTransform(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var t core.Transform
		if !decodeBody(w, r, &t) {
			return
		}
		ed.UpdateTransform(chi.URLParam(r, "objectID"), t)
		render.Status(r, http.StatusOK)
	}
}

// HandleDuplicate clones an object directly above the original.
func HandleDuplicate(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		id := ed.Duplicate(chi.URLParam(r, "objectID"))
		if id == "" {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Object not found"})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, AddObjectResponse{ID: id})
	}
}

// HandleDeleteObject removes an object from the scene.
func HandleDeleteObject(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		ed.Delete(chi.URLParam(r, "objectID"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleReorder moves an object through the z-order.
func HandleReorder(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req ReorderRequest
		if !decodeBody(w, r, &req) {
			return
		}
		switch req.Direction {
		case scene.Forward, scene.Backward, scene.ToFront, scene.ToBack:
		default:
			http.Error(w, "Invalid reorder direction", http.StatusBadRequest)
			return
		}
		ed.Reorder(chi.URLParam(r, "objectID"), req.Direction)
		render.Status(r, http.StatusOK)
	}
}

// HandleSetVisibility toggles rendering of an object.
func HandleSetVisibility(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req SetVisibilityRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ed.SetVisible(chi.URLParam(r, "objectID"), req.Visible)
		render.Status(r, http.StatusOK)
	}
}

// HandleSetLock toggles the lock flag of an object.
func HandleSetLock(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req SetLockRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ed.SetLocked(chi.URLParam(r, "objectID"), req.Locked)
		render.Status(r, http.StatusOK)
	}
}

// HandleExport rasterizes the scene to PNG at the requested multiplier and
// serves it as a download.
func HandleExport(manager *editor.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, id, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		multiplier := 1.0
		if raw := r.URL.Query().Get("multiplier"); raw != "" {
			m, err := strconv.ParseFloat(raw, 64)
			if err != nil || m <= 0 {
				http.Error(w, "Multiplier must be a positive number", http.StatusBadRequest)
				return
			}
			multiplier = m
		}

		png, err := ed.ExportPreview(multiplier)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"session_id": id,
			}).Error("Failed to export scene")
			http.Error(w, "Failed to export scene", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ed.ExportFileName()))
		w.Write(png)
	}
}

// HandleSaveDesign persists the session as a design record owned by the
// requesting customer.
func HandleSaveDesign(manager *editor.Manager, store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, sessionID, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		owner := strings.TrimSpace(r.Header.Get(designs.OwnerHeader))
		if owner == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Owner id header is required"})
			return
		}
		var req SaveDesignRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			req.Name = ed.Template().Name
		}

		design, err := ed.BuildDesign(owner, req.Name, 1)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"session_id": sessionID,
			}).Error("Failed to build design record")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to build design record"})
			return
		}
		design.ID = req.ID
		if design.ID == "" {
			design.ID = ulid.Make().String()
		}

		if err := store.Save(r.Context(), design); err != nil {
			logrus.WithFields(logrus.Fields{
				"error":    err,
				"ownerID":  owner,
				"designID": design.ID,
			}).Error("Failed to save design")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to save design"})
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, design)
	}
}

// HandleShare serializes the scene and stores it as an anonymous share,
// returning the share id.
func HandleShare(manager *editor.Manager, store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, sessionID, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		data, err := ed.SerializedScene()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":      err,
				"session_id": sessionID,
			}).Error("Failed to serialize scene")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to serialize scene"})
			return
		}
		share := core.Share{Data: *bytes.NewBuffer(data)}
		id, err := store.Create(r.Context(), &share)
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to create share"})
			return
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"id": id})
	}
}

// HandleLoadScene replaces the session's scene with a serialized
// descriptor, optionally switching templates first.
func HandleLoadScene(manager *editor.Manager, catalog *templates.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, _, ok := sessionFrom(manager, w, r)
		if !ok {
			return
		}
		var req LoadSceneRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.SceneData) == 0 {
			http.Error(w, "Scene data is required", http.StatusBadRequest)
			return
		}
		t := ed.Template()
		if req.TemplateID != "" {
			loaded, found := catalog.Get(req.TemplateID)
			if !found {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Template not found"})
				return
			}
			t = loaded
		}
		if err := ed.LoadSerializedScene(req.SceneData, t); err != nil {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.Status(r, http.StatusOK)
	}
}
