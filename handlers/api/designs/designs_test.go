package designs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"printstudio/core"
)

// Mock store for testing
type mockStore struct {
	mu      sync.RWMutex
	designs map[string]map[string]*core.Design
	shares  map[string]*core.Share
	listErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		designs: make(map[string]map[string]*core.Design),
		shares:  make(map[string]*core.Share),
	}
}

func (m *mockStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shares[id]
	if !ok {
		return nil, fmt.Errorf("share with id %s not found", id)
	}
	return s, nil
}

func (m *mockStore) Create(ctx context.Context, share *core.Share) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("mock-share-%d", len(m.shares))
	m.shares[id] = share
	return id, nil
}

func (m *mockStore) List(ctx context.Context, ownerID string) ([]*core.Design, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*core.Design
	for _, d := range m.designs[ownerID] {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockStore) Get(ctx context.Context, ownerID, id string) (*core.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.designs[ownerID][id]
	if !ok {
		return nil, fmt.Errorf("design with id %s not found", id)
	}
	return d, nil
}

func (m *mockStore) Save(ctx context.Context, design *core.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned, ok := m.designs[design.OwnerID]
	if !ok {
		owned = make(map[string]*core.Design)
		m.designs[design.OwnerID] = owned
	}
	design.UpdatedAt = time.Now()
	owned[design.ID] = design
	return nil
}

func (m *mockStore) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.designs[ownerID][id]; !ok {
		return fmt.Errorf("design with id %s not found", id)
	}
	delete(m.designs[ownerID], id)
	return nil
}

func seedDesign(store *mockStore, ownerID, id string) *core.Design {
	d := &core.Design{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Test Design",
		TemplateID:  "tshirt-classic",
		ColorChoice: "#ffffff",
		SceneData:   []byte(`{"version":1}`),
		Preview:     []byte{0x89, 0x50, 0x4e, 0x47},
	}
	store.Save(context.Background(), d)
	return d
}

func newRouter(store *mockStore) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/designs", HandleList(store))
	r.Get("/designs/{id}", HandleGet(store))
	r.Get("/designs/{id}/preview", HandleGetPreview(store))
	r.Delete("/designs/{id}", HandleDelete(store))
	return r
}

func TestHandleList_RequiresOwner(t *testing.T) {
	r := newRouter(newMockStore())
	req := httptest.NewRequest(http.MethodGet, "/designs", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status mismatch: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestHandleList_EmptyIsJSONArray(t *testing.T) {
	r := newRouter(newMockStore())
	req := httptest.NewRequest(http.MethodGet, "/designs", nil)
	req.Header.Set(OwnerHeader, "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d", rec.Code)
	}
	var got []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %d entries", len(got))
	}
}

func TestHandleGet_Success(t *testing.T) {
	store := newMockStore()
	seedDesign(store, "alice", "d1")
	r := newRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/designs/d1", nil)
	req.Header.Set(OwnerHeader, "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d", rec.Code)
	}
	var got struct {
		ID        string          `json:"id"`
		SceneData json.RawMessage `json:"sceneData"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "d1" {
		t.Errorf("id mismatch: got %s", got.ID)
	}
	if len(got.SceneData) == 0 {
		t.Error("scene payload missing from response")
	}
}

func TestHandleGet_OwnerIsolation(t *testing.T) {
	store := newMockStore()
	seedDesign(store, "alice", "d1")
	r := newRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/designs/d1", nil)
	req.Header.Set(OwnerHeader, "bob")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("another owner's design was served: status %d", rec.Code)
	}
}

func TestHandleGetPreview(t *testing.T) {
	store := newMockStore()
	seedDesign(store, "alice", "d1")
	r := newRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/designs/d1/preview", nil)
	req.Header.Set(OwnerHeader, "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type mismatch: got %s", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty preview body")
	}
}

func TestHandleDelete(t *testing.T) {
	store := newMockStore()
	seedDesign(store, "alice", "d1")
	r := newRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/designs/d1", nil)
	req.Header.Set(OwnerHeader, "alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: got %d", rec.Code)
	}
	if _, err := store.Get(context.Background(), "alice", "d1"); err == nil {
		t.Error("design survived delete")
	}
}
