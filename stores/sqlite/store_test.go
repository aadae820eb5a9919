package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"printstudio/core"
)

func newTestStore(t *testing.T) *sqliteStore {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "test.db"))
}

func newDesign(ownerID, id string) *core.Design {
	return &core.Design{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Gift",
		TemplateID:  "mug-11oz",
		ColorChoice: "#ffffff",
		SceneData:   []byte(`{"version":1}`),
		Preview:     []byte{0x89, 0x50},
	}
}

func TestShare_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	payload := `{"version":1,"objects":[]}`
	id, err := store.Create(ctx, &core.Share{Data: *bytes.NewBufferString(payload)})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	share, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if share.Data.String() != payload {
		t.Errorf("payload mismatch: got %s", share.Data.String())
	}

	if _, err := store.FindID(ctx, "missing"); err == nil {
		t.Error("expected error for missing share")
	}
}

func TestDesign_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, newDesign("alice", "d1")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	d, err := store.Get(ctx, "alice", "d1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if d.Name != "Gift" || d.TemplateID != "mug-11oz" {
		t.Errorf("record mismatch: %+v", d)
	}
	if !bytes.Equal(d.SceneData, []byte(`{"version":1}`)) {
		t.Error("scene payload lost in round trip")
	}
	if !bytes.Equal(d.Preview, []byte{0x89, 0x50}) {
		t.Error("preview payload lost in round trip")
	}
}

func TestDesign_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.Save(ctx, newDesign("alice", "d1"))
	update := newDesign("alice", "d1")
	update.Name = "Renamed"
	if err := store.Save(ctx, update); err != nil {
		t.Fatalf("update Save() failed: %v", err)
	}

	d, _ := store.Get(ctx, "alice", "d1")
	if d.Name != "Renamed" {
		t.Errorf("update not applied: %s", d.Name)
	}

	designs, _ := store.List(ctx, "alice")
	if len(designs) != 1 {
		t.Errorf("update created a second row: %d", len(designs))
	}
}

func TestDesign_OwnerIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Save(ctx, newDesign("alice", "d1"))

	if _, err := store.Get(ctx, "bob", "d1"); err == nil {
		t.Error("Get() crossed owner boundary")
	}
	designs, err := store.List(ctx, "bob")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(designs) != 0 {
		t.Errorf("List() crossed owner boundary: %d rows", len(designs))
	}
}

func TestDesign_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Save(ctx, newDesign("alice", "d1"))

	if err := store.Delete(ctx, "alice", "d1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "alice", "d1"); err == nil {
		t.Error("design survived delete")
	}
}
