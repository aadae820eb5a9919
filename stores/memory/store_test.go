package memory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"printstudio/core"
)

func TestShare_RoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	payload := `{"version":1,"objects":[]}`
	id, err := store.Create(ctx, &core.Share{Data: *bytes.NewBufferString(payload)})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("id is not a ULID: got length %d", len(id))
	}

	share, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if share.Data.String() != payload {
		t.Errorf("payload mismatch: got %s", share.Data.String())
	}
}

func TestShare_NotFound(t *testing.T) {
	store := NewStore()
	if _, err := store.FindID(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing share")
	}
}

func newDesign(ownerID, id string) *core.Design {
	return &core.Design{
		ID:          id,
		OwnerID:     ownerID,
		Name:        "Gift",
		TemplateID:  "tshirt-classic",
		ColorChoice: "#ffffff",
		SceneData:   []byte(`{"version":1}`),
		Preview:     []byte{1, 2, 3},
	}
}

func TestDesign_SaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, newDesign("alice", "d1")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	d, err := store.Get(ctx, "alice", "d1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if d.Name != "Gift" || len(d.SceneData) == 0 || len(d.Preview) == 0 {
		t.Errorf("record mismatch: %+v", d)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		t.Error("timestamps not set on save")
	}
}

func TestDesign_SaveRejectsMissingKeys(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, &core.Design{ID: "d1"}); err == nil {
		t.Error("expected error for empty owner")
	}
	if err := store.Save(ctx, &core.Design{OwnerID: "alice"}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestDesign_UpdatePreservesCreatedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := newDesign("alice", "d1")
	store.Save(ctx, first)
	created := first.CreatedAt

	time.Sleep(5 * time.Millisecond)
	update := newDesign("alice", "d1")
	update.Name = "Renamed"
	store.Save(ctx, update)

	d, _ := store.Get(ctx, "alice", "d1")
	if d.Name != "Renamed" {
		t.Errorf("update not applied: %s", d.Name)
	}
	if !d.CreatedAt.Equal(created) {
		t.Error("CreatedAt changed on update")
	}
	if !d.UpdatedAt.After(created) {
		t.Error("UpdatedAt not advanced on update")
	}
}

func TestDesign_OwnerIsolation(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.Save(ctx, newDesign("alice", "d1"))

	if _, err := store.Get(ctx, "bob", "d1"); err == nil {
		t.Error("Get() crossed owner boundary")
	}
	if err := store.Delete(ctx, "bob", "d1"); err == nil {
		t.Error("Delete() crossed owner boundary")
	}
	if _, err := store.Get(ctx, "alice", "d1"); err != nil {
		t.Errorf("owner's own design unreachable: %v", err)
	}
}

func TestDesign_ListOmitsPayloads(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.Save(ctx, newDesign("alice", "d1"))
	store.Save(ctx, newDesign("alice", "d2"))

	designs, err := store.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(designs) != 2 {
		t.Fatalf("list length mismatch: got %d", len(designs))
	}
	for _, d := range designs {
		if d.SceneData != nil || d.Preview != nil {
			t.Errorf("list view carries heavy payloads: %s", d.ID)
		}
	}

	empty, err := store.List(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty list for unknown owner: %v, %d", err, len(empty))
	}
}

func TestDesign_Delete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	store.Save(ctx, newDesign("alice", "d1"))

	if err := store.Delete(ctx, "alice", "d1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "alice", "d1"); err == nil {
		t.Error("design survived delete")
	}
	if err := store.Delete(ctx, "alice", "d1"); err == nil {
		t.Error("expected error deleting twice")
	}
}
