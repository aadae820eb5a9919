package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"printstudio/core"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore creates a new SQLite-based store.
func NewStore(dataSourceName string) *sqliteStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	// Table for anonymous scene shares
	shareTableStmt := `CREATE TABLE IF NOT EXISTS shares (id TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(shareTableStmt); err != nil {
		log.Fatalf("failed to create shares table: %v", err)
	}

	// Table for user-owned design records
	designTableStmt := `
	CREATE TABLE IF NOT EXISTS designs (
		id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		name TEXT,
		template_id TEXT,
		color_choice TEXT,
		scene BLOB,
		preview BLOB,
		created_at DATETIME,
		updated_at DATETIME,
		PRIMARY KEY (owner_id, id)
	);`
	if _, err = db.Exec(designTableStmt); err != nil {
		log.Fatalf("failed to create designs table: %v", err)
	}

	return &sqliteStore{db}
}

// ShareStore implementation
func (s *sqliteStore) FindID(ctx context.Context, id string) (*core.Share, error) {
	log := logrus.WithField("share_id", id)
	log.Debug("Retrieving share by ID")
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM shares WHERE id = ?", id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Warn("Share with specified ID not found")
			return nil, fmt.Errorf("share with id %s not found", id)
		}
		log.WithError(err).Error("Failed to retrieve share")
		return nil, err
	}
	share := core.Share{
		Data: *bytes.NewBuffer(data),
	}
	log.Info("Share retrieved successfully")
	return &share, nil
}

func (s *sqliteStore) Create(ctx context.Context, share *core.Share) (string, error) {
	id := ulid.Make().String()
	data := share.Data.Bytes()
	log := logrus.WithFields(logrus.Fields{
		"share_id":    id,
		"data_length": len(data),
	})

	_, err := s.db.ExecContext(ctx, "INSERT INTO shares (id, data) VALUES (?, ?)", id, data)
	if err != nil {
		log.WithError(err).Error("Failed to create share")
		return "", err
	}
	log.Info("Share created successfully")
	return id, nil
}

// DesignStore implementation
func (s *sqliteStore) List(ctx context.Context, ownerID string) ([]*core.Design, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, template_id, color_choice, created_at, updated_at FROM designs WHERE owner_id = ?", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var designs []*core.Design
	for rows.Next() {
		var d core.Design
		d.OwnerID = ownerID
		if err := rows.Scan(&d.ID, &d.Name, &d.TemplateID, &d.ColorChoice, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		designs = append(designs, &d)
	}
	return designs, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, ownerID, id string) (*core.Design, error) {
	var d core.Design
	d.OwnerID = ownerID
	d.ID = id
	err := s.db.QueryRowContext(ctx,
		"SELECT name, template_id, color_choice, scene, preview, created_at, updated_at FROM designs WHERE owner_id = ? AND id = ?",
		ownerID, id,
	).Scan(&d.Name, &d.TemplateID, &d.ColorChoice, &d.SceneData, &d.Preview, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("design not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *sqliteStore) Save(ctx context.Context, design *core.Design) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	var exists bool
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM designs WHERE owner_id = ? AND id = ?", design.OwnerID, design.ID).Scan(&exists)

	now := time.Now()
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			"UPDATE designs SET name = ?, template_id = ?, color_choice = ?, scene = ?, preview = ?, updated_at = ? WHERE owner_id = ? AND id = ?",
			design.Name, design.TemplateID, design.ColorChoice, design.SceneData, design.Preview, now, design.OwnerID, design.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO designs (id, owner_id, name, template_id, color_choice, scene, preview, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			design.ID, design.OwnerID, design.Name, design.TemplateID, design.ColorChoice, design.SceneData, design.Preview, now, now)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStore) Delete(ctx context.Context, ownerID, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM designs WHERE owner_id = ? AND id = ?", ownerID, id)
	return err
}
