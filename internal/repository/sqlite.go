package repository

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dastanaron/xbelmarks/internal/icon"
	"github.com/dastanaron/xbelmarks/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements TreeRepository using SQLite
type SQLiteRepository struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// NewSQLiteRepository opens the database at dbPath and prepares the schema
func NewSQLiteRepository(dbPath string, log logrus.FieldLogger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, log: log}, nil
}

func initSchema(db *sql.DB) error {
	createTables := `
	CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent_id INTEGER,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		icon TEXT,
		folded INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY(parent_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id, position);
	`
	_, err := db.Exec(createTables)
	return err
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Save replaces the stored tree inside a single transaction
func (r *SQLiteRepository) Save(root *models.Node) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO nodes(parent_id, position, kind, title, description, url, icon, folded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var insert func(parent *models.Node, parentID *int64) error
	insert = func(parent *models.Node, parentID *int64) error {
		for pos, n := range parent.Children() {
			var iconData *string
			if n.Icon != nil {
				data, err := icon.Encode(n.Icon)
				if err != nil {
					r.log.WithError(err).WithField("url", n.URL).Warn("bookmark icon not stored")
				} else {
					iconData = &data
				}
			}

			res, err := stmt.Exec(parentID, pos, n.Kind.String(), n.Title, n.Description, n.URL, iconData, n.Folded)
			if err != nil {
				return fmt.Errorf("insert %s %q: %w", n.Kind, n.Title, err)
			}
			if n.IsFolder() {
				id, err := res.LastInsertId()
				if err != nil {
					return err
				}
				if err := insert(n, &id); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := insert(root, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// Load rebuilds the stored tree
func (r *SQLiteRepository) Load() (*models.Node, error) {
	rows, err := r.db.Query(`
		SELECT id, parent_id, kind, title, description, url, icon, folded
		FROM nodes
		ORDER BY parent_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type row struct {
		node     *models.Node
		parentID *int64
	}

	var all []row
	byID := make(map[int64]*models.Node)
	for rows.Next() {
		var (
			id       int64
			parentID *int64
			kind     string
			iconData *string
			n        models.Node
		)
		if err := rows.Scan(&id, &parentID, &kind, &n.Title, &n.Description, &n.URL, &iconData, &n.Folded); err != nil {
			return nil, err
		}
		if n.Kind, err = parseKind(kind); err != nil {
			return nil, err
		}
		if iconData != nil && *iconData != "" {
			img, err := icon.Decode(*iconData)
			if err != nil {
				r.log.WithError(err).WithField("id", id).Warn("dropping unreadable bookmark icon")
			} else {
				n.Icon = img
			}
		}

		node := &n
		byID[id] = node
		all = append(all, row{node: node, parentID: parentID})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	root := models.NewRoot()
	for _, rw := range all {
		parent := root
		if rw.parentID != nil {
			p, ok := byID[*rw.parentID]
			if !ok {
				return nil, fmt.Errorf("node %q references missing parent %d", rw.node.Title, *rw.parentID)
			}
			parent = p
		}
		if err := parent.Append(rw.node); err != nil {
			return nil, fmt.Errorf("attach %q: %w", rw.node.Title, err)
		}
	}
	return root, nil
}

func parseKind(s string) (models.Kind, error) {
	for _, k := range []models.Kind{models.KindFolder, models.KindLink, models.KindSeparator} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}
