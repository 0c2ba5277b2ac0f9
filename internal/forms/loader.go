package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"aeroform-backend/internal/store"
)

// LoadAll reads all form definitions from the database and populates the
// registry. Definitions that fail to decode are skipped with a warning
// so one corrupt row cannot take every form offline.
func LoadAll(ctx context.Context, q store.Querier, reg *Registry) error {
	rows, err := q.QueryContext(ctx, "SELECT id, definition FROM _forms ORDER BY title")
	if err != nil {
		return fmt.Errorf("load forms: %w", err)
	}
	defer rows.Close()

	var loaded []*Form
	for rows.Next() {
		var id string
		var defJSON []byte
		if err := rows.Scan(&id, &defJSON); err != nil {
			return fmt.Errorf("scan form row: %w", err)
		}

		var form Form
		if err := json.Unmarshal(defJSON, &form); err != nil {
			log.Printf("WARN: skipping form %s (invalid JSON): %v", id, err)
			continue
		}
		form.ID = id // the row id is authoritative
		loaded = append(loaded, &form)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate form rows: %w", err)
	}

	reg.Load(loaded)
	log.Printf("Loaded %d form definitions into registry", len(loaded))
	return nil
}

// Reload is an alias for LoadAll, called after builder mutations.
func Reload(ctx context.Context, q store.Querier, reg *Registry) error {
	return LoadAll(ctx, q, reg)
}
