package pos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/google/uuid"
)

func cartKey(registerID string) string { return "pos:" + registerID + ":cart" }
func modsKey(registerID string) string { return "pos:" + registerID + ":item_modifications" }

// lineMeta is the per-line notes and modifications, stored apart from the cart blob.
type lineMeta struct {
	Notes         string   `json:"notes,omitempty"`
	Modifications []string `json:"modifications"`
}

// storedCart and storedMeta carry the same revision. Metadata whose revision
// does not match the cart belongs to another save and is ignored.
type storedCart struct {
	*cart.Draft
	Revision string `json:"meta_revision"`
}

type storedMeta struct {
	Revision string     `json:"revision"`
	Lines    []lineMeta `json:"lines"`
}

// saveDraft writes the draft as two blobs: the per-line metadata first, then
// the cart without it. A failure between the writes leaves revisions that
// do not match, so a restore never pairs lines with another save's metadata.
func saveDraft(ctx context.Context, repo Repository, registerID string, d *cart.Draft) error {
	c := d.Clone()
	rev := uuid.NewString()
	meta := storedMeta{Revision: rev, Lines: make([]lineMeta, len(c.Items))}
	for i := range c.Items {
		meta.Lines[i] = lineMeta{Notes: c.Items[i].Notes, Modifications: c.Items[i].Modifications}
		c.Items[i].Notes = ""
		c.Items[i].Modifications = nil
	}

	metaBlob, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode item modifications: %w", err)
	}
	cartBlob, err := json.Marshal(storedCart{Draft: c, Revision: rev})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := repo.Put(ctx, modsKey(registerID), metaBlob); err != nil {
		return fmt.Errorf("save item modifications: %w", err)
	}
	if err := repo.Put(ctx, cartKey(registerID), cartBlob); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// loadDraft reads both blobs back. A register never saved yields an empty draft.
func loadDraft(ctx context.Context, repo Repository, registerID string) (*cart.Draft, error) {
	d := cart.NewDraft()

	cartBlob, err := repo.Get(ctx, cartKey(registerID))
	if errors.Is(err, ErrNotFound) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	stored := storedCart{Draft: d}
	if err := json.Unmarshal(cartBlob, &stored); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	metaBlob, err := repo.Get(ctx, modsKey(registerID))
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load item modifications: %w", err)
	default:
		var meta storedMeta
		if err := json.Unmarshal(metaBlob, &meta); err != nil {
			return nil, fmt.Errorf("decode item modifications: %w", err)
		}
		if meta.Revision != stored.Revision || len(meta.Lines) != len(d.Items) {
			break
		}
		for i := range d.Items {
			d.Items[i].Notes = meta.Lines[i].Notes
			d.Items[i].Modifications = meta.Lines[i].Modifications
		}
	}

	d.Normalize()
	d.MarkClean()
	return d, nil
}
