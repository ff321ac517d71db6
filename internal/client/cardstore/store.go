// Package cardstore abstracts the local card collection the engine writes
// into. The engine only ever touches cards through this interface, so it can
// sit on top of any note storage that can address cards by GUID.
package cardstore

import "context"

// Store is the card access contract used by sync, conflict resolution and
// rollback.
//
// Contract:
//   - CardExists reports whether the GUID resolves inside the collection.
//   - GetField and SetField return common.ErrCardNotFound for unknown
//     GUIDs. GetField returns a models.ValidationError for a field the card
//     does not have; SetField creates the field.
//   - DeleteCard on an unknown GUID is a no-op.
type Store interface {
	CollectionExists(ctx context.Context, localRef string) (bool, error)
	CardExists(ctx context.Context, localRef, guid string) (bool, error)
	GetField(ctx context.Context, localRef, guid, field string) (string, error)
	SetField(ctx context.Context, localRef, guid, field, value string) error
	DeleteCard(ctx context.Context, localRef, guid string) error
	Tags(ctx context.Context, localRef, guid string) ([]string, error)
	SetTags(ctx context.Context, localRef, guid string, tags []string) error
}
