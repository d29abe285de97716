package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/guideon/internal/domain"
)

// Store implements domain.ContentSource, domain.RotationStore and
// domain.ChatLogStore on a single Firestore client.
//
// Layout:
//
//	quotes/{id}                       themed quotes
//	verses/{id}                       themed verses
//	users/{uid}/rotation/{kind_theme} rotation cursors
//	users/{uid}/chats/{YYYY-MM-DD}    daily conversation logs
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for projectID.
// The caller owns the store and must Close it once.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client (e.g. one pointed at the emulator).
func NewStoreWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) itemsCol(kind domain.ItemKind) *firestore.CollectionRef {
	return s.client.Collection(kind.Collection())
}

func (s *Store) userDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(string(userID))
}

func (s *Store) rotationDoc(userID domain.UserID, key domain.RotationKey) *firestore.DocumentRef {
	return s.userDoc(userID).Collection("rotation").Doc(key.DocID())
}

func (s *Store) chatsCol(userID domain.UserID) *firestore.CollectionRef {
	return s.userDoc(userID).Collection("chats")
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
