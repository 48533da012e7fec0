package cart

import (
	"context"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/cartengine/pkg/errors"
	"github.com/angelmondragon/cartengine/pkg/models"
)

// MemoryRepository keeps carts in process. A single RWMutex guards the
// primary index and the share-token index so both change atomically.
type MemoryRepository struct {
	mu      sync.RWMutex
	carts   map[string]*models.Cart
	byToken map[string]string
}

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts:   make(map[string]*models.Cart),
		byToken: make(map[string]string),
	}
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.carts[userID].Clone(), nil
}

// Save upserts cart. A share token already bound to another user is
// rejected with CodeConflict; a token the user previously held is dropped.
func (r *MemoryRepository) Save(ctx context.Context, cart *models.Cart) error {
	if cart == nil || cart.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart with user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cart.ShareToken != nil {
		if owner, ok := r.byToken[*cart.ShareToken]; ok && owner != cart.UserID {
			return pkgerrors.New(pkgerrors.CodeConflict, "share token already in use")
		}
	}
	if prev, ok := r.carts[cart.UserID]; ok && prev.ShareToken != nil {
		if cart.ShareToken == nil || *cart.ShareToken != *prev.ShareToken {
			delete(r.byToken, *prev.ShareToken)
		}
	}
	if cart.ShareToken != nil {
		r.byToken[*cart.ShareToken] = cart.UserID
	}
	r.carts[cart.UserID] = cart.Clone()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.carts[userID]; ok && prev.ShareToken != nil {
		delete(r.byToken, *prev.ShareToken)
	}
	delete(r.carts, userID)
	return nil
}

func (r *MemoryRepository) GetByShareToken(ctx context.Context, token string) (*models.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.byToken[token]
	if !ok {
		return nil, nil
	}
	return r.carts[userID].Clone(), nil
}

// ListExpired returns carts whose expiry lies before now and that are not
// already expired or checked out.
func (r *MemoryRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Cart, error) {
	r.mu.RLock()
	out := make([]*models.Cart, 0)
	for _, cart := range r.carts {
		if cart.Status.IsTerminal() || !cart.IsExpired(now) {
			continue
		}
		out = append(out, cart.Clone())
	}
	r.mu.RUnlock()
	sortByUser(out)
	return out, nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Cart, error) {
	r.mu.RLock()
	out := make([]*models.Cart, 0, len(r.carts))
	for _, cart := range r.carts {
		out = append(out, cart.Clone())
	}
	r.mu.RUnlock()
	sortByUser(out)
	return out, nil
}

func sortByUser(carts []*models.Cart) {
	sort.Slice(carts, func(i, j int) bool { return carts[i].UserID < carts[j].UserID })
}
