package relation

import (
	"context"

	"github.com/craftlink/server/model"
	"github.com/craftlink/server/social/store"
)

// Status describes one account's standing toward another, from the
// viewer's side.
type Status string

const (
	StatusFriend          Status = "friend"
	StatusRequestSent     Status = "request_sent"
	StatusRequestReceived Status = "request_received"
	StatusBlocked         Status = "blocked"    // viewer blocks the other
	StatusBlockedBy       Status = "blocked_by" // the other blocks the viewer
	StatusNotFriend       Status = "not_friend"
)

// Relation is the answer to "what is X to me". RequestID is set only for
// the two pending-request statuses, so callers can accept or cancel
// without a second lookup.
type Relation struct {
	Status    Status `json:"status"`
	RequestID int64  `json:"request_id,omitempty"`
}

// Service answers relationship status queries and user search.
type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

// Between resolves the viewer's relation to other. When several facts
// coexist the strongest wins: friendship first, then a pending request
// in either direction, then blocks, then nothing.
func (s *Service) Between(ctx context.Context, viewerID, otherID int64) (Relation, error) {
	if viewerID == otherID {
		return Relation{Status: StatusNotFriend}, nil
	}
	rel, err := s.store.FindRelationship(ctx, viewerID, otherID)
	if err != nil {
		return Relation{}, err
	}
	return resolve(viewerID, rel), nil
}

func resolve(viewerID int64, rel *store.Relationship) Relation {
	switch {
	case rel.Friendship != nil:
		return Relation{Status: StatusFriend}
	case rel.PendingRequest != nil && rel.PendingRequest.SenderID == viewerID:
		return Relation{Status: StatusRequestSent, RequestID: rel.PendingRequest.ID}
	case rel.PendingRequest != nil:
		return Relation{Status: StatusRequestReceived, RequestID: rel.PendingRequest.ID}
	case rel.BlockOut != nil:
		return Relation{Status: StatusBlocked}
	case rel.BlockIn != nil:
		return Relation{Status: StatusBlockedBy}
	default:
		return Relation{Status: StatusNotFriend}
	}
}

// UserWithRelation pairs a user profile with the viewer's relation to it.
type UserWithRelation struct {
	User     model.User `json:"user"`
	Relation Relation   `json:"relation"`
}

// Search finds active users whose name matches the query, annotated with
// the viewer's relation to each. Accounts that block the viewer are
// hidden from results.
func (s *Service) Search(ctx context.Context, viewerID int64, query string, offset, limit int) ([]UserWithRelation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := s.store.SearchUsers(ctx, viewerID, query, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]UserWithRelation, 0, len(users))
	for _, u := range users {
		rel, err := s.store.FindRelationship(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, UserWithRelation{User: u, Relation: resolve(viewerID, rel)})
	}
	return out, nil
}

// Discover suggests active users the viewer has no standing with at all.
func (s *Service) Discover(ctx context.Context, viewerID int64, offset, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.DiscoverableUsers(ctx, viewerID, offset, limit)
}
