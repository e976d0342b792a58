package itemrequest

import (
	"context"
	"strings"

	"github.com/nekogravitycat/shareit-backend/internal/item"
)

type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AnswerLister finds the items listed in answer to requests.
type AnswerLister interface {
	ListByRequestIDs(ctx context.Context, requestIDs []string) ([]*item.Item, error)
}

type Service interface {
	Create(ctx context.Context, userID, description string) (*ItemRequest, error)
	ListOwn(ctx context.Context, userID string) ([]*ItemRequest, error)
	ListOthers(ctx context.Context, userID string) ([]*ItemRequest, error)
	Get(ctx context.Context, userID, id string) (*ItemRequest, error)
}

type service struct {
	repo    Repository
	users   UserDirectory
	answers AnswerLister
}

func NewService(repo Repository, users UserDirectory, answers AnswerLister) Service {
	return &service{repo: repo, users: users, answers: answers}
}

func (s *service) requireUser(ctx context.Context, id string) error {
	ok, err := s.users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *service) Create(ctx context.Context, userID, description string) (*ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrDescriptionRequired
	}

	req := &ItemRequest{Description: description, RequestorID: userID}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	req.Items = []ItemBrief{}
	return req, nil
}

func (s *service) ListOwn(ctx context.Context, userID string) ([]*ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, reqs)
}

func (s *service) ListOthers(ctx context.Context, userID string) ([]*ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withAnswers(ctx, reqs)
}

func (s *service) Get(ctx context.Context, userID, id string) (*ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.withAnswers(ctx, []*ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// withAnswers attaches answering items to every request with a single lookup.
func (s *service) withAnswers(ctx context.Context, reqs []*ItemRequest) ([]*ItemRequest, error) {
	if len(reqs) == 0 {
		return []*ItemRequest{}, nil
	}

	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}

	items, err := s.answers.ListByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[string][]ItemBrief, len(reqs))
	for _, it := range items {
		if it.RequestID == nil {
			continue
		}
		byRequest[*it.RequestID] = append(byRequest[*it.RequestID], ItemBrief{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Available:   it.Available,
			OwnerID:     it.OwnerID,
			RequestID:   *it.RequestID,
		})
	}

	for _, r := range reqs {
		r.Items = byRequest[r.ID]
		if r.Items == nil {
			r.Items = []ItemBrief{}
		}
	}
	return reqs, nil
}
