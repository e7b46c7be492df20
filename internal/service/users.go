package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/repository"
)

// UserService manages accounts and the collaboration graph. Accounts are
// readable only by their owner; updating or deleting them is not offered.
type UserService interface {
	// Register creates an account. Registration is open.
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	// Get loads the actor's own record. Any other ID reads as absent.
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error)
	// Invite records a collaboration invite towards the user registered
	// under email. Unknown addresses are silently ignored.
	Invite(ctx context.Context, actor *model.User, email string) error
	// RejectInvite removes the invite edges between the actor and the user
	// registered under email, in both directions.
	RejectInvite(ctx context.Context, actor *model.User, email string) error
	// Collaborators lists users tied to the actor by mutual invites.
	Collaborators(ctx context.Context, actor *model.User) ([]model.User, error)
	// Invites lists users the actor invited who have not reciprocated.
	Invites(ctx context.Context, actor *model.User) ([]model.User, error)
	// Inviteds lists users who invited the actor without reciprocation.
	Inviteds(ctx context.Context, actor *model.User) ([]model.User, error)
	// Update always fails: accounts are not editable through this service.
	Update(ctx context.Context, actor *model.User, id uuid.UUID) error
	// Delete always fails: accounts are not removable through this service.
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type UserServiceImpl struct {
	users   repository.UserRepository
	collabs repository.CollaborationRepository
	auth    *authz.Authorizer
	logger  *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(users repository.UserRepository, collabs repository.CollaborationRepository, auth *authz.Authorizer, logger *zap.Logger) *UserServiceImpl {
	return &UserServiceImpl{users: users, collabs: collabs, auth: auth, logger: logger}
}

func (s *UserServiceImpl) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:        id,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Temporary: req.Temporary,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", u.Username))
	return u, nil
}

func (s *UserServiceImpl) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.auth.CanReadUser(actor, u) {
		// Foreign accounts read as absent, not as forbidden.
		return nil, errs.ErrNotFound
	}
	return u, nil
}

func (s *UserServiceImpl) Invite(ctx context.Context, actor *model.User, email string) error {
	if actor == nil {
		return errs.ErrUnauthorized
	}
	invited, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		s.logger.Info("collaboration invite for unknown email ignored",
			zap.String("from", actor.Username))
		return nil
	}
	if err != nil {
		return err
	}
	if invited.ID == actor.ID {
		return nil
	}
	if err := s.collabs.Upsert(ctx, actor.ID, invited.ID); err != nil {
		return err
	}
	s.logger.Info("collaboration invite recorded",
		zap.String("from", actor.Username),
		zap.String("to", invited.Username))
	return nil
}

func (s *UserServiceImpl) RejectInvite(ctx context.Context, actor *model.User, email string) error {
	if actor == nil {
		return errs.ErrUnauthorized
	}
	other, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.collabs.DeleteBoth(ctx, actor.ID, other.ID)
}

func (s *UserServiceImpl) Collaborators(ctx context.Context, actor *model.User) ([]model.User, error) {
	if actor == nil {
		return nil, errs.ErrUnauthorized
	}
	return s.collabs.Collaborators(ctx, actor.ID)
}

func (s *UserServiceImpl) Invites(ctx context.Context, actor *model.User) ([]model.User, error) {
	if actor == nil {
		return nil, errs.ErrUnauthorized
	}
	return s.collabs.Invites(ctx, actor.ID)
}

func (s *UserServiceImpl) Inviteds(ctx context.Context, actor *model.User) ([]model.User, error) {
	if actor == nil {
		return nil, errs.ErrUnauthorized
	}
	return s.collabs.Inviteds(ctx, actor.ID)
}

func (s *UserServiceImpl) Update(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return errs.ErrUnauthorized
}

func (s *UserServiceImpl) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return errs.ErrUnauthorized
}
