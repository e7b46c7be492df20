package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/metrics"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/repository"
)

// defaultSlugMaxLen caps generated slugs when the service is built without
// an explicit limit.
const defaultSlugMaxLen = 75

// seedDescription is recorded on a first version created together with its
// collection.
const seedDescription = "Created with collection."

// GenesetService manages collections: creation (optionally seeding or
// forking a lineage), lookup, listing, the narrow update surface, tombstone
// deletion, tagging and sharing.
type GenesetService interface {
	// Create inserts a collection for the actor. With Annotations it also
	// commits the first version; with ForkOf+ForkVersion it copies the
	// named lineage instead. The report covers the seeded version and is
	// empty otherwise.
	Create(ctx context.Context, actor *model.User, req model.CreateGenesetRequest) (*model.Geneset, *model.ResolutionReport, error)
	// Get loads a collection by ID within the actor's visibility.
	Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Geneset, error)
	// GetBySlug loads a collection by creator username and slug.
	GetBySlug(ctx context.Context, actor *model.User, creatorUsername, slug string) (*model.Geneset, error)
	// List returns collections visible to the actor, narrowed by filter.
	List(ctx context.Context, actor *model.User, f model.ListGenesetsFilter) ([]model.Geneset, error)
	// Update applies the mutable fields: title, abstract, public flag.
	Update(ctx context.Context, actor *model.User, id uuid.UUID, req model.UpdateGenesetRequest) (*model.Geneset, error)
	// Delete tombstones a collection. Creator only.
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
	// AddTags appends tags not already present.
	AddTags(ctx context.Context, actor *model.User, id uuid.UUID, tags []string) error
	// Invite grants edit rights to the user registered under email. Unknown
	// addresses and users outside the actor's collaborator circle are
	// silently ignored.
	Invite(ctx context.Context, actor *model.User, id uuid.UUID, email string) error
	// Participants lists share grants on a collection. Emails and inviter
	// names are blanked for actors without update rights.
	Participants(ctx context.Context, actor *model.User, id uuid.UUID) ([]model.Participant, error)
}

type GenesetServiceImpl struct {
	genesets repository.GenesetRepository
	users    repository.UserRepository
	collabs  repository.CollaborationRepository
	shares   repository.ShareRepository
	versions VersionService
	auth     *authz.Authorizer
	slugMax  int
	logger   *zap.Logger
}

// NewGenesetService constructs GenesetService. slugMax caps generated slugs;
// values below one fall back to the default.
func NewGenesetService(
	genesets repository.GenesetRepository,
	users repository.UserRepository,
	collabs repository.CollaborationRepository,
	shares repository.ShareRepository,
	versions VersionService,
	auth *authz.Authorizer,
	slugMax int,
	logger *zap.Logger,
) *GenesetServiceImpl {
	if slugMax < 1 {
		slugMax = defaultSlugMaxLen
	}
	return &GenesetServiceImpl{
		genesets: genesets,
		users:    users,
		collabs:  collabs,
		shares:   shares,
		versions: versions,
		auth:     auth,
		slugMax:  slugMax,
		logger:   logger,
	}
}

func (s *GenesetServiceImpl) Create(ctx context.Context, actor *model.User, req model.CreateGenesetRequest) (*model.Geneset, *model.ResolutionReport, error) {
	if !s.auth.CanCreateGeneset(actor) {
		return nil, nil, errs.ErrUnauthorized
	}
	if err := validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	if req.ForkVersion != "" && req.ForkOf == nil {
		return nil, nil, fmt.Errorf("%w: fork version given without a source collection", errs.ErrInvalidInput)
	}

	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Title, s.slugMax)
	}
	// The unique constraint still backs this check under concurrent
	// creates.
	taken, err := s.genesets.SlugExists(ctx, actor.ID, slug)
	if err != nil {
		return nil, nil, err
	}
	if taken {
		return nil, nil, errs.ErrDuplicateSlug
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, nil, err
	}
	gs := &model.Geneset{
		ID:              id,
		CreatorID:       actor.ID,
		CreatorUsername: actor.Username,
		OrganismID:      req.OrganismID,
		Title:           req.Title,
		Slug:            slug,
		Abstract:        req.Abstract,
		Public:          req.Public,
		ForkOf:          req.ForkOf,
		Tags:            normalizeTags(req.Tags),
	}
	if err := s.genesets.Create(ctx, gs); err != nil {
		return nil, nil, err
	}
	s.logger.Info("geneset created",
		zap.String("geneset_id", gs.ID.String()),
		zap.String("creator", actor.Username),
		zap.String("slug", gs.Slug))

	report := &model.ResolutionReport{}
	switch {
	case req.ForkVersion != "":
		// Forking copies the source payloads; any Annotations on the
		// request are ignored.
		if _, err := s.versions.Fork(ctx, actor, *req.ForkOf, gs.ID, req.ForkVersion); err != nil {
			return nil, nil, err
		}
	case len(req.Annotations) > 0:
		description := req.Description
		if description == "" {
			description = seedDescription
		}
		_, rep, err := s.versions.Commit(ctx, actor, gs.ID, model.CommitRequest{
			Annotations: req.Annotations,
			Namespace:   req.Namespace,
			HydratePubs: req.HydratePubs,
			Description: description,
		})
		if err != nil {
			return nil, nil, err
		}
		report = rep
	}
	return gs, report, nil
}

func (s *GenesetServiceImpl) Get(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Geneset, error) {
	return readableGeneset(ctx, s.auth, s.genesets, actor, id)
}

func (s *GenesetServiceImpl) GetBySlug(ctx context.Context, actor *model.User, creatorUsername, slug string) (*model.Geneset, error) {
	gs, err := s.genesets.GetBySlug(ctx, creatorUsername, slug)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.CanReadGeneset(ctx, actor, gs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}
	return gs, nil
}

func (s *GenesetServiceImpl) List(ctx context.Context, actor *model.User, f model.ListGenesetsFilter) ([]model.Geneset, error) {
	return s.genesets.List(ctx, s.auth.Filter(actor), f)
}

func (s *GenesetServiceImpl) Update(ctx context.Context, actor *model.User, id uuid.UUID, req model.UpdateGenesetRequest) (*model.Geneset, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	gs, err := editableGeneset(ctx, s.auth, s.genesets, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.genesets.Update(ctx, gs.ID, req); err != nil {
		return nil, err
	}
	return s.genesets.GetByID(ctx, gs.ID)
}

func (s *GenesetServiceImpl) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	gs, err := readableGeneset(ctx, s.auth, s.genesets, actor, id)
	if err != nil {
		return err
	}
	if !s.auth.CanDeleteGeneset(actor, gs) {
		return errs.ErrUnauthorized
	}
	if err := s.genesets.SetDeleted(ctx, gs.ID); err != nil {
		return err
	}
	s.logger.Info("geneset deleted",
		zap.String("geneset_id", gs.ID.String()),
		zap.String("creator", gs.CreatorUsername))
	return nil
}

func (s *GenesetServiceImpl) AddTags(ctx context.Context, actor *model.User, id uuid.UUID, tags []string) error {
	gs, err := editableGeneset(ctx, s.auth, s.genesets, actor, id)
	if err != nil {
		return err
	}
	tags = normalizeTags(tags)
	if len(tags) == 0 {
		return nil
	}
	return s.genesets.AddTags(ctx, gs.ID, tags)
}

func (s *GenesetServiceImpl) Invite(ctx context.Context, actor *model.User, id uuid.UUID, email string) error {
	gs, err := readableGeneset(ctx, s.auth, s.genesets, actor, id)
	if err != nil {
		return err
	}
	ok, err := s.auth.CanInviteToGeneset(ctx, actor, gs)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrUnauthorized
	}

	invited, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		s.logger.Info("share invite for unknown email ignored",
			zap.String("geneset_id", gs.ID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	mutual, err := s.collabs.AreCollaborators(ctx, actor.ID, invited.ID)
	if err != nil {
		return err
	}
	if !mutual {
		s.logger.Info("share invite outside collaborator circle ignored",
			zap.String("geneset_id", gs.ID.String()),
			zap.String("invited", invited.Username))
		return nil
	}

	shareID, err := uuid.NewV4()
	if err != nil {
		return err
	}
	if err := s.shares.Grant(ctx, &model.Share{
		ID:         shareID,
		GenesetID:  gs.ID,
		FromUserID: actor.ID,
		ToUserID:   invited.ID,
	}); err != nil {
		return err
	}
	metrics.SharesGrantedTotal.Inc()
	s.logger.Info("share granted",
		zap.String("geneset_id", gs.ID.String()),
		zap.String("invited", invited.Username))
	return nil
}

func (s *GenesetServiceImpl) Participants(ctx context.Context, actor *model.User, id uuid.UUID) ([]model.Participant, error) {
	gs, err := readableGeneset(ctx, s.auth, s.genesets, actor, id)
	if err != nil {
		return nil, err
	}
	list, err := s.shares.ListParticipants(ctx, gs.ID)
	if err != nil {
		return nil, err
	}
	editable, err := s.auth.CanUpdateGeneset(ctx, actor, gs)
	if err != nil {
		return nil, err
	}
	if !editable {
		for i := range list {
			list[i].Email, list[i].InvitedBy = "", ""
		}
	}
	return list, nil
}

// slugify renders a URL-safe slug from a title: lowercase, letters and
// digits kept, every other run collapsed to one dash, capped at maxLen
// bytes.
func slugify(title string, maxLen int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "-")
	}
	if s == "" {
		s = "collection"
	}
	return s
}

// normalizeTags trims, drops empties and dedupes preserving order.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
