package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/metrics"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/repository"
)

// VersionService manages immutable annotation lineages. Every read is
// masked by the owning geneset's visibility: a lineage the actor may not
// see behaves exactly like a lineage that does not exist.
type VersionService interface {
	// Tip returns the latest version of a lineage, nil when it has none.
	Tip(ctx context.Context, actor *model.User, genesetID uuid.UUID) (*model.Version, error)
	// Get resolves a version by hash within a lineage.
	Get(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) (*model.Version, error)
	// List returns a lineage newest first.
	List(ctx context.Context, actor *model.User, genesetID uuid.UUID, opts model.VersionListOptions) ([]model.Version, error)
	// Commit appends a version. The first commit of a lineage carries no
	// parent hash; every later one must name its parent.
	Commit(ctx context.Context, actor *model.User, genesetID uuid.UUID, req model.CommitRequest) (*model.Version, *model.ResolutionReport, error)
	// Fork copies the named version and its full ancestry from the source
	// lineage into the target, root first.
	Fork(ctx context.Context, actor *model.User, sourceID, targetID uuid.UUID, fromHash string) ([]model.Version, error)
	// Update always fails: versions are immutable once committed.
	Update(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) error
	// Delete always fails: versions are immutable once committed.
	Delete(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) error
}

type VersionServiceImpl struct {
	genesets  repository.GenesetRepository
	versions  repository.VersionRepository
	organisms repository.OrganismRepository
	genes     repository.GeneRepository
	annots    AnnotationService
	auth      *authz.Authorizer
	logger    *zap.Logger
}

// NewVersionService constructs VersionService.
func NewVersionService(
	genesets repository.GenesetRepository,
	versions repository.VersionRepository,
	organisms repository.OrganismRepository,
	genes repository.GeneRepository,
	annots AnnotationService,
	auth *authz.Authorizer,
	logger *zap.Logger,
) *VersionServiceImpl {
	return &VersionServiceImpl{
		genesets:  genesets,
		versions:  versions,
		organisms: organisms,
		genes:     genes,
		annots:    annots,
		auth:      auth,
		logger:    logger,
	}
}

// readableGeneset loads a live geneset, masking it as absent when the actor
// may not read it. Denied and missing are indistinguishable to the caller.
func readableGeneset(ctx context.Context, auth *authz.Authorizer, genesets repository.GenesetRepository, actor *model.User, id uuid.UUID) (*model.Geneset, error) {
	gs, err := genesets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := auth.CanReadGeneset(ctx, actor, gs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotFound
	}
	return gs, nil
}

// editableGeneset additionally enforces the update rule: readable but not
// editable is a distinct, non-masked refusal.
func editableGeneset(ctx context.Context, auth *authz.Authorizer, genesets repository.GenesetRepository, actor *model.User, id uuid.UUID) (*model.Geneset, error) {
	gs, err := readableGeneset(ctx, auth, genesets, actor, id)
	if err != nil {
		return nil, err
	}
	ok, err := auth.CanUpdateGeneset(ctx, actor, gs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	return gs, nil
}

func (s *VersionServiceImpl) Tip(ctx context.Context, actor *model.User, genesetID uuid.UUID) (*model.Version, error) {
	if _, err := readableGeneset(ctx, s.auth, s.genesets, actor, genesetID); err != nil {
		return nil, err
	}
	return s.versions.Tip(ctx, genesetID)
}

func (s *VersionServiceImpl) Get(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) (*model.Version, error) {
	if _, err := readableGeneset(ctx, s.auth, s.genesets, actor, genesetID); err != nil {
		return nil, err
	}
	return s.versions.GetByHash(ctx, genesetID, verHash)
}

func (s *VersionServiceImpl) List(ctx context.Context, actor *model.User, genesetID uuid.UUID, opts model.VersionListOptions) ([]model.Version, error) {
	if _, err := readableGeneset(ctx, s.auth, s.genesets, actor, genesetID); err != nil {
		return nil, err
	}
	return s.versions.List(ctx, genesetID, opts)
}

// Commit resolves the request's annotations and appends the version. The
// parent is validated before any annotation resolution so that a bad request
// writes nothing; the store's constraints back the root and hash checks
// under concurrent commits.
func (s *VersionServiceImpl) Commit(ctx context.Context, actor *model.User, genesetID uuid.UUID, req model.CommitRequest) (*model.Version, *model.ResolutionReport, error) {
	if len(req.Annotations) == 0 {
		return nil, nil, fmt.Errorf("%w: new versions must have annotations", errs.ErrInvalidInput)
	}
	if err := validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}

	gs, err := editableGeneset(ctx, s.auth, s.genesets, actor, genesetID)
	if err != nil {
		return nil, nil, err
	}

	organism, err := s.organisms.GetByID(ctx, gs.OrganismID)
	if err != nil {
		return nil, nil, fmt.Errorf("load organism: %w", err)
	}

	var parentID *uuid.UUID
	parentHash := ""
	if req.ParentHash == "" {
		hasRoot, err := s.versions.HasRoot(ctx, gs.ID)
		if err != nil {
			return nil, nil, err
		}
		if hasRoot {
			return nil, nil, errs.ErrMissingParent
		}
	} else {
		parent, err := s.versions.GetByHash(ctx, gs.ID, req.ParentHash)
		if err != nil {
			return nil, nil, err
		}
		parentID = &parent.ID
		parentHash = parent.VerHash
	}

	pairs, report, err := s.annots.Format(ctx, req.Annotations, req.Namespace, req.HydratePubs, organism)
	if err != nil {
		return nil, nil, err
	}
	if err := s.verifyGenes(ctx, pairs); err != nil {
		return nil, nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, nil, err
	}
	v := &model.Version{
		ID:          id,
		GenesetID:   gs.ID,
		ParentID:    parentID,
		VerHash:     model.ComputeVerHash(parentHash, actor.ID, req.Description, pairs),
		CreatorID:   actor.ID,
		Description: req.Description,
		Annotations: pairs,
	}
	if err := s.versions.Insert(ctx, v); err != nil {
		return nil, nil, err
	}

	metrics.VersionCommitsTotal.Inc()
	s.logger.Info("version committed",
		zap.String("geneset_id", gs.ID.String()),
		zap.String("ver_hash", v.VerHash),
		zap.Int("annotations", len(pairs)))
	return v, report, nil
}

// verifyGenes guards the payload against gene identities absent from the
// store. Resolution cannot produce them; a concurrent reference reload can.
func (s *VersionServiceImpl) verifyGenes(ctx context.Context, pairs []model.Annotation) error {
	seen := make(map[uuid.UUID]struct{}, len(pairs))
	var ids []uuid.UUID
	for _, a := range pairs {
		if _, ok := seen[a.GeneID]; !ok {
			seen[a.GeneID] = struct{}{}
			ids = append(ids, a.GeneID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	n, err := s.genes.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return errs.ErrInvalidGene
	}
	return nil
}

// Fork copies fromHash and its whole ancestry into the target lineage. The
// copies keep the original creators, commit dates, descriptions, hashes and
// payloads; only the identities, the owning geneset and the parent edges are
// new, the edges re-pointed at the copies so the target's history stands
// alone.
func (s *VersionServiceImpl) Fork(ctx context.Context, actor *model.User, sourceID, targetID uuid.UUID, fromHash string) ([]model.Version, error) {
	source, err := readableGeneset(ctx, s.auth, s.genesets, actor, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := editableGeneset(ctx, s.auth, s.genesets, actor, targetID)
	if err != nil {
		return nil, err
	}

	chain, err := s.versions.AncestorChain(ctx, source.ID, fromHash)
	if err != nil {
		return nil, err
	}

	// Copy root first so each copy's parent already has its new identity.
	copies := make([]model.Version, 0, len(chain))
	newIDs := make(map[uuid.UUID]uuid.UUID, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		orig := chain[i]
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		newIDs[orig.ID] = id
		cp := model.Version{
			ID:          id,
			GenesetID:   target.ID,
			VerHash:     orig.VerHash,
			CreatorID:   orig.CreatorID,
			Description: orig.Description,
			CommitDate:  orig.CommitDate,
			Annotations: orig.Annotations,
		}
		if orig.ParentID != nil {
			parentCopy, ok := newIDs[*orig.ParentID]
			if !ok {
				return nil, fmt.Errorf("ancestry of %s broken at %s: %w", fromHash, orig.VerHash, errs.ErrVersionNotFound)
			}
			cp.ParentID = &parentCopy
		}
		copies = append(copies, cp)
	}

	if err := s.versions.InsertCopies(ctx, copies); err != nil {
		return nil, err
	}

	metrics.ForksTotal.Inc()
	metrics.ForkChainDepth.Observe(float64(len(copies)))
	s.logger.Info("lineage forked",
		zap.String("source_id", source.ID.String()),
		zap.String("target_id", target.ID.String()),
		zap.String("from_hash", fromHash),
		zap.Int("versions", len(copies)))
	return copies, nil
}

func (s *VersionServiceImpl) Update(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) error {
	return errs.ErrImmutable
}

func (s *VersionServiceImpl) Delete(ctx context.Context, actor *model.User, genesetID uuid.UUID, verHash string) error {
	return errs.ErrImmutable
}
