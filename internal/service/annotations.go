// Package service contains application services for collections, versions,
// annotation resolution, publications and users.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/metrics"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/pubfetch"
	"github.com/verdantbio/geneset/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AnnotationService resolves raw annotation input against the gene and
// publication stores and renders stored payloads for display. It performs no
// authorization: callers hand it versions they already fetched through the
// access rules.
type AnnotationService interface {
	// Format resolves raw entries into a storable payload. Individual
	// failures degrade into the report, never into an error.
	Format(ctx context.Context, raw []model.RawAnnotation, namespace string, hydratePubs bool, organism *model.Organism) ([]model.Annotation, *model.ResolutionReport, error)
	// ResolveForDisplay groups a version's pairs by gene and attaches
	// publication records plus the requested cross-references.
	ResolveForDisplay(ctx context.Context, v *model.Version, targetNamespace string) ([]model.GeneAnnotations, error)
	// ListIdentifiers renders one identifier string per referenced gene in
	// the requested namespace, dropping genes absent from it.
	ListIdentifiers(ctx context.Context, v *model.Version, namespace string) ([]string, error)
}

type AnnotationServiceImpl struct {
	genes  repository.GeneRepository
	pubs   repository.PublicationRepository
	loader *pubfetch.Loader
	logger *zap.Logger
}

// NewAnnotationService constructs AnnotationService over the gene and
// publication stores and the bibliographic bulk loader.
func NewAnnotationService(genes repository.GeneRepository, pubs repository.PublicationRepository, loader *pubfetch.Loader, logger *zap.Logger) *AnnotationServiceImpl {
	return &AnnotationServiceImpl{genes: genes, pubs: pubs, loader: loader, logger: logger}
}

// Format resolves each raw entry's gene identifier in the source namespace,
// defaulting to the organism's namespace and then to Entrez. Identifiers
// with no match land in GenesNotFound, identifiers with several matches in
// AmbiguousGenes with the first match used. Publication identifiers already
// stored attach directly; unseen ones are hydrated through the collaborator
// when hydratePubs is set (failures land in PubsNotLoaded and their pairs
// are dropped) or recorded as stub rows when it is not.
func (s *AnnotationServiceImpl) Format(ctx context.Context, raw []model.RawAnnotation, namespace string, hydratePubs bool, organism *model.Organism) ([]model.Annotation, *model.ResolutionReport, error) {
	report := &model.ResolutionReport{}
	if namespace == "" {
		namespace = organism.DefaultNamespace
	}
	if namespace == "" {
		namespace = model.NamespaceEntrez
	}

	type resolved struct {
		geneID uuid.UUID
		pubs   []int64
	}
	var entries []resolved
	pmidSet := make(map[int64]struct{})

	for _, entry := range raw {
		matches, err := s.lookupGene(ctx, organism.ID, namespace, entry.Gene)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve gene %q: %w", entry.Gene, err)
		}
		if len(matches) == 0 {
			report.GenesNotFound = append(report.GenesNotFound, entry.Gene)
			metrics.GenesResolvedTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
			continue
		}
		if len(matches) > 1 {
			// First match wins; the ambiguity is reported, never blocking.
			report.AmbiguousGenes = append(report.AmbiguousGenes, entry.Gene)
			metrics.GenesResolvedTotal.WithLabelValues(metrics.OutcomeAmbiguous).Inc()
		} else {
			metrics.GenesResolvedTotal.WithLabelValues(metrics.OutcomeResolved).Inc()
		}
		entries = append(entries, resolved{geneID: matches[0].ID, pubs: entry.Pubs})
		for _, pmid := range entry.Pubs {
			if pmid != model.NoPublication {
				pmidSet[pmid] = struct{}{}
			}
		}
	}

	failed, err := s.ensurePublications(ctx, pmidSet, hydratePubs, report)
	if err != nil {
		return nil, nil, err
	}

	var pairs []model.Annotation
	for _, e := range entries {
		kept := 0
		for _, pmid := range e.pubs {
			if pmid == model.NoPublication {
				continue
			}
			if _, bad := failed[pmid]; bad {
				continue
			}
			pairs = append(pairs, model.Annotation{GeneID: e.geneID, PMID: pmid})
			kept++
		}
		if kept == 0 {
			// The gene stays annotated even when it has no loadable
			// literature.
			pairs = append(pairs, model.Annotation{GeneID: e.geneID, PMID: model.NoPublication})
		}
	}

	if !report.Empty() {
		s.logger.Info("annotation resolution completed with warnings",
			zap.Int("genes_not_found", len(report.GenesNotFound)),
			zap.Int("pubs_not_loaded", len(report.PubsNotLoaded)),
			zap.Int("ambiguous_genes", len(report.AmbiguousGenes)))
	}
	return pairs, report, nil
}

// lookupGene resolves one identifier in one namespace, every match ordered
// by Entrez ID.
func (s *AnnotationServiceImpl) lookupGene(ctx context.Context, organismID uuid.UUID, namespace, identifier string) ([]model.Gene, error) {
	switch namespace {
	case model.NamespaceEntrez:
		entrezID, err := strconv.ParseInt(identifier, 10, 64)
		if err != nil {
			// A non-numeric Entrez identifier can match nothing.
			return nil, nil
		}
		return s.genes.LookupByEntrez(ctx, organismID, entrezID)
	case model.NamespaceSymbol:
		return s.genes.LookupBySymbol(ctx, organismID, identifier)
	default:
		return s.genes.LookupByXref(ctx, organismID, namespace, identifier)
	}
}

// ensurePublications makes every referenced PMID exist as a row, hydrated or
// stub, and reports the identifiers that could not be loaded.
func (s *AnnotationServiceImpl) ensurePublications(ctx context.Context, pmidSet map[int64]struct{}, hydrate bool, report *model.ResolutionReport) (map[int64]struct{}, error) {
	if len(pmidSet) == 0 {
		return nil, nil
	}
	pmids := make([]int64, 0, len(pmidSet))
	for pmid := range pmidSet {
		pmids = append(pmids, pmid)
	}
	sort.Slice(pmids, func(i, j int) bool { return pmids[i] < pmids[j] })

	existing, err := s.pubs.GetByPMIDs(ctx, pmids)
	if err != nil {
		return nil, fmt.Errorf("load publications: %w", err)
	}
	var missing []int64
	for _, pmid := range pmids {
		if _, ok := existing[pmid]; !ok {
			missing = append(missing, pmid)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	if !hydrate {
		// Reference the identifiers now; they hydrate on demand later.
		if err := s.pubs.InsertStubs(ctx, missing); err != nil {
			return nil, fmt.Errorf("insert publication stubs: %w", err)
		}
		metrics.PublicationsHydratedTotal.WithLabelValues(metrics.OutcomeStub).Add(float64(len(missing)))
		return nil, nil
	}

	loaded, failedIDs := s.loader.BulkLoad(ctx, missing)
	if len(loaded) > 0 {
		if err := s.pubs.UpsertLoaded(ctx, loaded); err != nil {
			return nil, fmt.Errorf("store publications: %w", err)
		}
	}
	metrics.PublicationsHydratedTotal.WithLabelValues(metrics.OutcomeLoaded).Add(float64(len(loaded)))
	metrics.PublicationsHydratedTotal.WithLabelValues(metrics.OutcomeFailed).Add(float64(len(failedIDs)))

	report.PubsNotLoaded = append(report.PubsNotLoaded, failedIDs...)
	failed := make(map[int64]struct{}, len(failedIDs))
	for _, pmid := range failedIDs {
		failed[pmid] = struct{}{}
	}
	return failed, nil
}

// ResolveForDisplay groups the version's pairs by gene with set semantics in
// first-seen order. NamespaceAll attaches every cross-reference per gene; a
// concrete namespace attaches exactly that namespace's identifiers and omits
// genes that have none; the empty, Entrez and Symbol namespaces need no
// cross-references because the gene record itself carries them.
func (s *AnnotationServiceImpl) ResolveForDisplay(ctx context.Context, v *model.Version, targetNamespace string) ([]model.GeneAnnotations, error) {
	order, pubsByGene := groupByGene(v.Annotations)
	if len(order) == 0 {
		return nil, nil
	}

	genes, err := s.genes.GetByIDs(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("load genes: %w", err)
	}

	var (
		xrefs    map[uuid.UUID][]model.CrossRef
		restrict bool
	)
	switch targetNamespace {
	case "", model.NamespaceEntrez, model.NamespaceSymbol:
	case model.NamespaceAll:
		if xrefs, err = s.genes.XrefsForGenes(ctx, order); err != nil {
			return nil, fmt.Errorf("load cross-references: %w", err)
		}
	default:
		if _, err := s.genes.GetXrefDB(ctx, targetNamespace); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown gene identifier namespace %q", errs.ErrInvalidInput, targetNamespace)
			}
			return nil, err
		}
		if xrefs, err = s.genes.XrefsForGenesIn(ctx, order, targetNamespace); err != nil {
			return nil, fmt.Errorf("load cross-references: %w", err)
		}
		restrict = true
	}

	var allPMIDs []int64
	seen := make(map[int64]struct{})
	for _, geneID := range order {
		for _, pmid := range pubsByGene[geneID] {
			if _, dup := seen[pmid]; !dup {
				seen[pmid] = struct{}{}
				allPMIDs = append(allPMIDs, pmid)
			}
		}
	}
	var pubRecords map[int64]model.Publication
	if len(allPMIDs) > 0 {
		if pubRecords, err = s.pubs.GetByPMIDs(ctx, allPMIDs); err != nil {
			return nil, fmt.Errorf("load publications: %w", err)
		}
	}

	var out []model.GeneAnnotations
	for _, geneID := range order {
		g, ok := genes[geneID]
		if !ok {
			// Never return a partial gene record.
			continue
		}
		gx := xrefs[geneID]
		if restrict && len(gx) == 0 {
			continue
		}
		ga := model.GeneAnnotations{Gene: model.DisplayGene{Gene: g, Xrefs: gx}}
		for _, pmid := range pubsByGene[geneID] {
			if p, ok := pubRecords[pmid]; ok {
				ga.Publications = append(ga.Publications, p)
			}
		}
		out = append(out, ga)
	}
	return out, nil
}

// ListIdentifiers renders the version's genes as identifier strings: Entrez
// IDs by default, systematic names for Symbol, cross-reference identifiers
// for anything else. Genes absent from the requested namespace are dropped.
func (s *AnnotationServiceImpl) ListIdentifiers(ctx context.Context, v *model.Version, namespace string) ([]string, error) {
	order, _ := groupByGene(v.Annotations)
	if len(order) == 0 {
		return nil, nil
	}

	switch namespace {
	case "", model.NamespaceEntrez, model.NamespaceSymbol:
		genes, err := s.genes.GetByIDs(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("load genes: %w", err)
		}
		var out []string
		for _, geneID := range order {
			g, ok := genes[geneID]
			if !ok {
				continue
			}
			if namespace == model.NamespaceSymbol {
				out = append(out, g.SystematicName)
			} else {
				out = append(out, strconv.FormatInt(g.EntrezID, 10))
			}
		}
		return out, nil
	default:
		xrefs, err := s.genes.XrefsForGenesIn(ctx, order, namespace)
		if err != nil {
			return nil, fmt.Errorf("load cross-references: %w", err)
		}
		var out []string
		for _, geneID := range order {
			for _, x := range xrefs[geneID] {
				out = append(out, x.XRID)
			}
		}
		return out, nil
	}
}

// groupByGene collapses pairs to unique genes in first-seen order, each with
// its unique publication identifiers in first-seen order.
func groupByGene(pairs []model.Annotation) ([]uuid.UUID, map[uuid.UUID][]int64) {
	var order []uuid.UUID
	pubsByGene := make(map[uuid.UUID][]int64)
	seen := make(map[model.Annotation]struct{})
	for _, a := range pairs {
		if _, ok := pubsByGene[a.GeneID]; !ok {
			order = append(order, a.GeneID)
			pubsByGene[a.GeneID] = nil
		}
		if a.PMID == model.NoPublication {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		pubsByGene[a.GeneID] = append(pubsByGene[a.GeneID], a.PMID)
	}
	return order, pubsByGene
}
