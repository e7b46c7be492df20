package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/authz"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/pubfetch"
	"github.com/verdantbio/geneset/internal/repository"
)

// The fakes below are small in-memory stores with the same contracts as the
// postgres repositories (sentinel errors, tie-breaking, tombstones), so the
// services can be exercised against realistic lineage and sharing state.

func newID() uuid.UUID { return uuid.Must(uuid.NewV4()) }

type fakeUserRepo struct {
	byID map[uuid.UUID]model.User
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	for _, ex := range f.byID {
		if ex.Username == u.Username {
			return errs.ErrAlreadyExists
		}
	}
	u.CreatedAt = time.Now()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	var matches []model.User
	for _, u := range f.byID {
		if u.Email == email {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return nil, errs.ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Username < matches[j].Username })
	return &matches[0], nil
}

type edge struct{ from, to uuid.UUID }

type fakeCollabRepo struct {
	users *fakeUserRepo
	edges map[edge]struct{}
}

var _ repository.CollaborationRepository = (*fakeCollabRepo)(nil)

func newFakeCollabRepo(users *fakeUserRepo) *fakeCollabRepo {
	return &fakeCollabRepo{users: users, edges: make(map[edge]struct{})}
}

func (f *fakeCollabRepo) Upsert(_ context.Context, fromID, toID uuid.UUID) error {
	f.edges[edge{fromID, toID}] = struct{}{}
	return nil
}

func (f *fakeCollabRepo) DeleteBoth(_ context.Context, a, b uuid.UUID) error {
	delete(f.edges, edge{a, b})
	delete(f.edges, edge{b, a})
	return nil
}

func (f *fakeCollabRepo) AreCollaborators(_ context.Context, a, b uuid.UUID) (bool, error) {
	_, ab := f.edges[edge{a, b}]
	_, ba := f.edges[edge{b, a}]
	return ab && ba, nil
}

func (f *fakeCollabRepo) list(userID uuid.UUID, want func(out, in bool) bool) []model.User {
	var res []model.User
	for id, u := range f.users.byID {
		if id == userID {
			continue
		}
		_, out := f.edges[edge{userID, id}]
		_, in := f.edges[edge{id, userID}]
		if want(out, in) {
			res = append(res, u)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	return res
}

func (f *fakeCollabRepo) Collaborators(_ context.Context, userID uuid.UUID) ([]model.User, error) {
	return f.list(userID, func(out, in bool) bool { return out && in }), nil
}

func (f *fakeCollabRepo) Invites(_ context.Context, userID uuid.UUID) ([]model.User, error) {
	return f.list(userID, func(out, in bool) bool { return out && !in }), nil
}

func (f *fakeCollabRepo) Inviteds(_ context.Context, userID uuid.UUID) ([]model.User, error) {
	return f.list(userID, func(out, in bool) bool { return !out && in }), nil
}

type fakeShareRepo struct {
	users  *fakeUserRepo
	grants []model.Share
}

var _ repository.ShareRepository = (*fakeShareRepo)(nil)

func newFakeShareRepo(users *fakeUserRepo) *fakeShareRepo {
	return &fakeShareRepo{users: users}
}

func (f *fakeShareRepo) Grant(_ context.Context, s *model.Share) error {
	for _, g := range f.grants {
		if g.GenesetID == s.GenesetID && g.ToUserID == s.ToUserID {
			return nil
		}
	}
	s.CreatedAt = time.Now()
	f.grants = append(f.grants, *s)
	return nil
}

func (f *fakeShareRepo) Has(_ context.Context, genesetID, userID uuid.UUID) (bool, error) {
	for _, g := range f.grants {
		if g.GenesetID == genesetID && g.ToUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeShareRepo) ListParticipants(_ context.Context, genesetID uuid.UUID) ([]model.Participant, error) {
	var out []model.Participant
	for _, g := range f.grants {
		if g.GenesetID != genesetID {
			continue
		}
		to := f.users.byID[g.ToUserID]
		from := f.users.byID[g.FromUserID]
		out = append(out, model.Participant{
			Username:  to.Username,
			Email:     to.Email,
			InvitedBy: from.Email,
		})
	}
	return out, nil
}

type fakeOrganismRepo struct {
	byID map[uuid.UUID]model.Organism
}

var _ repository.OrganismRepository = (*fakeOrganismRepo)(nil)

func newFakeOrganismRepo() *fakeOrganismRepo {
	return &fakeOrganismRepo{byID: make(map[uuid.UUID]model.Organism)}
}

func (f *fakeOrganismRepo) Create(_ context.Context, o *model.Organism) error {
	for _, ex := range f.byID {
		if ex.ScientificName == o.ScientificName || ex.TaxonomyID == o.TaxonomyID {
			return errs.ErrAlreadyExists
		}
	}
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrganismRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Organism, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOrganismRepo) GetByTaxonomyID(_ context.Context, taxonomyID int64) (*model.Organism, error) {
	for _, o := range f.byID {
		if o.TaxonomyID == taxonomyID {
			o := o
			return &o, nil
		}
	}
	return nil, errs.ErrNotFound
}

type fakeGeneRepo struct {
	genes   []model.Gene
	xrefs   []model.CrossRef
	xrefDBs map[string]model.XrefDB
}

var _ repository.GeneRepository = (*fakeGeneRepo)(nil)

func newFakeGeneRepo() *fakeGeneRepo {
	return &fakeGeneRepo{xrefDBs: make(map[string]model.XrefDB)}
}

func sortByEntrez(genes []model.Gene) {
	sort.Slice(genes, func(i, j int) bool { return genes[i].EntrezID < genes[j].EntrezID })
}

func (f *fakeGeneRepo) LookupByEntrez(_ context.Context, organismID uuid.UUID, entrezID int64) ([]model.Gene, error) {
	var out []model.Gene
	for _, g := range f.genes {
		if g.OrganismID == organismID && g.EntrezID == entrezID {
			out = append(out, g)
		}
	}
	sortByEntrez(out)
	return out, nil
}

func (f *fakeGeneRepo) LookupBySymbol(_ context.Context, organismID uuid.UUID, symbol string) ([]model.Gene, error) {
	var out []model.Gene
	for _, g := range f.genes {
		if g.OrganismID == organismID && (g.Symbol == symbol || g.SystematicName == symbol) {
			out = append(out, g)
		}
	}
	sortByEntrez(out)
	return out, nil
}

func (f *fakeGeneRepo) LookupByXref(_ context.Context, organismID uuid.UUID, namespace, xrid string) ([]model.Gene, error) {
	byID := make(map[uuid.UUID]model.Gene, len(f.genes))
	for _, g := range f.genes {
		byID[g.ID] = g
	}
	var out []model.Gene
	for _, x := range f.xrefs {
		if x.Namespace != namespace || x.XRID != xrid {
			continue
		}
		if g, ok := byID[x.GeneID]; ok && g.OrganismID == organismID {
			out = append(out, g)
		}
	}
	sortByEntrez(out)
	return out, nil
}

func (f *fakeGeneRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Gene, error) {
	out := make(map[uuid.UUID]model.Gene)
	for _, g := range f.genes {
		for _, id := range ids {
			if g.ID == id {
				out[id] = g
			}
		}
	}
	return out, nil
}

func (f *fakeGeneRepo) GetByEntrezIDs(_ context.Context, organismID uuid.UUID, entrezIDs []int64) (map[int64]model.Gene, error) {
	out := make(map[int64]model.Gene)
	for _, g := range f.genes {
		if g.OrganismID != organismID {
			continue
		}
		for _, e := range entrezIDs {
			if g.EntrezID == e {
				out[e] = g
			}
		}
	}
	return out, nil
}

func (f *fakeGeneRepo) CountExisting(_ context.Context, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		for _, g := range f.genes {
			if g.ID == id {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeGeneRepo) XrefsForGenes(_ context.Context, geneIDs []uuid.UUID) (map[uuid.UUID][]model.CrossRef, error) {
	out := make(map[uuid.UUID][]model.CrossRef)
	for _, x := range f.xrefs {
		for _, id := range geneIDs {
			if x.GeneID == id {
				out[id] = append(out[id], x)
			}
		}
	}
	return out, nil
}

func (f *fakeGeneRepo) XrefsForGenesIn(_ context.Context, geneIDs []uuid.UUID, namespace string) (map[uuid.UUID][]model.CrossRef, error) {
	out := make(map[uuid.UUID][]model.CrossRef)
	for _, x := range f.xrefs {
		if x.Namespace != namespace {
			continue
		}
		for _, id := range geneIDs {
			if x.GeneID == id {
				out[id] = append(out[id], x)
			}
		}
	}
	return out, nil
}

func (f *fakeGeneRepo) CopyGenes(_ context.Context, genes []model.Gene) (int64, error) {
	f.genes = append(f.genes, genes...)
	return int64(len(genes)), nil
}

func (f *fakeGeneRepo) CopyXrefs(_ context.Context, xrefs []model.CrossRef) (int64, error) {
	f.xrefs = append(f.xrefs, xrefs...)
	return int64(len(xrefs)), nil
}

func (f *fakeGeneRepo) CreateXrefDB(_ context.Context, db *model.XrefDB) error {
	if _, ok := f.xrefDBs[db.Name]; ok {
		return errs.ErrAlreadyExists
	}
	f.xrefDBs[db.Name] = *db
	return nil
}

func (f *fakeGeneRepo) GetXrefDB(_ context.Context, name string) (*model.XrefDB, error) {
	db, ok := f.xrefDBs[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &db, nil
}

type fakeGenesetRepo struct {
	byID     map[uuid.UUID]model.Geneset
	versions *fakeVersionRepo
	shares   *fakeShareRepo
}

var _ repository.GenesetRepository = (*fakeGenesetRepo)(nil)

func newFakeGenesetRepo(versions *fakeVersionRepo, shares *fakeShareRepo) *fakeGenesetRepo {
	return &fakeGenesetRepo{byID: make(map[uuid.UUID]model.Geneset), versions: versions, shares: shares}
}

func (f *fakeGenesetRepo) Create(_ context.Context, gs *model.Geneset) error {
	for _, ex := range f.byID {
		if ex.CreatorID == gs.CreatorID && ex.Slug == gs.Slug {
			return errs.ErrDuplicateSlug
		}
	}
	gs.CreatedAt = time.Now()
	f.byID[gs.ID] = *gs
	return nil
}

func (f *fakeGenesetRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Geneset, error) {
	gs, ok := f.byID[id]
	if !ok || gs.Deleted {
		return nil, errs.ErrNotFound
	}
	return &gs, nil
}

func (f *fakeGenesetRepo) GetBySlug(_ context.Context, creatorUsername, slug string) (*model.Geneset, error) {
	for _, gs := range f.byID {
		if !gs.Deleted && gs.CreatorUsername == creatorUsername && gs.Slug == slug {
			gs := gs
			return &gs, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeGenesetRepo) SlugExists(_ context.Context, creatorID uuid.UUID, slug string) (bool, error) {
	for _, gs := range f.byID {
		if gs.CreatorID == creatorID && gs.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGenesetRepo) List(ctx context.Context, scope authz.GenesetFilter, q model.ListGenesetsFilter) ([]model.Geneset, error) {
	var out []model.Geneset
	for _, gs := range f.byID {
		gs := gs
		hasShare := false
		if scope.ViewerID != uuid.Nil {
			hasShare, _ = f.shares.Has(ctx, gs.ID, scope.ViewerID)
		}
		if !scope.Matches(&gs, hasShare) {
			continue
		}
		if q.CreatorUsername != "" && gs.CreatorUsername != q.CreatorUsername {
			continue
		}
		if q.Slug != "" && gs.Slug != q.Slug {
			continue
		}
		if q.Title != "" && gs.Title != q.Title {
			continue
		}
		if len(q.Tags) > 0 && !overlaps(gs.Tags, q.Tags) {
			continue
		}
		if q.ModifiedBefore != nil && !f.versions.modifiedBefore(gs.ID, *q.ModifiedBefore) {
			continue
		}
		out = append(out, gs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func (f *fakeGenesetRepo) Update(_ context.Context, id uuid.UUID, req model.UpdateGenesetRequest) error {
	gs, ok := f.byID[id]
	if !ok || gs.Deleted {
		return errs.ErrNotFound
	}
	if req.Title != nil {
		gs.Title = *req.Title
	}
	if req.Abstract != nil {
		gs.Abstract = *req.Abstract
	}
	if req.Public != nil {
		gs.Public = *req.Public
	}
	f.byID[id] = gs
	return nil
}

func (f *fakeGenesetRepo) SetDeleted(_ context.Context, id uuid.UUID) error {
	gs, ok := f.byID[id]
	if !ok || gs.Deleted {
		return errs.ErrNotFound
	}
	gs.Deleted = true
	f.byID[id] = gs
	return nil
}

func (f *fakeGenesetRepo) AddTags(_ context.Context, id uuid.UUID, tags []string) error {
	gs, ok := f.byID[id]
	if !ok || gs.Deleted {
		return errs.ErrNotFound
	}
	for _, t := range tags {
		present := false
		for _, ex := range gs.Tags {
			if ex == t {
				present = true
				break
			}
		}
		if !present {
			gs.Tags = append(gs.Tags, t)
		}
	}
	f.byID[id] = gs
	return nil
}

type fakeVersionRepo struct {
	byGeneset map[uuid.UUID][]model.Version
	clock     time.Time
}

var _ repository.VersionRepository = (*fakeVersionRepo)(nil)

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{
		byGeneset: make(map[uuid.UUID][]model.Version),
		clock:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeVersionRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeVersionRepo) check(v *model.Version) error {
	for _, ex := range f.byGeneset[v.GenesetID] {
		if ex.VerHash == v.VerHash {
			return errs.ErrAlreadyExists
		}
		if v.ParentID == nil && ex.ParentID == nil {
			return errs.ErrMissingParent
		}
	}
	return nil
}

func (f *fakeVersionRepo) Insert(_ context.Context, v *model.Version) error {
	if err := f.check(v); err != nil {
		return err
	}
	v.CommitDate = f.tick()
	f.byGeneset[v.GenesetID] = append(f.byGeneset[v.GenesetID], *v)
	return nil
}

func (f *fakeVersionRepo) InsertCopies(_ context.Context, versions []model.Version) error {
	staged := make(map[uuid.UUID][]model.Version)
	for _, v := range versions {
		v := v
		for _, ex := range append(f.byGeneset[v.GenesetID], staged[v.GenesetID]...) {
			if ex.VerHash == v.VerHash {
				return errs.ErrAlreadyExists
			}
			if v.ParentID == nil && ex.ParentID == nil {
				return errs.ErrMissingParent
			}
		}
		staged[v.GenesetID] = append(staged[v.GenesetID], v)
	}
	for id, vs := range staged {
		f.byGeneset[id] = append(f.byGeneset[id], vs...)
	}
	return nil
}

func (f *fakeVersionRepo) Tip(_ context.Context, genesetID uuid.UUID) (*model.Version, error) {
	var tip *model.Version
	for i := range f.byGeneset[genesetID] {
		v := f.byGeneset[genesetID][i]
		// Later insertion wins ties, like the store's sequence column.
		if tip == nil || !v.CommitDate.Before(tip.CommitDate) {
			tip = &v
		}
	}
	return tip, nil
}

func (f *fakeVersionRepo) GetByHash(_ context.Context, genesetID uuid.UUID, verHash string) (*model.Version, error) {
	for _, v := range f.byGeneset[genesetID] {
		if v.VerHash == verHash {
			v := v
			return &v, nil
		}
	}
	return nil, errs.ErrVersionNotFound
}

func (f *fakeVersionRepo) List(_ context.Context, genesetID uuid.UUID, opts model.VersionListOptions) ([]model.Version, error) {
	var out []model.Version
	for i := len(f.byGeneset[genesetID]) - 1; i >= 0; i-- {
		v := f.byGeneset[genesetID][i]
		if opts.ModifiedBefore != nil && v.CommitDate.After(*opts.ModifiedBefore) {
			continue
		}
		if !opts.WithAnnotations {
			v.Annotations = nil
		}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CommitDate.After(out[j].CommitDate) })
	return out, nil
}

func (f *fakeVersionRepo) AncestorChain(_ context.Context, genesetID uuid.UUID, verHash string) ([]model.Version, error) {
	byID := make(map[uuid.UUID]model.Version)
	for _, v := range f.byGeneset[genesetID] {
		byID[v.ID] = v
	}
	var start *model.Version
	for _, v := range f.byGeneset[genesetID] {
		if v.VerHash == verHash {
			v := v
			start = &v
			break
		}
	}
	if start == nil {
		return nil, errs.ErrVersionNotFound
	}
	chain := []model.Version{*start}
	cur := *start
	for cur.ParentID != nil {
		next, ok := byID[*cur.ParentID]
		if !ok {
			return nil, fmt.Errorf("dangling parent %s", cur.ParentID)
		}
		chain = append(chain, next)
		cur = next
	}
	return chain, nil
}

func (f *fakeVersionRepo) HasRoot(_ context.Context, genesetID uuid.UUID) (bool, error) {
	for _, v := range f.byGeneset[genesetID] {
		if v.ParentID == nil {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVersionRepo) modifiedBefore(genesetID uuid.UUID, t time.Time) bool {
	for _, v := range f.byGeneset[genesetID] {
		if !v.CommitDate.After(t) {
			return true
		}
	}
	return false
}

type fakePubRepo struct {
	byPMID map[int64]model.Publication
}

var _ repository.PublicationRepository = (*fakePubRepo)(nil)

func newFakePubRepo() *fakePubRepo {
	return &fakePubRepo{byPMID: make(map[int64]model.Publication)}
}

func (f *fakePubRepo) Get(_ context.Context, pmid int64) (*model.Publication, error) {
	p, ok := f.byPMID[pmid]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (f *fakePubRepo) GetByPMIDs(_ context.Context, pmids []int64) (map[int64]model.Publication, error) {
	out := make(map[int64]model.Publication)
	for _, pmid := range pmids {
		if p, ok := f.byPMID[pmid]; ok {
			out[pmid] = p
		}
	}
	return out, nil
}

func (f *fakePubRepo) UpsertLoaded(_ context.Context, pubs []model.Publication) error {
	for _, p := range pubs {
		f.byPMID[p.PMID] = p
	}
	return nil
}

func (f *fakePubRepo) InsertStubs(_ context.Context, pmids []int64) error {
	for _, pmid := range pmids {
		if _, ok := f.byPMID[pmid]; !ok {
			f.byPMID[pmid] = model.Publication{PMID: pmid}
		}
	}
	return nil
}

// fakeFetcher serves bibliographic records from a map; identifiers outside
// it fail to fetch.
type fakeFetcher struct {
	records map[int64]model.Publication
	calls   int
}

var _ pubfetch.Fetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Fetch(_ context.Context, pmid int64) (*model.Publication, error) {
	f.calls++
	p, ok := f.records[pmid]
	if !ok {
		return nil, errors.New("upstream miss")
	}
	return &p, nil
}

// env wires the whole service stack over the fakes, with one seeded
// organism.
type env struct {
	users     *fakeUserRepo
	collabs   *fakeCollabRepo
	shares    *fakeShareRepo
	organisms *fakeOrganismRepo
	genes     *fakeGeneRepo
	genesets  *fakeGenesetRepo
	versions  *fakeVersionRepo
	pubs      *fakePubRepo
	fetcher   *fakeFetcher

	auth    *authz.Authorizer
	annots  *AnnotationServiceImpl
	verSvc  *VersionServiceImpl
	gsSvc   *GenesetServiceImpl
	userSvc *UserServiceImpl
	pubSvc  *PublicationServiceImpl

	organism model.Organism
}

func newEnv() *env {
	e := &env{
		users:     newFakeUserRepo(),
		organisms: newFakeOrganismRepo(),
		genes:     newFakeGeneRepo(),
		versions:  newFakeVersionRepo(),
		pubs:      newFakePubRepo(),
		fetcher:   &fakeFetcher{records: make(map[int64]model.Publication)},
	}
	e.collabs = newFakeCollabRepo(e.users)
	e.shares = newFakeShareRepo(e.users)
	e.genesets = newFakeGenesetRepo(e.versions, e.shares)

	logger := zap.NewNop()
	loader := pubfetch.NewLoader(e.fetcher, 2, logger)

	e.auth = authz.New(e.shares)
	e.annots = NewAnnotationService(e.genes, e.pubs, loader, logger)
	e.verSvc = NewVersionService(e.genesets, e.versions, e.organisms, e.genes, e.annots, e.auth, logger)
	e.gsSvc = NewGenesetService(e.genesets, e.users, e.collabs, e.shares, e.verSvc, e.auth, 0, logger)
	e.userSvc = NewUserService(e.users, e.collabs, e.auth, logger)
	e.pubSvc = NewPublicationService(e.pubs, loader, logger)

	e.organism = model.Organism{
		ID:               newID(),
		ScientificName:   "Saccharomyces cerevisiae",
		TaxonomyID:       4932,
		DefaultNamespace: model.NamespaceEntrez,
	}
	e.organisms.byID[e.organism.ID] = e.organism
	return e
}

func (e *env) addUser(username, email string) *model.User {
	u := model.User{
		ID:       newID(),
		Username: username,
		Email:    email,
	}
	e.users.byID[u.ID] = u
	return &u
}

func (e *env) addGene(entrezID int64, symbol, systematic string) model.Gene {
	g := model.Gene{
		ID:             newID(),
		OrganismID:     e.organism.ID,
		EntrezID:       entrezID,
		Symbol:         symbol,
		SystematicName: systematic,
	}
	e.genes.genes = append(e.genes.genes, g)
	return g
}

func (e *env) addXrefDB(name string) model.XrefDB {
	db := model.XrefDB{ID: newID(), Name: name, URL: "https://example.org/" + strings.ToLower(name)}
	e.genes.xrefDBs[name] = db
	return db
}

func (e *env) addXref(g model.Gene, namespace, xrid string) {
	db, ok := e.genes.xrefDBs[namespace]
	if !ok {
		db = e.addXrefDB(namespace)
	}
	e.genes.xrefs = append(e.genes.xrefs, model.CrossRef{
		ID:        newID(),
		XrefDBID:  db.ID,
		GeneID:    g.ID,
		XRID:      xrid,
		Namespace: namespace,
	})
}

func (e *env) addLoadedPub(pmid int64, title string) {
	e.pubs.byPMID[pmid] = model.Publication{PMID: pmid, Title: title, Loaded: true}
}

func (e *env) fetchable(pmid int64, title string) {
	e.fetcher.records[pmid] = model.Publication{Title: title}
}

// createGeneset makes a bare collection through the service.
func (e *env) createGeneset(t *testing.T, ctx context.Context, actor *model.User, title string, public bool) *model.Geneset {
	t.Helper()
	gs, _, err := e.gsSvc.Create(ctx, actor, model.CreateGenesetRequest{
		Title:      title,
		Public:     public,
		OrganismID: e.organism.ID,
	})
	if err != nil {
		t.Fatalf("create geneset %q: %v", title, err)
	}
	return gs
}

// commit appends a version with one-gene-per-entry raw annotations.
func (e *env) commit(t *testing.T, ctx context.Context, actor *model.User, genesetID uuid.UUID, parentHash string, entries ...model.RawAnnotation) *model.Version {
	t.Helper()
	v, _, err := e.verSvc.Commit(ctx, actor, genesetID, model.CommitRequest{
		Annotations: entries,
		ParentHash:  parentHash,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return v
}
