// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Namespace names with engine-level meaning. Any other value names a
// cross-reference database registered in the store.
const (
	NamespaceEntrez = "Entrez"
	NamespaceSymbol = "Symbol"

	// NamespaceAll asks display resolution to attach every cross-reference
	// available for each gene instead of a single namespace.
	NamespaceAll = "all"
)

// TemporaryUserPrefix marks ephemeral accounts created for anonymous
// sessions; DisplayName folds such usernames into the bare prefix.
const TemporaryUserPrefix = "TemporaryUser"

// User is an account that owns genesets and collaborates on others.
type User struct {
	ID        uuid.UUID
	Username  string // unique
	Email     string
	FirstName string
	LastName  string
	Temporary bool // ephemeral account flag
	CreatedAt time.Time
}

// DisplayName hides the numeric suffix of temporary accounts.
func (u *User) DisplayName() string {
	if u.Temporary && strings.HasPrefix(u.Username, TemporaryUserPrefix) {
		return TemporaryUserPrefix
	}
	return u.Username
}

// Collaboration is a directed invite edge between two users. A mutual pair
// of edges makes the users collaborators; single edges are pending invites.
type Collaboration struct {
	ID         uuid.UUID
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	CreatedAt  time.Time
}

// Share grants a user edit rights on a geneset without transferring
// ownership. Unique per (geneset, to_user).
type Share struct {
	ID         uuid.UUID
	GenesetID  uuid.UUID
	FromUserID uuid.UUID // inviter
	ToUserID   uuid.UUID
	CreatedAt  time.Time
}

// Participant is a share as presented on a geneset. Email and InvitedBy are
// blanked for actors without update rights.
type Participant struct {
	Username  string
	Email     string
	InvitedBy string
}

// Organism scopes genes and supplies the namespace used when annotation
// input does not name one.
type Organism struct {
	ID               uuid.UUID
	ScientificName   string // unique
	TaxonomyID       int64  // unique
	DefaultNamespace string
}

// Geneset is a named, owned, versioned collection of gene annotations.
type Geneset struct {
	ID              uuid.UUID
	CreatorID       uuid.UUID
	CreatorUsername string // populated by reads that join users
	OrganismID      uuid.UUID
	Title           string
	Slug            string // unique per creator, tombstones included
	Abstract        string
	Public          bool
	Deleted         bool // tombstone; rows are never physically removed
	ForkOf          *uuid.UUID
	Tags            []string
	CreatedAt       time.Time
}

// Version is an immutable annotation snapshot in a geneset's lineage.
// Exactly one version per lineage has a nil parent (the root); the tip is
// the version with the latest commit date, computed rather than stored.
type Version struct {
	ID          uuid.UUID
	GenesetID   uuid.UUID
	ParentID    *uuid.UUID // nil only for the lineage root
	VerHash     string     // content-derived, unique per geneset
	CreatorID   uuid.UUID
	Description string
	CommitDate  time.Time
	Annotations []Annotation
}

// Gene is the canonical identity to which namespaced identifiers resolve.
type Gene struct {
	ID             uuid.UUID
	OrganismID     uuid.UUID
	EntrezID       int64 // unique
	Symbol         string
	SystematicName string
}

// XrefDB is a registered external identifier namespace.
type XrefDB struct {
	ID   uuid.UUID
	Name string // unique
	URL  string
}

// CrossRef ties a gene to one identifier in one namespace. A gene may carry
// any number per namespace, and one identifier may point at several genes;
// the ambiguity is surfaced by resolution, never prevented by the schema.
type CrossRef struct {
	ID       uuid.UUID
	XrefDBID uuid.UUID
	GeneID   uuid.UUID
	XRID     string

	// Namespace is the owning XrefDB name, populated by reads that join.
	Namespace string
}

// Publication is a bibliographic record keyed by its external identifier.
// Loaded=false rows are stubs referenced before hydration.
type Publication struct {
	PMID    int64
	Title   string
	Authors string
	Date    time.Time
	Journal string
	Volume  string
	Pages   string
	Issue   string
	Loaded  bool
}

// DisplayGene is a gene prepared for display: the record itself plus either
// every cross-reference available or exactly the namespace requested.
type DisplayGene struct {
	Gene  Gene
	Xrefs []CrossRef
}

// GeneAnnotations groups a version's resolved publications under one gene.
type GeneAnnotations struct {
	Gene         DisplayGene
	Publications []Publication
}

// RegisterRequest creates a user record. Registration is open; credential
// handling belongs to the identity collaborator, not this core.
type RegisterRequest struct {
	Username  string `validate:"required,max=150"`
	Email     string `validate:"omitempty,email"`
	FirstName string `validate:"max=150"`
	LastName  string `validate:"max=150"`
	Temporary bool
}

// CreateGenesetRequest creates a collection, optionally seeding the first
// version (Annotations) or forking an existing lineage (ForkOf+ForkVersion).
type CreateGenesetRequest struct {
	Title      string    `validate:"required,max=256"`
	Slug       string    `validate:"omitempty,max=75"`
	Abstract   string    `validate:"-"`
	Public     bool      `validate:"-"`
	OrganismID uuid.UUID `validate:"required"`
	Tags       []string  `validate:"dive,max=100"`

	// Annotations, when present, seed the implicit first version.
	Annotations []RawAnnotation `validate:"-"`
	Namespace   string          `validate:"max=64"`
	HydratePubs bool            `validate:"-"`
	Description string          `validate:"max=1024"`

	// ForkOf and ForkVersion copy the named version and its ancestry into
	// the new collection instead of starting a fresh lineage.
	ForkOf      *uuid.UUID `validate:"-"`
	ForkVersion string     `validate:"max=64"`
}

// UpdateGenesetRequest mutates the only fields a geneset exposes for update.
type UpdateGenesetRequest struct {
	Title    *string `validate:"omitempty,max=256"`
	Abstract *string `validate:"-"`
	Public   *bool   `validate:"-"`
}

// CommitRequest appends a version to a lineage. ParentHash is required once
// the lineage has a root.
type CommitRequest struct {
	Annotations []RawAnnotation `validate:"required,min=1"`
	Namespace   string          `validate:"max=64"`
	HydratePubs bool            `validate:"-"`
	Description string          `validate:"max=1024"`
	ParentHash  string          `validate:"max=64"`
}

// ListGenesetsFilter narrows a geneset listing. Zero values mean no filter.
type ListGenesetsFilter struct {
	CreatorUsername string
	Slug            string
	Title           string
	Tags            []string

	// ModifiedBefore keeps only genesets with at least one version
	// committed on or before the given instant (a semi-join against the
	// version store, not a geneset column).
	ModifiedBefore *time.Time
}

// VersionListOptions controls a lineage listing.
type VersionListOptions struct {
	ModifiedBefore  *time.Time
	WithAnnotations bool
}
