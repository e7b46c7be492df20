// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the entity is absent or not visible to the
	// actor; the two are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the actor can see the entity but lacks
	// rights for the requested operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrDuplicateSlug indicates the creator already has a collection with this slug.
	ErrDuplicateSlug = errors.New("duplicate slug")

	// ErrMissingParent indicates a commit without a parent into a lineage
	// that already has a root version.
	ErrMissingParent = errors.New("missing parent version")

	// ErrVersionNotFound indicates a version hash that does not resolve
	// within the lineage it was addressed against.
	ErrVersionNotFound = errors.New("version not found")

	// ErrInvalidGene indicates an annotation payload referencing a gene
	// absent from the store.
	ErrInvalidGene = errors.New("annotation references unknown gene")

	// ErrInvalidInput indicates a malformed or incomplete request payload.
	ErrInvalidInput = errors.New("invalid input")

	// ErrImmutable indicates an attempt to modify an entity that can never
	// change once created (committed versions).
	ErrImmutable = errors.New("immutable")
)
