package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofrs/uuid/v5"
)

// NoPublication is the PMID of a pair annotating a gene without literature
// support. It is stored as JSON null, never as a publication reference.
const NoPublication int64 = 0

// VerHashLen bounds stored version hashes to a git-like short form.
const VerHashLen = 40

// Annotation is one stored (gene, publication) pair. Its JSON form is a
// two-element array, so a version payload reads
// [["<gene-uuid>", 123], ["<gene-uuid>", null], ...].
type Annotation struct {
	GeneID uuid.UUID
	PMID   int64
}

// MarshalJSON encodes the pair with null standing in for NoPublication.
func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.PMID == NoPublication {
		return json.Marshal([2]any{a.GeneID.String(), nil})
	}
	return json.Marshal([2]any{a.GeneID.String(), a.PMID})
}

// UnmarshalJSON decodes the two-element pair form.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("annotation pair: %w", err)
	}
	var gene string
	if err := json.Unmarshal(pair[0], &gene); err != nil {
		return fmt.Errorf("annotation gene: %w", err)
	}
	id, err := uuid.FromString(gene)
	if err != nil {
		return fmt.Errorf("annotation gene: %w", err)
	}
	a.GeneID = id
	a.PMID = NoPublication
	if len(pair[1]) > 0 && string(pair[1]) != "null" {
		if err := json.Unmarshal(pair[1], &a.PMID); err != nil {
			return fmt.Errorf("annotation pmid: %w", err)
		}
	}
	return nil
}

// RawAnnotation is one unresolved input entry: a gene identifier in some
// namespace plus the publication identifiers annotating it. An empty Pubs
// list annotates the gene without literature.
type RawAnnotation struct {
	Gene string  `json:"gene"`
	Pubs []int64 `json:"pubs"`
}

// ResolutionReport carries the warning sets of a resolution pass. A
// non-empty report never blocks the operation that produced it.
type ResolutionReport struct {
	GenesNotFound  []string
	PubsNotLoaded  []int64
	AmbiguousGenes []string
}

// Empty reports whether resolution completed without warnings.
func (r *ResolutionReport) Empty() bool {
	return r == nil ||
		(len(r.GenesNotFound) == 0 && len(r.PubsNotLoaded) == 0 && len(r.AmbiguousGenes) == 0)
}

// ComputeVerHash derives a version's content hash from its parent hash,
// creator, description and resolved pairs. The commit date stays out of the
// hash, so copies written by a fork keep the hashes of the versions they
// were copied from and provenance stays visible across lineages.
func ComputeVerHash(parentHash string, creator uuid.UUID, description string, pairs []Annotation) string {
	h := sha256.New()
	h.Write([]byte(parentHash))
	h.Write([]byte{'\n'})
	h.Write(creator.Bytes())
	h.Write([]byte{'\n'})
	h.Write([]byte(description))
	h.Write([]byte{'\n'})
	for _, p := range pairs {
		h.Write(p.GeneID.Bytes())
		h.Write([]byte(strconv.FormatInt(p.PMID, 10)))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))[:VerHashLen]
}
