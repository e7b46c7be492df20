package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

// GeneRepo implements GeneRepository using PostgreSQL.
type GeneRepo struct{ db *DB }

// NewGeneRepo constructs a gene repository.
func NewGeneRepo(db *DB) *GeneRepo { return &GeneRepo{db: db} }

const geneColumns = `id, organism_id, entrez_id, symbol, systematic_name`

// LookupByEntrez finds genes of an organism by Entrez ID.
func (r *GeneRepo) LookupByEntrez(ctx context.Context, organismID uuid.UUID, entrezID int64) ([]model.Gene, error) {
	const q = `
SELECT ` + geneColumns + `
FROM genes
WHERE organism_id=$1 AND entrez_id=$2
ORDER BY entrez_id`
	return r.queryGenes(ctx, q, organismID, entrezID)
}

// LookupBySymbol finds genes of an organism by symbol or systematic name.
func (r *GeneRepo) LookupBySymbol(ctx context.Context, organismID uuid.UUID, symbol string) ([]model.Gene, error) {
	const q = `
SELECT ` + geneColumns + `
FROM genes
WHERE organism_id=$1 AND (symbol=$2 OR systematic_name=$2)
ORDER BY entrez_id`
	return r.queryGenes(ctx, q, organismID, symbol)
}

// LookupByXref finds genes of an organism carrying an identifier in a
// cross-reference namespace. Several genes may share one identifier.
func (r *GeneRepo) LookupByXref(ctx context.Context, organismID uuid.UUID, namespace, xrid string) ([]model.Gene, error) {
	const q = `
SELECT g.id, g.organism_id, g.entrez_id, g.symbol, g.systematic_name
FROM genes g
JOIN xrefs x ON x.gene_id = g.id
JOIN xref_dbs d ON d.id = x.xrefdb_id
WHERE g.organism_id=$1 AND d.name=$2 AND x.xrid=$3
ORDER BY g.entrez_id`
	return r.queryGenes(ctx, q, organismID, namespace, xrid)
}

// GetByIDs loads gene records keyed by ID.
func (r *GeneRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Gene, error) {
	const q = `
SELECT ` + geneColumns + `
FROM genes
WHERE id = ANY($1::uuid[])`
	genes, err := r.queryGenes(ctx, q, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]model.Gene, len(genes))
	for _, g := range genes {
		out[g.ID] = g
	}
	return out, nil
}

// GetByEntrezIDs loads genes of an organism keyed by Entrez ID.
func (r *GeneRepo) GetByEntrezIDs(ctx context.Context, organismID uuid.UUID, entrezIDs []int64) (map[int64]model.Gene, error) {
	const q = `
SELECT ` + geneColumns + `
FROM genes
WHERE organism_id=$1 AND entrez_id = ANY($2)`
	genes, err := r.queryGenes(ctx, q, organismID, entrezIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]model.Gene, len(genes))
	for _, g := range genes {
		out[g.EntrezID] = g
	}
	return out, nil
}

// CountExisting counts how many of the given IDs exist.
func (r *GeneRepo) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM genes WHERE id = ANY($1::uuid[])`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q, uuidStrings(ids)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// XrefsForGenes returns every cross-reference of each gene.
func (r *GeneRepo) XrefsForGenes(ctx context.Context, geneIDs []uuid.UUID) (map[uuid.UUID][]model.CrossRef, error) {
	const q = `
SELECT x.id, x.xrefdb_id, x.gene_id, x.xrid, d.name
FROM xrefs x
JOIN xref_dbs d ON d.id = x.xrefdb_id
WHERE x.gene_id = ANY($1::uuid[])
ORDER BY d.name, x.xrid`
	return r.queryXrefs(ctx, q, uuidStrings(geneIDs))
}

// XrefsForGenesIn restricts XrefsForGenes to one namespace.
func (r *GeneRepo) XrefsForGenesIn(ctx context.Context, geneIDs []uuid.UUID, namespace string) (map[uuid.UUID][]model.CrossRef, error) {
	const q = `
SELECT x.id, x.xrefdb_id, x.gene_id, x.xrid, d.name
FROM xrefs x
JOIN xref_dbs d ON d.id = x.xrefdb_id
WHERE x.gene_id = ANY($1::uuid[]) AND d.name=$2
ORDER BY x.xrid`
	return r.queryXrefs(ctx, q, uuidStrings(geneIDs), namespace)
}

// CopyGenes bulk-inserts gene records over the COPY protocol.
func (r *GeneRepo) CopyGenes(ctx context.Context, genes []model.Gene) (int64, error) {
	rows := make([][]any, 0, len(genes))
	for _, g := range genes {
		rows = append(rows, []any{g.ID, g.OrganismID, g.EntrezID, g.Symbol, g.SystematicName})
	}
	return r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"genes"},
		[]string{"id", "organism_id", "entrez_id", "symbol", "systematic_name"},
		pgx.CopyFromRows(rows))
}

// CopyXrefs bulk-inserts cross-references over the COPY protocol.
func (r *GeneRepo) CopyXrefs(ctx context.Context, xrefs []model.CrossRef) (int64, error) {
	rows := make([][]any, 0, len(xrefs))
	for _, x := range xrefs {
		rows = append(rows, []any{x.ID, x.XrefDBID, x.GeneID, x.XRID})
	}
	return r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"xrefs"},
		[]string{"id", "xrefdb_id", "gene_id", "xrid"},
		pgx.CopyFromRows(rows))
}

// CreateXrefDB registers a cross-reference namespace.
func (r *GeneRepo) CreateXrefDB(ctx context.Context, db *model.XrefDB) error {
	const q = `INSERT INTO xref_dbs (id, name, url) VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, db.ID, db.Name, db.URL)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetXrefDB loads a namespace by name.
func (r *GeneRepo) GetXrefDB(ctx context.Context, name string) (*model.XrefDB, error) {
	const q = `SELECT id, name, url FROM xref_dbs WHERE name=$1`
	var db model.XrefDB
	err := r.db.Pool.QueryRow(ctx, q, name).Scan(&db.ID, &db.Name, &db.URL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &db, nil
}

func (r *GeneRepo) queryGenes(ctx context.Context, q string, args ...any) ([]model.Gene, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Gene
	for rows.Next() {
		var g model.Gene
		if err = rows.Scan(&g.ID, &g.OrganismID, &g.EntrezID, &g.Symbol, &g.SystematicName); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GeneRepo) queryXrefs(ctx context.Context, q string, args ...any) (map[uuid.UUID][]model.CrossRef, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.CrossRef)
	for rows.Next() {
		var x model.CrossRef
		if err = rows.Scan(&x.ID, &x.XrefDBID, &x.GeneID, &x.XRID, &x.Namespace); err != nil {
			return nil, err
		}
		out[x.GeneID] = append(out[x.GeneID], x)
	}
	return out, rows.Err()
}

// uuidStrings renders IDs for uuid[] parameters.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
