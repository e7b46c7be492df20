package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

// PublicationRepo implements PublicationRepository using PostgreSQL.
type PublicationRepo struct{ db *DB }

// NewPublicationRepo constructs a publication repository.
func NewPublicationRepo(db *DB) *PublicationRepo { return &PublicationRepo{db: db} }

const pubColumns = `pmid, title, authors, date, journal, volume, pages, issue, loaded`

// Get loads a publication, stubs included.
func (r *PublicationRepo) Get(ctx context.Context, pmid int64) (*model.Publication, error) {
	const q = `
SELECT ` + pubColumns + `
FROM publications WHERE pmid=$1`
	p, err := scanPublication(r.db.Pool.QueryRow(ctx, q, pmid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByPMIDs loads publications keyed by PMID.
func (r *PublicationRepo) GetByPMIDs(ctx context.Context, pmids []int64) (map[int64]model.Publication, error) {
	const q = `
SELECT ` + pubColumns + `
FROM publications WHERE pmid = ANY($1)`
	rows, err := r.db.Pool.Query(ctx, q, pmids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]model.Publication, len(pmids))
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		out[p.PMID] = *p
	}
	return out, rows.Err()
}

// UpsertLoaded writes hydrated records in one transaction, overwriting stubs.
func (r *PublicationRepo) UpsertLoaded(ctx context.Context, pubs []model.Publication) (err error) {
	if len(pubs) == 0 {
		return nil
	}
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const q = `
INSERT INTO publications (pmid, title, authors, date, journal, volume, pages, issue, loaded)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
ON CONFLICT (pmid) DO UPDATE SET
	title=EXCLUDED.title, authors=EXCLUDED.authors, date=EXCLUDED.date,
	journal=EXCLUDED.journal, volume=EXCLUDED.volume, pages=EXCLUDED.pages,
	issue=EXCLUDED.issue, loaded=true`
	for _, p := range pubs {
		var date *time.Time
		if !p.Date.IsZero() {
			date = &p.Date
		}
		if _, err = tx.Exec(ctx, q, p.PMID, p.Title, p.Authors, date, p.Journal, p.Volume, p.Pages, p.Issue); err != nil {
			return err
		}
	}
	return nil
}

// InsertStubs records referenced-but-unloaded PMIDs in one statement,
// keeping existing rows untouched.
func (r *PublicationRepo) InsertStubs(ctx context.Context, pmids []int64) error {
	if len(pmids) == 0 {
		return nil
	}
	const q = `
INSERT INTO publications (pmid)
SELECT unnest($1::bigint[])
ON CONFLICT (pmid) DO NOTHING`
	_, err := r.db.Pool.Exec(ctx, q, pmids)
	return err
}

// scanPublication reads one publication row produced with pubColumns ordering.
func scanPublication(row pgx.Row) (*model.Publication, error) {
	var (
		p    model.Publication
		date *time.Time
	)
	err := row.Scan(&p.PMID, &p.Title, &p.Authors, &date, &p.Journal, &p.Volume, &p.Pages, &p.Issue, &p.Loaded)
	if err != nil {
		return nil, err
	}
	if date != nil {
		p.Date = *date
	}
	return &p, nil
}
