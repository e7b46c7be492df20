package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/model"
)

func TestOrganismRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewOrganismRepo(db)

	o := &model.Organism{
		ID:               uuid.Must(uuid.NewV4()),
		ScientificName:   "Saccharomyces cerevisiae",
		TaxonomyID:       4932,
		DefaultNamespace: model.NamespaceEntrez,
	}

	mock.ExpectExec(`INSERT INTO organisms \(id, scientific_name, taxonomy_id, default_namespace\)`).
		WithArgs(o.ID, o.ScientificName, o.TaxonomyID, o.DefaultNamespace).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(context.Background(), o))

	mock.ExpectExec(`INSERT INTO organisms`).
		WithArgs(o.ID, o.ScientificName, o.TaxonomyID, o.DefaultNamespace).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "organisms_taxonomy_id_key"})
	require.ErrorIs(t, r.Create(context.Background(), o), errs.ErrAlreadyExists)
}

func TestOrganismRepo_GetByTaxonomyID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewOrganismRepo(db)

	o := &model.Organism{ID: uuid.Must(uuid.NewV4()), ScientificName: "Homo sapiens", TaxonomyID: 9606, DefaultNamespace: "Entrez"}

	mock.ExpectQuery(`FROM organisms WHERE taxonomy_id=\$1`).
		WithArgs(int64(9606)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "scientific_name", "taxonomy_id", "default_namespace"}).
			AddRow(o.ID, o.ScientificName, o.TaxonomyID, o.DefaultNamespace))
	got, err := r.GetByTaxonomyID(context.Background(), 9606)
	require.NoError(t, err)
	require.Equal(t, "Homo sapiens", got.ScientificName)

	mock.ExpectQuery(`FROM organisms WHERE taxonomy_id=\$1`).
		WithArgs(int64(1)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByTaxonomyID(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
