// Command geneload loads reference data into the annotation store:
// organisms, gene records from NCBI gene_info files, cross-reference
// namespaces and per-gene cross-references.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/verdantbio/geneset/internal/config"
	"github.com/verdantbio/geneset/internal/errs"
	"github.com/verdantbio/geneset/internal/migrate"
	"github.com/verdantbio/geneset/internal/model"
	"github.com/verdantbio/geneset/internal/repository/postgres"
)

func usage() {
	fmt.Fprintf(os.Stderr, `geneload reference data loader
Usage:
  geneload [-dsn DSN] [-env FILE] <cmd> [args]

Commands:
  organism  -name <scientific name> -taxid <id> [-namespace <ns>]
  genes     -taxid <id> -file <gene_info.tsv>
  xrefdb    -name <namespace> [-url <pattern>]
  xrefs     -taxid <id> -db <namespace> -file <gene_info.tsv>
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides environment)")
	envFile := flag.String("env", "", "path to a .env file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load(*envFile)
	if err != nil {
		fail(err)
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer db.Close()

	organisms := postgres.NewOrganismRepo(db)
	genes := postgres.NewGeneRepo(db)

	switch cmd {

	case "organism":
		fs := flag.NewFlagSet("organism", flag.ExitOnError)
		name := fs.String("name", "", "scientific name")
		taxid := fs.Int64("taxid", 0, "NCBI taxonomy ID")
		ns := fs.String("namespace", model.NamespaceEntrez, "default identifier namespace")
		_ = fs.Parse(args)
		if *name == "" || *taxid == 0 {
			fmt.Fprintln(os.Stderr, "need -name and -taxid")
			os.Exit(1)
		}

		id, err := uuid.NewV4()
		if err != nil {
			fail(err)
		}
		o := &model.Organism{ID: id, ScientificName: *name, TaxonomyID: *taxid, DefaultNamespace: *ns}
		if err := organisms.Create(ctx, o); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				fail(fmt.Errorf("organism %q (taxid %d) is already registered", *name, *taxid))
			}
			fail(err)
		}
		fmt.Println(o.ID)

	case "genes":
		fs := flag.NewFlagSet("genes", flag.ExitOnError)
		taxid := fs.Int64("taxid", 0, "NCBI taxonomy ID")
		file := fs.String("file", "", "gene_info TSV")
		_ = fs.Parse(args)
		if *taxid == 0 || *file == "" {
			fmt.Fprintln(os.Stderr, "need -taxid and -file")
			os.Exit(1)
		}

		organism, err := organisms.GetByTaxonomyID(ctx, *taxid)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				fail(fmt.Errorf("no organism registered for taxid %d (run the organism command first)", *taxid))
			}
			fail(err)
		}
		f, err := os.Open(*file)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		rows, err := parseGeneInfo(f, *taxid)
		if err != nil {
			fail(err)
		}

		batch := make([]model.Gene, 0, len(rows))
		for _, row := range rows {
			id, err := uuid.NewV4()
			if err != nil {
				fail(err)
			}
			batch = append(batch, model.Gene{
				ID:             id,
				OrganismID:     organism.ID,
				EntrezID:       row.EntrezID,
				Symbol:         row.Symbol,
				SystematicName: row.Locus,
			})
		}
		n, err := genes.CopyGenes(ctx, batch)
		if err != nil {
			fail(err)
		}
		logger.Info("genes loaded", zap.Int64("rows", n), zap.Int64("taxid", *taxid))
		fmt.Printf("loaded %d genes\n", n)

	case "xrefdb":
		fs := flag.NewFlagSet("xrefdb", flag.ExitOnError)
		name := fs.String("name", "", "namespace name")
		url := fs.String("url", "", "URL pattern for identifiers")
		_ = fs.Parse(args)
		if *name == "" {
			fmt.Fprintln(os.Stderr, "need -name")
			os.Exit(1)
		}

		id, err := uuid.NewV4()
		if err != nil {
			fail(err)
		}
		xdb := &model.XrefDB{ID: id, Name: *name, URL: *url}
		if err := genes.CreateXrefDB(ctx, xdb); err != nil {
			if errors.Is(err, errs.ErrAlreadyExists) {
				fail(fmt.Errorf("namespace %q is already registered", *name))
			}
			fail(err)
		}
		fmt.Println(xdb.ID)

	case "xrefs":
		fs := flag.NewFlagSet("xrefs", flag.ExitOnError)
		taxid := fs.Int64("taxid", 0, "NCBI taxonomy ID")
		dbName := fs.String("db", "", "cross-reference namespace")
		file := fs.String("file", "", "gene_info TSV")
		_ = fs.Parse(args)
		if *taxid == 0 || *dbName == "" || *file == "" {
			fmt.Fprintln(os.Stderr, "need -taxid, -db and -file")
			os.Exit(1)
		}

		organism, err := organisms.GetByTaxonomyID(ctx, *taxid)
		if err != nil {
			fail(err)
		}
		xdb, err := genes.GetXrefDB(ctx, *dbName)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				fail(fmt.Errorf("namespace %q is not registered (run the xrefdb command first)", *dbName))
			}
			fail(err)
		}
		f, err := os.Open(*file)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		rows, err := parseGeneInfo(f, *taxid)
		if err != nil {
			fail(err)
		}

		var entrezIDs []int64
		for _, row := range rows {
			if len(xrefsIn(row.DBXrefs, *dbName)) > 0 {
				entrezIDs = append(entrezIDs, row.EntrezID)
			}
		}
		byEntrez, err := genes.GetByEntrezIDs(ctx, organism.ID, entrezIDs)
		if err != nil {
			fail(err)
		}

		var batch []model.CrossRef
		missing := 0
		for _, row := range rows {
			ids := xrefsIn(row.DBXrefs, *dbName)
			if len(ids) == 0 {
				continue
			}
			gene, ok := byEntrez[row.EntrezID]
			if !ok {
				missing++
				continue
			}
			for _, xrid := range ids {
				id, err := uuid.NewV4()
				if err != nil {
					fail(err)
				}
				batch = append(batch, model.CrossRef{
					ID:       id,
					XrefDBID: xdb.ID,
					GeneID:   gene.ID,
					XRID:     xrid,
				})
			}
		}
		n, err := genes.CopyXrefs(ctx, batch)
		if err != nil {
			fail(err)
		}
		logger.Info("cross-references loaded",
			zap.Int64("rows", n),
			zap.String("namespace", *dbName),
			zap.Int("genes_missing", missing))
		fmt.Printf("loaded %d cross-references (%d genes not in store)\n", n, missing)

	default:
		usage()
	}
}
