package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// geneInfoRow is one usable line of an NCBI gene_info file: tab-separated,
// tax_id, GeneID, Symbol and LocusTag in the first four columns, dbXrefs in
// the sixth as pipe-separated "Db:identifier" entries.
type geneInfoRow struct {
	TaxID    int64
	EntrezID int64
	Symbol   string
	Locus    string
	DBXrefs  []string
}

// parseGeneInfo reads a gene_info TSV and keeps the rows of one organism.
// Comment lines start with '#'; the placeholder "-" reads as empty.
func parseGeneInfo(r io.Reader, taxID int64) ([]geneInfoRow, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []geneInfoRow
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: want at least 6 columns, got %d", lineNo, len(fields))
		}
		rowTax, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: tax_id: %w", lineNo, err)
		}
		if rowTax != taxID {
			continue
		}
		entrez, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: GeneID: %w", lineNo, err)
		}
		row := geneInfoRow{
			TaxID:    rowTax,
			EntrezID: entrez,
			Symbol:   clean(fields[2]),
			Locus:    clean(fields[3]),
		}
		if x := clean(fields[5]); x != "" {
			row.DBXrefs = strings.Split(x, "|")
		}
		rows = append(rows, row)
	}
	return rows, sc.Err()
}

func clean(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// xrefsIn extracts the identifiers of one database from a dbXrefs list. The
// first colon splits database from identifier, so identifiers may themselves
// contain colons.
func xrefsIn(dbXrefs []string, db string) []string {
	var out []string
	for _, entry := range dbXrefs {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) == 2 && parts[0] == db {
			out = append(out, parts[1])
		}
	}
	return out
}
