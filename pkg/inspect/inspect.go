// Package inspect verifies a cleaned dataset by querying the hive-style
// Parquet layout with DuckDB.
package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tripflow/tripflow/pkg/errors"
)

// PartitionCount is the row count of one written partition.
type PartitionCount struct {
	Year  int
	Month int
	Rows  int64
}

// Report summarizes a cleaned dataset.
type Report struct {
	Partitions []PartitionCount
	TotalRows  int64
}

// Dataset scans every partition artifact under outRoot and returns row
// counts per partition, read back through DuckDB's Parquet reader with hive
// partitioning enabled.
func Dataset(ctx context.Context, outRoot string) (*Report, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to open duckdb")
	}
	defer db.Close()

	pattern := filepath.Join(outRoot, "year=*", "month=*", "data.parquet")

	// read_parquet errors on a glob with no matches; report empty instead.
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to scan output tree").
			WithContext("pattern", pattern)
	}
	if len(matches) == 0 {
		return &Report{}, nil
	}

	query := `
		SELECT CAST(year AS INTEGER), CAST(month AS INTEGER), COUNT(*)
		FROM read_parquet(?, hive_partitioning = 1)
		GROUP BY year, month
		ORDER BY year, month
	`

	rows, err := db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to query cleaned dataset").
			WithContext("pattern", pattern)
	}
	defer rows.Close()

	report := &Report{}
	for rows.Next() {
		var pc PartitionCount
		if err := rows.Scan(&pc.Year, &pc.Month, &pc.Rows); err != nil {
			return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to scan partition count")
		}
		report.Partitions = append(report.Partitions, pc)
		report.TotalRows += pc.Rows
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeQueryFailed, "failed to read partition counts")
	}

	return report, nil
}

// Render returns a plain-text table of the report.
func (r *Report) Render() string {
	p := message.NewPrinter(language.English)

	var sb strings.Builder
	sb.WriteString("partition    rows\n")
	for _, pc := range r.Partitions {
		sb.WriteString(fmt.Sprintf("%d-%02d      %s\n",
			pc.Year, pc.Month, p.Sprintf("%d", pc.Rows)))
	}
	sb.WriteString(fmt.Sprintf("total        %s across %d partitions\n",
		p.Sprintf("%d", r.TotalRows), len(r.Partitions)))
	return sb.String()
}

// String implements fmt.Stringer.
func (r *Report) String() string {
	return fmt.Sprintf("inspect: %d partitions, %d rows", len(r.Partitions), r.TotalRows)
}
