// Package discover walks the raw directory tree and enumerates the
// (year, month) partitions to clean.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tripflow/tripflow/pkg/errors"
)

// Valid year range of the raw dataset. Directory names outside this range
// are skipped, not reported.
const (
	MinYear = 2023
	MaxYear = 2025
)

// Key identifies one partition: the unit of aggregation and output.
type Key struct {
	Year  int
	Month int
}

// String renders the key as YYYY-MM.
func (k Key) String() string {
	return fmt.Sprintf("%d-%02d", k.Year, k.Month)
}

// OutputPath returns the canonical hive-style artifact path under outRoot.
func (k Key) OutputPath(outRoot string) string {
	return filepath.Join(
		outRoot,
		fmt.Sprintf("year=%d", k.Year),
		fmt.Sprintf("month=%02d", k.Month),
		"data.parquet",
	)
}

// Partition is one discovered unit of work: a key plus its input files in
// lexical order.
type Partition struct {
	Key   Key
	Files []string
}

// Discover enumerates partitions under root. Directory names that are not
// purely numeric, or fall outside the valid year/month ranges, are skipped
// silently; trees commonly contain unrelated entries. A month directory with
// no CSV files logs a warning and is excluded. Sibling directories whose
// names parse to the same key (such as 1 and 01) are merged into one
// partition; they share one output artifact.
func Discover(root string, logger *zap.Logger) ([]Partition, error) {
	yearEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRootNotFound, "failed to read raw root").
			WithContext("root", root)
	}

	byKey := make(map[Key][]string)
	var keys []Key

	for _, yearEntry := range yearEntries {
		if !yearEntry.IsDir() {
			continue
		}
		year, ok := parseNumericName(yearEntry.Name())
		if !ok || year < MinYear || year > MaxYear {
			continue
		}

		yearDir := filepath.Join(root, yearEntry.Name())
		monthEntries, err := os.ReadDir(yearDir)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeRootNotFound, "failed to read year directory").
				WithContext("dir", yearDir)
		}

		for _, monthEntry := range monthEntries {
			if !monthEntry.IsDir() {
				continue
			}
			month, ok := parseNumericName(monthEntry.Name())
			if !ok || month < 1 || month > 12 {
				continue
			}

			monthDir := filepath.Join(yearDir, monthEntry.Name())
			files, err := filepath.Glob(filepath.Join(monthDir, "*.csv"))
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnreadableFile, "failed to list month directory").
					WithContext("dir", monthDir)
			}
			key := Key{Year: year, Month: month}
			if len(files) == 0 {
				logger.Warn("no CSV files in partition directory",
					zap.String("partition", key.String()),
					zap.String("dir", monthDir))
				continue
			}

			if _, seen := byKey[key]; !seen {
				keys = append(keys, key)
			}
			byKey[key] = append(byKey[key], files...)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})

	partitions := make([]Partition, 0, len(keys))
	for _, key := range keys {
		files := byKey[key]
		sort.Strings(files)
		partitions = append(partitions, Partition{Key: key, Files: files})
	}

	return partitions, nil
}

// parseNumericName parses a directory name that consists only of digits.
func parseNumericName(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, r := range name {
		if !strings.ContainsRune("0123456789", r) {
			return 0, false
		}
	}
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return n, true
}
