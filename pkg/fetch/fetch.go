// Package fetch downloads raw trip archives from the public tripdata bucket
// and extracts them into the raw_root/YYYY/MM/ layout the cleaning pipeline
// consumes.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/tripflow/tripflow/pkg/discover"
	tferrors "github.com/tripflow/tripflow/pkg/errors"
)

// Config holds fetch settings.
type Config struct {
	Bucket  string
	Region  string
	RawRoot string

	// Progress renders download progress bars.
	Progress bool
}

// Fetcher downloads and extracts trip archives. The bucket is public, so
// the client runs with anonymous credentials.
type Fetcher struct {
	cfg    Config
	client *s3.Client
	logger *zap.Logger
}

// yearMonthPattern matches the YYYYMM prefix of archive member names such
// as 202301-citibike-tripdata_1.csv.
var yearMonthPattern = regexp.MustCompile(`(\d{4})(\d{2})`)

// New creates a Fetcher.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Fetcher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, tferrors.Wrap(err, tferrors.CodeDownloadFailed, "failed to load AWS config")
	}

	return &Fetcher{
		cfg:    cfg,
		client: s3.NewFromConfig(awsCfg),
		logger: logger,
	}, nil
}

// FetchAll downloads every known archive. 2023 ships as one yearly zip
// containing monthly zips; later years ship as monthly zips of CSVs.
// Archives not yet published are skipped with a warning.
func (f *Fetcher) FetchAll(ctx context.Context) error {
	yearly := fmt.Sprintf("%d-citibike-tripdata.zip", discover.MinYear)
	content, err := f.download(ctx, yearly)
	if err != nil {
		return err
	}
	if content != nil {
		if err := f.extractYearly(content); err != nil {
			return err
		}
	}

	for year := discover.MinYear + 1; year <= discover.MaxYear; year++ {
		for month := 1; month <= 12; month++ {
			select {
			case <-ctx.Done():
				return tferrors.Wrap(ctx.Err(), tferrors.CodeContextCanceled, "fetch canceled")
			default:
			}

			key := fmt.Sprintf("%d%02d-citibike-tripdata.zip", year, month)
			content, err := f.download(ctx, key)
			if err != nil {
				return err
			}
			if content == nil {
				continue
			}
			if err := f.extractMonthly(content, year, month); err != nil {
				return err
			}
		}
	}

	return nil
}

// download fetches one object into memory. A missing key returns (nil, nil)
// after a warning: trailing months of the current year are not published yet.
func (f *Fetcher) download(ctx context.Context, key string) ([]byte, error) {
	f.logger.Info("downloading archive",
		zap.String("bucket", f.cfg.Bucket),
		zap.String("key", key))

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			f.logger.Warn("archive not available, skipping", zap.String("key", key))
			return nil, nil
		}
		return nil, tferrors.Wrap(err, tferrors.CodeDownloadFailed, "failed to download archive").
			WithContext("key", key)
	}
	defer out.Body.Close()

	var reader io.Reader = out.Body
	if f.cfg.Progress && out.ContentLength != nil {
		bar := progressbar.DefaultBytes(*out.ContentLength, key)
		reader = io.TeeReader(out.Body, bar)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, tferrors.Wrap(err, tferrors.CodeDownloadFailed, "failed to read archive body").
			WithContext("key", key)
	}
	return content, nil
}

// extractYearly unpacks the yearly archive: an outer zip of monthly zips,
// each holding CSV chunks. macOS metadata entries are skipped.
func (f *Fetcher) extractYearly(content []byte) error {
	outer, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to open yearly archive")
	}

	for _, entry := range outer.File {
		name := entry.Name
		if isMacOSMetadata(name) || !strings.HasSuffix(strings.ToLower(name), ".zip") {
			continue
		}

		f.logger.Info("extracting inner archive", zap.String("name", name))

		rc, err := entry.Open()
		if err != nil {
			return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to open inner archive").
				WithContext("name", name)
		}
		innerBytes, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to read inner archive").
				WithContext("name", name)
		}

		inner, err := zip.NewReader(bytes.NewReader(innerBytes), int64(len(innerBytes)))
		if err != nil {
			return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to open inner archive").
				WithContext("name", name)
		}

		for _, member := range inner.File {
			if err := f.extractCSV(member, 0, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

// extractMonthly unpacks a monthly archive of CSV chunks into the given
// year/month directory.
func (f *Fetcher) extractMonthly(content []byte, year, month int) error {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to open monthly archive").
			WithContext("year", year).
			WithContext("month", month)
	}

	for _, member := range zr.File {
		if err := f.extractCSV(member, year, month); err != nil {
			return err
		}
	}
	return nil
}

// extractCSV writes one CSV member under raw_root. When year is zero the
// target partition is parsed from the member's YYYYMM filename prefix.
func (f *Fetcher) extractCSV(member *zip.File, year, month int) error {
	name := member.Name
	if isMacOSMetadata(name) || !strings.HasSuffix(strings.ToLower(name), ".csv") {
		return nil
	}

	if year == 0 {
		var err error
		year, month, err = parseYearMonth(filepath.Base(name))
		if err != nil {
			return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to place archive member").
				WithContext("name", name)
		}
	}

	dir := filepath.Join(f.cfg.RawRoot, strconv.Itoa(year), fmt.Sprintf("%02d", month))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to create partition directory").
			WithContext("dir", dir)
	}

	outPath := filepath.Join(dir, filepath.Base(name))
	f.logger.Info("extracting", zap.String("name", name), zap.String("path", outPath))

	rc, err := member.Open()
	if err != nil {
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to open archive member").
			WithContext("name", name)
	}
	defer rc.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to create output file").
			WithContext("path", outPath)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, rc); err != nil {
		os.Remove(outPath)
		return tferrors.Wrap(err, tferrors.CodeExtractFailed, "failed to extract archive member").
			WithContext("path", outPath)
	}
	return nil
}

// parseYearMonth extracts (year, month) from names like
// 202301-citibike-tripdata_1.csv.
func parseYearMonth(filename string) (int, int, error) {
	m := yearMonthPattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, 0, fmt.Errorf("no YYYYMM prefix in %q", filename)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	return year, month, nil
}

func isMacOSMetadata(name string) bool {
	return strings.Contains(name, "__MACOSX") ||
		strings.Contains(name, "/._") ||
		strings.HasPrefix(name, "._")
}
