package main

import (
	"github.com/spf13/cobra"

	"github.com/tripflow/tripflow/pkg/config"
	"github.com/tripflow/tripflow/pkg/fetch"
	"github.com/tripflow/tripflow/pkg/logging"
)

var (
	fetchBucket     string
	fetchRegion     string
	fetchNoProgress bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <raw_root>",
	Short: "Download raw trip archives into the raw layout",
	Long: `Fetch downloads trip archives from the public tripdata bucket and
extracts their CSV chunks into raw_root/YYYY/MM/, ready for cleaning.
Archives not yet published are skipped.

Examples:
  tripflow fetch ./data/raw
  tripflow fetch ./data/raw --bucket tripdata --region us-east-1`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	defaults := config.Default()
	fetchCmd.Flags().StringVar(&fetchBucket, "bucket", defaults.Fetch.Bucket, "Source S3 bucket")
	fetchCmd.Flags().StringVar(&fetchRegion, "region", defaults.Fetch.Region, "Bucket region")
	fetchCmd.Flags().BoolVar(&fetchNoProgress, "no-progress", false, "Disable download progress bars")
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := logging.New(logging.Config{Verbose: verbose})
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext()
	defer cancel()

	fetcher, err := fetch.New(ctx, fetch.Config{
		Bucket:   fetchBucket,
		Region:   fetchRegion,
		RawRoot:  args[0],
		Progress: !fetchNoProgress,
	}, logger)
	if err != nil {
		return err
	}

	return fetcher.FetchAll(ctx)
}
