package cmd

import (
	"fmt"

	"github.com/theirongolddev/canasta/internal/publish"

	"github.com/spf13/cobra"
)

var (
	flagPublishBucket string
	flagPublishPrefix string
	flagPublishDryRun bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the series as JSON and markdown to a GCS bucket",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&flagPublishBucket, "bucket", "", "Bucket name (default publish.bucket)")
	publishCmd.Flags().StringVar(&flagPublishPrefix, "prefix", "", "Object name prefix (default publish.prefix)")
	publishCmd.Flags().BoolVar(&flagPublishDryRun, "dry-run", false, "Print the object names without uploading")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	run, err := computeIndex(ctx)
	if err != nil {
		return handleNoData(err)
	}

	bucket := run.cfg.Publish.Bucket
	if flagPublishBucket != "" {
		bucket = flagPublishBucket
	}
	prefix := run.cfg.Publish.Prefix
	if flagPublishPrefix != "" {
		prefix = flagPublishPrefix
	}

	doc := publish.NewDocument(run.record, run.analysis.Basket)

	if flagPublishDryRun {
		jsonName, mdName := publish.ObjectNames(prefix, doc.RunID)
		fmt.Printf("  Would write gs://%s/%s\n", bucket, jsonName)
		fmt.Printf("  Would write gs://%s/%s\n", bucket, mdName)
		return nil
	}

	gcs, err := publish.NewGCSPublisher(ctx, bucket)
	if err != nil {
		return err
	}
	defer func() { _ = gcs.Close() }()

	names, err := publish.Run(ctx, gcs, prefix, doc)
	for _, n := range names {
		fmt.Printf("  Wrote %s\n", gcs.URI(n))
	}
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", doc.Summary)
	return nil
}
