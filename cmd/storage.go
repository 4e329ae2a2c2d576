package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"musicapp/storage"

	"github.com/spf13/cobra"
)

var storageBucket string

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "List stored uploads",
	Long:  `List the files held by the configured storage backend, per bucket, with their sizes.`,
	Example: `  # list everything
  musicapp storage

  # only cover images
  musicapp storage --bucket image`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		backend, err := storage.Open(ctx, cfg)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()

		found := false
		for _, bucket := range storage.Buckets {
			if storageBucket != "" && storageBucket != bucket.Name {
				continue
			}
			found = true

			objects, err := backend.List(ctx, bucket.Dir+"/")
			if err != nil {
				return err
			}
			var total int64
			for _, obj := range objects {
				total += obj.Size
				fmt.Fprintf(tw, "%s\t%s\t%s\n", storage.PathForKey(obj.Key), formatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(tw, "[%s]\t%d file(s)\t%s\n\n", bucket.Name, len(objects), formatSize(total))
		}
		if !found {
			return fmt.Errorf("unknown bucket %q (want audio or image)", storageBucket)
		}
		return nil
	},
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.Flags().StringVarP(&storageBucket, "bucket", "b", "", "only list one bucket (audio or image)")
}
