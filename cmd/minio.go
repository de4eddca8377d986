package cmd

import (
	"context"
	"fmt"
	"log"

	"ajnadfm/config"
	"ajnadfm/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO audio bucket",
	Long:  `List objects in the configured MinIO bucket, optionally filtered by prefix, or print aggregate bucket statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		bucket := storage.NewBucket(cfg)
		ctx := context.Background()

		if minioStats {
			stats, err := bucket.Stats(ctx)
			if err != nil {
				log.Fatalf("Failed to read bucket stats: %v", err)
			}
			fmt.Printf("Objects: %d\nTotal size: %d bytes\nLast modified: %s\n",
				stats.TotalObjects, stats.TotalSize, stats.LastModified)
			return
		}

		objects, err := bucket.ListObjects(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("Failed to list objects: %v", err)
		}
		for _, obj := range objects {
			fmt.Printf("%-60s %10d  %s\n", obj.Path, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%d objects\n", len(objects))
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by prefix")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "print bucket statistics")

	minioCmd.Example = `  # list every object
  ajnadfm minio

  # filter by prefix
  ajnadfm minio -p "audio/"

  # bucket statistics
  ajnadfm minio -s`
}
