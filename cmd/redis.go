package cmd

import (
	"context"
	"fmt"

	"musicapp/cache"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check the Redis song cache connection",
	Long:  `Connect to Redis with the configured settings and run a set/get/delete round trip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		fmt.Println("Connected.")

		if err := cache.CheckRedis(context.Background(), client); err != nil {
			return err
		}
		fmt.Println("Read/write check passed.")
		if !cfg.CacheEnabled {
			fmt.Println("Note: CACHE_ENABLED is false, the server will not use Redis.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
