package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "blobkeep",
	Short: "Store IPFS blocks and datastore values in cloud blob containers",
	Long: `Blobkeep stores content-addressed blocks and key/value entries as
objects in a blob container (Azure Blob Storage, S3, GCS or a local
directory), one object per entry.

Every flag can also be set with a BLOBKEEP_ environment variable
(BLOBKEEP_BACKEND, BLOBKEEP_AZURE_CONNECTION_STRING, ...) or in the
config file.

Examples:
  # Create the container and store a file as a block
  blobkeep --backend azure --container blocks --create put ./photo.jpg

  # Fetch it back
  blobkeep --backend azure --container blocks get bafkrei... > photo.jpg

  # List every block in a local directory store
  blobkeep --backend disk --container ./data ls`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ~/.config/blobkeep/config.yaml)")
	flags.StringP("backend", "b", "disk", "object store backend: azure, s3, gcs, disk or mem")
	flags.StringP("container", "c", "", "container, bucket or root directory")
	flags.Bool("create", false, "create the container if it does not exist")
	flags.String("shard", "next-to-last", "block sharding strategy: next-to-last, flat or fnv32")
	flags.String("codec", "none", "payload compression: zstd, gzip or none")
	flags.Int("cache-size", 0, "number of downloads to cache in memory (0 disables)")
	flags.String("namespace", "", "datastore namespace path")
	flags.Bool("strict", false, "fail listings on object names that are not blocks")
	flags.String("azure-connection-string", "", "Azure storage account connection string")
	flags.String("s3-region", "", "S3 region")
	flags.String("s3-endpoint", "", "S3-compatible endpoint URL")
	flags.String("s3-prefix", "", "key prefix inside the S3 bucket")
	flags.String("gcs-project", "", "GCS project used when creating buckets")
	flags.String("gcs-prefix", "", "object prefix inside the GCS bucket")
	flags.BoolP("verbose", "v", false, "enable verbose output")

	flags.VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(configKey(f.Name), f)
	})
}

func initConfig() {
	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BLOBKEEP")
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

// configKey maps a flag name to its config and environment key.
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blobkeep")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "blobkeep")
	}
	return ".blobkeep"
}
