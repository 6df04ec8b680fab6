package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ccfrost/albumsync/albumsyncconfig"
	"github.com/ccfrost/albumsync/commands"
	"github.com/ccfrost/albumsync/commands/googlephotos"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const albumsync = "albumsync"

func main() {
	var configPath string
	var config albumsyncconfig.AlbumsyncConfig

	rootCmd := cobra.Command{
		Use:   albumsync,
		Short: "Upload a directory tree of media files to Google Photos albums",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			config, err = albumsyncconfig.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := config.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	uploadCmd := cobra.Command{
		Use:   "upload",
		Short: "Upload media files and reconcile albums",
		Long: `Upload all media files under the root directory to Google Photos.
Each directory becomes an album named after its path relative to the root;
nested directory names are joined with ": ". Progress is recorded in a state
file so an interrupted upload resumes where it left off.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			rootDir, err := cmd.Flags().GetString("root")
			if err != nil {
				fmt.Fprintln(os.Stderr, "error: invalid root flag:", err)
				os.Exit(1)
			}
			noResume, err := cmd.Flags().GetBool("no-resume")
			if err != nil {
				fmt.Fprintln(os.Stderr, "error: invalid no-resume flag:", err)
				os.Exit(1)
			}

			ctx := context.Background()
			if deadline := config.Upload.RunDeadline; deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deadline)
				defer cancel()
			}
			client, err := newGooglePhotosClient(ctx, config)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}

			var limiter *rate.Limiter
			if rps := config.Upload.RequestsPerSecond; rps > 0 {
				limiter = rate.NewLimiter(rate.Limit(rps), 10)
			}
			runner := &commands.Runner{
				Client:              client,
				StateFile:           config.Upload.StateFile,
				Limiter:             limiter,
				Parallelism:         config.Upload.Parallelism,
				MaxTransientRetries: config.Upload.MaxTransientRetries,
			}
			if err := runner.Run(ctx, rootDir, !noResume); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}
	uploadCmd.Flags().StringP("root", "r", "", "Path to the root directory to upload")
	uploadCmd.MarkFlagRequired("root")
	uploadCmd.Flags().Bool("no-resume", false, "Ignore recorded state and upload everything from scratch")
	rootCmd.AddCommand(&uploadCmd)

	authCmd := cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Photos",
		Long:  `Run the OAuth flow and cache the resulting token, replacing any existing one.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			creds, err := credentialsFromConfig(config)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			if err := googlephotos.Authorize(context.Background(), creds); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
		},
	}
	rootCmd.AddCommand(&authCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func credentialsFromConfig(config albumsyncconfig.AlbumsyncConfig) (googlephotos.Credentials, error) {
	tokenFile, err := albumsyncconfig.DefaultTokenFilePath()
	if err != nil {
		return googlephotos.Credentials{}, err
	}
	return googlephotos.Credentials{
		ClientID:     config.GooglePhotos.ClientId,
		ClientSecret: config.GooglePhotos.ClientSecret,
		RedirectURI:  config.GooglePhotos.RedirectURI,
		TokenFile:    tokenFile,
	}, nil
}

func newGooglePhotosClient(ctx context.Context, config albumsyncconfig.AlbumsyncConfig) (*googlephotos.Client, error) {
	creds, err := credentialsFromConfig(config)
	if err != nil {
		return nil, err
	}
	httpClient, err := googlephotos.NewAuthenticatedHTTPClient(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated Google Photos client: %w", err)
	}
	httpClient.Timeout = config.Upload.RequestTimeout
	return googlephotos.NewClient(httpClient)
}
