package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eco-alert/api-go/config"
	"github.com/eco-alert/api-go/localstore"
	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/netmon"
	"github.com/eco-alert/api-go/notify"
	"github.com/eco-alert/api-go/remote"
	"github.com/eco-alert/api-go/syncer"
)

var (
	flagQueueDir string
	flagAPIBase  string
	flagToken    string
)

var rootCmd = &cobra.Command{
	Use:   "fieldsync",
	Short: "Offline-first incident report queue",
	Long:  `Queues environmental incident reports locally and syncs them to the EcoAlert server when connectivity allows.`,
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Queue a report for delivery",
	RunE:  runSubmit,
}

var (
	flagCategory    string
	flagDescription string
	flagLat         float64
	flagLng         float64
	flagCity        uint
	flagPhotos      []string
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Deliver all queued reports now",
	RunE:  runDrain,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the queue contents",
	RunE:  runStatus,
}

var retryCmd = &cobra.Command{
	Use:   "retry <local-id>",
	Short: "Resubmit a report that exhausted its retries",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetry,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon until interrupted",
	RunE:  runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagQueueDir, "queue-dir", "", "queue directory (default $QUEUE_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagAPIBase, "api", "", "server base URL (default $API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "bearer token (default $API_TOKEN)")

	submitCmd.Flags().StringVar(&flagCategory, "category", "", "incident category")
	submitCmd.Flags().StringVar(&flagDescription, "description", "", "free-form description")
	submitCmd.Flags().Float64Var(&flagLat, "lat", 0, "latitude")
	submitCmd.Flags().Float64Var(&flagLng, "lng", 0, "longitude")
	submitCmd.Flags().UintVar(&flagCity, "city", 0, "city id")
	submitCmd.Flags().StringSliceVar(&flagPhotos, "photo", nil, "photo file (repeatable)")
	submitCmd.MarkFlagRequired("category")

	rootCmd.AddCommand(submitCmd, drainCmd, statusCmd, retryCmd, runCmd)
}

func queueDir() string {
	if flagQueueDir != "" {
		return flagQueueDir
	}
	return config.QueueDir()
}

func apiBase() string {
	if flagAPIBase != "" {
		return flagAPIBase
	}
	return config.APIBaseURL()
}

func apiToken() string {
	if flagToken != "" {
		return flagToken
	}
	return config.APIToken()
}

func openStore(logger *logrus.Logger) (*localstore.Store, error) {
	return localstore.Open(localstore.Config{Dir: queueDir(), Logger: logger})
}

func newWorker(store *localstore.Store, monitor *netmon.Monitor, logger *logrus.Logger) (*syncer.Worker, error) {
	cfg := syncer.Config{
		Store:    store,
		Blobs:    remote.NewBlobStore(config.GetR2Config()),
		Reports:  remote.NewClient(apiBase(), apiToken()),
		Notifier: notify.NewLogNotifier(logger),
		Interval: config.SyncInterval(),
		Logger:   logger,
	}
	if monitor != nil {
		cfg.Monitor = monitor
	}
	return syncer.New(cfg)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var photos []localstore.PhotoInput
	for _, path := range flagPhotos {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read photo %s: %w", path, err)
		}
		photos = append(photos, localstore.PhotoInput{
			Data:        data,
			ContentType: contentTypeFor(path),
		})
	}

	report := &models.QueuedReport{
		Category:    flagCategory,
		Description: flagDescription,
		Latitude:    flagLat,
		Longitude:   flagLng,
	}
	if flagCity != 0 {
		city := flagCity
		report.CityID = &city
	}

	if err := store.Enqueue(report, photos); err != nil {
		return err
	}
	fmt.Printf("Saved %s, will sync when online\n", report.LocalID)
	return nil
}

func runDrain(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	worker, err := newWorker(store, nil, logger)
	if err != nil {
		return err
	}

	summary, err := worker.Drain(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Drain finished: %d succeeded, %d failed, %d skipped\n",
		summary.Succeeded, summary.Failed, summary.Skipped)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := store.List()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	for _, r := range reports {
		line := fmt.Sprintf("%s  %-12s  %s  retries=%d", r.LocalID, r.SyncStatus, r.Category, r.RetryCount)
		if r.LastError != "" {
			line += "  last_error=" + r.LastError
		}
		fmt.Println(line)
	}

	if last, err := store.LastDrain(); err == nil && !last.IsZero() {
		fmt.Printf("Last sync: %s\n", last.Local().Format(time.RFC1123))
	}
	return nil
}

func runRetry(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Retry(args[0]); err != nil {
		return err
	}
	fmt.Printf("Report %s queued for retry\n", args[0])
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := logrus.StandardLogger()
	store, err := openStore(logger)
	if err != nil {
		return err
	}
	defer store.Close()

	client := remote.NewClient(apiBase(), apiToken())
	monitor := netmon.New(client.HealthURL(), 10*time.Second, logger)

	worker, err := newWorker(store, monitor, logger)
	if err != nil {
		return err
	}

	monitor.Start()
	worker.Start()
	logger.Info("fieldsync daemon started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	worker.Stop()
	monitor.Stop()
	return nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
