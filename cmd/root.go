package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/scheduler"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "suministro",
	Short: "Automatic supply planning and alert escalation for cafeteria operations",
	Long: `suministro turns planned cafeteria menus into ingredient requirements,
reconciles them against live stock, generates supplier purchase orders for
shortfalls, and escalates critical-stock alerts to a chat channel on a
time-based schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		runDaemon(cfg)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.json)")

	rootCmd.Flags().Float64("safety-buffer", 0.2, "Over-order fraction for shortfalls without a max threshold")
	rootCmd.Flags().String("diner-strategy", "estimate", "Diner count strategy: estimate, split or attendance")
	rootCmd.Flags().Bool("kafka-enabled", false, "Publish run reports to Kafka instead of stdout")
	rootCmd.Flags().String("kafka-broker-list", "localhost:9092", "Kafka broker list")

	viper.BindPFlags(rootCmd.Flags())

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runDaemon(cfg *models.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer cleanup()

	sched := scheduler.New(scheduler.RealClock())
	for name, job := range eng.Jobs() {
		sched.Register(name, job)
	}
	sched.Reload(cfg.Jobs)
	sched.Start(ctx)

	models.WatchConfig(func(updated *models.Config) {
		log.Printf("Configuration changed, reloading")
		eng.Reconfigure(updated)
		sched.Reload(updated.Jobs)
		logStatus(sched)
	})

	logStatus(sched)
	<-ctx.Done()
	log.Printf("Shutting down")
	sched.Stop()
}

func logStatus(sched *scheduler.Scheduler) {
	for _, status := range sched.Status() {
		out, _ := json.Marshal(status)
		log.Printf("Job status: %s", out)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
