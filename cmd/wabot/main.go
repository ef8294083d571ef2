package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/user/wabot/bot"
	"github.com/user/wabot/bot/activity"
	"github.com/user/wabot/bot/numbers"
	"github.com/user/wabot/internal/db"
	"github.com/user/wabot/internal/logging"
	"github.com/user/wabot/internal/metrics"
	"github.com/user/wabot/internal/whatsapp"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	defaults := bot.DefaultConfig()

	root := &cobra.Command{
		Use:          "wabot",
		Short:        "WhatsApp group automation bot driven by chat commands",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			viper.SetConfigName(".env")
			viper.SetConfigType("env")
			viper.AddConfigPath(".")
			viper.AutomaticEnv()
			_ = viper.ReadInConfig()
			return bindFlags(cmd.Flags())
		},
	}

	root.PersistentFlags().String("data-dir", defaults.DataDir, "Folder for extracted numbers and databases")
	root.PersistentFlags().String("db", "", "Activity database path (default <data-dir>/wabot.db)")
	root.PersistentFlags().String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	root.PersistentFlags().String("log-format", "console", "Log format (console|json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to WhatsApp and start handling messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	runCmd.Flags().String("owner", "", "Owner WhatsApp id")
	runCmd.Flags().String("command-group", "", "Group id where commands are accepted (e.g. 1203...@g.us)")
	runCmd.Flags().String("trigger-words", strings.Join(defaults.TriggerWords, ","), "Comma-separated words that trigger the service message in private chats")
	runCmd.Flags().Duration("send-delay", defaults.SendDelay, "Pause after every outbound message")
	runCmd.Flags().Duration("prompt-ttl", defaults.PromptTTL, "How long !sendall waits for the message body")
	runCmd.Flags().String("contact-suffix", defaults.ContactSuffix, "Suffix appended to extracted numbers when creating groups")
	runCmd.Flags().String("wa-db", "", "WhatsApp session database (default <data-dir>/whatsapp.db)")
	runCmd.Flags().Bool("reset-session", false, "Delete the saved WhatsApp session before connecting")
	runCmd.Flags().Bool("dry-run", false, "Use an offline client; stdin lines are posted to the command group")
	runCmd.Flags().String("metrics-addr", "", "Serve /metrics and /healthz on this address (e.g. :9090)")

	numbersCmd := &cobra.Command{
		Use:   "numbers",
		Short: "Print the numbers saved by the last !extract",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := numbers.NewStore(viper.GetString("data_dir")).Load()
			if errors.Is(err, numbers.ErrNotExtracted) {
				fmt.Println("No numbers extracted yet. Send !extract in the command group first.")
				return nil
			}
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			fmt.Printf("\n%d numbers\n", len(ids))
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("last")
			database, err := db.Open(activityDBPath())
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer database.Close()

			out, err := activity.NewStore(database).Format(n)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	historyCmd.Flags().Int("last", 10, "Number of commands to show")

	root.AddCommand(runCmd, numbersCmd, historyCmd)
	return root
}

// bindFlags exposes every flag to viper under its snake_case name, so
// COMMAND_GROUP in the environment or .env overrides --command-group.
func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		}
	})
	return err
}

func loadConfig() (bot.Config, error) {
	cfg := bot.DefaultConfig()
	cfg.Owner = viper.GetString("owner")
	cfg.CommandGroup = viper.GetString("command_group")
	cfg.TriggerWords = bot.ParseList(viper.GetString("trigger_words"))
	cfg.SendDelay = viper.GetDuration("send_delay")
	cfg.PromptTTL = viper.GetDuration("prompt_ttl")
	cfg.ContactSuffix = viper.GetString("contact_suffix")
	cfg.DataDir = viper.GetString("data_dir")
	return cfg, cfg.Validate()
}

func activityDBPath() string {
	if p := viper.GetString("db"); p != "" {
		return p
	}
	return filepath.Join(viper.GetString("data_dir"), "wabot.db")
}

func sessionDBPath() string {
	if p := viper.GetString("wa_db"); p != "" {
		return p
	}
	return filepath.Join(viper.GetString("data_dir"), "whatsapp.db")
}

func run(parent context.Context) error {
	log := logging.New(viper.GetString("log_level"), viper.GetString("log_format"))

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	database, err := db.Open(activityDBPath())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	metrics.MustRegister()
	if addr := viper.GetString("metrics_addr"); addr != "" {
		srv := metrics.NewServer(addr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", addr).Msg("metrics listening")
	}

	client, err := connect(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	defer client.Close()

	b := bot.New(client, cfg, log)
	b.SetActivity(activity.NewStore(database))
	return b.Run(ctx)
}

func connect(ctx context.Context, cfg bot.Config, log zerolog.Logger) (whatsapp.Client, error) {
	if viper.GetBool("dry_run") {
		mock := whatsapp.NewMockClient()
		mock.Echo = os.Stdout
		go feedStdin(ctx, mock, cfg)
		return mock, nil
	}

	path := sessionDBPath()
	if viper.GetBool("reset_session") {
		for _, p := range []string{path, path + "-wal", path + "-shm"} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", p).Msg("session cleanup")
			}
		}
	}

	// Connect real WhatsApp (shows QR on first run)
	rc, err := whatsapp.NewRealClient(ctx, path, log)
	if err != nil {
		return nil, err
	}
	if err := rc.Connect(ctx); err != nil {
		return nil, err
	}
	return rc, nil
}

// feedStdin posts each stdin line to the command group as if the owner sent it.
func feedStdin(ctx context.Context, mock *whatsapp.MockClient, cfg bot.Config) {
	fmt.Printf("[dry-run] Type messages for %s, one per line.\n", cfg.CommandGroup)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// Wait until the bot has subscribed before injecting.
		for mock.Listeners() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		mock.SimulateEvent(whatsapp.ChatEvent{
			From:    cfg.CommandGroup,
			Author:  cfg.Owner,
			Body:    line,
			IsGroup: true,
		})
	}
}
