package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"anchorview/cmd/client/cmd/auth"
	"anchorview/cmd/client/cmd/backup"
	"anchorview/cmd/client/cmd/photo"
	"anchorview/cmd/client/cmd/sync"
	"anchorview/cmd/client/cmd/types"
	"anchorview/internal/app/client"
	"anchorview/internal/app/client/config"
	"anchorview/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	cfg       *config.Config
	log       *slog.Logger
	app       *client.App
	debug     bool
	serverURL string
	appURL    string
)

var rootCmd = &cobra.Command{
	Use:   "anchorview",
	Short: "AnchorView - офлайн-клиент инспекций анкерных точек",
	Long: `AnchorView работает с проектами, точками и тестами без сети.

Изменения сохраняются локально и ставятся в очередь синхронизации,
которая отправляется на сервер при появлении связи.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// Переопределяем настройки из флагов командной строки
	if serverURL != "" {
		// приложение по умолчанию обслуживается тем же сервером
		if cfg.AppAddress == cfg.ServerAddress {
			cfg.AppAddress = serverURL
		}
		cfg.ServerAddress = serverURL
	}
	if appURL != "" {
		cfg.AppAddress = appURL
	}
	if debug {
		cfg.Env = "local"
	}

	log = logger.NewWithFile(cfg.Env, cfg.LogFile)

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().Bool("json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера AnchorView (host:port)")
	rootCmd.PersistentFlags().StringVar(&appURL, "app", "", "адрес веб-приложения для прокси (host:port)")

	rootCmd.AddCommand(
		serveCmd,
		auth.LoginCmd,
		auth.LogoutCmd,
		sync.SyncCmd,
		sync.PullCmd,
		backup.ExportCmd,
		backup.ImportCmd,
		photo.AddCmd,
	)
}
