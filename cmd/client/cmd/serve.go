package cmd

import (
	"fmt"

	"anchorview/cmd/client/cmd/types"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить локальный прокси с офлайн-кэшем",
	Long: `Запускает локальный HTTP-прокси веб-приложения.

Прокси кэширует страницы и API-ответы для работы без сети, следит за
доступностью сервера и автоматически отправляет очередь синхронизации
при восстановлении связи. События синхронизации доступны по websocket.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Прокси: http://%s (Ctrl+C для остановки)\n", cfg.ProxyAddress)
		return app.Serve(cmd.Context())
	},
}
