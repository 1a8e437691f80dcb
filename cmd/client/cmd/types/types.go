package types

import (
	"fmt"

	"anchorview/internal/app/client"

	"github.com/spf13/cobra"
)

type contextKey string

// ClientAppKey ключ, под которым корневая команда кладет *client.App в контекст
const ClientAppKey contextKey = "app"

// App достает приложение из контекста команды
func App(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// JSONOutput включен ли вывод в формате JSON
func JSONOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}
