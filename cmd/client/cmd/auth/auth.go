package auth

import (
	"fmt"

	"anchorview/cmd/client/cmd/types"

	"github.com/spf13/cobra"
)

// LogoutCmd удаляет сохраненный токен синхронизации
var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Удалить сохраненный токен",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if err := app.ClearToken(); err != nil {
			return err
		}
		fmt.Println("Токен удален. Локальные данные и очередь синхронизации сохранены.")
		return nil
	},
}
