package sync

import (
	"fmt"

	"anchorview/cmd/client/cmd/types"
	"anchorview/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	companyID string
	projectID string
)

var PullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Загрузить данные компании для работы без сети",
	Long: `Загружает с сервера проекты, локации, планы этажей и пользователей компании.
Если указан проект, дополнительно загружаются его точки и их тесты.

Записи с неотправленными локальными изменениями не перезаписываются.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		res, err := app.Pull(cmd.Context(), companyID, projectID)
		if err != nil {
			return fmt.Errorf("ошибка загрузки: %w", err)
		}

		if types.JSONOutput(cmd) {
			return printJSON(res)
		}

		color.Green("✅ Данные загружены")
		for _, kind := range entity.Kinds {
			if n, ok := res[kind]; ok {
				fmt.Printf("  • %s: %d\n", kind, n)
			}
		}
		return nil
	},
}

func init() {
	PullCmd.Flags().StringVar(&companyID, "company", "", "id компании (по умолчанию COMPANY_ID)")
	PullCmd.Flags().StringVar(&projectID, "project", "", "id проекта")
}
