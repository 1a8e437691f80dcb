package backup

import (
	"fmt"
	"os"

	"anchorview/cmd/client/cmd/types"

	"github.com/spf13/cobra"
)

var output string

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Выгрузить локальные данные в JSON",
	Long:  `Сохраняет все таблицы локального хранилища и очередь синхронизации в один JSON-документ.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		data, err := app.Export(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка экспорта: %w", err)
		}

		if output == "" || output == "-" {
			_, err = os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(output, data, 0600); err != nil {
			return fmt.Errorf("ошибка записи файла: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Резервная копия сохранена: %s\n", output)
		return nil
	},
}

func init() {
	ExportCmd.Flags().StringVarP(&output, "output", "o", "", "файл резервной копии (по умолчанию stdout)")
}
