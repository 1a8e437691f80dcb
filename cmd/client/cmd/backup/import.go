package backup

import (
	"fmt"
	"io"
	"os"

	"anchorview/cmd/client/cmd/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Загрузить резервную копию в локальное хранилище",
	Long: `Загружает резервную копию, созданную командой export. Неотправленные
изменения из очереди копии восстанавливаются в исходном порядке, включая
удаления. Копия без очереди ставит каждую запись в очередь как обновление.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения резервной копии: %w", err)
		}

		n, err := app.Import(cmd.Context(), data)
		if err != nil {
			return fmt.Errorf("ошибка импорта: %w", err)
		}

		color.Green("✅ Импортировано записей: %d", n)
		fmt.Println("Изменения будут отправлены при следующей синхронизации")
		return nil
	},
}
