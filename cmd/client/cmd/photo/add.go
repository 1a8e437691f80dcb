package photo

import (
	"encoding/json"
	"fmt"
	"os"

	"anchorview/cmd/client/cmd/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var AddCmd = &cobra.Command{
	Use:   "photo-add <file>...",
	Short: "Добавить фото в очередь загрузки",
	Long: `Сохраняет фото локально и ставит его загрузку в очередь синхронизации.
Фото уходит на сервер при следующей синхронизации, уже загруженные фото
повторно не перезаписываются.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		type added struct {
			ID       string `json:"id"`
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
		}
		out := make([]added, 0, len(args))

		for _, path := range args {
			f, err := app.AddPhoto(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out = append(out, added{ID: f.ID, Filename: f.Filename, Size: f.Size})
		}

		if types.JSONOutput(cmd) {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		for _, a := range out {
			color.Green("✅ %s (%d байт) -> %s", a.Filename, a.Size, a.ID)
		}
		fmt.Println("Фото будут загружены при следующей синхронизации")
		return nil
	},
}
