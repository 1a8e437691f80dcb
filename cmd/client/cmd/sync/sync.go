package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"anchorview/cmd/client/cmd/types"
	"anchorview/internal/app/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Отправить очередь синхронизации на сервер",
	Long: `Отправляет накопленные локальные изменения на сервер.

Точки сопоставляются с серверными по id или по паре (проект, номер точки),
результаты тестов переносятся в статус точек.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if syncStatus {
			return showSyncStatus(cmd, app)
		}
		return runSync(cmd, app)
	},
}

func runSync(cmd *cobra.Command, app *client.App) error {
	start := time.Now()
	out := app.Sync(cmd.Context())

	if types.JSONOutput(cmd) {
		return printJSON(out)
	}

	if !out.Success {
		color.Yellow("⚠️  %s", out.Message)
	} else {
		color.Green("✅ %s", out.Message)
	}
	fmt.Printf("Время выполнения: %v\n", time.Since(start).Round(time.Millisecond))

	if len(out.Errors) > 0 {
		fmt.Printf("Ошибок при синхронизации: %d\n", len(out.Errors))
		for i, msg := range out.Errors {
			if i == 3 {
				fmt.Printf("  ... и еще %d ошибок\n", len(out.Errors)-3)
				break
			}
			fmt.Printf("  • %s\n", msg)
		}
	}
	return nil
}

func showSyncStatus(cmd *cobra.Command, app *client.App) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	report, err := app.Status(ctx)
	if err != nil {
		return err
	}

	if types.JSONOutput(cmd) {
		return printJSON(report)
	}

	local := report.Local
	fmt.Println("=== Статус синхронизации ===")
	fmt.Printf("🌐 Сервер: %s\n", onlineLabel(local.Online))
	if local.Degraded {
		color.Red("Локальное хранилище недоступно, данные читаются только с сервера")
	}
	fmt.Printf("📦 Очередь: ожидают %d, с ошибкой %d, отправлено %d\n",
		local.Queue.Pending, local.Queue.Failed, local.Queue.Synced)
	for kind, n := range local.Queue.PendingByTable {
		fmt.Printf("  • %s: %d\n", kind, n)
	}
	if !local.LastSync.IsZero() {
		fmt.Printf("⏰ Последняя синхронизация: %s\n", local.LastSync.Local().Format("2006-01-02 15:04:05"))
	}

	if report.Server != nil {
		fmt.Printf("🗄  На сервере изменено с последней синхронизации: точек %d, тестов %d\n",
			report.Server.Points, report.Server.Tests)
	}
	return nil
}

func onlineLabel(online bool) string {
	if online {
		return color.GreenString("✅ доступен")
	}
	return color.RedString("❌ нет связи")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
