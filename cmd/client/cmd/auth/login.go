package auth

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"anchorview/cmd/client/cmd/types"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	email      string
	validHours int
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Получить токен синхронизации",
	Long: `Аутентификация на сервере AnchorView.

Сервер выпускает краткоживущий токен синхронизации, который сохраняется
локально и используется фоновой синхронизацией.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		fmt.Println("=== Вход в систему ===")

		if email == "" {
			fmt.Print("Email: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("ошибка чтения email: %w", err)
			}
			email = strings.TrimSpace(line)
		}

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		expiresAt, err := app.Login(ctx, email, string(password), time.Duration(validHours)*time.Hour)
		if err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		color.Green("✅ Вход выполнен успешно")
		fmt.Printf("Токен действителен до %s\n", expiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&email, "email", "e", "", "email пользователя")
	LoginCmd.Flags().IntVar(&validHours, "hours", 24, "срок действия токена в часах")
}
