package main

import (
	"fmt"
	"os"

	"anchorview/internal/app/server/config"
	"anchorview/internal/domain/user"
	"anchorview/internal/infrastructure/storage/postgres"
	"anchorview/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var newUser user.User

// createUserCmd заводит учетную запись, которой разрешено получать токен синхронизации
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Создать пользователя для входа с клиента",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.MustLoad()
		log := logger.NewWithLevel(cfg.Env, cfg.Logger.LogLevel)

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}

		storage, err := postgres.New(cmd.Context(), cfg.DB)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer storage.Close()

		service := user.NewService(postgres.NewUserRepository(storage, log), user.NewPasswordValidator(), log)
		id, err := service.Register(cmd.Context(), newUser, string(password))
		if err != nil {
			return err
		}

		fmt.Printf("Пользователь создан: %s (%s)\n", newUser.Email, id)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&newUser.Email, "email", "", "email пользователя")
	createUserCmd.Flags().StringVar(&newUser.Name, "name", "", "имя")
	createUserCmd.Flags().StringVar(&newUser.CompanyID, "company", "", "id компании")
	createUserCmd.Flags().StringVar(&newUser.Role, "role", "technician", "роль")
	_ = createUserCmd.MarkFlagRequired("email")
}
