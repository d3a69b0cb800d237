package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"taquilla-cli/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Inicia sesión y guarda el token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		username, _ := cmd.Flags().GetString("user")
		if strings.TrimSpace(username) == "" {
			prompt := promptui.Prompt{
				Label:    "Usuario",
				Validate: requiredValue,
			}
			if username, err = prompt.Run(); err != nil {
				return err
			}
		}
		prompt := promptui.Prompt{
			Label:    "Contraseña",
			Mask:     '*',
			Validate: requiredValue,
		}
		password, err := prompt.Run()
		if err != nil {
			return err
		}

		res, err := a.client.Login(cmd.Context(), strings.TrimSpace(username), password)
		if err != nil {
			return fmt.Errorf("no se pudo iniciar sesión: %w", err)
		}
		if err := a.sessions.Save(res); err != nil {
			return fmt.Errorf("no se pudo guardar la sesión: %w", err)
		}
		a.log.Info("AUTH", "sesión iniciada usuario="+res.User.Username)
		fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s\n", displayName(res.User.Name, res.User.Username))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Cierra la sesión guardada",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := session.NewFileProvider().Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Muestra el usuario con sesión activa",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions := session.NewFileProvider()
		user, ok := sessions.CurrentUser()
		if !ok {
			return session.ErrNotAuthenticated
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (id %s)\n", displayName(user.Name, user.Username), user.ID)
		if claims, err := session.ParseClaims(sessions.AuthToken()); err == nil && !claims.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "El token vence %s\n", claims.ExpiresAt.Local().Format(time.DateTime))
		}
		return nil
	},
}

func requiredValue(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("valor requerido")
	}
	return nil
}

func displayName(name, username string) string {
	if name == "" {
		return username
	}
	if username == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, username)
}
