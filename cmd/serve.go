package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taquilla-cli/devserver"
	"taquilla-cli/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta un servidor de prueba con datos de ejemplo",
	Long: `Levanta en memoria el API de boletos con lugares, funciones y asientos
de ejemplo. Usuarios: demo/demo123 y ana/ana123.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.cfg.Dev.Addr
		}
		secret, _ := cmd.Flags().GetString("secret")

		log, err := logger.New(logger.Options{Terminal: os.Stderr, MinLevel: logger.INFO})
		if err != nil {
			return err
		}
		defer log.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return devserver.New(devserver.Options{Secret: secret, Log: log}).ListenAndServe(ctx, addr)
	},
}
