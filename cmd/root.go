package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"taquilla-cli/checkout"
	"taquilla-cli/config"
	"taquilla-cli/logger"
	"taquilla-cli/service"
	"taquilla-cli/session"
	"taquilla-cli/store"
	"taquilla-cli/tui"
)

const appName = "taquilla"

var (
	buildVersion = "dev"
	buildCommit  = "none"

	apiURL   string
	debug    bool
	whatsApp string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión de taquilla",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s", appName, buildVersion)
		if buildCommit != "none" && buildCommit != "" {
			fmt.Fprintf(out, " (%s)", buildCommit)
		}
		fmt.Fprintln(out)
	},
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Compra boletos de teatro, cine y museos desde la terminal",
	Long: `Taquilla abre una interfaz de terminal para elegir lugar, función,
boletos y asientos, y completar la compra.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		model := tui.New(tui.Options{
			API:      a.client,
			Checkout: checkout.New(a.client, a.sessions, a.log),
			Sessions: a.sessions,
			Log:      a.log,
			CacheTTL: a.cfg.Cache.TTL,
			WhatsApp: a.cfg.Purchase.WhatsApp,
		})
		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

// app holds what every command needs to talk to the backend.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	sessions *session.FileProvider
	client   *service.Client
}

// newApp loads configuration and wires logging and the HTTP client. The TUI
// owns the terminal, so interactive runs only log to file.
func newApp(interactive bool) (*app, error) {
	cfg := config.Load()
	if apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(apiURL, "/")
	}
	if debug {
		cfg.Debug = true
	}
	if whatsApp != "" {
		cfg.Purchase.WhatsApp = strings.TrimSpace(whatsApp)
	}

	opts := logger.Options{MinLevel: logger.INFO}
	if cfg.Debug {
		opts.MinLevel = logger.DEBUG
		if !interactive {
			opts.Terminal = os.Stderr
		}
	}
	if dir, err := store.LogDir(); err == nil {
		opts.Dir = dir
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, err
	}

	sessions := session.NewFileProvider()
	client := service.NewClient(
		cfg.API.BaseURL,
		&http.Client{Timeout: cfg.API.Timeout},
		service.WithMaxAttempts(cfg.API.MaxAttempts),
		service.WithTokenSource(sessions),
		service.WithLogger(log),
	)
	return &app{cfg: cfg, log: log, sessions: sessions, client: client}, nil
}

func (a *app) Close() {
	_ = a.log.Close()
}

func Execute(version, commit string) {
	if version != "" {
		buildVersion = version
	}
	buildCommit = commit

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "URL base del API (por defecto TAQUILLA_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "registro detallado")
	rootCmd.Flags().StringVar(&whatsApp, "whatsapp", "", "número para recibir los boletos por WhatsApp (por defecto TAQUILLA_WHATSAPP)")
	placesCmd.Flags().Bool("all", false, "incluye los lugares ocultos")
	sectionsCmd.Flags().String("room", "", "tipo de sala para cines, ej: IMAX")
	loginCmd.Flags().StringP("user", "u", "", "nombre de usuario")
	serveCmd.Flags().String("addr", "", "dirección de escucha (por defecto TAQUILLA_DEV_ADDR)")
	serveCmd.Flags().String("secret", "", "clave para firmar tokens")

	rootCmd.AddCommand(versionCmd, placesCmd, sectionsCmd, loginCmd, logoutCmd, whoamiCmd, historyCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
