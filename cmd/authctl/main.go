// Command authctl es la herramienta de operación y cliente de la API de auth de Nutrifix.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Expendadeur/nutrifix-sub002/internal/client"
)

const defaultAPIURL = "http://localhost:8080"

type globalFlags struct {
	apiURL      string
	sessionPath string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Cliente y herramientas de operación de Nutrifix Auth",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.apiURL, "api", envOr("NUTRIFIX_API_URL", defaultAPIURL), "URL base de la API")
	root.PersistentFlags().StringVar(&g.sessionPath, "session", os.Getenv("NUTRIFIX_SESSION"), "archivo de sesión (por defecto en el directorio de configuración del usuario)")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 15*time.Second, "timeout de cada llamada")

	root.AddCommand(
		loginCmd(g),
		logoutCmd(g),
		whoamiCmd(g),
		auditCmd(g),
		hashPasswordCmd(),
		qrCmd(),
		tokenCmd(),
		migrateCmd(),
		seedCmd(),
	)
	return root
}

func (g *globalFlags) store() (*client.FileStore, error) {
	path := g.sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return client.NewFileStore(path), nil
}

func (g *globalFlags) client() *client.Client {
	return client.New(g.apiURL, g.timeout)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
