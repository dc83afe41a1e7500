package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
	"github.com/Expendadeur/nutrifix-sub002/internal/client"
)

func loginCmd(g *globalFlags) *cobra.Command {
	var in dto.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token localmente",
		Long: `Inicia sesión con exactamente una prueba:
  --identifier (email o matrícula) + contraseña
  --matricule + contraseña
  --qr (contenido del código QR de la credencial)
Si falta la contraseña se lee de la entrada estándar.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (in.Identifier != "" || in.Matricule != "") && in.Password == "" {
				pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Contraseña: ")
				if err != nil {
					return err
				}
				in.Password = pw
			}
			resp, err := g.client().Login(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			store, err := g.store()
			if err != nil {
				return err
			}
			if err := store.Save(client.SessionFrom(g.apiURL, resp)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s (%s), expira %s\n",
				resp.User.Name, resp.User.Role, resp.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Identifier, "identifier", "", "email o matrícula")
	cmd.Flags().StringVar(&in.Matricule, "matricule", "", "matrícula")
	cmd.Flags().StringVar(&in.Password, "password", "", "contraseña (evitar en el historial del shell)")
	cmd.Flags().StringVar(&in.QRPayload, "qr", "", "contenido del QR de credencial")
	cmd.Flags().StringVar(&in.Client, "client", "web", "tipo de cliente: web o mobile")
	return cmd
}

func logoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Descarta la sesión guardada",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := g.store()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
			return nil
		},
	}
}

func whoamiCmd(g *globalFlags) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión guardada",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := loadSession(g)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if offline {
				fmt.Fprintf(out, "%s\t%s\t%s\tdepto=%s\t(%s)\n", sess.UserID, sess.Name, sess.Role, sess.DepartmentID, sess.Method)
				return nil
			}
			me, err := g.client().WithToken(sess.Token).Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%s\t%s\tdepto=%s\t%s\n", me.ID, me.Name, me.Role, me.DepartmentID, me.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "solo el perfil guardado, sin llamar a la API")
	return cmd
}

// loadSession carga la sesión guardada y la descarta si ya expiró.
func loadSession(g *globalFlags) (client.StoredSession, error) {
	store, err := g.store()
	if err != nil {
		return client.StoredSession{}, err
	}
	sess, err := store.Load()
	if errors.Is(err, client.ErrNoSession) {
		return client.StoredSession{}, fmt.Errorf("no hay sesión: ejecute authctl login")
	}
	if err != nil {
		return client.StoredSession{}, err
	}
	if sess.Expired(time.Now()) {
		_ = store.Clear()
		return client.StoredSession{}, fmt.Errorf("la sesión expiró: ejecute authctl login")
	}
	if sess.APIURL != "" && g.apiURL == defaultAPIURL {
		g.apiURL = sess.APIURL
	}
	return sess, nil
}

func readSecret(r io.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("leer contraseña: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("contraseña vacía")
	}
	return line, nil
}
