package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Expendadeur/nutrifix-sub002/internal/application/dto"
)

func auditCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Consulta del historial de auditoría",
	}
	cmd.AddCommand(auditListCmd(g))
	return cmd
}

func auditListCmd(g *globalFlags) *cobra.Command {
	var actor, module, action, tbl, record, from, to string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista las entradas más recientes (requiere rol admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := loadSession(g)
			if err != nil {
				return err
			}
			q := url.Values{}
			for k, v := range map[string]string{
				"actor_id": actor, "module": module, "action": action,
				"table": tbl, "record": record, "from": from, "to": to,
			} {
				if v != "" {
					q.Set(k, v)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}
			resp, err := g.client().WithToken(sess.Token).AuditList(cmd.Context(), q)
			if err != nil {
				return err
			}
			renderAudit(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&actor, "actor", "", "ID del actor")
	f.StringVar(&module, "module", "", "módulo")
	f.StringVar(&action, "action", "", "acción (p. ej. LOGIN)")
	f.StringVar(&tbl, "table", "", "tabla afectada")
	f.StringVar(&record, "record", "", "ID del registro afectado (requiere --table)")
	f.StringVar(&from, "from", "", "desde (YYYY-MM-DD o RFC 3339)")
	f.StringVar(&to, "to", "", "hasta (YYYY-MM-DD o RFC 3339)")
	f.IntVar(&limit, "limit", 0, "máximo de resultados (1-200)")
	f.IntVar(&offset, "offset", 0, "desplazamiento")
	return cmd
}

func renderAudit(w io.Writer, resp *dto.AuditListResponse) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Fecha", "Severidad", "Actor", "Rol", "Módulo", "Acción", "Registro"})
	for _, e := range resp.Items {
		actor := e.ActorName
		if actor == "" {
			actor = e.ActorID
		}
		target := ""
		if e.AffectedTable != "" {
			target = e.AffectedTable + "/" + e.AffectedRecordID
		}
		t.AppendRow(table.Row{
			e.CreatedAt.Local().Format(time.DateTime), e.Severity, actor, e.ActorRole, e.Module, e.Action, target,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", fmt.Sprintf("%d", resp.Page.Total)})
	t.Render()
}
