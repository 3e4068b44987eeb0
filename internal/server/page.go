package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"github.com/diegofalves/ominideck/internal/dashboard"
)

const pageCSS = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;margin-bottom:1.5rem}
th,td{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}
.cards{display:flex;gap:1rem;margin-bottom:1.5rem}
.card{border:1px solid #ccc;border-radius:6px;padding:.8rem 1.2rem}
.card strong{display:block;font-size:1.6rem}`

var phaseLabels = map[string]string{
	"documentation":     "Documentação",
	"deployment":        "Deployment",
	"migration_project": "Projeto de migração",
}

// DashboardPage renders the dashboard report as HTML.
func (s *Server) DashboardPage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load()
	if err != nil {
		writeError(w, err)
		return
	}
	renderHTML(w, http.StatusOK, dashboardPage(dashboard.Build(doc)))
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func card(title, value string) gomponents.Node {
	return html.Div(html.Class("card"), gomponents.Text(title), html.Strong(gomponents.Text(value)))
}

func table(headers []string, rows []gomponents.Node) gomponents.Node {
	ths := make([]gomponents.Node, 0, len(headers))
	for _, h := range headers {
		ths = append(ths, html.Th(gomponents.Text(h)))
	}
	return html.Table(html.THead(html.Tr(ths...)), html.TBody(gomponents.Group(rows)))
}

func dashboardPage(rep *dashboard.Report) gomponents.Node {
	title := rep.ProjectName
	if title == "" {
		title = rep.ProjectCode
	}

	cards := []gomponents.Node{
		card("Geral", pct(rep.OverallPct)),
		card("Grupos", strconv.Itoa(rep.TotalGroups)),
		card("Itens", strconv.Itoa(rep.TotalItems)),
		card("Ignorados", strconv.Itoa(rep.IgnoredItems)),
	}
	for _, phase := range dashboard.Phases {
		p := rep.Phases[phase]
		cards = append(cards, card(phaseLabels[phase], fmt.Sprintf("%s (%d/%d)", pct(p.Pct), p.Done, p.Total)))
	}

	groupRows := make([]gomponents.Node, 0, len(rep.Groups))
	for _, g := range rep.Groups {
		groupRows = append(groupRows, html.Tr(
			html.Td(gomponents.Text(g.Label)),
			html.Td(gomponents.Text(strconv.Itoa(g.Items))),
			html.Td(gomponents.Text(pct(g.Progress))),
		))
	}

	criticalRows := make([]gomponents.Node, 0, len(rep.CriticalItems))
	for _, c := range rep.CriticalItems {
		criticalRows = append(criticalRows, html.Tr(
			html.Td(gomponents.Text(c.Name)),
			html.Td(gomponents.Text(c.GroupLabel)),
			html.Td(gomponents.Text(c.Table)),
			html.Td(gomponents.Text(c.Domain)),
			html.Td(gomponents.Text(strings.Join(c.PendingPhases, ", "))),
		))
	}

	deployRows := make([]gomponents.Node, 0, len(rep.DeploymentTypes))
	for _, d := range rep.DeploymentTypes {
		deployRows = append(deployRows, html.Tr(
			html.Td(gomponents.Text(d.Type)),
			html.Td(gomponents.Text(strconv.Itoa(d.Count))),
			html.Td(gomponents.Text(pct(d.Pct))),
		))
	}

	return html.Doctype(html.HTML(
		html.Lang("pt-BR"),
		html.Head(
			html.Meta(html.Charset("utf-8")),
			html.Meta(html.Name("viewport"), html.Content("width=device-width, initial-scale=1")),
			html.TitleEl(gomponents.Text(title+" | OminiDeck")),
			html.StyleEl(gomponents.Raw(pageCSS)),
		),
		html.Body(
			html.H1(gomponents.Text(title)),
			html.Div(html.Class("cards"), gomponents.Group(cards)),
			html.H2(gomponents.Text("Grupos")),
			table([]string{"Grupo", "Itens", "Progresso"}, groupRows),
			html.H2(gomponents.Text("Itens críticos")),
			table([]string{"Item", "Grupo", "Tabela", "Domínio", "Fases pendentes"}, criticalRows),
			html.H2(gomponents.Text("Tipos de deployment")),
			table([]string{"Tipo", "Itens", "%"}, deployRows),
		),
	))
}
