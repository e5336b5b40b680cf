package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
)

const outputJSON = "json"

// printResult renders res, then returns err so the exit status reflects it.
func printResult(w io.Writer, format string, res *admin.Result, err error) error {
	if res == nil {
		return err
	}
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(res); encErr != nil {
			return encErr
		}
		return err
	}

	if res.Action != "status" {
		fmt.Fprintf(w, "%s: %s", res.Action, res.Status)
		if res.OperationID != "" {
			fmt.Fprintf(w, " (operation %s)", res.OperationID)
		}
		fmt.Fprintln(w)
	}
	if res.Report != nil {
		renderReport(w, res.Report)
	}
	if len(res.Deleted) > 0 {
		renderDeleted(w, res.Deleted)
	}
	renderOverview(w, res.Overview)
	return err
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	return t
}

func renderReport(w io.Writer, report *domain.Report) {
	t := newTable(w, "Provisioning")
	t.AppendHeader(table.Row{"Language", "Config", "Index", "Type", "Created", "Dynamic off", "Result"})
	for _, p := range report.Pairs {
		result := "ok"
		switch {
		case p.Err != nil:
			result = text.FgRed.Sprint(p.Err.Error())
		case len(p.Warnings) > 0:
			result = text.FgYellow.Sprintf("%d warning(s)", len(p.Warnings))
		}
		t.AppendRow(table.Row{p.Language, p.Config, p.Index, typeLabel(p), len(p.Created), len(p.DynamicDisabled), result})
	}
	t.Render()
}

func typeLabel(p domain.PairResult) string {
	if p.TypeName != "" {
		return p.Type.String() + " (" + p.TypeName + ")"
	}
	return p.Type.String()
}

func renderDeleted(w io.Writer, deleted []domain.DeleteResult) {
	t := newTable(w, "Deleted")
	t.AppendHeader(table.Row{"Index", "Result"})
	for _, d := range deleted {
		result := "deleted"
		if d.Err != nil {
			result = text.FgRed.Sprint(d.Err.Error())
		}
		t.AppendRow(table.Row{d.Index, result})
	}
	t.Render()
}

func renderOverview(w io.Writer, ov domain.Overview) {
	c := ov.Cluster
	cluster := newTable(w, "Cluster")
	cluster.AppendHeader(table.Row{"Name", "Status", "Nodes", "Data nodes", "Active shards", "Unassigned", "Active %"})
	cluster.AppendRow(table.Row{
		c.ClusterName, colorHealth(c.Status), c.NumberOfNodes, c.NumberOfDataNodes,
		c.ActiveShards, c.UnassignedShards, strconv.FormatFloat(c.ActiveShardsPercent, 'f', 1, 64),
	})
	cluster.Render()

	nodes := newTable(w, "Nodes")
	nodes.AppendHeader(table.Row{"Name", "IP", "Roles", "Master", "Heap %", "RAM %", "CPU", "Load 1m", "Version"})
	for _, n := range ov.Nodes {
		master := ""
		if n.Master {
			master = "*"
		}
		nodes.AppendRow(table.Row{n.Name, n.IP, n.Roles, master, n.HeapPercent, n.RAMPercent, n.CPU, n.Load1m, n.Version})
	}
	nodes.Render()

	indices := newTable(w, "Indices")
	indices.AppendHeader(table.Row{"Type", "Index", "Language", "Commerce", "Health", "Docs", "Size"})
	for _, idx := range ov.Indices {
		commerce := ""
		if idx.Commerce {
			commerce = "yes"
		}
		indices.AppendRow(table.Row{idx.Type, idx.Name, idx.Language, commerce, colorHealth(idx.Health), idx.DocumentCount, idx.Size})
	}
	indices.Render()

	for _, e := range ov.Errors {
		fmt.Fprintln(w, text.FgYellow.Sprint("warning: "+e))
	}
}

func colorHealth(h domain.HealthStatus) string {
	switch h {
	case domain.HealthGreen:
		return text.FgGreen.Sprint(h.String())
	case domain.HealthYellow:
		return text.FgYellow.Sprint(h.String())
	case domain.HealthRed:
		return text.FgRed.Sprint(h.String())
	default:
		return h.String()
	}
}
