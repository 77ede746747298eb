package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/watchmakers/cleanwatch/pkg/budget"
	"github.com/watchmakers/cleanwatch/pkg/component"
	"github.com/watchmakers/cleanwatch/pkg/isotope"
	"github.com/watchmakers/cleanwatch/pkg/util"
)

var headingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39"))

type row struct {
	Component string  `json:"component"`
	Isotope   string  `json:"isotope"`
	Format    string  `json:"format"`
	Current   float64 `json:"current_rate"`
	Revised   float64 `json:"revised_rate"`
	Factor    float64 `json:"factor"`
}

type report struct {
	Method           string  `json:"method"`
	Signal           float64 `json:"signal_per_day"`
	Days             float64 `json:"days"`
	MaxBackground    float64 `json:"max_background_per_day"`
	TotalAccidentals float64 `json:"total_accidentals_per_day"`
	RevisedAcc       float64 `json:"revised_accidentals_per_day"`
	BgRatio          float64 `json:"bg_ratio"`
	Rows             []row   `json:"rows"`
}

// newReport pairs every current rate with its revision. Budget keeps the
// component and isotope order of its input.
func newReport(e *budget.Engine, comps, revised []*component.Component, signal, days float64, m budget.Method) *report {
	rep := &report{
		Method:           m.String(),
		Signal:           signal,
		Days:             days,
		TotalAccidentals: e.TotalAccidentals(comps),
		RevisedAcc:       e.TotalAccidentals(revised),
	}
	rep.MaxBackground, _ = e.MaxBackground(signal, days)
	rep.BgRatio, _ = e.BgRatio(comps, signal, days)

	for i, c := range comps {
		rc := revised[i]
		for _, iso := range c.Isotopes() {
			cur, rev := c.Rate(iso), rc.Rate(iso)
			rep.Rows = append(rep.Rows, row{
				Component: c.Name(),
				Isotope:   iso,
				Format:    c.Format().String(),
				Current:   cur,
				Revised:   rev,
				Factor:    util.SafeDiv(rev, cur),
			})
		}
	}
	return rep
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

func (r *report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"component", "isotope", "format", "current_rate", "revised_rate", "factor"})
	for _, x := range r.Rows {
		_ = cw.Write([]string{
			x.Component, x.Isotope, x.Format,
			fmtFloat(x.Current), fmtFloat(x.Revised), fmtFloat(x.Factor),
		})
	}
	cw.Flush()
	return cw.Error()
}

func (r *report) writeJSON(w io.Writer) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func (r *report) writeHTML(w io.Writer) error {
	return tpl.Execute(w, r)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printBudgetTable(w io.Writer, r *report) {
	tw := newTable(w)
	fmt.Fprintln(tw, "COMPONENT\tISOTOPE\tFORMAT\tCURRENT\tREVISED\tFACTOR")
	fmt.Fprintln(tw, "---------\t-------\t------\t-------\t-------\t------")
	for _, x := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4e\t%.4e\t%.3f\n",
			x.Component, x.Isotope, x.Format, x.Current, x.Revised, x.Factor)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "method %s, signal %g/day, %g days:\n", r.Method, r.Signal, r.Days)
	fmt.Fprintf(w, "- max background:       %.4e /day\n", r.MaxBackground)
	fmt.Fprintf(w, "- accidentals (before): %.4e /day\n", r.TotalAccidentals)
	fmt.Fprintf(w, "- accidentals (after):  %.4e /day\n", r.RevisedAcc)
	fmt.Fprintf(w, "- bg ratio (before):    %.4f\n", r.BgRatio)
}

func printBreakdown(w io.Writer, parts []component.Contribution) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ISOTOPE\tPER DAY\tSHARE")
	fmt.Fprintln(tw, "-------\t-------\t-----")
	for _, p := range parts {
		fmt.Fprintf(tw, "%s\t%.2e\t%.1f%%\n", p.Isotope, p.PerDay, p.Fraction*100)
	}
	tw.Flush()
}

func printShares(w io.Writer, comps []*component.Component, weights map[string]map[string]budget.Weight) {
	tw := newTable(w)
	fmt.Fprintln(tw, "COMPONENT\tISOTOPE\tFRACTION\tWEIGHT")
	fmt.Fprintln(tw, "---------\t-------\t--------\t------")
	for _, c := range comps {
		for _, iso := range c.Isotopes() {
			x := weights[c.Name()][iso]
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", c.Name(), iso, x.Fraction, x.Scaled)
		}
	}
	tw.Flush()
}

func printIsotopes(w io.Writer, reg *isotope.Registry) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ISOTOPE\tA\tHALF-LIFE (y)\tABUNDANCE\tMOLAR ACTIVITY\tCONTRIBUTORS (BRANCH)")
	fmt.Fprintln(tw, "-------\t-\t-------------\t---------\t--------------\t---------------------")
	for _, name := range reg.Names() {
		iso, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(tw, "%s\t%g\t%.3e\t%g\t%.4e\t%s\n",
			iso.Name, iso.MassNumber, iso.HalfLife/isotope.SecondsPerYear, iso.Abundance,
			iso.MolarActivity, branches(iso))
	}
	tw.Flush()
}

// branches lists every contributor with its branching ratio, e.g.
// "214Bi:1 210Tl:0.0021".
func branches(iso *isotope.Isotope) string {
	parts := make([]string, 0, len(iso.Contributors()))
	for _, c := range iso.Contributors() {
		br, _ := iso.Branch(c)
		parts = append(parts, c+":"+strconv.FormatFloat(br, 'g', -1, 64))
	}
	return strings.Join(parts, " ")
}

var tpl = template.Must(template.New("rep").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Cleanwatch Budget Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child,th:nth-child(2),td:nth-child(2){text-align:left}
ul{margin:6px 0 14px;padding-left:20px}
.small{color:#555}
</style>

<h1>Cleanwatch Budget Report</h1>

<p class="small">
Method: {{.Method}} &nbsp;|&nbsp;
Signal: {{printf "%g" .Signal}} /day &nbsp;|&nbsp;
Days: {{printf "%g" .Days}}
</p>

<h2>Summary</h2>
<ul>
<li>Max background: {{printf "%.4e" .MaxBackground}} /day</li>
<li>Accidentals before: {{printf "%.4e" .TotalAccidentals}} /day</li>
<li>Accidentals after: {{printf "%.4e" .RevisedAcc}} /day</li>
<li>Background ratio before: {{printf "%.4f" .BgRatio}}</li>
</ul>

<h2>Revised rates</h2>
<table>
<thead>
<tr>
<th>component</th><th>isotope</th><th>format</th>
<th>current</th><th>revised</th><th>factor</th>
</tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
<td>{{.Component}}</td>
<td>{{.Isotope}}</td>
<td>{{.Format}}</td>
<td>{{printf "%.4e" .Current}}</td>
<td>{{printf "%.4e" .Revised}}</td>
<td>{{printf "%.3f" .Factor}}</td>
</tr>
{{end}}
</tbody>
</table>
</html>`))
