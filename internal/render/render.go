package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/danpilch/maxfinder/internal/session"
	"github.com/danpilch/maxfinder/internal/trips"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	keyStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	stationCase = cases.Title(language.French)
)

// Renderer writes session views to a terminal.
type Renderer struct {
	out     io.Writer
	preview int
	sortKey trips.SortKey
	desc    bool
}

// NewRenderer creates a renderer. preview caps trips per side in round-trip
// overviews; a negative value shows all of them.
func NewRenderer(out io.Writer, preview int) *Renderer {
	return &Renderer{out: out, preview: preview}
}

// WithPreview returns a copy of r with a different preview size.
func (r *Renderer) WithPreview(preview int) *Renderer {
	cp := *r
	cp.preview = preview
	return &cp
}

// WithOrder returns a copy of r that orders trip listings by key. Group order
// is left as aggregated.
func (r *Renderer) WithOrder(key trips.SortKey, desc bool) *Renderer {
	cp := *r
	cp.sortKey, cp.desc = key, desc
	return &cp
}

func (r *Renderer) order(ts []trips.Trip) []trips.Trip {
	if r.sortKey == trips.SortNone {
		return ts
	}
	return trips.Sort(ts, r.sortKey, r.desc)
}

// Station formats an upstream station name for display.
func Station(name string) string {
	return stationCase.String(strings.ToLower(name))
}

// Controller renders whatever the controller's state currently calls for.
func (r *Renderer) Controller(c *session.Controller) {
	if err := c.Err(); err != nil {
		r.Error(err)
		return
	}
	if c.ViewState().Screen == session.Detail {
		r.Detail(c.Selected())
		return
	}
	r.Overview(c.Mode(), c.CurrentGroups())
}

// Error renders a failed search.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
}

// Overview renders the group summaries of a result.
func (r *Renderer) Overview(mode trips.Mode, result trips.Result) {
	if result.Empty() {
		fmt.Fprintln(r.out, mutedStyle.Render("No trips found."))
		return
	}

	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("%d trip(s), %s search", result.Count(), mode)))

	switch result.Kind {
	case trips.KindTrips:
		r.table(r.order(result.Trips), false)
	case trips.KindDestinations:
		var dests []string
		for _, d := range trips.Destinations(result.All()) {
			dests = append(dests, Station(d))
		}
		fmt.Fprintln(r.out, mutedStyle.Render("Destinations: "+strings.Join(dests, ", ")))
		r.groups(result.ByDestination)
	case trips.KindDates:
		r.groups(result.ByDate)
	case trips.KindRoundTrips:
		for _, p := range result.RoundTrips {
			p.Outbound, p.Inbound = r.order(p.Outbound), r.order(p.Inbound)
			preview := p.Preview(r.preview)
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, keyStyle.Render(p.Destination))
			r.side("Outbound", preview.Outbound, len(p.Outbound))
			r.side("Return", preview.Inbound, len(p.Inbound))
		}
	}

	r.stats(trips.Summarize(result.Departures()))
}

// stats renders figures over every departure of a result.
func (r *Renderer) stats(s trips.Summary) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, keyStyle.Render("Statistics"))

	w := tabwriter.NewWriter(r.out, 0, 4, 3, ' ', 0)
	fmt.Fprintf(w, "Destinations\t%d\n", s.Destinations)
	if s.TopDestination != "" {
		fmt.Fprintf(w, "Most served\t%s (%d trips)\n", Station(s.TopDestination), s.TopDestinationCount)
	}
	fmt.Fprintf(w, "First departure\t%s\n", orNA(s.FirstDeparture))
	fmt.Fprintf(w, "Last departure\t%s\n", orNA(s.LastDeparture))
	fmt.Fprintf(w, "Average duration\t%s\n", trips.FormatDuration(s.AverageDuration))
	w.Flush()

	fmt.Fprintln(r.out, mutedStyle.Render("Departures by hour"))
	for h, n := range s.DepartureHours {
		if n > 0 {
			fmt.Fprintf(r.out, "  %02dh %s %d\n", h, strings.Repeat("#", n), n)
		}
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func (r *Renderer) groups(gs []trips.Group) {
	w := tabwriter.NewWriter(r.out, 0, 4, 3, ' ', 0)
	fmt.Fprintln(w, "GROUP\tTRIPS\tFIRST\tLAST\tAVG DURATION")
	for _, g := range gs {
		s := trips.Summarize(g.Trips)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			keyStyle.Render(g.Key), g.Count, s.FirstDeparture, s.LastDeparture, trips.FormatDuration(s.AverageDuration))
	}
	w.Flush()
}

func (r *Renderer) side(label string, shown []trips.Trip, total int) {
	fmt.Fprintf(r.out, "  %s (%d)\n", label, total)
	for _, t := range shown {
		fmt.Fprintf(r.out, "    %s  %s -> %s  %s\n", t.Date, t.DepartureTime, t.ArrivalTime, t.Duration)
	}
	if hidden := total - len(shown); hidden > 0 {
		fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf("    ... %d more", hidden)))
	}
}

// Detail renders one opened group. A nil selection renders "no data".
func (r *Renderer) Detail(sel *session.Selection) {
	if sel == nil {
		fmt.Fprintln(r.out, mutedStyle.Render("No data for this selection."))
		return
	}

	fmt.Fprintln(r.out, titleStyle.Render(fmt.Sprintf("%s: %d trip(s)", sel.Key, sel.Count())))
	if sel.Outbound != nil || sel.Inbound != nil {
		fmt.Fprintln(r.out, keyStyle.Render("Outbound"))
		r.table(r.order(sel.Outbound), true)
		fmt.Fprintln(r.out, keyStyle.Render("Return"))
		r.table(r.order(sel.Inbound), true)
		return
	}
	r.table(r.order(sel.Trips), true)
}

func (r *Renderer) table(ts []trips.Trip, withTrain bool) {
	w := tabwriter.NewWriter(r.out, 0, 4, 3, ' ', 0)
	header := "DATE\tFROM\tTO\tDEPART\tARRIVE\tDURATION"
	if withTrain {
		header += "\tTRAIN"
	}
	fmt.Fprintln(w, header)
	for _, t := range ts {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s",
			t.Date, Station(t.Origin), Station(t.Destination), t.DepartureTime, t.ArrivalTime, t.Duration)
		if withTrain {
			line += "\t" + string(t.TrainNumber)
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()
}
