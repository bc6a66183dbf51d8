package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/nvandessel/selectorate/internal/simulation"
)

// WriteTable writes one row every `every` generations, always including the
// last one. every <= 0 prints only the last generation.
func WriteTable(w io.Writer, records []simulation.GenerationRecord, every int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "gen\twinner\tslot\tcoalition\tsupporters\talpha\tposition\tmean alpha\tmean position\t")
	for i, r := range records {
		last := i == len(records)-1
		if !last && (every <= 0 || r.Generation%every != 0) {
			continue
		}
		mark := ""
		if r.Degenerate {
			mark = "*"
		}
		fmt.Fprintf(tw, "%d\t%d%s\t%d\t%d\t%d\t%.3f\t%.2f\t%.3f\t%.2f\t\n",
			r.Generation, r.WinnerID, mark, r.WinnerSlot, r.CoalitionSize, r.Supporters,
			r.WinnerAlpha, r.WinnerPosition, r.MeanAlpha, r.MeanPosition)
	}
	return tw.Flush()
}

// WriteSummary writes the end-of-run summary.
func WriteSummary(w io.Writer, run *simulation.Run) error {
	s := run.Summarize()
	var b strings.Builder

	fmt.Fprintf(&b, "Seed %d: %s generations, %s voters, %s candidates\n",
		s.Seed,
		humanize.Comma(int64(s.Generations)),
		humanize.Comma(int64(len(run.Voters))),
		humanize.Comma(int64(run.Config.NumCandidates)))
	if len(run.Records) > 0 {
		last := run.Records[len(run.Records)-1]
		fmt.Fprintf(&b, "Final winner policy: %.2f\n", last.WinnerPosition)
		fmt.Fprintf(&b, "Final winner alpha (public/private split): %.2f\n", last.WinnerAlpha)
	}
	if run.LastResult != nil {
		fmt.Fprintf(&b, "Final coalition sizes: %v\n", run.LastResult.CoalitionSizes())
	}
	fmt.Fprintf(&b, "Mean coalition size: %.1f\n", s.MeanCoalition)
	fmt.Fprintf(&b, "Final mean alpha: %.3f (range %.3f over last %d generations)\n",
		s.FinalMeanAlpha, s.TailAlphaRange, s.TailWindow)
	fmt.Fprintf(&b, "Distinct winners: %s\n", humanize.Comma(int64(s.DistinctWinners)))
	if s.DegenerateRounds > 0 {
		fmt.Fprintf(&b, "Degenerate rounds: %s (%s)\n",
			humanize.Comma(int64(s.DegenerateRounds)),
			humanize.Ftoa(100*float64(s.DegenerateRounds)/float64(s.Generations))+"%")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteAggregate writes a replicate batch: one row per replicate followed by
// the aggregate.
func WriteAggregate(w io.Writer, summaries []simulation.Summary, agg simulation.Aggregate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "run\tseed\tfinal alpha\tfinal position\tfinal coalition\tmean coalition\tdegenerate\t")
	for i, s := range summaries {
		fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.2f\t%d\t%.1f\t%d\t\n",
			i, s.Seed, s.FinalMeanAlpha, s.FinalMeanPosition, s.FinalCoalition, s.MeanCoalition, s.DegenerateRounds)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s runs: mean final alpha %.3f (sd %.3f), mean final position %.2f, mean final coalition %.1f, %s degenerate rounds\n",
		humanize.Comma(int64(agg.Runs)), agg.MeanFinalAlpha, agg.StdDevFinalAlpha,
		agg.MeanFinalPosition, agg.MeanFinalCoalition, humanize.Comma(int64(agg.TotalDegenerateRound)))
	return err
}
