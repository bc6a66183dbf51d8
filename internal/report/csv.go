package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
	"github.com/nvandessel/selectorate/internal/simulation"
)

// Export file names.
const (
	SummaryFile    = "election_summary.csv"
	TrajectoryFile = "candidate_trajectory.csv"
	VotesFile      = "vote_data.csv"
)

var (
	summaryHeader = []string{
		"generation", "winner_slot", "winner_id", "winner_position", "winner_alpha",
		"coalition_size", "supporters", "vote_counts", "coalition_sizes",
		"mean_alpha", "mean_position", "degenerate",
	}
	trajectoryHeader = []string{
		"generation", "slot", "candidate_id", "parent_id", "position", "alpha",
		"supporters", "coalition_size", "payoff_variance", "high_variance", "fitness", "is_winner",
	}
)

type csvFile struct {
	f *os.File
	w *csv.Writer
}

func createCSV(path string) (*csvFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return &csvFile{f: f, w: csv.NewWriter(f)}, nil
}

func (c *csvFile) close() error {
	c.w.Flush()
	return errors.Join(c.w.Error(), c.f.Close())
}

// CSVWriter exports a run as the election summary, candidate trajectory
// and, optionally, vote data tables. It implements simulation.Observer.
type CSVWriter struct {
	dir     string
	voters  []models.Voter
	summary *csvFile
	traj    *csvFile
	votes   *csvFile
	started bool
}

var _ simulation.Observer = (*CSVWriter)(nil)

// NewCSVWriter creates the export files in dir. voters is the run's
// electorate and is only used for vote data.
func NewCSVWriter(dir string, voters []models.Voter, includeVotes bool) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	cw := &CSVWriter{dir: dir, voters: voters}

	var err error
	if cw.summary, err = createCSV(filepath.Join(dir, SummaryFile)); err != nil {
		return nil, err
	}
	if cw.traj, err = createCSV(filepath.Join(dir, TrajectoryFile)); err != nil {
		cw.Close()
		return nil, err
	}
	if includeVotes {
		if cw.votes, err = createCSV(filepath.Join(dir, VotesFile)); err != nil {
			cw.Close()
			return nil, err
		}
	}
	return cw, nil
}

// Dir returns the export directory.
func (cw *CSVWriter) Dir() string { return cw.dir }

// ObserveGeneration appends the generation's rows.
func (cw *CSVWriter) ObserveGeneration(rec simulation.GenerationRecord, pool population.Pool, res *election.Result) error {
	if !cw.started {
		if err := cw.writeHeaders(pool.Len()); err != nil {
			return err
		}
		cw.started = true
	}

	if err := cw.summary.w.Write([]string{
		itoa(rec.Generation),
		itoa(rec.WinnerSlot),
		itoa(rec.WinnerID),
		ftoa(rec.WinnerPosition),
		ftoa(rec.WinnerAlpha),
		itoa(rec.CoalitionSize),
		itoa(rec.Supporters),
		joinInts(res.SupporterCounts()),
		joinInts(res.CoalitionSizes()),
		ftoa(rec.MeanAlpha),
		ftoa(rec.MeanPosition),
		strconv.FormatBool(rec.Degenerate),
	}); err != nil {
		return fmt.Errorf("writing %s: %w", SummaryFile, err)
	}

	for slot, c := range pool.Slots {
		out := res.Outcomes[slot]
		if err := cw.traj.w.Write([]string{
			itoa(rec.Generation),
			itoa(slot),
			itoa(c.ID),
			itoa(c.ParentID),
			ftoa(c.Position),
			ftoa(c.Alpha),
			itoa(len(out.Supporters)),
			itoa(len(out.Coalition)),
			ftoa(out.PayoffVariance),
			strconv.FormatBool(out.HighVariance),
			itoa(out.Fitness),
			strconv.FormatBool(slot == res.Winner),
		}); err != nil {
			return fmt.Errorf("writing %s: %w", TrajectoryFile, err)
		}
	}

	if cw.votes != nil {
		if err := cw.writeVotes(rec, pool, res); err != nil {
			return err
		}
	}
	return nil
}

func (cw *CSVWriter) writeHeaders(slots int) error {
	if err := cw.summary.w.Write(summaryHeader); err != nil {
		return err
	}
	if err := cw.traj.w.Write(trajectoryHeader); err != nil {
		return err
	}
	if cw.votes == nil {
		return nil
	}
	header := []string{"generation", "voter_id", "risk_type", "voter_position", "voted_for", "winner_slot"}
	for c := 0; c < slots; c++ {
		p := "cand" + itoa(c) + "_"
		header = append(header, p+"position", p+"alpha", p+"included", p+"utility")
	}
	return cw.votes.w.Write(header)
}

func (cw *CSVWriter) writeVotes(rec simulation.GenerationRecord, pool population.Pool, res *election.Result) error {
	if len(cw.voters) != len(res.Ballots) {
		return fmt.Errorf("writing %s: %d voters for %d ballots", VotesFile, len(cw.voters), len(res.Ballots))
	}
	row := make([]string, 0, 6+4*pool.Len())
	for i, b := range res.Ballots {
		v := cw.voters[i]
		row = append(row[:0],
			itoa(rec.Generation),
			itoa(v.ID),
			string(v.Risk),
			ftoa(v.Position),
			itoa(b.Choice),
			itoa(res.Winner),
		)
		for c, cand := range pool.Slots {
			row = append(row,
				ftoa(cand.Position),
				ftoa(cand.Alpha),
				strconv.FormatBool(b.Included[c]),
				ftoa(b.Utilities[c]),
			)
		}
		if err := cw.votes.w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", VotesFile, err)
		}
	}
	return nil
}

// Close flushes and closes every file.
func (cw *CSVWriter) Close() error {
	var errs []error
	for _, f := range []*csvFile{cw.summary, cw.traj, cw.votes} {
		if f != nil {
			errs = append(errs, f.close())
		}
	}
	return errors.Join(errs...)
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = itoa(v)
	}
	return strings.Join(parts, ";")
}
