package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/schollz/progressbar/v3"

	"github.com/raysh454/sitecheck/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Score bands used by the dashboard.
const (
	GoodScore = 90
	FairScore = 70
)

// ScoreAttribute returns the color for a displayed score.
func ScoreAttribute(score int) color.Attribute {
	switch {
	case score >= GoodScore:
		return color.FgGreen
	case score >= FairScore:
		return color.FgYellow
	default:
		return color.FgRed
	}
}

// maxListedIssues caps how many findings are printed per engine.
const maxListedIssues = 5

// Reporter renders run progress and results.
type Reporter struct {
	out      io.Writer
	errOut   io.Writer
	jsonOut  bool
	progress bool
}

func NewReporter(out, errOut io.Writer, jsonOut, progress bool) *Reporter {
	return &Reporter{out: out, errOut: errOut, jsonOut: jsonOut, progress: progress}
}

// Spin shows an indeterminate spinner on errOut until the returned func is
// called.
func (r *Reporter) Spin(desc string) func() {
	if !r.progress {
		return func() {}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetDescription(color.CyanString(desc)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			_ = bar.Finish()
		})
	}
}

// Print writes rec as JSON or as a human summary.
func (r *Reporter) Print(rec *model.TestRecord) error {
	if r.jsonOut {
		b, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(r.out, string(b))
		return err
	}

	w := r.out
	fmt.Fprintf(w, "%s %s (%s)\n", color.New(color.Bold).Sprint("Test"), rec.URL, rec.TestType)

	switch rec.Status {
	case model.StatusFailed:
		fmt.Fprintf(w, "  status: %s\n", color.RedString(string(rec.Status)))
		fmt.Fprintf(w, "  error:  %s\n", rec.ErrorMessage)
		return nil
	case model.StatusCompleted:
		fmt.Fprintf(w, "  status: %s\n", color.GreenString(string(rec.Status)))
	default:
		fmt.Fprintf(w, "  status: %s\n", rec.Status)
		return nil
	}

	if rec.Score != nil {
		fmt.Fprintf(w, "  score:  %s\n", color.New(ScoreAttribute(*rec.Score), color.Bold).Sprintf("%d", *rec.Score))
	}
	if rec.Results != nil {
		printResults(w, rec.Results)
	}
	return nil
}

func printResults(w io.Writer, res *model.Results) {
	if p := res.Performance; p != nil {
		m := p.Metrics
		fmt.Fprintf(w, "\n%s %.0f\n", color.CyanString("Performance"), p.Score*100)
		fmt.Fprintf(w, "  FCP %.2fs  LCP %.2fs  TTI %.2fs  CLS %.3f", m.FCP, m.LCP, m.TTI, m.CLS)
		if m.TBT != nil {
			fmt.Fprintf(w, "  TBT %.0fms", *m.TBT)
		}
		fmt.Fprintln(w)
	}
	if a := res.Accessibility; a != nil {
		fmt.Fprintf(w, "\n%s %.0f  (%d violations, %d passes)\n", color.CyanString("Accessibility"), a.Score*100, a.ViolationCount, a.PassCount)
		printIssues(w, a.Issues)
	}
	if s := res.SEO; s != nil {
		fmt.Fprintf(w, "\n%s %.0f\n", color.CyanString("SEO"), s.Score*100)
		printIssues(w, s.Issues)
	}
	if s := res.Security; s != nil {
		fmt.Fprintf(w, "\n%s grade %s", color.CyanString("Security"), s.Grade)
		if s.Score != nil {
			fmt.Fprintf(w, ", score %.0f", *s.Score)
		}
		fmt.Fprintf(w, "  (%d/%d checks passed)\n", s.TestsPassed, s.TestsQuantity)
		if s.DetailsURL != "" {
			fmt.Fprintf(w, "  details: %s\n", s.DetailsURL)
		}
	}
	if b := res.Browser; b != nil {
		fmt.Fprintf(w, "\n%s %s: %d issues, %d runtime errors\n", color.CyanString("Browser"), b.Browser, b.Summary.TotalIssues, len(b.RuntimeErrors))
		if b.ScoreDerived {
			fmt.Fprintln(w, "  score is estimated from the issue count")
		}
		printIssues(w, b.Issues)
	}
	if res.Synthetic {
		fmt.Fprintln(w, color.YellowString("\nThese are sample results, not a real run."))
	}
}

func printIssues(w io.Writer, issues []model.Issue) {
	for i, is := range issues {
		if i == maxListedIssues {
			fmt.Fprintf(w, "  … and %d more\n", len(issues)-maxListedIssues)
			return
		}
		label := is.RuleID
		if label == "" {
			label = is.Impact
		}
		fmt.Fprintf(w, "  - [%s] %s\n", label, is.Description)
	}
}
