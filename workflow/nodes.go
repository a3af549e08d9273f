package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/flyt"

	"research-assistant/server/research"
)

// generateAnalystsNode produces the analyst personas for the run.
type generateAnalystsNode struct {
	*flyt.BaseNode
	w  *Workflow
	cb research.Callbacks
}

func (n *generateAnalystsNode) Prep(ctx context.Context, store *flyt.SharedStore) (any, error) {
	cfg, _ := store.Get(keyConfig)
	return cfg, nil
}

func (n *generateAnalystsNode) Exec(ctx context.Context, prepResult any) (any, error) {
	cfg := prepResult.(research.Config)
	n.cb.Progress(10, "Generating research analysts...")

	analysts, err := n.w.generator.Generate(ctx, cfg.Topic, cfg.MaxAnalysts, cfg.HumanFeedback)
	if err != nil {
		return nil, err
	}
	return analysts, nil
}

func (n *generateAnalystsNode) Post(ctx context.Context, store *flyt.SharedStore, prepResult, execResult any) (flyt.Action, error) {
	analysts := execResult.([]research.Analyst)
	store.Set(keyAnalysts, analysts)

	n.cb.AnalystsCreated(analysts)
	n.cb.Progress(25, fmt.Sprintf("Generated %d analysts", len(analysts)))
	return flyt.DefaultAction, nil
}

// conductInterviewsNode runs one interview per analyst, optionally in
// parallel, and collects sections in analyst order.
type conductInterviewsNode struct {
	*flyt.BaseNode
	w  *Workflow
	cb research.Callbacks
}

type interviewsInput struct {
	cfg      research.Config
	analysts []research.Analyst
}

func (n *conductInterviewsNode) Prep(ctx context.Context, store *flyt.SharedStore) (any, error) {
	cfgVal, _ := store.Get(keyConfig)
	analystsVal, ok := store.Get(keyAnalysts)
	if !ok {
		return nil, fmt.Errorf("interviews: no analysts in store")
	}
	return interviewsInput{
		cfg:      cfgVal.(research.Config),
		analysts: analystsVal.([]research.Analyst),
	}, nil
}

func (n *conductInterviewsNode) Exec(ctx context.Context, prepResult any) (any, error) {
	in := prepResult.(interviewsInput)
	n.cb.Progress(30, "Starting research interviews...")

	sections := make([]string, len(in.analysts))

	if in.cfg.Parallelism > 1 {
		n.runParallel(ctx, in, sections)
	} else {
		n.runSequential(ctx, in, sections)
	}

	n.cb.Progress(70, "All interviews completed")
	return sections, nil
}

func (n *conductInterviewsNode) runSequential(ctx context.Context, in interviewsInput, sections []string) {
	for i, a := range in.analysts {
		n.cb.Progress(30+(i*40/len(in.analysts)), fmt.Sprintf("Interviewing %s... (%d/%d)", a.Name, i+1, len(in.analysts)))
		sections[i] = n.interviewOne(ctx, a, in.cfg)
		n.cb.InterviewComplete(a.Name, sections[i])
		n.cb.SectionComplete(sections[i])
	}
}

func (n *conductInterviewsNode) runParallel(ctx context.Context, in interviewsInput, sections []string) {
	pool := flyt.NewWorkerPool(in.cfg.Parallelism)
	defer pool.Close()

	var mu sync.Mutex
	completed := 0

	for i, a := range in.analysts {
		idx, an := i, a
		pool.Submit(func() {
			section := n.interviewOne(ctx, an, in.cfg)

			mu.Lock()
			sections[idx] = section
			completed++
			n.cb.Progress(30+(completed*40/len(in.analysts)), fmt.Sprintf("Completed interview with %s (%d/%d)", an.Name, completed, len(in.analysts)))
			n.cb.InterviewComplete(an.Name, section)
			n.cb.SectionComplete(section)
			mu.Unlock()
		})
	}

	pool.Wait()
}

// interviewOne never fails the run: an interview error becomes an
// error section placeholder.
func (n *conductInterviewsNode) interviewOne(ctx context.Context, a research.Analyst, cfg research.Config) string {
	section, err := n.w.interviewer.Conduct(ctx, a, cfg.Topic, cfg.MaxTurns)
	if err != nil {
		msg := fmt.Sprintf("Interview failed for %s: %v", a.Name, err)
		n.w.log.Error().Err(err).Str("analyst", a.Name).Msg("interview failed")
		n.cb.Error(msg)
		return fmt.Sprintf("## Error\nInterview with %s failed: %v", a.Name, err)
	}
	return section
}

func (n *conductInterviewsNode) Post(ctx context.Context, store *flyt.SharedStore, prepResult, execResult any) (flyt.Action, error) {
	store.Set(keySections, execResult.([]string))
	return flyt.DefaultAction, nil
}

// writeReportNode compiles the final report from the sections.
type writeReportNode struct {
	*flyt.BaseNode
	w  *Workflow
	cb research.Callbacks
}

type reportInput struct {
	cfg      research.Config
	analysts []research.Analyst
	sections []string
}

func (n *writeReportNode) Prep(ctx context.Context, store *flyt.SharedStore) (any, error) {
	cfgVal, _ := store.Get(keyConfig)
	analystsVal, _ := store.Get(keyAnalysts)
	sectionsVal, ok := store.Get(keySections)
	if !ok {
		return nil, fmt.Errorf("report: no sections in store")
	}
	return reportInput{
		cfg:      cfgVal.(research.Config),
		analysts: analystsVal.([]research.Analyst),
		sections: sectionsVal.([]string),
	}, nil
}

func (n *writeReportNode) Exec(ctx context.Context, prepResult any) (any, error) {
	in := prepResult.(reportInput)
	n.cb.Progress(85, "Generating final report...")

	results, err := n.w.writer.Write(ctx, in.cfg.Topic, in.sections)
	if err != nil {
		return nil, err
	}
	results.Analysts = in.analysts
	return results, nil
}

func (n *writeReportNode) Post(ctx context.Context, store *flyt.SharedStore, prepResult, execResult any) (flyt.Action, error) {
	store.Set(keyResults, execResult.(*research.Results))
	return flyt.DefaultAction, nil
}
