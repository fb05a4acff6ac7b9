package guard

import (
	"context"

	"github.com/BetterCallFirewall/Bastion/internal/models"
)

// StageResult - outcome of one pipeline stage: either continue or stop with a verdict
type StageResult struct {
	terminal bool
	verdict  models.Verdict
	source   models.StageSource
}

// Continue passes control to the next stage
func Continue() StageResult {
	return StageResult{}
}

// Terminal stops the pipeline with the given verdict
func Terminal(verdict models.Verdict, source models.StageSource) StageResult {
	return StageResult{terminal: true, verdict: verdict, source: source}
}

func (r StageResult) IsTerminal() bool {
	return r.terminal
}

func (r StageResult) Verdict() models.Verdict {
	return r.verdict
}

func (r StageResult) Source() models.StageSource {
	return r.source
}

// scanState is the working data of one classification call, shared by its stages
type scanState struct {
	content     string
	original    string // redacted input before extraction, still seen by the gate
	attachments []string
	canary      string
	cacheKey    string

	// set once the remote model answered
	verdict models.Verdict
	raw     string
	source  models.StageSource
}

type stage struct {
	name string
	run  func(ctx context.Context, s *scanState) (StageResult, error)
}

// Decision - final verdict and the stage that produced it
type Decision struct {
	Verdict models.Verdict     `json:"verdict"`
	Source  models.StageSource `json:"source"`
}

// runStages executes stages in order until one is terminal.
// When every stage continues, the verdict accumulated in the state wins.
func runStages(ctx context.Context, stages []stage, s *scanState) (Decision, error) {
	for _, st := range stages {
		result, err := st.run(ctx, s)
		if err != nil {
			return Decision{}, err
		}
		if result.IsTerminal() {
			return Decision{Verdict: result.Verdict(), Source: result.Source()}, nil
		}
	}
	return Decision{Verdict: s.verdict, Source: s.source}, nil
}
