package processing

import (
	"context"
	"time"
)

// ProgressFunc reports pipeline progress back to the job record. Progress
// is a percentage in [0,100]; step is a short human-readable description.
type ProgressFunc func(progress int, step string) error

// Pipeline performs the actual audiobook work for a claimed job: chapter
// extraction, summarization, text-to-speech, and audio storage. It is an
// external collaborator of the job queue; the queue only hands it an
// entity id and a progress callback.
type Pipeline interface {
	// Generate produces the audiobook for the given entity. Refresh
	// regenerates it. Both run to completion or return an error; the
	// queue applies its retry policy on top.
	Generate(ctx context.Context, entityID string, report ProgressFunc) error
	Refresh(ctx context.Context, entityID string, report ProgressFunc) error
}

// SimulatedPipeline walks through the generation steps with short delays
// and produces no audio. It stands in for the real pipeline in local
// development.
// TODO: replace with the chapter/summary/TTS pipeline service once it lands.
type SimulatedPipeline struct {
	StepDelay time.Duration
}

func (p *SimulatedPipeline) Generate(ctx context.Context, entityID string, report ProgressFunc) error {
	return p.walk(ctx, report)
}

func (p *SimulatedPipeline) Refresh(ctx context.Context, entityID string, report ProgressFunc) error {
	return p.walk(ctx, report)
}

func (p *SimulatedPipeline) walk(ctx context.Context, report ProgressFunc) error {
	steps := []struct {
		progress int
		step     string
	}{
		{10, "Extracting chapters"},
		{40, "Summarizing chapters"},
		{80, "Synthesizing audio"},
		{95, "Storing audio"},
	}

	delay := p.StepDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	for _, s := range steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := report(s.progress, s.step); err != nil {
			return err
		}
	}

	return nil
}
