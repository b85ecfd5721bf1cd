package course

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_course/internal/engine"
)

// Default per-step deadlines.
const (
	DefaultAcquireTimeout  = 30 * time.Second
	DefaultGenerateTimeout = 60 * time.Second
)

// State is a step of a single conversion.
type State int

const (
	StateAwaitingInput State = iota
	StateParsing
	StateAcquiring
	StateGenerating
	StateAssembling
	StateDone
	StateFailed
)

var stateNames = [...]string{"awaiting_input", "parsing", "acquiring", "generating", "assembling", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Pipeline converts a transcript or video reference into a course Document.
// A Pipeline holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	Captioner Captioner
	Generator Generator
	Template  *Template

	AcquireTimeout  time.Duration
	GenerateTimeout time.Duration

	// OnTransition, when set, observes every state change of a conversion.
	OnTransition func(from, to State)
}

// NewPipeline builds a Pipeline with the template and deadlines from engine.Cfg.
func NewPipeline(c Captioner, g Generator) (*Pipeline, error) {
	tmpl, err := LookupTemplate(engine.Cfg.CourseTemplate)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Captioner:       c,
		Generator:       g,
		Template:        tmpl,
		AcquireTimeout:  engine.Cfg.AcquireTimeout,
		GenerateTimeout: engine.Cfg.GenerateTimeout,
	}, nil
}

type run struct {
	p     *Pipeline
	state State
}

func (r *run) to(next State) {
	if r.p.OnTransition != nil {
		r.p.OnTransition(r.state, next)
	}
	r.state = next
}

func (r *run) fail(err error) error {
	r.to(StateFailed)
	return err
}

// Convert runs one conversion. A non-blank in.Transcript skips parsing and
// acquisition entirely.
func (p *Pipeline) Convert(ctx context.Context, in engine.CourseConvertInput) (*Document, error) {
	start := time.Now()
	doc, err := p.convert(ctx, in)
	if err != nil {
		engine.IncrCourseFailure()
		switch KindOf(err) {
		case KindInvalidInput:
			slog.Debug("course conversion rejected", slog.String("reason", err.Error()))
		default:
			slog.Error("course conversion failed",
				slog.String("reference", in.YouTubeURL),
				slog.String("template", p.template().String()),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err))
		}
		return nil, err
	}
	engine.IncrCourseConversion()
	slog.Info("course converted",
		slog.String("slug", doc.Slug),
		slog.Int("tags", len(doc.Tags)),
		slog.Duration("elapsed", time.Since(start)))
	return doc, nil
}

func (p *Pipeline) convert(ctx context.Context, in engine.CourseConvertInput) (*Document, error) {
	r := &run{p: p, state: StateAwaitingInput}

	text := strings.TrimSpace(in.Transcript)
	if text == "" {
		r.to(StateParsing)
		videoID, err := ParseVideoReference(in.YouTubeURL)
		if err != nil {
			return nil, r.fail(err)
		}

		r.to(StateAcquiring)
		actx, cancel := context.WithTimeout(ctx, durationOr(p.AcquireTimeout, DefaultAcquireTimeout))
		acq := Acquire(actx, p.Captioner, videoID)
		cancel()
		if acq.Available() {
			text = acq.Text
		}
	}

	r.to(StateGenerating)
	instructions, err := p.template().Render()
	if err != nil {
		return nil, r.fail(err)
	}
	gctx, cancel := context.WithTimeout(ctx, durationOr(p.GenerateTimeout, DefaultGenerateTimeout))
	defer cancel()
	var draft Draft
	err = engine.TrackOperation(gctx, "course_generate", 20*time.Second, func(ctx context.Context) error {
		var gerr error
		draft, gerr = GenerateDraft(ctx, p.Generator, instructions, text)
		return gerr
	})
	if err != nil {
		return nil, r.fail(err)
	}

	r.to(StateAssembling)
	doc := Assemble(draft, in.Title, in.Presenter)
	r.to(StateDone)
	return &doc, nil
}

func (p *Pipeline) template() *Template {
	if p.Template != nil {
		return p.Template
	}
	return templates[DefaultTemplate]
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
