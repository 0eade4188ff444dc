package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
)

// Scoring constants.
const (
	// DefaultPassProbability is the chance that a simulated check passes.
	DefaultPassProbability = 0.7

	// DefaultStepDelay is the cosmetic processing time per check.
	DefaultStepDelay = 800 * time.Millisecond

	// RiskPenalty is subtracted from the score for each risk factor.
	RiskPenalty = 15

	confidenceBase = 60.0
	confidenceSpan = 30.0
	confidenceCap  = 95.0

	timestampLayout = "3:04:05 PM"
)

// ErrEmptyURL is returned when the URL is empty after trimming whitespace.
var ErrEmptyURL = errors.New("url is empty")

// ProgressUpdate is reported after each check completes.
type ProgressUpdate struct {
	Check    models.Check `json:"check"`
	Passed   bool         `json:"passed"`
	Progress int          `json:"progress"`
}

// ProgressFunc receives progress updates. It runs on the analyzing goroutine
// and must not block for long.
type ProgressFunc func(ProgressUpdate)

// Config holds the engine's injectable capabilities. Nil capabilities and a
// PassProbability outside (0, 1] fall back to production defaults. A zero
// StepDelay means no delay; negative values are treated as zero.
type Config struct {
	// Random supplies the per-check draws and the confidence draw.
	Random Random

	// Delayer simulates per-check processing time.
	Delayer Delayer

	// StepDelay is passed to Delayer before every check.
	StepDelay time.Duration

	// PassProbability is the chance a check passes. A draw passes when it
	// is strictly below this value.
	PassProbability float64

	// Clock stamps the completion time.
	Clock func() time.Time

	// Resolver enriches IP-literal hosts with GeoIP metadata. Optional.
	Resolver HostResolver
}

// DefaultConfig returns the production configuration: 800ms per check,
// 0.7 pass probability, a time-seeded random source, wall clock.
func DefaultConfig() Config {
	return Config{
		Random:          NewRandom(uint64(time.Now().UnixNano())),
		Delayer:         TimerDelay{},
		StepDelay:       DefaultStepDelay,
		PassProbability: DefaultPassProbability,
		Clock:           time.Now,
	}
}

// URLGuard is the URL analysis engine.
//
// Architecture Principles:
//   - Checks run sequentially in a fixed order; there is no parallelism
//   - Randomness, delay and time are injected so tests are deterministic
//   - Heuristic rules are deterministic and evaluated after all checks
//   - Explainable: every score reduction maps to one reported risk factor
//   - Extensible: custom rules implement rules.Rule; rules that replace a
//     check outcome additionally implement rules.CheckOverrider
//
// The engine holds no per-run state, so a single URLGuard may serve many
// concurrent analyses as long as its Random is safe for concurrent use (the
// default one is).
//
// Usage:
//
//	guard := engine.New(engine.DefaultConfig())
//	guard.AddRules(rules.Default()...)
//	result, err := guard.Analyze(ctx, "https://example.com", nil)
type URLGuard struct {
	cfg    Config
	checks []models.Check
	rules  []rules.Rule
}

// New creates an engine with the fixed check list and no rules.
// Missing capabilities in cfg are filled from DefaultConfig.
func New(cfg Config) *URLGuard {
	def := DefaultConfig()
	if cfg.Random == nil {
		cfg.Random = def.Random
	}
	if cfg.Delayer == nil {
		cfg.Delayer = def.Delayer
	}
	if cfg.StepDelay < 0 {
		cfg.StepDelay = 0
	}
	if cfg.PassProbability <= 0 || cfg.PassProbability > 1 {
		cfg.PassProbability = def.PassProbability
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	return &URLGuard{
		cfg:    cfg,
		checks: models.DefaultChecks(),
		rules:  make([]rules.Rule, 0),
	}
}

// NewDefault creates an engine with DefaultConfig and the built-in rules.
func NewDefault() *URLGuard {
	g := New(DefaultConfig())
	g.AddRules(rules.Default()...)
	return g
}

// AddRule appends a heuristic rule. Rules are evaluated, and their risk
// factors reported, in the order they are added.
func (g *URLGuard) AddRule(r rules.Rule) {
	g.rules = append(g.rules, r)
}

// AddRules appends several rules in order.
func (g *URLGuard) AddRules(rs ...rules.Rule) {
	for _, r := range rs {
		g.AddRule(r)
	}
}

// Rules returns a copy of the configured rules.
func (g *URLGuard) Rules() []rules.Rule {
	return append([]rules.Rule(nil), g.rules...)
}

// Checks returns a copy of the check list in execution order.
func (g *URLGuard) Checks() []models.Check {
	return append([]models.Check(nil), g.checks...)
}

// Analyze runs one full analysis of rawURL.
//
// Procedure:
//  1. Each check, in order, waits StepDelay, draws pass/fail and reports
//     progress (cumulative check weight) through onProgress.
//  2. The base score is the rounded percentage of passed checks. It is taken
//     from the draws, before any rule override.
//  3. Rules scan the lower-cased URL; each match adds one risk factor and
//     CheckOverrider rules rewrite check outcomes.
//  4. The final score is the base score minus RiskPenalty per factor,
//     clamped at zero.
//
// Analyze only fails for an empty URL or when ctx is cancelled during a
// delay. onProgress may be nil.
func (g *URLGuard) Analyze(ctx context.Context, rawURL string, onProgress ProgressFunc) (*models.AnalysisResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, ErrEmptyURL
	}

	// 1. Simulated checks
	progress := 0
	outcomes := make(models.CheckOutcome, len(g.checks))
	for _, check := range g.checks {
		if err := g.cfg.Delayer.Delay(ctx, g.cfg.StepDelay); err != nil {
			return nil, err
		}
		passed := g.cfg.Random.Float64() < g.cfg.PassProbability
		outcomes[check.Name] = passed
		progress += check.Weight
		if onProgress != nil {
			onProgress(ProgressUpdate{Check: check, Passed: passed, Progress: progress})
		}
	}

	// 2. Base score from draws
	baseScore := int(math.Round(float64(outcomes.Passed()) / float64(len(g.checks)) * 100))

	// 3. Heuristic layer
	target := rules.NewTarget(rawURL)
	factors := make([]models.RiskFactor, 0)
	for _, rule := range g.rules {
		if !rule.Match(target) {
			continue
		}
		factors = append(factors, models.RiskFactor(rule.Description()))
		if ov, ok := rule.(rules.CheckOverrider); ok {
			ov.OverrideChecks(outcomes)
		}
	}

	// 4. Penalties
	score := baseScore - RiskPenalty*len(factors)
	if score < 0 {
		score = 0
	}

	confidence := math.Min(confidenceCap, confidenceBase+g.cfg.Random.Float64()*confidenceSpan)
	completed := g.cfg.Clock()

	ordered := make([]models.CheckResult, len(g.checks))
	for i, check := range g.checks {
		ordered[i] = models.CheckResult{Name: check.Name, Weight: check.Weight, Passed: outcomes[check.Name]}
	}

	return &models.AnalysisResult{
		URL:         rawURL,
		SafetyScore: score,
		Status:      models.StatusFor(score),
		Confidence:  confidence,
		RiskFactors: factors,
		TestResults: outcomes,
		Checks:      ordered,
		Timestamp:   completed.Format(timestampLayout),
		CompletedAt: completed,
		Host:        describeHost(rawURL, g.cfg.Resolver),
	}, nil
}
