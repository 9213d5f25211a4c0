// Package simulate runs a benchmark's parameter sweep against the
// simulation executable and records every invocation in
// simulation_metadata.json inside the run directory.
package simulate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDriver      = "gaudirun.py"
	DefaultVariantName = "adept_simulation"
	DefaultArtifactExt = ".root"
)

// Config describes one sweep.
type Config struct {
	Benchmark       string
	Executable      string
	Driver          string // defaults to DefaultDriver
	OptionsFiles    []string
	SimulationFiles []string
	RunDir          string
	Parameters      ParameterSpace
	WorkDir         string        // where the executable runs and drops artifacts; defaults to cwd
	VariantName     string        // simulation stem that marks the accelerated variant
	ArtifactExt     string        // defaults to DefaultArtifactExt
	Timeout         time.Duration // per invocation; zero means none
}

// Orchestrator executes the sweep described by a Config.
type Orchestrator struct {
	cfg     Config
	runner  Runner
	now     func() time.Time
	sweepID string

	emitted map[string]bool // file names written to the run directory this sweep
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithSweepID fixes the sweep id instead of generating one.
func WithSweepID(id string) Option {
	return func(o *Orchestrator) { o.sweepID = id }
}

// New applies defaults to cfg and returns an orchestrator for it.
func New(cfg Config, opts ...Option) *Orchestrator {
	if cfg.Driver == "" {
		cfg.Driver = DefaultDriver
	}
	if cfg.VariantName == "" {
		cfg.VariantName = DefaultVariantName
	}
	if cfg.ArtifactExt == "" {
		cfg.ArtifactExt = DefaultArtifactExt
	}
	o := &Orchestrator{
		cfg:     cfg,
		runner:  ExecRunner{},
		now:     time.Now,
		emitted: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sweepID == "" {
		o.sweepID = uuid.NewString()
	}
	return o
}

// SweepID identifies this sweep in metadata and history.
func (o *Orchestrator) SweepID() string { return o.sweepID }

// Total is the number of invocations the sweep will make.
func (o *Orchestrator) Total() int {
	return o.cfg.Parameters.Size() * len(o.cfg.SimulationFiles)
}

// Run executes every (combination, simulation file) pair in order. Failed
// invocations are recorded and the sweep continues. The returned document
// is also on disk; an error is returned only when the run directory or the
// metadata file cannot be written, or ctx is cancelled between runs.
func (o *Orchestrator) Run(ctx context.Context) (*MetadataDocument, error) {
	if err := os.MkdirAll(o.cfg.RunDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating run directory: %w", err)
	}
	workDir := o.cfg.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		workDir = wd
	}
	if abs, err := filepath.Abs(workDir); err == nil {
		workDir = abs
	}

	metadataPath := filepath.Join(o.cfg.RunDir, MetadataFileName)
	doc := &MetadataDocument{
		Timestamp: o.now().UTC().Format(time.RFC3339Nano),
		Benchmark: o.cfg.Benchmark,
		SweepID:   o.sweepID,
		Runs:      []RunRecord{},
	}
	if err := WriteMetadata(metadataPath, doc); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{"benchmark": o.cfg.Benchmark, "sweep": o.sweepID})
	total := o.Total()
	log.Infof("Running %d simulations in %s", total, o.cfg.RunDir)

	i := 0
	for _, combo := range o.cfg.Parameters.Combinations() {
		for _, sim := range o.cfg.SimulationFiles {
			if err := ctx.Err(); err != nil {
				return doc, fmt.Errorf("sweep interrupted after %d of %d runs: %w", i, total, err)
			}
			i++
			log.Infof("Simulation %d/%d: %s (%s)", i, total, sim, combo)

			rec := o.runOne(ctx, workDir, sim, combo)
			doc.Runs = append(doc.Runs, rec)
			if err := WriteMetadata(metadataPath, doc); err != nil {
				return doc, err
			}
			if !rec.Success {
				log.Warnf("Simulation %s (%s) failed", sim, combo)
			}
		}
	}

	log.Infof("Sweep finished: %d/%d succeeded", doc.Succeeded(), len(doc.Runs))
	return doc, nil
}

func (o *Orchestrator) runOne(ctx context.Context, workDir, simFile string, combo Combination) RunRecord {
	stem := Stem(simFile)
	base := o.outputBase(stem, combo)
	logName := base + ".log"
	logPath := filepath.Join(o.cfg.RunDir, logName)
	args := o.command(simFile, combo)

	rec := RunRecord{
		SimulationFile: simFile,
		Parameters:     combo.Map(),
		RootFiles:      []string{},
		WithAdept:      stem == o.cfg.VariantName,
	}
	log := logrus.WithFields(logrus.Fields{"benchmark": o.cfg.Benchmark, "log": logName})

	before, err := snapshotArtifacts(workDir, o.cfg.ArtifactExt)
	if err != nil {
		log.Errorf("Listing artifacts in %s: %v", workDir, err)
		return rec
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		log.Errorf("Creating log file: %v", err)
		return rec
	}
	fmt.Fprintf(logFile, "# Command: %s\n", strings.Join(args, " "))
	fmt.Fprintf(logFile, "# Timestamp: %s\n\n", o.now().Format(time.RFC3339))

	runCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	code, runErr := o.runner.Run(runCtx, Invocation{
		Args:   args,
		Env:    append(os.Environ(), combo.Env()...),
		Dir:    workDir,
		Output: logFile,
	})
	elapsed := time.Since(start).Seconds()
	rec.ExecutionTime = elapsed

	if runErr != nil {
		logFile.Close()
		os.Remove(logPath)
		log.Errorf("Starting %s: %v", args[0], runErr)
		return rec
	}

	fmt.Fprintf(logFile, "\n# Execution time: %.2f seconds\n", elapsed)
	if err := logFile.Close(); err != nil {
		log.Errorf("Closing log file: %v", err)
		rec.OutputPath = &logName
		return rec
	}
	rec.OutputPath = &logName

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		log.Warnf("Timed out after %s", o.cfg.Timeout)
	case code != 0:
		log.Warnf("Exited with code %d", code)
	default:
		rec.Success = true
	}

	after, err := snapshotArtifacts(workDir, o.cfg.ArtifactExt)
	if err != nil {
		log.Errorf("Listing artifacts in %s: %v", workDir, err)
		return rec
	}
	added := newSince(before, after)
	for idx, src := range added {
		name := o.claim(artifactName(base, o.cfg.ArtifactExt, idx, len(added)), o.cfg.ArtifactExt)
		if err := moveFile(src, filepath.Join(o.cfg.RunDir, name)); err != nil {
			log.Errorf("Moving %s: %v", src, err)
			continue
		}
		rec.RootFiles = append(rec.RootFiles, name)
	}
	if len(rec.RootFiles) == 0 {
		log.Warnf("No %s files produced", o.cfg.ArtifactExt)
	}
	return rec
}

// command is `exe env K=V... driver opts... sim`.
func (o *Orchestrator) command(simFile string, combo Combination) []string {
	args := []string{o.cfg.Executable, "env"}
	args = append(args, combo.Env()...)
	args = append(args, o.cfg.Driver)
	args = append(args, o.cfg.OptionsFiles...)
	return append(args, simFile)
}

// outputBase names a run's log and artifacts, suffixing __N when the log
// name was already written in this sweep.
func (o *Orchestrator) outputBase(stem string, combo Combination) string {
	base := stem
	if len(combo) > 0 {
		base = stem + "_" + combo.String()
	}
	return strings.TrimSuffix(o.claim(base+".log", ".log"), ".log")
}

// claim reserves name in the run directory. A name already written in this
// sweep gets the first free __N suffix before ext.
func (o *Orchestrator) claim(name, ext string) string {
	base := strings.TrimSuffix(name, ext)
	out := name
	for n := 2; o.emitted[out]; n++ {
		out = fmt.Sprintf("%s__%d%s", base, n, ext)
	}
	if out != name {
		logrus.Warnf("Output name %q already used in this sweep, writing %q", name, out)
	}
	o.emitted[out] = true
	return out
}

// Stem is the file name without directory and final extension.
func Stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
