// Package runner executes one pipeline run: it loads the dictionaries,
// extracts or re-reads patients, resolves them, and writes the requested
// table.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/giygas/pvcohort/config"
	"github.com/giygas/pvcohort/dictionary"
	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/export"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/logging"
	"github.com/giygas/pvcohort/metrics"
	"github.com/giygas/pvcohort/pipeline"
	"github.com/giygas/pvcohort/reports"
	"github.com/giygas/pvcohort/validation"
	"github.com/google/uuid"
)

const topEventsLogged = 10

// Summary describes a completed run
type Summary struct {
	RunID    string
	Mode     config.Mode
	Stages   []pipeline.StageCount
	Patients int
	Positive int // Patients labeled with the target event
	Quality  *interfaces.DataQualityReport
	Duration time.Duration
}

// Runner executes runs with an injected validator and exporters
type Runner struct {
	cfg       *config.Config
	validator interfaces.DataValidator
	exporter  interfaces.Exporter
	reader    interfaces.PatientReader
}

// New creates a runner writing and reading ';'-delimited tables
func New(cfg *config.Config) *Runner {
	exporter := export.NewTableExporter()
	return &Runner{
		cfg:       cfg,
		validator: validation.NewDataValidator(),
		exporter:  exporter,
		reader:    exporter,
	}
}

// Run executes one run with a default runner
func Run(ctx context.Context, cfg *config.Config, opts config.Options) (*Summary, error) {
	return New(cfg).Run(ctx, opts)
}

// Run validates opts and executes the selected mode
func (r *Runner) Run(ctx context.Context, opts config.Options) (*Summary, error) {
	if err := r.validator.ValidateOptions(opts); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logging.Info("Starting run",
		"run_id", runID,
		"mode", opts.Mode().String(),
		"input", opts.Input,
		"output", opts.Output)
	start := time.Now()

	summary := &Summary{RunID: runID, Mode: opts.Mode()}

	var patients []entities.Patient
	var err error
	if opts.FromReports() {
		patients, err = r.resolveReports(ctx, opts, summary)
	} else {
		patients, err = r.readTable(opts.Input)
	}
	if err != nil {
		return nil, err
	}
	summary.Patients = len(patients)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	if err := r.writeOutput(opts, patients, summary); err != nil {
		return nil, err
	}

	logTopEvents(patients)

	if r.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			logging.Warn("Failed to write metrics file", "path", r.cfg.MetricsFile, "error", err)
		}
	}

	summary.Duration = time.Since(start)
	logging.Info("Successfully exported data",
		"run_id", runID,
		"output", opts.Output,
		"patients", summary.Patients,
		"duration", summary.Duration.String())

	return summary, nil
}

// resolveReports runs the full chain from the report file to resolved patients
func (r *Runner) resolveReports(ctx context.Context, opts config.Options, summary *Summary) ([]entities.Patient, error) {
	if !opts.Processed {
		if _, err := dictionary.PreprocessMapping(opts.Mapping, r.cfg.ProcessedMappingPath); err != nil {
			return nil, fmt.Errorf("failed to preprocess mapping: %w", err)
		}
	}

	dicts, err := r.loadDictionaries()
	if err != nil {
		return nil, err
	}
	summary.Quality = r.validator.ReportDictionaries(dicts.substances, dicts.codes, dicts.hierarchy)
	validation.LogReport(summary.Quality)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	extracted, _, err := reports.ExtractFile(opts.Input)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	res := pipeline.New(dicts.substances, dicts.codes, dicts.hierarchy).Run(extracted)
	summary.Stages = res.Stages

	if opts.Verbose {
		for _, stage := range res.Stages {
			logging.Info("Patient count", "stage", stage.Stage, "patients", stage.Patients)
		}
	}

	return res.Patients, nil
}

type dictionaries struct {
	substances *dictionary.Dictionary[string]
	codes      *dictionary.Dictionary[string]
	hierarchy  *dictionary.Dictionary[int]
}

// loadDictionaries loads the three dictionaries. An unreadable file leaves
// its dictionary empty and only aborts the run in strict mode.
func (r *Runner) loadDictionaries() (*dictionaries, error) {
	policy, err := dictionary.ParsePolicy(r.cfg.CodePolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid code policy: %w", err)
	}

	var d dictionaries
	var errs []error

	d.substances, err = dictionary.LoadSubstances(r.cfg.ProcessedMappingPath)
	errs = append(errs, err)
	d.codes, err = dictionary.LoadCodes(r.cfg.CodeBinderPath, policy)
	errs = append(errs, err)
	d.hierarchy, err = dictionary.LoadHierarchy(r.cfg.HierarchyPath)
	errs = append(errs, err)

	for _, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, dictionary.ErrUnreadable) || r.cfg.StrictDictionaries {
			return nil, fmt.Errorf("failed to load dictionaries: %w", err)
		}
	}

	return &d, nil
}

func (r *Runner) readTable(path string) ([]entities.Patient, error) {
	patients, err := r.reader.ReadPatientsFile(path)
	if err != nil {
		return nil, err
	}
	logging.Info("Patient table read", "path", path, "patients", len(patients))
	return patients, nil
}

func (r *Runner) writeOutput(opts config.Options, patients []entities.Patient, summary *Summary) (err error) {
	var write func(w io.Writer) error

	switch opts.Mode() {
	case config.ModeAll:
		write = func(w io.Writer) error {
			return r.exporter.WritePatients(w, patients)
		}
	default:
		pattern, err := pipeline.CompileEventPattern(opts.Term(), opts.EscapeTerm)
		if err != nil {
			return err
		}
		labels := pipeline.Label(patients, pattern)
		metrics.RecordLabels(labels)
		for _, l := range labels {
			if l {
				summary.Positive++
			}
		}
		logging.Info("Cohort labeled",
			"term", opts.Term(),
			"patients", len(patients),
			"positive", summary.Positive)
		write = func(w io.Writer) error {
			return r.exporter.WriteLabeled(w, patients, labels)
		}
	}

	file, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output %s: %w", opts.Output, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output %s: %w", opts.Output, cerr)
		}
	}()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to export to %s: %w", opts.Output, err)
	}
	return nil
}

func logTopEvents(patients []entities.Patient) {
	counts := pipeline.CountEvents(patients)
	if len(counts) > topEventsLogged {
		counts = counts[:topEventsLogged]
	}
	for _, c := range counts {
		logging.Debug("Adverse event frequency", "term", c.Term, "count", c.Count)
	}
}
