package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/pvcohort/config"
	"github.com/giygas/pvcohort/dictionary"
	"github.com/giygas/pvcohort/entities"
	"github.com/giygas/pvcohort/export"
	"github.com/giygas/pvcohort/interfaces"
	"github.com/giygas/pvcohort/pipeline"
	"github.com/giygas/pvcohort/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportsXML = `<?xml version="1.0" encoding="UTF-8"?>
<ichicsr>
  <safetyreport>
    <safetyreportid>1</safetyreportid>
    <patient>
      <drug><medicinalproduct>DrugX</medicinalproduct></drug>
      <reaction><reactionmeddrapt>Severe Nausea</reactionmeddrapt></reaction>
    </patient>
  </safetyreport>
  <safetyreport>
    <safetyreportid>2</safetyreportid>
    <patient>
      <drug><medicinalproduct>Aspirin</medicinalproduct></drug>
      <reaction><reactionmeddrapt>Nausea</reactionmeddrapt></reaction>
    </patient>
  </safetyreport>
  <safetyreport>
    <safetyreportid>3</safetyreportid>
    <patient>
      <drug><medicinalproduct>DRUGX/2MG (TABLET)</medicinalproduct></drug>
      <reaction><reactionmeddrapt>Rash</reactionmeddrapt></reaction>
    </patient>
  </safetyreport>
</ichicsr>`

const (
	richMapping = "id;drug;substances;extra\n" +
		"1;drugx;\"subA;subB\";a\n" +
		"2;drugx/2mg;\"subA;subB\";b\n" +
		"3;aspirin;acetylsalicylic acid;c\n"
	binder = "id;substance;name;code\n" +
		"1;subA;x;N02BE01\n" +
		"2;subB;x;M01AE01\n"
	tree = "code,name\nM01AE01,ibuprofen\nN02BE01,paracetamol\n"
)

type fixture struct {
	dir     string
	cfg     *config.Config
	input   string
	mapping string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	cfg := &config.Config{
		Env:                  config.EnvTest,
		CodeBinderPath:       write("binder.csv", binder),
		HierarchyPath:        write("tree.csv", tree),
		ProcessedMappingPath: filepath.Join(dir, "processed.csv"),
		CodePolicy:           config.CodePolicyFirst,
	}

	return fixture{
		dir:     dir,
		cfg:     cfg,
		input:   write("reports.xml", reportsXML),
		mapping: write("mapping.csv", richMapping),
	}
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestRunAll(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "all.csv")

	summary, err := Run(context.Background(), f.cfg, config.Options{
		Input:   f.input,
		Output:  output,
		Mapping: f.mapping,
		All:     true,
		Verbose: true,
	})
	require.NoError(t, err)

	expected := "CODE ; AE ; SUBSTANCES \n" +
		"0:1;severe nausea;N02BE01 M01AE01 ;\n" +
		"0:1;rash;N02BE01 M01AE01 ;\n"
	assert.Equal(t, expected, readOutput(t, output))
	assert.Equal(t, 2, summary.Patients)

	_, err = uuid.Parse(summary.RunID)
	assert.NoError(t, err, "run id should be a UUID")

	assert.Equal(t, []pipeline.StageCount{
		{Stage: pipeline.StageExtracted, Patients: 3},
		{Stage: pipeline.StageSubstanceFilter, Patients: 3},
		{Stage: pipeline.StageCodeFilter, Patients: 2},
		{Stage: pipeline.StageIndexFilter, Patients: 2},
	}, summary.Stages)

	require.NotNil(t, summary.Quality)
	assert.False(t, summary.Quality.HasRisk())

	// The processed mapping is left on disk for later -p runs
	assert.FileExists(t, f.cfg.ProcessedMappingPath)
}

func TestRunSpecificWithProcessedMapping(t *testing.T) {
	f := newFixture(t)

	// First run produces the processed mapping
	_, err := Run(context.Background(), f.cfg, config.Options{
		Input: f.input, Output: filepath.Join(f.dir, "all.csv"), Mapping: f.mapping, All: true,
	})
	require.NoError(t, err)

	output := filepath.Join(f.dir, "specific.csv")
	summary, err := Run(context.Background(), f.cfg, config.Options{
		Input:       f.input,
		Output:      output,
		Processed:   true,
		Specific:    "nausea",
		SpecificSet: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "patientATC ; patientADR \n0:1;1\n0:1;0\n", readOutput(t, output))
	assert.Equal(t, 1, summary.Positive)
}

func TestRunCSVSpecific(t *testing.T) {
	f := newFixture(t)
	table := filepath.Join(f.dir, "all.csv")

	_, err := Run(context.Background(), f.cfg, config.Options{
		Input: f.input, Output: table, Mapping: f.mapping, All: true,
	})
	require.NoError(t, err)

	output := filepath.Join(f.dir, "labels.csv")
	summary, err := Run(context.Background(), f.cfg, config.Options{
		Input:          table,
		Output:         output,
		CSVSpecific:    "rash",
		CSVSpecificSet: true,
	})
	require.NoError(t, err)

	// Both codes survive the re-read
	assert.Equal(t, "patientATC ; patientADR \n0:1;0\n0:1;1\n", readOutput(t, output))
	assert.Equal(t, config.ModeCSVSpecific, summary.Mode)
	assert.Nil(t, summary.Stages)
	assert.Nil(t, summary.Quality)
}

func TestRunInvalidOptions(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "out.csv")

	_, err := Run(context.Background(), f.cfg, config.Options{
		Input: f.input, Output: output, Mapping: f.mapping, All: true, Specific: "rash", SpecificSet: true,
	})
	require.ErrorIs(t, err, validation.ErrInvalidOptions)
	assert.NoFileExists(t, output, "no output before validation passes")
}

func TestRunUnreadableDictionary(t *testing.T) {
	f := newFixture(t)
	f.cfg.CodeBinderPath = filepath.Join(f.dir, "missing.csv")
	output := filepath.Join(f.dir, "all.csv")
	opts := config.Options{Input: f.input, Output: output, Mapping: f.mapping, All: true}

	// The run continues with an empty dictionary and drops everyone
	summary, err := Run(context.Background(), f.cfg, opts)
	require.NoError(t, err)
	assert.Zero(t, summary.Patients)
	assert.True(t, summary.Quality.HasRisk())
	assert.Equal(t, []string{dictionary.NameCodes}, summary.Quality.EmptyDictionaries)
	assert.Equal(t, "CODE ; AE ; SUBSTANCES \n", readOutput(t, output))

	// Strict mode aborts instead
	f.cfg.StrictDictionaries = true
	_, err = Run(context.Background(), f.cfg, opts)
	assert.ErrorIs(t, err, dictionary.ErrUnreadable)
}

func TestRunInvalidPattern(t *testing.T) {
	f := newFixture(t)
	opts := config.Options{
		Input: f.input, Output: filepath.Join(f.dir, "out.csv"), Mapping: f.mapping,
		Specific: "nausea(", SpecificSet: true,
	}

	_, err := Run(context.Background(), f.cfg, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid adverse event pattern")

	// The same term is accepted once escaped
	opts.EscapeTerm = true
	_, err = Run(context.Background(), f.cfg, opts)
	assert.NoError(t, err)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, f.cfg, config.Options{
		Input: f.input, Output: filepath.Join(f.dir, "out.csv"), Mapping: f.mapping, All: true,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWritesMetricsFile(t *testing.T) {
	f := newFixture(t)
	f.cfg.MetricsFile = filepath.Join(f.dir, "pvcohort.prom")

	_, err := Run(context.Background(), f.cfg, config.Options{
		Input: f.input, Output: filepath.Join(f.dir, "out.csv"), Mapping: f.mapping, All: true,
	})
	require.NoError(t, err)

	content := readOutput(t, f.cfg.MetricsFile)
	assert.Contains(t, content, "pvcohort_patients{")
	assert.True(t, strings.Contains(content, `stage="index_filter"`))
}

type stubValidator struct {
	err    error
	report *interfaces.DataQualityReport
	names  []string
}

func (v *stubValidator) ValidateOptions(config.Options) error {
	return v.err
}

func (v *stubValidator) ReportDictionaries(dicts ...interfaces.DictionaryInfo) *interfaces.DataQualityReport {
	for _, d := range dicts {
		v.names = append(v.names, d.Name())
	}
	return v.report
}

type stubReader struct {
	path     string
	patients []entities.Patient
}

func (r *stubReader) ReadPatientsFile(path string) ([]entities.Patient, error) {
	r.path = path
	return r.patients, nil
}

var (
	_ interfaces.DataValidator = (*stubValidator)(nil)
	_ interfaces.PatientReader = (*stubReader)(nil)
)

func TestRunUsesInjectedValidator(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "all.csv")
	opts := config.Options{Input: f.input, Output: output, Mapping: f.mapping, All: true}

	rejected := errors.New("rejected")
	runner := New(f.cfg)
	runner.validator = &stubValidator{err: rejected}
	_, err := runner.Run(context.Background(), opts)
	require.ErrorIs(t, err, rejected)
	assert.NoFileExists(t, output)

	report := &interfaces.DataQualityReport{EmptyDictionaries: []string{"stub"}}
	validator := &stubValidator{report: report}
	runner.validator = validator
	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Same(t, report, summary.Quality)
	assert.Equal(t,
		[]string{dictionary.NameSubstances, dictionary.NameCodes, dictionary.NameHierarchy},
		validator.names)
}

func TestRunUsesInjectedReader(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "labeled.csv")
	table := filepath.Join(f.dir, "table.csv")

	reader := &stubReader{patients: []entities.Patient{
		entities.NewPatient("0", nil, []string{"nausea"}).WithCodes(entities.CodeSetOf(1)),
		entities.NewPatient("1", nil, []string{"rash"}).WithCodes(entities.CodeSetOf(2)),
	}}
	runner := New(f.cfg)
	runner.reader = reader
	require.NoError(t, os.WriteFile(table, []byte("CODE ; AE ; SUBSTANCES \n"), 0o644))

	summary, err := runner.Run(context.Background(), config.Options{
		Input: table, Output: output, CSVSpecific: "nausea", CSVSpecificSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, table, reader.path)
	assert.Equal(t, 2, summary.Patients)
	assert.Equal(t, 1, summary.Positive)
	assert.Equal(t, "patientATC ; patientADR \n1;1\n2;0\n", readOutput(t, output))
}

func TestNewWiresTableExporter(t *testing.T) {
	runner := New(&config.Config{})
	assert.IsType(t, &export.TableExporter{}, runner.reader)
	assert.IsType(t, &validation.DataValidatorImpl{}, runner.validator)
}
