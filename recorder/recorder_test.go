package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perfgo/stepreel/model"
	"github.com/perfgo/stepreel/report"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeSaver struct {
	name   string
	failAt int
	calls  int
	paths  []string
}

func (f *fakeSaver) Name() string {
	if f.name == "" {
		return "WebDriver"
	}
	return f.name
}

func (f *fakeSaver) SaveScreenshot(_ context.Context, path string) error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errors.New("tab crashed")
	}
	f.paths = append(f.paths, path)
	return os.WriteFile(path, pngHeader, 0644)
}

type plainModule struct{}

func (plainModule) Name() string { return "WebDriver" }

func newTestSuite(t *testing.T, deleteSuccessful bool, modules ...Module) (*Suite, string) {
	t.Helper()
	out := t.TempDir()
	renderer, err := report.New(report.Options{AnimateSlides: true})
	require.NoError(t, err)
	s := New(zerolog.Nop(), Options{
		OutputDir:        out,
		DeleteSuccessful: deleteSuccessful,
		Module:           "WebDriver",
	}, renderer, modules...)
	return s, out
}

func dispatch(t *testing.T, s *Suite, e Event) {
	t.Helper()
	require.NoError(t, s.Dispatch(context.Background(), e))
}

func runTest(t *testing.T, s *Suite, test Test, steps []Step, end EventKind) {
	t.Helper()
	dispatch(t, s, Event{Kind: EventTestBefore, Test: test})
	for i := range steps {
		dispatch(t, s, Event{Kind: EventStepAfter, Test: test, Step: &steps[i]})
	}
	dispatch(t, s, Event{Kind: end, Test: test, Duration: 1250 * time.Millisecond})
}

func cest(feature string) Test {
	return Test{
		Name:      "TestCest: " + feature,
		Signature: "TestCest:" + feature,
		Feature:   feature,
	}
}

func TestEventKindNames(t *testing.T) {
	for k := EventSuiteBefore; k <= EventStepAfter; k++ {
		parsed, ok := ParseEventKind(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, parsed)
	}
	_, ok := ParseEventKind("test.retried")
	assert.False(t, ok)
	assert.Equal(t, "unknown", EventKind(200).String())
}

func TestTestIdentity(t *testing.T) {
	test := cest("succeeds")
	assert.Equal(t, "TestCest:succeeds", test.Key())
	assert.Equal(t, "TestCest:succeeds - Succeeds", test.Label())
	assert.Equal(t, "TestCest..succeeds", sanitizeTestName(test.displayName()))
	assert.Equal(t, "only.signature", sanitizeTestName(Test{Signature: "only:signature"}.displayName()))
	assert.Equal(t, "..a.b.", sanitizeTestName("  a b "))
	assert.Equal(t, "Ünicode", upperFirst("ünicode"))
	assert.Equal(t, "", upperFirst(""))
}

func TestNewSeedUnique(t *testing.T) {
	a, b := NewSeed(), NewSeed()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
	assert.Regexp(t, `^[0-9a-f]+$`, a)
}

func TestStore(t *testing.T) {
	out := t.TempDir()
	store := NewStore(out, "abc")

	dir, err := store.OpenTest("TestCest..a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "record_abc", "TestCest..a"), dir)
	assert.DirExists(t, dir)

	// reopening an existing directory is fine
	_, err = store.OpenTest("TestCest..a")
	require.NoError(t, err)

	file, path := store.SlidePath(dir, 7)
	assert.Equal(t, "007.png", file)
	assert.Equal(t, filepath.Join(dir, "007.png"), path)
	assert.Equal(t, "record_abc/TestCest..a/index.html", store.Rel(filepath.Join(dir, "index.html")))

	require.NoError(t, store.RemoveTest("TestCest..a"))
	assert.NoDirExists(t, dir)
	assert.DirExists(t, store.RunDir())
}

func TestStoreOpenTestFailure(t *testing.T) {
	out := t.TempDir()
	// a regular file where the run root should be
	require.NoError(t, os.WriteFile(filepath.Join(out, "record_abc"), nil, 0644))

	_, err := NewStore(out, "abc").OpenTest("a")
	require.Error(t, err)
}

func TestSlideOrdinals(t *testing.T) {
	saver := &fakeSaver{}
	s, _ := newTestSuite(t, false, saver)
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	test := cest("fails")
	dispatch(t, s, Event{Kind: EventTestBefore, Test: test})
	steps := []Step{
		{Description: "I am on page /"},
		{Description: "checking the header", Comment: true},
		{Description: "I see Welcome"},
		{Description: "I click Login"},
		{Description: "I see dkd", Failed: true},
	}
	for i := range steps {
		dispatch(t, s, Event{Kind: EventStepAfter, Test: test, Step: &steps[i]})
	}

	tc := s.tracker.lookup(test.Key())
	require.NotNil(t, tc)
	require.Len(t, tc.slides, 4)
	for i, slide := range tc.slides {
		assert.Equal(t, i, slide.Ordinal)
	}
	assert.Equal(t, "000.png", tc.slides[0].File)
	assert.Equal(t, "003.png", tc.slides[3].File)
	assert.Equal(t, "I see Welcome", tc.slides[1].Caption)
	assert.True(t, tc.slides[3].Failed)
	assert.Equal(t, 4, saver.calls)

	dispatch(t, s, Event{Kind: EventTestFail, Test: test})
	for _, f := range []string{"000.png", "001.png", "002.png", "003.png", "index.html"} {
		assert.FileExists(t, filepath.Join(tc.dir, f))
	}
	assert.NoFileExists(t, filepath.Join(tc.dir, "004.png"))
}

func TestSlideLimit(t *testing.T) {
	saver := &fakeSaver{}
	store := NewStore(t.TempDir(), "seed")
	dir, err := store.OpenTest("limited")
	require.NoError(t, err)

	rec := NewStepRecorder(zerolog.Nop(), saver, store, 3)
	tc := &testContext{name: "limited", dir: dir}
	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Record(context.Background(), tc, Step{Description: "step"}))
	}
	assert.Len(t, tc.slides, 3)
	assert.Equal(t, 3, saver.calls)
	assert.True(t, tc.overflow)

	assert.Equal(t, DefaultMaxSlides, NewStepRecorder(zerolog.Nop(), saver, store, 0).maxSlides)
	assert.Equal(t, DefaultMaxSlides, NewStepRecorder(zerolog.Nop(), saver, store, 5000).maxSlides)
}

func TestCaptureFailureKeepsRecording(t *testing.T) {
	saver := &fakeSaver{failAt: 2}
	s, out := newTestSuite(t, true, saver)
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	test := cest("succeeds")
	dispatch(t, s, Event{Kind: EventTestBefore, Test: test})
	steps := []Step{{Description: "one"}, {Description: "two"}, {Description: "three"}}

	dispatch(t, s, Event{Kind: EventStepAfter, Test: test, Step: &steps[0]})
	err := s.Dispatch(context.Background(), Event{Kind: EventStepAfter, Test: test, Step: &steps[1]})
	require.ErrorIs(t, err, ErrCaptureFailed)
	assert.Contains(t, err.Error(), "tab crashed")

	// the recording is broken, later steps are not captured
	dispatch(t, s, Event{Kind: EventStepAfter, Test: test, Step: &steps[2]})
	assert.Equal(t, 2, saver.calls)

	// a broken recording is never deleted as successful
	dispatch(t, s, Event{Kind: EventTestSuccess, Test: test})
	testDir := filepath.Join(s.RunDir(), "TestCest..succeeds")
	assert.FileExists(t, filepath.Join(testDir, "000.png"))
	assert.FileExists(t, filepath.Join(testDir, "index.html"))

	summaries := s.agg.Summaries()
	require.Len(t, summaries, 1)
	assert.Contains(t, summaries[0].RecordingError, "001.png")

	path, err := s.End()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "records.html"), path)
}

func TestRetentionPolicy(t *testing.T) {
	tests := []struct {
		name             string
		end              EventKind
		deleteSuccessful bool
		wantKept         bool
		wantStatus       string
		wantClass        string
	}{
		{name: "success deleted", end: EventTestSuccess, deleteSuccessful: true},
		{name: "success kept", end: EventTestSuccess, deleteSuccessful: false, wantKept: true, wantStatus: "successful", wantClass: "success"},
		{name: "fail", end: EventTestFail, deleteSuccessful: true, wantKept: true, wantStatus: "failed", wantClass: "danger"},
		{name: "fail without delete", end: EventTestFail, deleteSuccessful: false, wantKept: true, wantStatus: "failed", wantClass: "danger"},
		{name: "error", end: EventTestError, deleteSuccessful: true, wantKept: true, wantStatus: "failed", wantClass: "danger"},
		{name: "error without delete", end: EventTestError, deleteSuccessful: false, wantKept: true, wantStatus: "failed", wantClass: "danger"},
		{name: "skipped", end: EventTestSkipped, deleteSuccessful: true, wantKept: true, wantStatus: "skipped", wantClass: "warning"},
		{name: "skipped without delete", end: EventTestSkipped, deleteSuccessful: false, wantKept: true, wantStatus: "skipped", wantClass: "warning"},
		{name: "incomplete", end: EventTestIncomplete, deleteSuccessful: true, wantKept: true, wantStatus: "incomplete", wantClass: "info"},
		{name: "incomplete without delete", end: EventTestIncomplete, deleteSuccessful: false, wantKept: true, wantStatus: "incomplete", wantClass: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSuite(t, tt.deleteSuccessful, &fakeSaver{})
			dispatch(t, s, Event{Kind: EventSuiteBefore})

			runTest(t, s, cest("subject"), []Step{{Description: "I am on page /"}}, tt.end)
			testDir := filepath.Join(s.RunDir(), "TestCest..subject")

			rows := s.agg.Rows()
			if !tt.wantKept {
				assert.NoDirExists(t, testDir)
				assert.Empty(t, rows)
				return
			}

			assert.FileExists(t, filepath.Join(testDir, "000.png"))
			assert.FileExists(t, filepath.Join(testDir, "index.html"))
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantStatus, rows[0].Status)
			assert.Equal(t, tt.wantClass, rows[0].TrClass)
			assert.Equal(t, "TestCest:subject - Subject", rows[0].LinkText)
			assert.Equal(t, "1.25", rows[0].ExecutionTime)
			assert.Equal(t, "record_"+s.Seed()+"/TestCest..subject/index.html", rows[0].URL)
		})
	}
}

type failingRenderer struct {
	*report.Renderer
}

func (failingRenderer) RenderTest(string, model.TestReport) error {
	return errors.New("disk full")
}

func TestRenderFailureIsNotIndexed(t *testing.T) {
	renderer, err := report.New(report.Options{})
	require.NoError(t, err)
	s := New(zerolog.Nop(), Options{
		OutputDir: t.TempDir(),
		Module:    "WebDriver",
	}, failingRenderer{renderer}, &fakeSaver{})
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	test := cest("fails")
	dispatch(t, s, Event{Kind: EventTestBefore, Test: test})
	err = s.Dispatch(context.Background(), Event{Kind: EventTestFail, Test: test})
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, s.agg.Rows())
}

func TestIndexOrderSkipsDeletedTests(t *testing.T) {
	s, _ := newTestSuite(t, true, &fakeSaver{})
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	step := []Step{{Description: "I am on page /"}}
	runTest(t, s, cest("a"), step, EventTestFail)
	runTest(t, s, cest("b"), step, EventTestSuccess)
	runTest(t, s, cest("c"), step, EventTestSkipped)

	var labels []string
	for _, row := range s.agg.Rows() {
		labels = append(labels, row.LinkText)
	}
	assert.Equal(t, []string{"TestCest:a - A", "TestCest:c - C"}, labels)
}

func TestOutOfOrderEventsAreIgnored(t *testing.T) {
	saver := &fakeSaver{}
	s, out := newTestSuite(t, true, saver)

	// before suite start nothing is bound
	dispatch(t, s, Event{Kind: EventTestBefore, Test: cest("early")})
	assert.NoDirExists(t, filepath.Join(out, "record_"))

	dispatch(t, s, Event{Kind: EventSuiteBefore})
	test := cest("late")
	step := Step{Description: "orphan"}

	dispatch(t, s, Event{Kind: EventStepAfter, Test: test, Step: &step})
	dispatch(t, s, Event{Kind: EventStepAfter, Test: test})
	dispatch(t, s, Event{Kind: EventTestFail, Test: test})
	assert.Zero(t, saver.calls)

	runTest(t, s, test, []Step{step}, EventTestFail)
	// duplicate terminal event
	dispatch(t, s, Event{Kind: EventTestError, Test: test})
	assert.Equal(t, 1, s.agg.Len())
	assert.Equal(t, "failed", s.agg.Rows()[0].Status)
}

func TestSuiteDisabledWithoutModule(t *testing.T) {
	s, out := newTestSuite(t, true)

	dispatch(t, s, Event{Kind: EventSuiteBefore})
	assert.False(t, s.Enabled())
	assert.Empty(t, s.Seed())

	runTest(t, s, cest("succeeds"), []Step{{Description: "I am on page /"}}, EventTestFail)
	dispatch(t, s, Event{Kind: EventSuiteAfter})

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSuiteRejectsModuleWithoutCapture(t *testing.T) {
	s, _ := newTestSuite(t, true, plainModule{})

	err := s.Dispatch(context.Background(), Event{Kind: EventSuiteBefore})
	require.ErrorIs(t, err, ErrNotScreenshotSaver)
	assert.Contains(t, err.Error(), "WebDriver")
	assert.False(t, s.Enabled())
}

func TestSuiteEndWithoutTests(t *testing.T) {
	s, out := newTestSuite(t, true, &fakeSaver{})
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	path, err := s.End()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, filepath.Join(out, "records.html"))
}

func TestSuiteSeedChangesPerRun(t *testing.T) {
	s, _ := newTestSuite(t, true, &fakeSaver{})
	dispatch(t, s, Event{Kind: EventSuiteBefore})
	first := s.Seed()
	dispatch(t, s, Event{Kind: EventSuiteBefore})
	assert.NotEqual(t, first, s.Seed())
}

func TestSuiteScenario(t *testing.T) {
	s, out := newTestSuite(t, true, &fakeSaver{})
	dispatch(t, s, Event{Kind: EventSuiteBefore})

	runTest(t, s, cest("succeeds"), []Step{
		{Description: "I am on page /"},
		{Description: "I see Erweiterte Suche"},
	}, EventTestSuccess)
	runTest(t, s, cest("hasError"), []Step{
		{Description: "I am on page /"},
	}, EventTestError)

	dispatch(t, s, Event{Kind: EventSuiteAfter})

	runDir := s.RunDir()
	assert.NoDirExists(t, filepath.Join(runDir, "TestCest..succeeds"))

	errDir := filepath.Join(runDir, "TestCest..hasError")
	files, err := os.ReadDir(errDir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"000.png", "index.html"}, names)

	shared, err := os.ReadFile(filepath.Join(out, "records.html"))
	require.NoError(t, err)
	local, err := os.ReadFile(filepath.Join(runDir, "records.html"))
	require.NoError(t, err)
	assert.Equal(t, shared, local)

	html := string(shared)
	assert.Contains(t, html, s.Seed())
	assert.Contains(t, html, `<tr class="danger">`)
	assert.Contains(t, html, "<td>failed</td>")
	assert.Contains(t, html, "TestCest:hasError - HasError")
	assert.NotContains(t, html, "TestCest:succeeds")

	assert.FileExists(t, filepath.Join(runDir, ManifestFile))
}
