package cleaner

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/refset"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/testutil"
)

type write struct {
	key   any
	field string
	value string
}

// fakeStore keeps rows in memory, keyed by int64 id.
type fakeStore struct {
	ids       []int64
	rows      map[int64]map[string]string
	names     map[int64]string
	writes    []write
	failKeys  map[int64]bool
	badRows   map[int64]bool
	queryErr  error
	readCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:     map[int64]map[string]string{},
		names:    map[int64]string{},
		failKeys: map[int64]bool{},
		badRows:  map[int64]bool{},
	}
}

func (f *fakeStore) add(id int64, name string, fields map[string]string) {
	f.ids = append(f.ids, id)
	f.rows[id] = fields
	f.names[id] = name
}

func (f *fakeStore) Records(_ context.Context, fields []string) ([]store.Record, error) {
	f.readCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []store.Record
	for i, id := range f.ids {
		if f.badRows[id] {
			out = append(out, store.Record{Row: i + 1, Err: errors.New("bad row")})
			continue
		}
		rec := store.Record{
			Row:         i + 1,
			Key:         id,
			ID:          strconv.FormatInt(id, 10),
			DisplayName: f.names[id],
			Fields:      map[string]string{},
		}
		for _, field := range fields {
			rec.Fields[field] = f.rows[id][field]
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) UpdateField(_ context.Context, key any, field, value string) error {
	id := key.(int64)
	if f.failKeys[id] {
		return errors.New("database is locked")
	}
	f.writes = append(f.writes, write{key: key, field: field, value: value})
	f.rows[id][field] = value
	return nil
}

type lineSink struct {
	lines []string
	err   error
}

func (s *lineSink) WriteLine(line string) error {
	s.lines = append(s.lines, line)
	return s.err
}

func (s *lineSink) joined() string {
	return strings.Join(s.lines, "\n")
}

func dontsRules() []FieldRule {
	return []FieldRule{
		{Name: "Donts", Dedupe: true, Category: "template"},
		{Name: "NotChannel", Dedupe: true, Category: "channel"},
	}
}

func newTestProcessor(t *testing.T, s Store, sink LineSink, opts Options) *Processor {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	return NewProcessor(s, NewReporter(logger, sink), logger, opts)
}

func TestRun_Scenario_DedupeWritesOnce(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Tatort", map[string]string{"Donts": "A;B;A;c;C"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}})
	sum, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, fs.writes, 1)
	assert.Equal(t, write{key: int64(1), field: "Donts", value: "A;B;c"}, fs.writes[0])
	assert.Equal(t, 1, sum.Changed)
	assert.Equal(t, 2, sum.DuplicatesRemoved)

	require.Len(t, sink.lines, 2)
	assert.Equal(t, "Record Tatort: Donts has duplicates: a, c", sink.lines[0])
	assert.Contains(t, sink.lines[1], "cleaned Donts")
	assert.Contains(t, sink.lines[1], "before:  A;B;A;c;C")
	assert.Contains(t, sink.lines[1], "after:   A;B;c")
}

func TestRun_Scenario_OverlapRemovesMember(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Heute", map[string]string{"NotChannel": "X;Y"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: []FieldRule{{Name: "NotChannel", Category: "channel"}}})
	sum, err := p.Run(context.Background(), map[string]*refset.Set{"channel": refset.New("y")})
	require.NoError(t, err)

	require.Len(t, fs.writes, 1)
	assert.Equal(t, "X", fs.writes[0].value)
	assert.Equal(t, 1, sum.OverlapsRemoved)
	assert.Equal(t, "Record Heute: NotChannel overlaps reference set: Y", sink.lines[0])
	assert.Contains(t, sink.lines[1], "removed: Y")
}

func TestRun_Scenario_EmptyFieldUntouched(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Leer", map[string]string{"Donts": "", "NotChannel": ""})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: dontsRules()})
	sum, err := p.Run(context.Background(), map[string]*refset.Set{
		"template": refset.New("a"),
		"channel":  refset.New("b"),
	})
	require.NoError(t, err)

	assert.Empty(t, fs.writes)
	assert.Empty(t, sink.lines)
	assert.Equal(t, 0, sum.Changed)
	assert.Equal(t, 0, sum.Detected)
}

func TestRun_Scenario_EmptyReferenceSet(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Solo", map[string]string{"Donts": "Z"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: []FieldRule{{Name: "Donts", Category: "template"}}})
	_, err := p.Run(context.Background(), map[string]*refset.Set{"template": refset.New()})
	require.NoError(t, err)

	assert.Empty(t, fs.writes)
	assert.Empty(t, sink.lines)
}

func TestRun_WhitespaceOnlyDifferenceIsNotWritten(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Spaces", map[string]string{"Donts": " A ; B ;;"})

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: dontsRules()[:1]})
	_, err := p.Run(context.Background(), map[string]*refset.Set{"template": refset.New("nothing")})
	require.NoError(t, err)
	assert.Empty(t, fs.writes)
}

func TestRun_OverlapSeesDedupeWrites(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Tatort", map[string]string{"Donts": "Krimi;Werbung;krimi;WERBUNG", "NotChannel": "ARD"})
	fs.add(2, "Sport", map[string]string{"Donts": "Fussball", "NotChannel": "ZDF;zdf;arte"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: dontsRules()})
	sum, err := p.Run(context.Background(), map[string]*refset.Set{
		"template": refset.New("werbung"),
		"channel":  refset.New("ARTE"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, fs.readCalls)
	assert.Equal(t, "Krimi", fs.rows[1]["Donts"])
	assert.Equal(t, "ARD", fs.rows[1]["NotChannel"])
	assert.Equal(t, "Fussball", fs.rows[2]["Donts"])
	assert.Equal(t, "ZDF", fs.rows[2]["NotChannel"])

	// Dedupe: record 1 Donts, record 2 NotChannel. Overlap: record 1 Donts, record 2 NotChannel.
	assert.Len(t, fs.writes, 4)
	assert.Equal(t, 4, sum.Changed)
	assert.Equal(t, 2, sum.DedupeScanned)
	assert.Equal(t, 2, sum.OverlapScanned)
	assert.Equal(t, 2, sum.OverlapsRemoved)
}

func TestRun_Idempotent(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Tatort", map[string]string{"Donts": "A;a;Werbung;B", "NotChannel": "ZDF;ZDF"})
	sets := map[string]*refset.Set{"template": refset.New("werbung"), "channel": refset.New()}

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: dontsRules()})
	_, err := p.Run(context.Background(), sets)
	require.NoError(t, err)
	firstWrites := len(fs.writes)
	require.Positive(t, firstWrites)

	sink := &lineSink{}
	p = newTestProcessor(t, fs, sink, Options{Fields: dontsRules()})
	sum, err := p.Run(context.Background(), sets)
	require.NoError(t, err)

	assert.Len(t, fs.writes, firstWrites, "second run writes nothing")
	assert.Empty(t, sink.lines)
	assert.Equal(t, 0, sum.Changed)
}

func TestRun_UnknownCategory(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "x", map[string]string{"Donts": "a;a"})

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: dontsRules()})
	_, err := p.Run(context.Background(), map[string]*refset.Set{"template": refset.New()})
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), `"channel"`)
	assert.Equal(t, 0, fs.readCalls, "nothing is read before the check")
}

func TestRun_UpdateFailureIsIsolated(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "one", map[string]string{"Donts": "a;a"})
	fs.add(2, "two", map[string]string{"Donts": "b;b"})
	fs.add(3, "three", map[string]string{"Donts": "c;c"})
	fs.failKeys[2] = true
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}})
	sum, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Changed)
	assert.Equal(t, "a", fs.rows[1]["Donts"])
	assert.Equal(t, "b;b", fs.rows[2]["Donts"])
	assert.Equal(t, "c", fs.rows[3]["Donts"])
	assert.NotContains(t, sink.joined(), "(two) cleaned")
}

func TestRun_UnreadableRecordIsIsolated(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "one", map[string]string{"Donts": "a;a"})
	fs.add(2, "two", map[string]string{"Donts": "b;b"})
	fs.badRows[1] = true

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}})
	sum, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, "b", fs.rows[2]["Donts"])
}

func TestRun_QueryErrorAborts(t *testing.T) {
	fs := newFakeStore()
	fs.queryErr = errors.New("no such table: Templates")

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}})
	_, err := p.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dedupe pass")
}

func TestRun_DryRun(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Tatort", map[string]string{"Donts": "A;a"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}, DryRun: true})
	sum, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, fs.writes)
	assert.True(t, sum.DryRun)
	assert.Equal(t, 1, sum.Changed)
	assert.Contains(t, sink.joined(), "would clean Donts")
}

func TestRun_CustomSeparator(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Pipe", map[string]string{"Donts": "a|b|A"})

	p := newTestProcessor(t, fs, &lineSink{}, Options{Fields: []FieldRule{{Name: "Donts", Dedupe: true}}, Separator: '|'})
	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a|b", fs.rows[1]["Donts"])
}

func TestCategories(t *testing.T) {
	rules := []FieldRule{
		{Name: "Donts", Category: "template"},
		{Name: "descDont", Category: "template"},
		{Name: "NotChannel", Category: "channel"},
		{Name: "Other", Dedupe: true},
	}
	assert.Equal(t, []string{"template", "channel"}, Categories(rules))
}

func TestReporter_SinkErrorDoesNotStopOthers(t *testing.T) {
	failing := &lineSink{err: errors.New("disk full")}
	ok := &lineSink{}
	r := NewReporter(testutil.NewTestLogger(t), failing, nil, ok)

	r.Report("hello")
	assert.Equal(t, []string{"hello"}, failing.lines)
	assert.Equal(t, []string{"hello"}, ok.lines)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "Record Tatort: Donts has duplicates: a, c", FormatDuplicates("Tatort", "Donts", []string{"a", "c"}))
	assert.Equal(t, "Record Tatort: NotChannel overlaps reference set: ZDF", FormatOverlaps("Tatort", "NotChannel", []string{"ZDF"}))
	assert.Equal(t, "Reference set template loaded: 3 values", FormatSetLoaded("template", 3))
	assert.Equal(t,
		"Record 7 (Tatort) cleaned Donts\n  before:  A;A\n  after:   A\n  removed: a",
		FormatCleaned("Tatort", "7", "Donts", "A;A", "A", []string{"a"}))
	assert.True(t, strings.HasPrefix(FormatWouldClean("T", "1", "F", "", "", nil), "Record 1 (T) would clean F"))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "unchanged", Unchanged.String())
	assert.Equal(t, "changed", Changed.String())
	assert.Equal(t, "detected", Detected.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestRun_DryRunOverlapSeesPendingDedupe(t *testing.T) {
	fs := newFakeStore()
	fs.add(1, "Tatort", map[string]string{"Donts": "A;a;Werbung", "NotChannel": "ARD"})
	sink := &lineSink{}

	p := newTestProcessor(t, fs, sink, Options{Fields: dontsRules(), DryRun: true})
	sum, err := p.Run(context.Background(), map[string]*refset.Set{
		"template": refset.New("werbung"),
		"channel":  refset.New(),
	})
	require.NoError(t, err)

	assert.Empty(t, fs.writes)
	assert.Equal(t, 2, sum.Changed)
	assert.Contains(t, sink.joined(), "before:  A;Werbung\n  after:   A")
}

func TestRun_DryRunCountsMatchRealRun(t *testing.T) {
	sets := func() map[string]*refset.Set {
		return map[string]*refset.Set{
			"template": refset.New("werbung"),
			"channel":  refset.New("qvc"),
		}
	}
	seed := func() *fakeStore {
		fs := newFakeStore()
		fs.add(1, "Tatort", map[string]string{"Donts": "A;a;Werbung", "NotChannel": "ZDF;QVC"})
		fs.add(2, "Leer", map[string]string{"Donts": "", "NotChannel": "ARD"})
		return fs
	}

	realStore := seed()
	realSum, err := newTestProcessor(t, realStore, &lineSink{}, Options{Fields: dontsRules()}).Run(context.Background(), sets())
	require.NoError(t, err)

	dryStore := seed()
	drySum, err := newTestProcessor(t, dryStore, &lineSink{}, Options{Fields: dontsRules(), DryRun: true}).Run(context.Background(), sets())
	require.NoError(t, err)

	// Donts changes in both passes and counts once per pass.
	assert.Equal(t, 3, realSum.Changed)
	assert.Equal(t, realSum.Changed, drySum.Changed)
	assert.Equal(t, realSum.DuplicatesRemoved, drySum.DuplicatesRemoved)
	assert.Equal(t, realSum.OverlapsRemoved, drySum.OverlapsRemoved)
	assert.Len(t, realStore.writes, 3)
	assert.Empty(t, dryStore.writes)
}
