package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/fund-holdings-collector/internal/testutil"
	"github.com/Sternrassler/fund-holdings-collector/pkg/client"
	"github.com/Sternrassler/fund-holdings-collector/pkg/daterange"
	"github.com/Sternrassler/fund-holdings-collector/pkg/holdings"
	"github.com/Sternrassler/fund-holdings-collector/pkg/partition"
	"github.com/Sternrassler/fund-holdings-collector/pkg/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := daterange.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// recordingPacer returns a pacer that counts waits without sleeping.
func recordingPacer(waits *int) *ratelimit.Pacer {
	return ratelimit.NewPacer(time.Second, func(ctx context.Context, d time.Duration) error {
		*waits++
		return ctx.Err()
	}, zerolog.Nop())
}

type stubFetcher struct {
	byDate map[string][]holdings.Record
	calls  []string
	onCall func(day string)
}

func (s *stubFetcher) Fetch(_ context.Context, d time.Time) []holdings.Record {
	day := holdings.FormatDate(d)
	s.calls = append(s.calls, day)
	if s.onCall != nil {
		s.onCall(day)
	}
	return s.byDate[day]
}

type stubStore struct {
	ensured bool
	saved   []string
	failOn  string
	failErr error
}

func (s *stubStore) EnsureDir() error {
	s.ensured = true
	return nil
}

func (s *stubStore) Save(records []holdings.Record, monthKey string) error {
	if monthKey == s.failOn {
		return s.failErr
	}
	s.saved = append(s.saved, monthKey)
	return nil
}

func newFundFetcher(t *testing.T, mock *testutil.MockFundAPI, timeout time.Duration) *client.Fetcher {
	t.Helper()
	cfg := client.DefaultConfig()
	cfg.Endpoint = mock.URL()
	cfg.Timeout = timeout
	f, err := client.New(cfg)
	require.NoError(t, err)
	return f
}

func rows(records []holdings.Record) [][2]string {
	out := make([][2]string, len(records))
	for i, r := range records {
		out[i] = [2]string{r.Date, r.Weight}
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	mock := testutil.NewMockFundAPI()
	defer mock.Close()
	mock.SetHoldings("2025-08-04", testutil.Row("A", "Alpha", "100", "30"), testutil.Row("B", "Beta", "200", "70"))
	mock.SetHoldings("2025-08-05", testutil.Row("A", "Alpha", "100", "55"), testutil.Row("B", "Beta", "200", "45"))
	mock.SetHoldings("2025-08-06", testutil.Row("A", "Alpha", "100", "20"), testutil.Row("B", "Beta", "200", "80"))

	store := partition.NewStore(filepath.Join(t.TempDir(), "data"))
	waits := 0
	c := New(newFundFetcher(t, mock, 2*time.Second), store, recordingPacer(&waits))

	summary, err := c.Run(context.Background(), date("2025-08-04"), date("2025-08-06"))
	require.NoError(t, err)

	assert.Equal(t, Summary{
		MonthsWritten:    1,
		RecordsCollected: 6,
		DaysRequested:    3,
		Months:           []string{"2025-08"},
	}, summary)
	assert.Equal(t, 2, waits, "pacing happens between requests only")
	assert.Equal(t, 3, mock.RequestCount())

	loaded, err := store.LoadOrEmpty("2025-08")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"2025-08-04", "70"}, {"2025-08-04", "30"},
		{"2025-08-05", "55"}, {"2025-08-05", "45"},
		{"2025-08-06", "80"}, {"2025-08-06", "20"},
	}, rows(loaded))

	// A second identical run leaves the partition byte-identical.
	before, err := os.ReadFile(store.Path("2025-08"))
	require.NoError(t, err)
	_, err = c.Run(context.Background(), date("2025-08-04"), date("2025-08-06"))
	require.NoError(t, err)
	after, err := os.ReadFile(store.Path("2025-08"))
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRun_TimeoutDaysAreSkipped(t *testing.T) {
	mock := testutil.NewMockFundAPI()
	defer mock.Close()
	mock.SetHoldings("2025-08-04", testutil.Row("A", "Alpha", "100", "30"))
	mock.SetResponse("2025-08-05", testutil.NewSlowResponse(
		testutil.NewHoldingsResponse(testutil.Row("A", "Alpha", "100", "55")), 2*time.Second))
	mock.SetHoldings("2025-08-06", testutil.Row("A", "Alpha", "100", "20"))

	store := partition.NewStore(t.TempDir())
	c := New(newFundFetcher(t, mock, 100*time.Millisecond), store, nil)

	summary, err := c.Run(context.Background(), date("2025-08-04"), date("2025-08-06"))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DaysRequested)
	assert.Equal(t, 1, summary.DaysEmpty)
	assert.Equal(t, 2, summary.RecordsCollected)

	stats, err := store.Stats("2025-08")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-04", "2025-08-06"}, stats.Dates)
}

func TestRun_EmptyDayKeepsExistingRows(t *testing.T) {
	store := partition.NewStore(t.TempDir())
	require.NoError(t, store.Save([]holdings.Record{
		{Date: "2025-08-05", Symbol: "A", Name: "Alpha", Shares: "1", Weight: "55"},
	}, "2025-08"))

	fetcher := &stubFetcher{byDate: map[string][]holdings.Record{
		"2025-08-04": {{Date: "2025-08-04", Symbol: "A", Name: "Alpha", Shares: "1", Weight: "30"}},
	}}
	c := New(fetcher, store, nil)

	summary, err := c.Run(context.Background(), date("2025-08-04"), date("2025-08-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.DaysEmpty)

	loaded, err := store.LoadOrEmpty("2025-08")
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"2025-08-04", "30"}, {"2025-08-05", "55"}}, rows(loaded))
}

func TestRun_NoDataWritesNothing(t *testing.T) {
	dir := t.TempDir()
	c := New(&stubFetcher{}, partition.NewStore(dir), nil)

	summary, err := c.Run(context.Background(), date("2025-08-04"), date("2025-08-08"))
	require.NoError(t, err)
	assert.Equal(t, 5, summary.DaysRequested)
	assert.Equal(t, 5, summary.DaysEmpty)
	assert.Zero(t, summary.MonthsWritten)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_SkipsWeekends(t *testing.T) {
	fetcher := &stubFetcher{}
	waits := 0
	c := New(fetcher, &stubStore{}, recordingPacer(&waits))

	// Friday through Monday.
	_, err := c.Run(context.Background(), date("2025-08-01"), date("2025-08-04"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-08-01", "2025-08-04"}, fetcher.calls)
	assert.Equal(t, 1, waits)
}

func TestRun_InvalidRange(t *testing.T) {
	fetcher := &stubFetcher{}
	store := &stubStore{}
	c := New(fetcher, store, nil)

	_, err := c.Run(context.Background(), date("2025-08-06"), date("2025-08-04"))
	var rangeErr *daterange.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Empty(t, fetcher.calls, "no fetch may happen for an invalid range")
	assert.True(t, store.ensured, "the storage directory is prepared before the range is checked")
	assert.Empty(t, store.saved)
}

func TestRun_SavesMonthsInOrder(t *testing.T) {
	fetcher := &stubFetcher{byDate: map[string][]holdings.Record{
		"2025-07-31": {{Date: "2025-07-31", Symbol: "A", Weight: "1"}},
		"2025-08-01": {{Date: "2025-08-01", Symbol: "A", Weight: "1"}},
		"2025-09-01": {{Date: "2025-09-01", Symbol: "A", Weight: "1"}},
	}}
	store := &stubStore{}
	c := New(fetcher, store, nil)

	summary, err := c.Run(context.Background(), date("2025-07-31"), date("2025-09-01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-07", "2025-08", "2025-09"}, store.saved)
	assert.Equal(t, store.saved, summary.Months)
	assert.Equal(t, 3, summary.MonthsWritten)
}

func TestRun_StorageErrorStopsRun(t *testing.T) {
	fetcher := &stubFetcher{byDate: map[string][]holdings.Record{
		"2025-07-31": {{Date: "2025-07-31", Symbol: "A", Weight: "1"}},
		"2025-08-01": {{Date: "2025-08-01", Symbol: "A", Weight: "1"}},
		"2025-09-01": {{Date: "2025-09-01", Symbol: "A", Weight: "1"}},
	}}
	storageErr := &partition.StorageError{Month: "2025-08", Op: partition.OpWrite, Err: errors.New("disk full")}
	store := &stubStore{failOn: "2025-08", failErr: storageErr}
	c := New(fetcher, store, nil)

	summary, err := c.Run(context.Background(), date("2025-07-31"), date("2025-09-01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save month 2025-08")

	var target *partition.StorageError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, []string{"2025-07"}, store.saved, "months before the failure stay saved")
	assert.Equal(t, 1, summary.MonthsWritten)
}

func TestRun_CancelledContextSavesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &stubFetcher{
		byDate: map[string][]holdings.Record{
			"2025-08-04": {{Date: "2025-08-04", Symbol: "A", Weight: "1"}},
		},
		onCall: func(day string) {
			if day == "2025-08-04" {
				cancel()
			}
		},
	}
	store := &stubStore{}
	c := New(fetcher, store, nil)

	_, err := c.Run(ctx, date("2025-08-04"), date("2025-08-08"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"2025-08-04"}, fetcher.calls)
	assert.Empty(t, store.saved)
}
