package listing

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/store"
)

type row struct {
	First  string
	Last   string
	Status string
	Gender string
	Visit  time.Time
}

var now = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC) // a Wednesday

func testSpec() Spec[row] {
	return Spec[row]{
		Search: []func(row) string{
			func(r row) string { return r.First },
			func(r row) string { return r.Last },
		},
		Facets: map[string]func(row) string{
			"status": func(r row) string { return r.Status },
			"gender": func(r row) string { return r.Gender },
		},
		Dates: map[string]func(row) time.Time{
			"date": func(r row) time.Time { return r.Visit },
		},
		Sorts: map[string]func(row) any{
			"last":  func(r row) any { return r.Last },
			"visit": func(r row) any { return r.Visit },
		},
		DefaultSort: "last",
	}
}

func testRows() []row {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC) }
	return []row{
		{"Jane", "Doe", "Active", "Female", day(13)},
		{"John", "smith", "Inactive", "Male", day(14)},
		{"Ana", "Lopez", "Active", "Female", day(12)},
		{"Mark", "Doe", "Active", "Male", day(10)},
		{"Zoe", "Adams", "Inactive", "Female", time.Time{}},
	}
}

func lasts(rows []row) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.First + " " + r.Last
	}
	return strings.Join(out, ",")
}

func newEngine() *Engine[row] {
	return New(testSpec()).WithClock(func() time.Time { return now })
}

func TestFilter_JaneDoeInactiveIsEmpty(t *testing.T) {
	e := newEngine()
	items := []row{{First: "Jane", Last: "Doe", Status: "Active"}}
	got := e.Filter(items, State{}.WithFacet("status", "Inactive"))
	if len(got) != 0 {
		t.Errorf("expected no rows, got %v", got)
	}
}

func TestFilter_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	e := newEngine()
	got := e.Filter(testRows(), State{Search: "DOE"})
	if lasts(got) != "Jane Doe,Mark Doe" {
		t.Errorf("unexpected rows: %s", lasts(got))
	}
	got = e.Filter(testRows(), State{Search: "an"})
	if lasts(got) != "Jane Doe,Ana Lopez" {
		t.Errorf("unexpected rows: %s", lasts(got))
	}
}

func TestFilter_AllDisablesFacet(t *testing.T) {
	e := newEngine()
	all := e.Filter(testRows(), State{})
	got := e.Filter(testRows(), State{}.WithFacet("status", All))
	if !reflect.DeepEqual(all, got) {
		t.Error("expected 'all' facet to match the unfiltered result")
	}
}

func TestFilter_ClearingSearchRestoresFacetResult(t *testing.T) {
	e := newEngine()
	base := State{}.WithFacet("gender", "Female")
	faceted := e.Filter(testRows(), base)

	searched := e.Filter(testRows(), base.WithSearch("lopez"))
	if lasts(searched) != "Ana Lopez" {
		t.Fatalf("unexpected search result: %s", lasts(searched))
	}
	cleared := e.Filter(testRows(), base.WithSearch("lopez").WithSearch(""))
	if !reflect.DeepEqual(cleared, faceted) {
		t.Errorf("expected %s after clearing search, got %s", lasts(faceted), lasts(cleared))
	}
}

func TestFilter_SearchAndFacetCommute(t *testing.T) {
	e := newEngine()
	a := e.Filter(testRows(), State{}.WithSearch("o").WithFacet("status", "Active"))
	b := e.Filter(testRows(), State{}.WithFacet("status", "Active").WithSearch("o"))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected same result, got %s and %s", lasts(a), lasts(b))
	}
}

func TestFilter_SortIsIdempotentAndStable(t *testing.T) {
	e := newEngine()
	for _, dir := range []store.Direction{store.Asc, store.Desc} {
		st := State{}.WithSort("last", dir)
		once := e.Filter(testRows(), st)
		twice := e.Filter(once, st)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("%s: sort not idempotent: %s vs %s", dir, lasts(once), lasts(twice))
		}
	}
	asc := e.Filter(testRows(), State{}.WithSort("last", store.Asc))
	if lasts(asc) != "Zoe Adams,Jane Doe,Mark Doe,Ana Lopez,John smith" {
		t.Errorf("unexpected collated order: %s", lasts(asc))
	}
}

func TestFilter_NilTimesSortLast(t *testing.T) {
	e := newEngine()
	for _, dir := range []store.Direction{store.Asc, store.Desc} {
		got := e.Filter(testRows(), State{}.WithSort("visit", dir))
		if got[len(got)-1].First != "Zoe" {
			t.Errorf("%s: expected zero visit last, got %s", dir, lasts(got))
		}
	}
	desc := e.Filter(testRows(), State{}.WithSort("visit", store.Desc))
	if desc[0].First != "John" {
		t.Errorf("expected latest visit first, got %s", lasts(desc))
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	e := newEngine()
	in := testRows()
	snapshot := append([]row(nil), in...)
	e.Filter(in, State{}.WithSort("visit", store.Desc))
	if !reflect.DeepEqual(in, snapshot) {
		t.Error("expected input to be untouched")
	}
}

func TestFilter_DateBuckets(t *testing.T) {
	e := newEngine()
	tests := []struct {
		bucket Bucket
		want   string
	}{
		{Today, "Jane Doe"},
		{Tomorrow, "John smith"},
		{Yesterday, "Ana Lopez"},
		{ThisWeek, "Jane Doe,Mark Doe,Ana Lopez,John smith"},
		{ThisMonth, "Jane Doe,Mark Doe,Ana Lopez,John smith"},
	}
	for _, tt := range tests {
		got := e.Filter(testRows(), State{}.WithFacet("date", string(tt.bucket)))
		if !sameSet(got, tt.want) {
			t.Errorf("%s: got %s, want %s", tt.bucket, lasts(got), tt.want)
		}
	}
}

func sameSet(rows []row, want string) bool {
	got := map[string]bool{}
	for _, r := range rows {
		got[r.First+" "+r.Last] = true
	}
	parts := strings.Split(want, ",")
	if len(parts) != len(got) {
		return false
	}
	for _, p := range parts {
		if !got[p] {
			return false
		}
	}
	return true
}

func TestApply_PaginationAndReset(t *testing.T) {
	e := newEngine()
	st := State{PageSize: 2}.WithPage(3)
	res := e.Apply(testRows(), st)
	if res.Page.Page != 3 || len(res.Items) != 1 || res.TotalPages != 3 {
		t.Errorf("unexpected page: page=%d items=%d pages=%d", res.Page.Page, len(res.Items), res.TotalPages)
	}

	for _, next := range []State{st.WithSearch("x"), st.WithFacet("status", "Active"), st.WithSort("visit", store.Desc), st.ToggleSort("last")} {
		if next.Page != 1 {
			t.Errorf("expected page reset to 1, got %d", next.Page)
		}
	}

	clamped := e.Apply(testRows(), State{PageSize: 2}.WithPage(40))
	if clamped.Page.Page != 3 {
		t.Errorf("expected page clamped to 3, got %d", clamped.Page.Page)
	}
}

func TestApply_Options(t *testing.T) {
	res := newEngine().Apply(testRows(), State{})
	if !reflect.DeepEqual(res.Options["status"], []string{"Active", "Inactive"}) {
		t.Errorf("unexpected status options: %v", res.Options["status"])
	}
}

func TestToggleSort(t *testing.T) {
	st := State{}.ToggleSort("last")
	if st.Sort != "last" || st.Direction != store.Asc {
		t.Fatalf("expected last asc, got %s %s", st.Sort, st.Direction)
	}
	st = st.ToggleSort("last")
	if st.Direction != store.Desc {
		t.Errorf("expected direction flipped to desc, got %s", st.Direction)
	}
	st = st.ToggleSort("visit")
	if st.Sort != "visit" || st.Direction != store.Asc {
		t.Errorf("expected new field ascending, got %s %s", st.Sort, st.Direction)
	}
}

func TestSpecValidate(t *testing.T) {
	s := testSpec()
	if err := s.Validate(State{Facets: map[string]string{"status": "x", "date": "today"}, Sort: "last"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := []State{
		{Facets: map[string]string{"color": "x"}},
		{Facets: map[string]string{"date": "nextYear"}},
		{Sort: "age"},
		{Direction: "sideways"},
	}
	for _, st := range bad {
		if err := s.Validate(st); err == nil {
			t.Errorf("expected error for %+v", st)
		}
	}
}

func TestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?q=doe&status=Active&sort=last&direction=DESC&page=2&page_size=5", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	st := FromContext(c, "status", "gender")
	if st.Search != "doe" || st.Sort != "last" || st.Direction != store.Desc {
		t.Errorf("unexpected state: %+v", st)
	}
	if st.Page != 2 || st.PageSize != 5 {
		t.Errorf("unexpected paging: %d/%d", st.Page, st.PageSize)
	}
	if st.Facets["status"] != "Active" {
		t.Errorf("expected status facet, got %v", st.Facets)
	}
	if _, ok := st.Facets["gender"]; ok {
		t.Error("expected absent facet to be omitted")
	}
}

func TestInBucket_WeekStartsSunday(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	saturdayBefore := sunday.Add(-time.Minute)
	if !InBucket(ThisWeek, sunday, now) {
		t.Error("expected Sunday to start the week")
	}
	if InBucket(ThisWeek, saturdayBefore, now) {
		t.Error("expected previous Saturday to fall outside the week")
	}
	if InBucket(Today, time.Time{}, now) {
		t.Error("expected zero time to match no bucket")
	}
}
