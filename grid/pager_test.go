package grid

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/hugr-lab/gridfilter/filter"
	"github.com/hugr-lab/gridfilter/internal/recovery"
	"github.com/hugr-lab/gridfilter/record"
)

type employee struct {
	ID     int
	Name   string
	Age    *int
	Team   string
	Joined time.Time
}

func age(v int) *int { return &v }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var staff = []employee{
	{1, "Ann", age(41), "Ops", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
	{2, "Bob", age(29), "Dev", time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)},
	{3, "Cid", nil, "Dev", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
	{4, "Dee", age(35), "QA", time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)},
	{5, "Eve", age(29), "Ops", time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC)},
}

func staffTable() *record.Table[employee] {
	return record.NewTable[employee]().
		Field("id", filter.Int(), func(e employee) any { return e.ID }).
		Field("name", filter.String(), func(e employee) any { return e.Name }).
		Field("age", filter.Int().AsNullable(), func(e employee) any { return e.Age }).
		Field("team", filter.Enum("Dev", "QA", "Ops"), func(e employee) any { return e.Team }).
		Field("joined", filter.Timestamp(), func(e employee) any { return e.Joined })
}

func staffPager(opts *Options) *Pager[employee] {
	if opts == nil {
		opts = &Options{Logger: quiet}
	}
	return NewPager(filter.NewCompiler[employee](staffTable(), &filter.CompilerOptions{Logger: quiet}), opts)
}

func idsOf(items []employee) []int {
	out := make([]int, 0, len(items))
	for _, e := range items {
		out = append(out, e.ID)
	}
	return out
}

func stateWith(t *testing.T, root *filter.Rule, page, size int, sorts ...SortDefinition) *State {
	t.Helper()
	s := &State{Page: page, PageSize: size, SortDefinitions: sorts}
	if err := s.SetRule(root); err != nil {
		t.Fatalf("SetRule failed: %v", err)
	}
	return s
}

func TestPagerApply(t *testing.T) {
	p := staffPager(nil)
	tests := []struct {
		name  string
		state *State
		ids   []int
		total int
	}{
		{"no filter", stateWith(t, nil, 0, 0), []int{1, 2, 3, 4, 5}, 5},
		{"filter", stateWith(t, filter.NewLeaf("age", filter.OpLT, 36), 0, 0), []int{2, 4, 5}, 3},
		{"sort age desc then name",
			stateWith(t, nil, 0, 0,
				SortDefinition{SortBy: "name", Descending: true, Index: 1},
				SortDefinition{SortBy: "age", Index: 0},
			),
			[]int{3, 5, 2, 4, 1}, 5},
		{"enum sort", stateWith(t, nil, 0, 0, SortDefinition{SortBy: "team"}), []int{2, 3, 4, 1, 5}, 5},
		{"first page", stateWith(t, nil, 0, 2, SortDefinition{SortBy: "joined"}), []int{5, 3}, 5},
		{"last page", stateWith(t, nil, 2, 2, SortDefinition{SortBy: "joined"}), []int{4}, 5},
		{"past the end", stateWith(t, nil, 9, 2), []int{}, 5},
		{"filter and page",
			stateWith(t, filter.NewLeaf("team", filter.OpIsOneOf, "Dev, Ops"), 1, 2, SortDefinition{SortBy: "id", Descending: true}),
			[]int{2, 1}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _, err := p.Apply(tt.state, staff)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if got := idsOf(data.Items); !slices.Equal(got, tt.ids) {
				t.Errorf("got ids %v, want %v", got, tt.ids)
			}
			if data.TotalItems != tt.total {
				t.Errorf("TotalItems = %d, want %d", data.TotalItems, tt.total)
			}
		})
	}

	if staff[0].ID != 1 || staff[4].ID != 5 {
		t.Error("Apply must not reorder its input")
	}
}

func TestPagerDiagnostics(t *testing.T) {
	p := staffPager(nil)
	data, diags, err := p.Apply(stateWith(t, filter.NewLeaf("age", filter.OpGT, "old"), 0, 0), staff)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(diags) != 1 || data.TotalItems != len(staff) {
		t.Errorf("expected one diagnostic and no filtering, got %v and %d items", diags, data.TotalItems)
	}
}

func TestPagerErrors(t *testing.T) {
	p := staffPager(&Options{MaxPageSize: 10, Logger: quiet})

	if _, _, err := p.Apply(stateWith(t, nil, 0, 50), staff); !errors.Is(err, ErrPageSizeTooLarge) {
		t.Errorf("expected ErrPageSizeTooLarge, got %v", err)
	}
	if _, _, err := p.Apply(nil, staff); err == nil {
		t.Error("expected error for nil state")
	}

	var ute *filter.UnsupportedTypeError
	_, _, err := p.Apply(stateWith(t, nil, 0, 0, SortDefinition{SortBy: "salary"}), staff)
	if !errors.As(err, &ute) {
		t.Errorf("expected unknown sort field error, got %v", err)
	}
	_, _, err = p.Apply(stateWith(t, filter.NewLeaf("salary", filter.OpGT, 1), 0, 0), staff)
	if !errors.As(err, &ute) {
		t.Errorf("expected unknown filter field error, got %v", err)
	}
}

func TestPagerRecoversAccessorPanic(t *testing.T) {
	table := staffTable().Field("broken", filter.String(), func(e employee) any {
		if e.ID == 3 {
			panic("bad row")
		}
		return e.Name
	})
	p := NewPager(filter.NewCompiler[employee](table, nil), &Options{Logger: quiet})

	var pe *recovery.PanicError
	_, _, err := p.Apply(stateWith(t, filter.NewLeaf("broken", filter.OpContains, "e"), 0, 0), staff)
	if !errors.As(err, &pe) || pe.Operation != "filter" {
		t.Errorf("expected filter panic error, got %v", err)
	}
	_, _, err = p.Apply(stateWith(t, nil, 0, 0, SortDefinition{SortBy: "broken"}), staff)
	if !errors.As(err, &pe) || pe.Operation != "sort" {
		t.Errorf("expected sort panic error, got %v", err)
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct{ page, size, n, lo, hi int }{
		{0, 0, 7, 0, 7},
		{0, 3, 7, 0, 3},
		{2, 3, 7, 6, 7},
		{3, 3, 7, 7, 7},
		{0, 3, 0, 0, 0},
		{-1, 3, 7, 7, 7},
		{1 << 62, 4, 7, 7, 7},
		{math.MaxInt, math.MaxInt, 7, 7, 7},
		{0, math.MaxInt, 7, 0, 7},
	}
	for _, tt := range tests {
		lo, hi := pageBounds(tt.page, tt.size, tt.n)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("pageBounds(%d, %d, %d) = %d, %d", tt.page, tt.size, tt.n, lo, hi)
		}
	}
}
