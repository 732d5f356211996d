package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// fakePrices 날짜별 종가 테이블
type fakePrices struct {
	mu     sync.Mutex
	closes map[string]map[string]float64 // ticker → YYYY-MM-DD → close
	fail   map[string]error
	calls  int
}

func newFakePrices() *fakePrices {
	return &fakePrices{
		closes: make(map[string]map[string]float64),
		fail:   make(map[string]error),
	}
}

func (f *fakePrices) set(ticker string, date time.Time, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes[ticker] == nil {
		f.closes[ticker] = make(map[string]float64)
	}
	f.closes[ticker][date.Format("2006-01-02")] = price
}

func (f *fakePrices) GetClose(ctx context.Context, ticker string, date time.Time) (float64, error) {
	bars, err := f.GetRange(ctx, ticker, date.AddDate(0, 0, -10), date)
	if err != nil {
		return 0, err
	}
	price, ok := contracts.LastCloseOnOrBefore(bars, date)
	if !ok {
		return 0, contracts.ErrNoPriceData
	}
	return price, nil
}

func (f *fakePrices) GetRange(_ context.Context, ticker string, start, end time.Time) ([]contracts.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err := f.fail[ticker]; err != nil {
		return nil, err
	}

	var bars []contracts.Bar
	for d := contracts.DateOnly(start); !d.After(contracts.DateOnly(end)); d = d.AddDate(0, 0, 1) {
		if c, ok := f.closes[ticker][d.Format("2006-01-02")]; ok {
			bars = append(bars, contracts.Bar{Date: d, Close: c})
		}
	}
	return bars, nil
}

func (f *fakePrices) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore 메모리 추적 저장소 (SaveProgress는 COALESCE 의미를 따름)
type memStore struct {
	mu       sync.Mutex
	records  map[int64]contracts.TrackerRecord
	failSave map[int64]bool
}

func newMemStore(records ...contracts.TrackerRecord) *memStore {
	s := &memStore{records: make(map[int64]contracts.TrackerRecord), failSave: make(map[int64]bool)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *memStore) sorted(filter func(contracts.TrackerRecord) bool) []contracts.TrackerRecord {
	var out []contracts.TrackerRecord
	for _, r := range s.records {
		if filter(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListTrackable(context.Context) ([]contracts.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(r contracts.TrackerRecord) bool { return r.Status != contracts.StatusCompleted }), nil
}

func (s *memStore) ListSuspicious(context.Context) ([]contracts.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(IsSuspicious), nil
}

func (s *memStore) ListByIDs(_ context.Context, ids []int64) ([]contracts.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return s.sorted(func(r contracts.TrackerRecord) bool { return want[r.ID] }), nil
}

func (s *memStore) ListAll(context.Context) ([]contracts.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(func(contracts.TrackerRecord) bool { return true }), nil
}

func (s *memStore) SaveProgress(_ context.Context, rec contracts.TrackerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave[rec.ID] {
		return errors.New("write failed")
	}
	cur, ok := s.records[rec.ID]
	if !ok {
		return contracts.ErrNotFound
	}
	for _, h := range contracts.Horizons {
		if !cur.Slot(h).Filled() {
			*cur.Slot(h) = *rec.Slot(h)
		}
	}
	cur.Status = rec.Status
	s.records[rec.ID] = cur
	return nil
}

func (s *memStore) ResetAndSave(_ context.Context, rec contracts.TrackerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave[rec.ID] {
		return errors.New("write failed")
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *memStore) get(id int64) contracts.TrackerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}
