package knowledge

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// memStore 자연키 유일성을 흉내 내는 메모리 저장소
type memStore struct {
	mu sync.Mutex

	journal    map[int64]contracts.JournalEntry
	intuitions []contracts.Intuition
	principles []contracts.Principle
	nextID     int64

	failPrinciple map[string]bool // condition → 실패
	failPromote   bool
	failApply     bool
	applied       []RetentionPlan
}

func newMemStore(entries ...contracts.JournalEntry) *memStore {
	s := &memStore{
		journal:       make(map[int64]contracts.JournalEntry),
		failPrinciple: make(map[string]bool),
		nextID:        1000,
	}
	for _, e := range entries {
		s.journal[e.ID] = e
	}
	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListJournalByLayer(_ context.Context, layer contracts.CompressionLayer, olderThan time.Time) ([]contracts.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := contracts.DateOnly(olderThan)
	var out []contracts.JournalEntry
	for _, e := range s.journal {
		if e.Layer == layer && contracts.DateOnly(e.TradeDate).Before(cutoff) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) PromoteJournal(_ context.Context, ids []int64, to contracts.CompressionLayer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPromote {
		return 0, errors.New("promote failed")
	}
	n := 0
	for _, id := range ids {
		e, ok := s.journal[id]
		if !ok || e.Layer >= to {
			continue
		}
		e.Layer = to
		s.journal[id] = e
		n++
	}
	return n, nil
}

func (s *memStore) UpsertIntuition(_ context.Context, in contracts.Intuition) (*contracts.Intuition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.intuitions {
		cur := &s.intuitions[i]
		if cur.IsActive && cur.Key() == in.Key() {
			blendIntuition(cur, in, *in.LastValidatedAt)
			out := *cur
			return &out, nil
		}
	}
	in.ID = s.id()
	in.IsActive = true
	s.intuitions = append(s.intuitions, in)
	return &in, nil
}

func (s *memStore) UpsertPrinciple(_ context.Context, p contracts.Principle) (*contracts.Principle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPrinciple[p.Condition] {
		return nil, errors.New("principle write failed")
	}
	for i := range s.principles {
		cur := &s.principles[i]
		if cur.IsActive && cur.Key() == p.Key() {
			reinforcePrinciple(cur, p.SourceJournalIDs, *p.LastValidatedAt)
			out := *cur
			return &out, nil
		}
	}
	p.ID = s.id()
	p.IsActive = true
	s.principles = append(s.principles, p)
	return &p, nil
}

func (s *memStore) ListActivePrinciples(context.Context) ([]contracts.Principle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []contracts.Principle
	for _, p := range s.principles {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ListActiveIntuitions(context.Context) ([]contracts.Intuition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []contracts.Intuition
	for _, in := range s.intuitions {
		if in.IsActive {
			out = append(out, in)
		}
	}
	return out, nil
}

func (s *memStore) ListArchivableJournal(_ context.Context, cutoff time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, e := range s.journal {
		if e.Layer == contracts.LayerCompressed && e.TradeDate.Before(contracts.DateOnly(cutoff)) {
			ids = append(ids, e.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *memStore) ApplyRetention(_ context.Context, plan RetentionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failApply {
		return errors.New("tx aborted")
	}
	s.applied = append(s.applied, plan)

	deactivate := make(map[int64]bool)
	for _, id := range append(plan.PrincipleIDs(), plan.IntuitionIDs()...) {
		deactivate[id] = true
	}
	for i := range s.principles {
		if deactivate[s.principles[i].ID] {
			s.principles[i].IsActive = false
		}
	}
	for i := range s.intuitions {
		if deactivate[s.intuitions[i].ID] {
			s.intuitions[i].IsActive = false
		}
	}
	for _, id := range plan.ArchiveJournalIDs {
		delete(s.journal, id)
	}
	return nil
}

func (s *memStore) activeIntuitions() []contracts.Intuition {
	out, _ := s.ListActiveIntuitions(context.Background())
	return out
}

func (s *memStore) layerOf(id int64) contracts.CompressionLayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal[id].Layer
}

// blendIntuition UpsertIntuition SQL과 같은 규칙: 지지 건수 가중 평균, insight 유지
func blendIntuition(cur *contracts.Intuition, obs contracts.Intuition, now time.Time) {
	total := cur.SupportingCount + obs.SupportingCount
	if total > 0 {
		cur.Confidence = (cur.Confidence*float64(cur.SupportingCount) + obs.Confidence*float64(obs.SupportingCount)) / float64(total)
		cur.SuccessRate = (cur.SuccessRate*float64(cur.SupportingCount) + obs.SuccessRate*float64(obs.SupportingCount)) / float64(total)
	}
	cur.SupportingCount = total
	cur.LastValidatedAt = &now
}

// reinforcePrinciple UpsertPrinciple SQL과 같은 규칙: 신뢰도 가산(상한 1.0), 근거 id 합집합
func reinforcePrinciple(cur *contracts.Principle, journalIDs []int64, now time.Time) {
	cur.Confidence = math.Min(1.0, cur.Confidence+contracts.PrincipleConfidenceBump)
	cur.SupportingTrades++
	for _, id := range journalIDs {
		if !slices.Contains(cur.SourceJournalIDs, id) {
			cur.SourceJournalIDs = append(cur.SourceJournalIDs, id)
		}
	}
	cur.LastValidatedAt = &now
}
