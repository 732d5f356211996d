package jobs

import (
	"time"

	"github.com/wonny/aegis-insight/internal/contracts"
)

// Observer 배치 결과 수집기 (*metrics.Recorder가 구현)
type Observer interface {
	Observe(job string, summary contracts.BatchSummary, err error, elapsed time.Duration)
}

// 실행기가 결과 없이 실패한 경우
var zeroSummary contracts.BatchSummary

type nopObserver struct{}

func (nopObserver) Observe(string, contracts.BatchSummary, error, time.Duration) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
