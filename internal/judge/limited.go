// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import "context"

// Limited wraps a Judge and bounds the number of in-flight calls. The
// underlying service is a shared, externally rate-limited resource: excess
// calls queue on the semaphore rather than failing, and a cancelled context
// releases a queued caller.
type Limited struct {
	inner Judge
	sem   chan struct{}
}

// NewLimited returns a Judge that allows at most n concurrent calls to
// inner. n values below 1 are treated as 1 (fully serialized).
func NewLimited(inner Judge, n int) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{inner: inner, sem: make(chan struct{}, n)}
}

func (l *Limited) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limited) release() { <-l.sem }

func (l *Limited) SelectOfficial(ctx context.Context, in SelectOfficialInput) (SelectOfficialVerdict, error) {
	if err := l.acquire(ctx); err != nil {
		return SelectOfficialVerdict{}, err
	}
	defer l.release()
	return l.inner.SelectOfficial(ctx, in)
}

func (l *Limited) FilterCandidates(ctx context.Context, in FilterCandidatesInput) (FilterCandidatesVerdict, error) {
	if err := l.acquire(ctx); err != nil {
		return FilterCandidatesVerdict{}, err
	}
	defer l.release()
	return l.inner.FilterCandidates(ctx, in)
}

func (l *Limited) RankRelevance(ctx context.Context, in RankRelevanceInput) (RankRelevanceVerdict, error) {
	if err := l.acquire(ctx); err != nil {
		return RankRelevanceVerdict{}, err
	}
	defer l.release()
	return l.inner.RankRelevance(ctx, in)
}

func (l *Limited) AssessQuality(ctx context.Context, in AssessQualityInput) (AssessQualityVerdict, error) {
	if err := l.acquire(ctx); err != nil {
		return AssessQualityVerdict{}, err
	}
	defer l.release()
	return l.inner.AssessQuality(ctx, in)
}
