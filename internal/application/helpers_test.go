package application

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/sage/internal/domain"
	"github.com/bnema/sage/internal/ports/mocks"
	"github.com/stretchr/testify/mock"
)

// wordTokenizer counts whitespace separated words.
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// tickingClock returns a clock that advances one second per call.
func tickingClock(t *testing.T) *mocks.MockClock {
	t.Helper()

	clock := mocks.NewMockClock(t)
	now := testEpoch
	clock.EXPECT().Now().RunAndReturn(func() time.Time {
		now = now.Add(time.Second)
		return now
	}).Maybe()
	return clock
}

func newTestSession(ledger *Ledger, systemWords int) *domain.Session {
	s := domain.NewSession(words(systemWords), domain.DefaultProfileAlias, testEpoch)
	ledger.Prepare(s)
	return s
}

func mockAnyContext() interface{} {
	return mock.Anything
}
