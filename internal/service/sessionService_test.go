package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ds124wfegd/classbooker/internal/entity"
)

func newSessionTestService(sessions *fakeSessionRepo) *sessionService {
	svc := NewSessionService(sessions).(*sessionService)
	svc.nowFn = func() time.Time { return testNow }
	return svc
}

// Занятие, начинающееся ровно сейчас, попадает в выдачу: граница
// start_time >= now включительная, как в хранилище
func TestGetUpcomingSessions_InclusiveBoundary(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.put(&entity.ClassSession{
		ID: 1, CountryID: 1,
		StartTime: testNow, EndTime: testNow.Add(time.Hour),
		RequiredCredits: 2, MaxCapacity: 10,
	})
	sessions.put(&entity.ClassSession{
		ID: 2, CountryID: 1,
		StartTime: testNow.Add(-2 * time.Hour), EndTime: testNow.Add(-time.Hour),
		RequiredCredits: 2, MaxCapacity: 10,
	})
	sessions.put(&entity.ClassSession{
		ID: 3, CountryID: 1,
		StartTime: testNow.Add(3 * time.Hour), EndTime: testNow.Add(4 * time.Hour),
		RequiredCredits: 2, MaxCapacity: 10,
	})

	svc := newSessionTestService(sessions)

	upcoming, err := svc.GetUpcomingSessions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, int64(1), upcoming[0].ID)
	assert.Equal(t, int64(3), upcoming[1].ID)
}

func TestGetUpcomingSessions_Limit(t *testing.T) {
	sessions := newFakeSessionRepo()
	for i := int64(1); i <= 5; i++ {
		sessions.put(&entity.ClassSession{
			ID: i, CountryID: 1,
			StartTime:       testNow.Add(time.Duration(i) * time.Hour),
			EndTime:         testNow.Add(time.Duration(i+1) * time.Hour),
			RequiredCredits: 2, MaxCapacity: 10,
		})
	}

	svc := newSessionTestService(sessions)

	upcoming, err := svc.GetUpcomingSessions(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)
	assert.Equal(t, int64(1), upcoming[0].ID)
}

func TestGetSession_NotFound(t *testing.T) {
	svc := newSessionTestService(newFakeSessionRepo())

	_, err := svc.GetSession(context.Background(), 42)
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}
