package leave

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	calls int
	out   []leave.Allotment
	err   error
}

func (s *stubSource) Allotments(ctx context.Context, employeeID string, year int) ([]leave.Allotment, error) {
	s.calls++
	return s.out, s.err
}

func TestAllotmentCache(t *testing.T) {
	ctx := context.Background()
	allotments := []leave.Allotment{
		{Code: leave.CodeCasual, Name: "Casual Leave", Allocated: 8, Used: 3, Remaining: 5},
	}
	data, err := json.Marshal(allotments)
	require.NoError(t, err)
	key := AllotmentKey(testEmployee, 2025)

	t.Run("hit", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		source := &stubSource{}
		cache := NewAllotmentCache(rdb, source, DefaultAllotmentCacheTTL, nil)

		mock.ExpectGet(key).SetVal(string(data))

		got, err := cache.Allotments(ctx, testEmployee, 2025)
		require.NoError(t, err)
		assert.Equal(t, allotments, got)
		assert.Zero(t, source.calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss fills the cache", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		source := &stubSource{out: allotments}
		cache := NewAllotmentCache(rdb, source, DefaultAllotmentCacheTTL, nil)

		mock.ExpectGet(key).RedisNil()
		mock.ExpectSet(key, data, DefaultAllotmentCacheTTL).SetVal("OK")

		got, err := cache.Allotments(ctx, testEmployee, 2025)
		require.NoError(t, err)
		assert.Equal(t, allotments, got)
		assert.Equal(t, 1, source.calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("source error is not cached", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		source := &stubSource{err: errors.New("db down")}
		cache := NewAllotmentCache(rdb, source, DefaultAllotmentCacheTTL, nil)

		mock.ExpectGet(key).RedisNil()

		_, err := cache.Allotments(ctx, testEmployee, 2025)
		assert.EqualError(t, err, "db down")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure falls through to source", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		source := &stubSource{out: allotments}
		cache := NewAllotmentCache(rdb, source, DefaultAllotmentCacheTTL, nil)

		mock.ExpectGet(key).SetErr(errors.New("connection refused"))
		mock.ExpectSet(key, data, DefaultAllotmentCacheTTL).SetErr(errors.New("connection refused"))

		got, err := cache.Allotments(ctx, testEmployee, 2025)
		require.NoError(t, err)
		assert.Equal(t, allotments, got)
	})

	t.Run("invalidate drops every year", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		cache := NewAllotmentCache(rdb, &stubSource{}, DefaultAllotmentCacheTTL, nil)

		keys := []string{AllotmentKey(testEmployee, 2024), AllotmentKey(testEmployee, 2025)}
		mock.ExpectScan(0, AllotmentKeyPrefix+testEmployee+":*", allotmentInvalidateScanCnt).SetVal(keys, 0)
		mock.ExpectDel(keys...).SetVal(2)

		cache.Invalidate(ctx, testEmployee)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil client bypasses redis", func(t *testing.T) {
		source := &stubSource{out: allotments}
		cache := NewAllotmentCache(nil, source, 0, nil)

		got, err := cache.Allotments(ctx, testEmployee, 2025)
		require.NoError(t, err)
		assert.Equal(t, allotments, got)
		cache.Invalidate(ctx, testEmployee)
	})
}
