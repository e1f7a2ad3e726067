package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

type countingSource struct {
	StaticDictSource
	calls atomic.Int32
	err   error
}

func (c *countingSource) GetDictEntries(ctx context.Context, dictType string) ([]domain.DictEntry, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.StaticDictSource.GetDictEntries(ctx, dictType)
}

func TestDictService_Label(t *testing.T) {
	src := &countingSource{StaticDictSource: DefaultDictEntries}
	svc := NewDictService(src, time.Minute)
	ctx := context.Background()

	label, err := svc.Label(ctx, "sys_user_sex", "F")
	require.NoError(t, err)
	assert.Equal(t, "Female", label)

	_, err = svc.Label(ctx, "sys_user_sex", "X")
	assert.ErrorIs(t, err, excelmap.ErrDictNotFound)

	_, err = svc.Label(ctx, "unknown_type", "X")
	assert.ErrorIs(t, err, excelmap.ErrDictNotFound)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestDictService_TTL(t *testing.T) {
	src := &countingSource{StaticDictSource: DefaultDictEntries}
	svc := NewDictService(src, 50*time.Millisecond)
	ctx := context.Background()

	_, _ = svc.Label(ctx, "sys_currency", "USD")
	_, _ = svc.Label(ctx, "sys_currency", "USD")
	assert.Equal(t, int32(1), src.calls.Load())

	time.Sleep(100 * time.Millisecond)
	_, _ = svc.Label(ctx, "sys_currency", "USD")
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestDictService_Invalidate(t *testing.T) {
	src := &countingSource{StaticDictSource: DefaultDictEntries}
	svc := NewDictService(src, 0)
	ctx := context.Background()

	_, _ = svc.Label(ctx, "sys_currency", "USD")
	_, _ = svc.Label(ctx, "sys_user_sex", "M")
	assert.Equal(t, int32(2), src.calls.Load())

	svc.Invalidate("sys_currency")
	_, _ = svc.Label(ctx, "sys_currency", "USD")
	_, _ = svc.Label(ctx, "sys_user_sex", "M")
	assert.Equal(t, int32(3), src.calls.Load())

	svc.Invalidate()
	_, _ = svc.Label(ctx, "sys_currency", "USD")
	_, _ = svc.Label(ctx, "sys_user_sex", "M")
	assert.Equal(t, int32(5), src.calls.Load())
}

func TestDictService_ConcurrentMissesLoadOnce(t *testing.T) {
	src := &countingSource{StaticDictSource: DefaultDictEntries}
	svc := NewDictService(src, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, err := svc.Label(ctx, "sys_user_sex", "M")
			assert.NoError(t, err)
			assert.Equal(t, "Male", label)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestDictService_SourceError(t *testing.T) {
	down := errors.New("down")
	svc := NewDictService(&countingSource{err: down}, 0)

	_, err := svc.Label(context.Background(), "sys_user_sex", "M")
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, excelmap.ErrDictNotFound)
}

func TestStaticDictSource(t *testing.T) {
	entries, err := DefaultDictEntries.GetDictEntries(context.Background(), "sys_currency")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFormatMoney(t *testing.T) {
	f := NewFormatters()
	money, ok := f.Lookup(FormatterMoney)
	require.True(t, ok)

	s, err := money.Coerce(12345.678)
	require.NoError(t, err)
	assert.Equal(t, "12,345.68", s)

	_, err = money.Coerce("abc")
	assert.Error(t, err)

	dec, ok := f.Lookup("decimal.Decimal")
	require.True(t, ok)
	s, err = dec.Coerce(DefaultDictEntries)
	assert.Error(t, err)
	assert.Empty(t, s)
}
