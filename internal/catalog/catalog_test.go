package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpp-all/drip-bot/internal/domain"
)

type fakeStore struct {
	records []map[string]string
	err     error
}

func (f *fakeStore) FindRow(ctx context.Context, sheet string, column int, value string) (int, error) {
	return 0, domain.ErrRowNotFound
}

func (f *fakeStore) ReadRow(ctx context.Context, sheet string, row int) ([]string, error) {
	return nil, domain.ErrRowNotFound
}

func (f *fakeStore) ReadCell(ctx context.Context, sheet string, row, column int) (string, error) {
	return "", nil
}

func (f *fakeStore) WriteCell(ctx context.Context, sheet string, row, column int, value string) error {
	return nil
}

func (f *fakeStore) ReadAllRecords(ctx context.Context, sheet string) ([]map[string]string, error) {
	return f.records, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unit(day, step, msgID string) map[string]string {
	return map[string]string{"day": day, "step": step, "msg_id": msgID}
}

func TestResolve_FindsUnit(t *testing.T) {
	cat := New(&fakeStore{records: []map[string]string{
		unit("1", "1", "100"),
		unit("1", "2", "101"),
		unit("2", "1", "200"),
	}}, "Content", testLogger())

	got, err := cat.Resolve(context.Background(), 1, 2)

	require.NoError(t, err)
	assert.Equal(t, &domain.ContentUnit{Day: 1, Step: 2, MessageID: "101"}, got)
}

func TestResolve_MissingCoordinate(t *testing.T) {
	cat := New(&fakeStore{records: []map[string]string{
		unit("1", "1", "100"),
	}}, "Content", testLogger())

	_, err := cat.Resolve(context.Background(), 1, 2)

	assert.ErrorIs(t, err, domain.ErrRowNotFound)
}

func TestResolve_SkipsUnitsWithoutMessage(t *testing.T) {
	cat := New(&fakeStore{records: []map[string]string{
		unit("1", "1", "  "),
	}}, "Content", testLogger())

	_, err := cat.Resolve(context.Background(), 1, 1)

	assert.ErrorIs(t, err, domain.ErrRowNotFound)
}

func TestResolve_IgnoresMalformedCoordinates(t *testing.T) {
	cat := New(&fakeStore{records: []map[string]string{
		unit("one", "1", "100"),
		unit("1", "", "101"),
		unit(" 1 ", " 1 ", "102"),
	}}, "Content", testLogger())

	got, err := cat.Resolve(context.Background(), 1, 1)

	require.NoError(t, err)
	assert.Equal(t, "102", got.MessageID)
}

func TestResolve_StoreFailure(t *testing.T) {
	storeErr := errors.New("store down")
	cat := New(&fakeStore{err: storeErr}, "Content", testLogger())

	_, err := cat.Resolve(context.Background(), 1, 1)

	assert.ErrorIs(t, err, storeErr)
}

func TestDayExists(t *testing.T) {
	cat := New(&fakeStore{records: []map[string]string{
		unit("1", "1", "100"),
		unit("2", "1", "200"),
	}}, "Content", testLogger())

	ctx := context.Background()

	exists, err := cat.DayExists(ctx, 2)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = cat.DayExists(ctx, 3)
	require.NoError(t, err)
	assert.False(t, exists)
}
