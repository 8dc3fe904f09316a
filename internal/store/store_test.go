package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) (*RedisSlot, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisFromClient(rdb, "", zap.NewNop()), mr
}

// exerciseSlot runs the shared contract against any slot.
func exerciseSlot(t *testing.T, s Slot) {
	t.Helper()
	ctx := context.Background()

	vals, found, err := s.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, vals)

	require.NoError(t, s.Save(ctx, "favorite_stocks", []string{"AAPL", "TSLA"}))
	vals, found, err = s.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"AAPL", "TSLA"}, vals)

	// full rewrite, not append
	require.NoError(t, s.Save(ctx, "favorite_stocks", []string{"MSFT"}))
	vals, _, err = s.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, vals)

	// an empty array is still a written slot
	require.NoError(t, s.Save(ctx, "favorite_stocks", nil))
	vals, found, err = s.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, vals)

	// keys are independent
	_, found, err = s.Load(ctx, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemorySlot(t *testing.T) {
	exerciseSlot(t, NewMemory())
}

func TestMemorySlot_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []string{"AAPL"}
	require.NoError(t, m.Save(ctx, "k", in))
	in[0] = "MUTATED"

	out, _, _ := m.Load(ctx, "k")
	assert.Equal(t, []string{"AAPL"}, out)
	out[0] = "AGAIN"

	out2, _, _ := m.Load(ctx, "k")
	assert.Equal(t, []string{"AAPL"}, out2)
}

func TestFileSlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "slots.json")
	s, err := NewFile(path, zap.NewNop())
	require.NoError(t, err)
	exerciseSlot(t, s)
	require.NoError(t, s.HealthCheck(context.Background()))
}

func TestFileSlot_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slots.json")

	first, err := NewFile(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "favorite_stocks", []string{"NVDA"}))

	second, err := NewFile(path, nil)
	require.NoError(t, err)
	vals, found, err := second.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"NVDA"}, vals)
}

func TestFileSlot_CorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slots.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json"), 0o600))

	s, err := NewFile(path, nil)
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "favorite_stocks")
	assert.Error(t, err)

	// a write replaces the corrupt content
	require.NoError(t, s.Save(ctx, "favorite_stocks", []string{"AAPL"}))
	vals, found, err := s.Load(ctx, "favorite_stocks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"AAPL"}, vals)
}

func TestNewFile_RequiresPath(t *testing.T) {
	_, err := NewFile("", nil)
	assert.Error(t, err)
}

func TestRedisSlot(t *testing.T) {
	s, mr := newTestRedis(t)
	defer mr.Close()
	exerciseSlot(t, s)

	raw, err := mr.Get("investflow:prefs:favorite_stocks")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRedisSlot_InvalidJSON(t *testing.T) {
	s, mr := newTestRedis(t)
	defer mr.Close()

	require.NoError(t, mr.Set("investflow:prefs:favorite_stocks", "not-json"))
	_, found, err := s.Load(context.Background(), "favorite_stocks")
	assert.Error(t, err)
	assert.False(t, found)
}

func TestRedisSlot_HealthCheck(t *testing.T) {
	s, mr := newTestRedis(t)
	require.NoError(t, s.HealthCheck(context.Background()))

	mr.Close()
	err := s.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedisSlot_NilClient(t *testing.T) {
	s := &RedisSlot{}
	err := s.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
	assert.Error(t, s.Save(context.Background(), "k", nil))
	require.NoError(t, s.Close())
}

func TestNewRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedis(context.Background(), addr, 0, "", "", nil)
	assert.Error(t, err)
}

// ─── Postgres fakes ───────────────────────────────────────────────────────────

type fakeRow struct {
	items []string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]string)) = r.items
	return nil
}

type fakePG struct {
	rows    map[string][]string
	execErr error
	execs   []string
}

func (f *fakePG) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	if len(args) == 2 {
		f.rows[args[0].(string)] = args[1].([]string)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakePG) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	items, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{items: items}
}

func TestPGSlot(t *testing.T) {
	db := &fakePG{rows: map[string][]string{}}
	s := NewPostgresFromExecutor(db, zap.NewNop())
	exerciseSlot(t, s)
	require.NoError(t, s.HealthCheck(context.Background()))
}

func TestPGSlot_ExecError(t *testing.T) {
	db := &fakePG{rows: map[string][]string{}, execErr: errors.New("connection reset")}
	s := NewPostgresFromExecutor(db, nil)

	assert.Error(t, s.Save(context.Background(), "favorite_stocks", []string{"AAPL"}))
	assert.Error(t, s.EnsureSchema(context.Background()))
}

func TestPGSlot_EnsureSchema(t *testing.T) {
	db := &fakePG{rows: map[string][]string{}}
	s := NewPostgresFromExecutor(db, nil)
	require.NoError(t, s.EnsureSchema(context.Background()))
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], "prefs.string_slots")
}

func TestNewPostgres_RequiresURL(t *testing.T) {
	_, err := NewPostgres(context.Background(), "", PGPoolConfig{}, nil)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Options{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemorySlot{}, b)

	b, err = Open(ctx, Options{Backend: "file", FilePath: filepath.Join(t.TempDir(), "s.json")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileSlot{}, b)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	b, err = Open(ctx, Options{Backend: "redis", RedisAddr: mr.Addr()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisSlot{}, b)
	require.NoError(t, b.Close())

	_, err = Open(ctx, Options{Backend: "etcd"}, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
