package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/campusride/pkg/logging"
)

func TestKey(t *testing.T) {
	key, err := Key(RideRequests)
	require.NoError(t, err)
	assert.Equal(t, "campusRideRequests", key)

	key, err = Key(DriverApplications)
	require.NoError(t, err)
	assert.Equal(t, "campusRideDrivers", key)

	_, err = Key("bogus")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestAppendToList(t *testing.T) {
	tests := []struct {
		name          string
		existing      string
		wantLen       int
		wantRecovered bool
	}{
		{"absent", "", 1, false},
		{"empty", "[]", 1, false},
		{"existing", `[{"id":"1"}]`, 2, false},
		{"corrupt", `{not json`, 1, true},
		{"object instead of array", `{"id":"1"}`, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, recovered, err := appendToList([]byte(tt.existing), map[string]string{"id": "2"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecovered, recovered)

			var list []map[string]string
			require.NoError(t, json.Unmarshal(out, &list))
			assert.Len(t, list, tt.wantLen)
			assert.Equal(t, "2", list[len(list)-1]["id"])
		})
	}
}

// storeContract exercises the behavior every backend shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, EnsureAll(ctx, s))
	list, err := s.List(ctx, RideRequests)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Append(ctx, RideRequests, RideRequest{ID: "1", FullName: "Ada", Status: StatusPending}))
	require.NoError(t, s.Append(ctx, RideRequests, RideRequest{ID: "2", FullName: "Bo", Status: StatusPending}))
	require.NoError(t, s.Append(ctx, DriverApplications, DriverApplication{ID: "3", Availability: []string{"monday"}}))

	// Initializing again must not wipe existing data.
	require.NoError(t, EnsureAll(ctx, s))

	rides, err := s.List(ctx, RideRequests)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	var first RideRequest
	require.NoError(t, json.Unmarshal(rides[0], &first))
	assert.Equal(t, "Ada", first.FullName)

	drivers, err := s.List(ctx, DriverApplications)
	require.NoError(t, err)
	assert.Len(t, drivers, 1)

	assert.ErrorIs(t, s.Append(ctx, "bogus", RideRequest{}), ErrUnknownKind)
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(logging.Default()))
}

func TestMemoryStore_CorruptListTreatedAsEmpty(t *testing.T) {
	s := NewMemoryStore(nil)
	s.SetRaw("campusRideRequests", []byte("garbage"))

	list, err := s.List(context.Background(), RideRequests)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Append(context.Background(), RideRequests, RideRequest{ID: "1"}))
	raw, ok := s.Raw("campusRideRequests")
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"1","fullName":"","pickupLocation":"","destination":"","date":"","time":"","passengers":"","notes":"","status":"","timestamp":""}]`, string(raw))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisStore(t *testing.T) {
	client, _ := setupTestRedis(t)
	storeContract(t, NewRedisStore(client, logging.Default()))
}

func TestRedisStore_EnsureInitializedWritesEmptyArray(t *testing.T) {
	client, mr := setupTestRedis(t)
	s := NewRedisStore(client, nil)

	require.NoError(t, s.EnsureInitialized(context.Background(), DriverApplications))
	got, err := mr.Get("campusRideDrivers")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestRedisStore_CorruptListTreatedAsEmpty(t *testing.T) {
	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("campusRideRequests", "{{{"))
	s := NewRedisStore(client, nil)

	require.NoError(t, s.Append(context.Background(), RideRequests, RideRequest{ID: "9"}))
	list, err := s.List(context.Background(), RideRequests)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, string(list[0]), `"id":"9"`)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()
	s := NewRedisStore(client, nil)
	assert.Error(t, s.Append(context.Background(), RideRequests, RideRequest{ID: "1"}))
}

func TestPostgresStore_AppendToExistingList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM record_lists").
		WithArgs("campusRideRequests").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(`[{"id":"1"}]`))
	mock.ExpectExec("INSERT INTO record_lists").
		WithArgs("campusRideRequests", `[{"id":"1"},{"id":"2"}]`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresStore(mock, logging.Default())
	require.NoError(t, s.Append(context.Background(), RideRequests, map[string]string{"id": "2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendToAbsentList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM record_lists").
		WithArgs("campusRideDrivers").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO record_lists").
		WithArgs("campusRideDrivers", `[{"id":"7"}]`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresStore(mock, nil)
	require.NoError(t, s.Append(context.Background(), DriverApplications, map[string]string{"id": "7"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureInitialized(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("ON CONFLICT \\(key\\) DO NOTHING").
		WithArgs("campusRideRequests").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresStore(mock, nil)
	require.NoError(t, s.EnsureInitialized(context.Background(), RideRequests))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCorruptPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM record_lists").
		WithArgs("campusRideRequests").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow("not-json"))

	s := NewPostgresStore(mock, nil)
	list, err := s.List(context.Background(), RideRequests)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostgresStore_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM record_lists").
		WithArgs("campusRideRequests").
		WillReturnError(errors.New("connection reset"))

	s := NewPostgresStore(mock, nil)
	err = s.Append(context.Background(), RideRequests, map[string]string{"id": "1"})
	assert.ErrorContains(t, err, "connection reset")
}
