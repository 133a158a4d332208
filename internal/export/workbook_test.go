package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/campusride/internal/records"
	"github.com/wolfman30/campusride/pkg/logging"
)

func TestWrite(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewWithWriter("error", &bytes.Buffer{})
	store := records.NewMemoryStore(logger)
	require.NoError(t, records.EnsureAll(ctx, store))

	require.NoError(t, store.Append(ctx, records.RideRequests, records.RideRequest{
		ID: "1", FullName: "Ada", PickupLocation: "Library", Destination: "Gym", Passengers: "2", Status: records.StatusPending,
	}))
	require.NoError(t, store.Append(ctx, records.RideRequests, "not a ride"))
	// Stored the way the driver form writes it: vehicle fields at the top level.
	require.NoError(t, store.Append(ctx, records.DriverApplications, map[string]any{
		"id": "2", "fullName": "Grace", "make": "Honda", "year": "2020", "licensePlate": "XYZ1",
		"availability": []string{"friday", "sunday"}, "status": records.StatusPendingVerification,
	}))

	var buf bytes.Buffer
	sum, err := Write(ctx, store, &buf, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rows[SheetRideRequests])
	assert.Equal(t, 1, sum.Skipped[SheetRideRequests])
	assert.Equal(t, 1, sum.Rows[SheetDriverApplications])

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetRideRequests, SheetDriverApplications}, f.GetSheetList())

	rides, err := f.GetRows(SheetRideRequests)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, "Full Name", rides[0][1])
	assert.Equal(t, "Ada", rides[1][1])
	assert.Equal(t, "Gym", rides[1][5])

	drivers, err := f.GetRows(SheetDriverApplications)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "Honda", drivers[1][6])
	assert.Equal(t, "2020", drivers[1][8])
	assert.Equal(t, "XYZ1", drivers[1][10])
	assert.Equal(t, "friday, sunday", drivers[1][12])
}

func TestWriteEmptyStore(t *testing.T) {
	store := records.NewMemoryStore(nil)

	var buf bytes.Buffer
	sum, err := Write(context.Background(), store, &buf, nil)
	require.NoError(t, err)
	assert.Zero(t, sum.Rows[SheetRideRequests])

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetDriverApplications)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
