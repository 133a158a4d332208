// Package export writes the stored record lists to an XLSX workbook.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wolfman30/campusride/internal/records"
	"github.com/wolfman30/campusride/pkg/logging"
)

// Sheet names, one per record kind.
const (
	SheetRideRequests       = "Ride Requests"
	SheetDriverApplications = "Driver Applications"
)

var (
	rideHeader = []any{
		"ID", "Full Name", "Email", "Phone", "Pickup", "Destination",
		"Date", "Time", "Passengers", "Notes", "Status", "Timestamp",
	}
	driverHeader = []any{
		"ID", "Full Name", "Email", "Phone", "Student ID", "License Number",
		"Make", "Model", "Year", "Color", "License Plate", "Seats",
		"Availability", "Experience", "Status", "Timestamp",
	}
)

// Summary counts the rows written and skipped per sheet.
type Summary struct {
	Rows    map[string]int
	Skipped map[string]int
}

// Write reads every list from store and writes the workbook to w. Entries that
// do not decode into their record type are skipped and counted.
func Write(ctx context.Context, store records.Store, w io.Writer, logger *logging.Logger) (Summary, error) {
	if logger == nil {
		logger = logging.Default()
	}
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close workbook", "error", err)
		}
	}()

	sum := Summary{Rows: map[string]int{}, Skipped: map[string]int{}}

	rides, err := store.List(ctx, records.RideRequests)
	if err != nil {
		return sum, fmt.Errorf("export: list ride requests: %w", err)
	}
	var rideRows [][]any
	for _, raw := range rides {
		var r records.RideRequest
		if err := json.Unmarshal(raw, &r); err != nil {
			sum.Skipped[SheetRideRequests]++
			continue
		}
		rideRows = append(rideRows, []any{
			r.ID, r.FullName, r.Email, r.Phone, r.PickupLocation, r.Destination,
			r.Date, r.Time, r.Passengers, r.Notes, r.Status, r.Timestamp,
		})
	}

	drivers, err := store.List(ctx, records.DriverApplications)
	if err != nil {
		return sum, fmt.Errorf("export: list driver applications: %w", err)
	}
	var driverRows [][]any
	for _, raw := range drivers {
		var d records.DriverApplication
		if err := json.Unmarshal(raw, &d); err != nil {
			sum.Skipped[SheetDriverApplications]++
			continue
		}
		driverRows = append(driverRows, []any{
			d.ID, d.FullName, d.Email, d.Phone, d.StudentID, d.LicenseNumber,
			d.Make, d.Model, d.Year, d.Color, d.LicensePlate, d.Seats,
			strings.Join(d.Availability, ", "), d.Experience, d.Status, d.Timestamp,
		})
	}

	// NewFile starts with "Sheet1"; rename it rather than leave an empty sheet.
	if err := f.SetSheetName("Sheet1", SheetRideRequests); err != nil {
		return sum, fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := writeSheet(f, SheetRideRequests, rideHeader, rideRows); err != nil {
		return sum, err
	}
	if _, err := f.NewSheet(SheetDriverApplications); err != nil {
		return sum, fmt.Errorf("export: create sheet: %w", err)
	}
	if err := writeSheet(f, SheetDriverApplications, driverHeader, driverRows); err != nil {
		return sum, err
	}
	sum.Rows[SheetRideRequests] = len(rideRows)
	sum.Rows[SheetDriverApplications] = len(driverRows)

	if err := f.Write(w); err != nil {
		return sum, fmt.Errorf("export: write workbook: %w", err)
	}
	logger.Info("records exported",
		"ride_requests", len(rideRows),
		"driver_applications", len(driverRows),
		"skipped", sum.Skipped[SheetRideRequests]+sum.Skipped[SheetDriverApplications],
	)
	return sum, nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	for i, row := range append([][]any{header}, rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
