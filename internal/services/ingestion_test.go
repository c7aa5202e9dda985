package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/source"
)

func todayRow(loc *time.Location, patientID, insurance string) source.RawRow {
	date := time.Now().In(loc).Format("01/02/2006")
	return source.RawRow{date + " 10:30 AM", patientID, "Pat " + patientID, "", insurance}
}

func newTestIngestion(t *testing.T, src *fakeSource, appts *memAppointments, offices ...models.Office) (*Ingestion, *memFetchLog) {
	t.Helper()
	loc := testLocation(t)
	fetchLog := &memFetchLog{}
	svc := NewIngestion(src, appts, fetchLog, &staticOffices{offices: offices}, loc, 3, 7, zerolog.Nop())
	return svc, fetchLog
}

func TestIngestion_DedupIdempotence(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {
			todayRow(loc, "P-1", "Aetna"),
			todayRow(loc, "P-2", "Delta Dental"),
		},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Offices, 1)
	assert.Equal(t, 2, first.Offices[0].Fetched)
	assert.Equal(t, 2, first.Offices[0].New)
	assert.Equal(t, 0, first.Offices[0].Archived)

	// Same snapshot again: every candidate is already known.
	second, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Offices[0].New)
	assert.Equal(t, 2, second.Offices[0].Archived)
	assert.Len(t, appts.docs, 2)
}

func TestIngestion_KeyUniquenessAfterSequentialRuns(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {todayRow(loc, "P-1", "Aetna"), todayRow(loc, "P-1", "Aetna")},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	_, err = svc.Run(context.Background())
	require.NoError(t, err)

	seen := map[string]int{}
	for _, d := range appts.docs {
		key := d.OfficeName + "|" + d.PatientID + "|" + d.InsuranceName + "|" + d.AppointmentDate.Format("2006-01-02")
		seen[key]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "duplicate stored for key %s", key)
	}
}

func TestIngestion_DuplicateRowsInOneSnapshot(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	// The feed repeats the same patient/insurer/day twice in a single pull;
	// only the first row may be admitted even though neither is in the store
	// yet when the existence checks run.
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {todayRow(loc, "P-1", "Aetna"), todayRow(loc, "P-1", "Aetna")},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	result := summary.Offices[0]
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.New)
	assert.Equal(t, 1, result.Archived)
	require.Len(t, appts.docs, 1)
	assert.Equal(t, "P-1", appts.docs[0].PatientID)
}

func TestIngestion_SamePatientDifferentInsurerIsNew(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {todayRow(loc, "P-1", "Aetna"), todayRow(loc, "P-1", "Cigna")},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Offices[0].New)
}

func TestIngestion_UpstreamFailureDoesNotAbortOtherOffices(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{
		rows: map[string][]source.RawRow{"valley": {todayRow(loc, "P-9", "Aetna")}},
		errs: map[string]error{"sunrise": errors.New("503 from sheets")},
	}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts,
		models.Office{Name: "Sunrise", SheetName: "sunrise"},
		models.Office{Name: "Valley", SheetName: "valley"},
	)

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Offices, 2)

	assert.NotEmpty(t, summary.Offices[0].Errors, "failed office reports its error")
	assert.Equal(t, 0, summary.Offices[0].Fetched)
	assert.Equal(t, 1, summary.Offices[1].New, "healthy office still ingested")
}

func TestIngestion_BadRowRejectedRunContinues(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {
			{"garbage-date", "P-1", "", "", "Aetna"},
			todayRow(loc, "P-2", "Aetna"),
		},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	result := summary.Offices[0]
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.New)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 0")
}

func TestIngestion_RowsOutsideWindowSkipped(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	old := time.Now().In(loc).AddDate(0, 0, -30).Format("01/02/2006")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {{old + " 10:30 AM", "P-1", "", "", "Aetna"}},
	}}
	appts := &memAppointments{}
	svc, _ := newTestIngestion(t, src, appts, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Offices[0].Fetched)
	assert.Equal(t, 0, summary.Offices[0].New)
	assert.Empty(t, appts.docs)
}

func TestIngestion_AppendsFetchLogOperation(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	src := &fakeSource{rows: map[string][]source.RawRow{
		"sunrise": {todayRow(loc, "P-1", "Aetna")},
	}}
	svc, fetchLog := newTestIngestion(t, src, &memAppointments{}, models.Office{Name: "Sunrise", SheetName: "sunrise"})

	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	date := time.Now().In(loc).Format("2006-01-02")
	ops := fetchLog.entries[date]
	require.Len(t, ops, 1)
	assert.Equal(t, summary.OperationID, ops[0].OperationID)
	require.Len(t, ops[0].Offices, 1)
	assert.Equal(t, 1, ops[0].Offices[0].New)
	require.Len(t, ops[0].Offices[0].NewItems, 1)
	assert.Equal(t, "P-1", ops[0].Offices[0].NewItems[0].PatientID)

	// A second run appends, never overwrites.
	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, fetchLog.entries[date], 2)
}
