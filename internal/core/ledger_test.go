package core

import (
	"context"
	"math"
	"testing"
	"time"

	"vitalcore/pkg/domain"
)

func TestRecordMeasurementOverwrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	inst := mustStart(t, svc, testUser, tplTemp)

	if _, err := svc.RecordMeasurement(ctx, testUser, inst.ID, 5, "morningTemp", 97.2, "°F"); err != nil {
		t.Fatalf("first record: %v", err)
	}
	got, err := svc.ReadMeasurements(ctx, testUser, inst.ID, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["morningTemp"].Value != 97.2 {
		t.Fatalf("expected read-after-write 97.2, got %+v", got)
	}

	if _, err := svc.RecordMeasurement(ctx, testUser, inst.ID, 5, "morningTemp", 98.0, "°F"); err != nil {
		t.Fatalf("second record: %v", err)
	}
	got, err = svc.ReadMeasurements(ctx, testUser, inst.ID, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got["morningTemp"].Value != 98.0 || got["morningTemp"].Unit != "°F" {
		t.Fatalf("expected single overwritten value, got %+v", got)
	}
}

func TestRecordMeasurementCopiesTemplateUnit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(stubClock{t: now}))
	inst := mustStart(t, svc, testUser, tplTemp)

	v, err := svc.RecordMeasurement(ctx, testUser, inst.ID, 2, "morningPulse", 64, "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if v.Unit != "bpm" || v.Value != 64 || !v.Timestamp.Equal(now) {
		t.Fatalf("unexpected value %+v", v)
	}
}

func TestReadMeasurementsEmptyDay(t *testing.T) {
	svc := newTestService(t)
	inst := mustStart(t, svc, testUser, tplTemp)
	got, err := svc.ReadMeasurements(context.Background(), testUser, inst.ID, 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil mapping, got %#v", got)
	}
}

func TestRecordMeasurementValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	inst := mustStart(t, svc, testUser, tplTemp)

	cases := []struct {
		name  string
		day   int
		input string
		value float64
		unit  string
	}{
		{"nan", 1, "morningTemp", math.NaN(), "°F"},
		{"inf", 1, "morningTemp", math.Inf(1), "°F"},
		{"day zero", 0, "morningTemp", 97, "°F"},
		{"day past duration", 31, "morningTemp", 97, "°F"},
		{"unknown input", 1, "eveningTemp", 97, "°F"},
		{"unit mismatch", 1, "morningTemp", 36.5, "°C"},
		{"below min", 1, "morningTemp", 90, "°F"},
		{"above max", 1, "morningPulse", 150, "bpm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordMeasurement(ctx, testUser, inst.ID, tc.day, tc.input, tc.value, tc.unit)
			expectKind(t, err, domain.ErrValidation)
		})
	}

	got, _ := svc.ReadMeasurements(ctx, testUser, inst.ID, 1)
	if len(got) != 0 {
		t.Fatalf("rejected writes must not be stored, got %+v", got)
	}
}

func TestRecordMeasurementBoundaryDays(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	inst := mustStart(t, svc, testUser, tplTemp)
	for _, day := range []int{1, 30} {
		if _, err := svc.RecordMeasurement(ctx, testUser, inst.ID, day, "morningTemp", 97, "°F"); err != nil {
			t.Fatalf("day %d: %v", day, err)
		}
	}
	view, err := svc.GetExperiment(ctx, testUser, inst.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if days := view.Instance.Measurements.Days(); len(days) != 2 || days[0] != 1 || days[1] != 30 {
		t.Fatalf("unexpected days %v", days)
	}
}
