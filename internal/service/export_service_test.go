package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
)

func TestExportWeek(t *testing.T) {
	trainingRepo := newFakeTrainingRepo()
	exportRepo := &fakeExportRepo{}
	store := newFakeStorage()

	typeRef := domain.TrainingTypeRef{ID: primitive.NewObjectID(), Name: "Group swim"}
	seed := []domain.RealTraining{
		{TrainingDate: "2026-03-02", StartTime: "09:00:00", TrainingType: typeRef, Status: domain.TrainingPlanned},
		{TrainingDate: "2026-03-05", StartTime: "18:00:00", TrainingType: typeRef, Status: domain.TrainingCancelledByCoach},
		{TrainingDate: "2026-03-12", StartTime: "09:00:00", TrainingType: typeRef, Status: domain.TrainingPlanned}, // Next week
	}
	for i := range seed {
		tr := seed[i]
		if _, err := trainingRepo.Create(context.Background(), &tr); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := NewExportService(trainingRepo, exportRepo, store)
	userID := primitive.NewObjectID()

	out, err := svc.ExportWeek(context.Background(), time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.WeekStart != "2026-03-02" {
		t.Errorf("expected week start 2026-03-02, got %s", out.WeekStart)
	}
	if out.Trainings != 2 {
		t.Errorf("expected 2 trainings in the week, got %d", out.Trainings)
	}
	if !strings.HasPrefix(out.DownloadURL, "https://storage.local/exports/2026-03-02/") {
		t.Errorf("unexpected download URL %s", out.DownloadURL)
	}

	if len(store.objects) != 1 {
		t.Fatalf("expected 1 uploaded object, got %d", len(store.objects))
	}
	var body string
	for _, b := range store.objects {
		body = string(b)
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "END:VCALENDAR") {
		t.Error("missing calendar envelope")
	}
	if count := strings.Count(body, "BEGIN:VEVENT"); count != 2 {
		t.Errorf("expected 2 events in ICS, got %d", count)
	}
	if !strings.Contains(body, "DTSTART:20260302T090000Z") {
		t.Error("missing expected event start")
	}
	// Cancelled trainings are exported with an explicit status.
	if !strings.Contains(body, "STATUS:CANCELLED") {
		t.Error("cancelled training missing STATUS:CANCELLED")
	}

	if len(exportRepo.exports) != 1 {
		t.Fatalf("expected 1 export record, got %d", len(exportRepo.exports))
	}
	record := exportRepo.exports[0]
	if record.WeekStart != "2026-03-02" || record.Trainings != 2 || record.CreatedBy != userID {
		t.Errorf("unexpected export metadata: %+v", record)
	}
	if record.Size != int64(len(body)) {
		t.Errorf("recorded size %d does not match body length %d", record.Size, len(body))
	}
}

func TestExportWeek_EscapesTypeNames(t *testing.T) {
	trainingRepo := newFakeTrainingRepo()
	store := newFakeStorage()

	tr := domain.RealTraining{
		TrainingDate: "2026-03-02",
		StartTime:    "09:00:00",
		TrainingType: domain.TrainingTypeRef{ID: primitive.NewObjectID(), Name: "Kids, beginners; group"},
		Status:       domain.TrainingPlanned,
	}
	if _, err := trainingRepo.Create(context.Background(), &tr); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewExportService(trainingRepo, &fakeExportRepo{}, store)
	if _, err := svc.ExportWeek(context.Background(), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), primitive.NewObjectID()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body string
	for _, b := range store.objects {
		body = string(b)
	}
	if !strings.Contains(body, `SUMMARY:Kids\, beginners\; group`) {
		t.Errorf("type name not escaped: %s", body)
	}
}
