package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/training-calendar/internal/domain"
	"alcyxob/training-calendar/internal/repository"
	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/storage"
)

const icsContentType = "text/calendar"

// WeekExport is the result of a weekly snapshot export.
type WeekExport struct {
	WeekStart   string `json:"weekStart"`
	Trainings   int    `json:"trainings"`
	DownloadURL string `json:"downloadUrl"`
}

// --- Service Interface ---

// ExportService generates ICS snapshots of a week's real trainings and
// stores them in object storage.
type ExportService interface {
	ExportWeek(ctx context.Context, weekStart time.Time, requestedBy primitive.ObjectID) (*WeekExport, error)
}

// --- Service Implementation ---

type exportService struct {
	trainingRepo repository.TrainingRepository
	exportRepo   repository.ExportRepository
	fileStorage  storage.FileStorage
}

// NewExportService creates a new instance of exportService.
func NewExportService(
	trainingRepo repository.TrainingRepository,
	exportRepo repository.ExportRepository,
	fileStorage storage.FileStorage,
) ExportService {
	return &exportService{
		trainingRepo: trainingRepo,
		exportRepo:   exportRepo,
		fileStorage:  fileStorage,
	}
}

// ExportWeek builds the ICS snapshot for the week containing weekStart,
// uploads it and returns a presigned download URL. Templates are not
// exported; they have no concrete dates.
func (s *exportService) ExportWeek(ctx context.Context, weekStart time.Time, requestedBy primitive.ObjectID) (*WeekExport, error) {
	weekStart = schedule.WeekStart(weekStart)
	from := weekStart.Format(domain.DateLayout)
	to := weekStart.AddDate(0, 0, 6).Format(domain.DateLayout)

	trainings, err := s.trainingRepo.GetByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	body := buildICS(trainings)
	objectKey := fmt.Sprintf("exports/%s/%s.ics", from, uuid.NewString())

	if err := s.fileStorage.PutObject(ctx, objectKey, icsContentType, body); err != nil {
		return nil, err
	}

	_, err = s.exportRepo.Create(ctx, &domain.ScheduleExport{
		WeekStart:   from,
		S3ObjectKey: objectKey,
		ContentType: icsContentType,
		Size:        int64(len(body)),
		Trainings:   len(trainings),
		CreatedBy:   requestedBy,
	})
	if err != nil {
		// Snapshot exists in storage either way; metadata is best effort but
		// a failure here is still surfaced.
		return nil, err
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &WeekExport{
		WeekStart:   from,
		Trainings:   len(trainings),
		DownloadURL: url,
	}, nil
}

// buildICS renders the trainings as a minimal VCALENDAR document. Cancelled
// trainings are included with STATUS:CANCELLED so subscribers see the hole
// in the schedule.
func buildICS(trainings []domain.RealTraining) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//training-calendar//week export//EN\r\n")

	for i := range trainings {
		t := &trainings[i]
		start, err := t.StartsAt()
		if err != nil {
			continue
		}
		end := start.Add(domain.SlotDuration)

		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s@training-calendar\r\n", t.ID.Hex())
		fmt.Fprintf(&b, "DTSTART:%s\r\n", start.UTC().Format("20060102T150405Z"))
		fmt.Fprintf(&b, "DTEND:%s\r\n", end.UTC().Format("20060102T150405Z"))
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", icsEscape(t.TrainingType.Name))
		if t.IsCancelled() {
			b.WriteString("STATUS:CANCELLED\r\n")
		}
		b.WriteString("END:VEVENT\r\n")
	}

	b.WriteString("END:VCALENDAR\r\n")
	return []byte(b.String())
}

// icsEscape escapes the characters RFC 5545 reserves in text values.
func icsEscape(s string) string {
	r := strings.NewReplacer("\\", "\\\\", ";", "\\;", ",", "\\,", "\n", "\\n")
	return r.Replace(s)
}
