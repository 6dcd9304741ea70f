package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/entity"
	"github.com/joseph-ayodele/voice-studio/internal/repository"
)

const (
	templatesSheet = "Templates"
	summarySheet   = "Voice"
)

// Service produces XLSX workbooks for voices.
type Service struct {
	voices repository.VoiceRepository
	logger *slog.Logger
}

func NewService(voices repository.VoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{voices: voices, logger: logger}
}

// ExportVoiceXLSX returns a workbook with one row per template of the voice.
// Voices owned by another user are reported as not found.
func (s *Service) ExportVoiceXLSX(ctx context.Context, userID, voiceID string) ([]byte, error) {
	start := time.Now()

	voice, err := s.voices.Get(ctx, voiceID)
	if err != nil {
		return nil, err
	}
	if voice.UserID != userID {
		return nil, common.NotFoundError(fmt.Sprintf("voice %s not found", voiceID))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the template sheet
	if err := f.SetSheetName("Sheet1", templatesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(templatesSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"#",
		"Hook",
		"Bridge",
		"Golden Nugget",
		"WTA",
		"Source Video",
		"Platform",
		"Views",
		"Likes",
		"URL",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(templatesSheet, cell, h)
	}

	for i, t := range voice.Templates {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(templatesSheet, cell, v)
		}
		write(1, i+1)
		write(2, t.Hook)
		write(3, t.Bridge)
		write(4, t.Nugget)
		write(5, t.WTA)
		write(6, t.SourceVideoID)
		write(7, t.SourceMetadata.Platform.Title())
		write(8, t.SourceMetadata.ViewCount)
		write(9, t.SourceMetadata.LikeCount)
		write(10, t.SourceMetadata.URL)
	}

	_ = f.SetColWidth(templatesSheet, "A", "A", 5)
	_ = f.SetColWidth(templatesSheet, "B", "E", 48)
	_ = f.SetColWidth(templatesSheet, "F", "G", 16)
	_ = f.SetColWidth(templatesSheet, "H", "I", 12)
	_ = f.SetColWidth(templatesSheet, "J", "J", 60)

	writeSummary(f, voice)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"voice_id", voiceID,
		"rows", len(voice.Templates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, v *entity.Voice) {
	rows := [][2]any{
		{"Name", v.Name},
		{"Badges", strings.Join(v.Badges, ", ")},
		{"Description", truncate(v.Description, 240)},
		{"Templates", len(v.Templates)},
		{"Profile", v.Metadata.ProfileURL},
		{"Platform", v.Metadata.Platform.Title()},
		{"Videos Discovered", v.Metadata.VideosDiscovered},
		{"Videos Processed", v.Metadata.VideosProcessed},
		{"Transcriptions", v.Metadata.TranscriptionsCompleted},
		{"Job", v.Metadata.JobID},
		{"Created", v.CreatedAt.UTC().Format(time.RFC3339)},
	}
	for i, r := range rows {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), r[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), r[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 20)
	_ = f.SetColWidth(summarySheet, "B", "B", 80)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
