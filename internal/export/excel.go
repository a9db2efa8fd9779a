// Package export renders recommendation lists as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/job-recommender/internal/types"
)

// Sheet names.
const (
	SummarySheet         = "Summary"
	RecommendationsSheet = "Recommendations"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Meta describes the list being exported.
type Meta struct {
	SessionID   string
	Source      string
	GeneratedAt time.Time
	User        *types.UserProfile
}

var recommendationHeaders = []string{
	"Rank", "Job ID", "Title", "Company", "Region", "Skills", "Score v1", "Final Score", "Reason",
}

// Recommendations writes a workbook with a summary sheet and one row per
// recommendation, in list order.
func Recommendations(w io.Writer, items []types.Recommendation, meta Meta) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RecommendationsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeSummary(f, items, meta); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := writeRecommendations(f, items); err != nil {
		return fmt.Errorf("failed to write recommendations sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, items []types.Recommendation, meta Meta) error {
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 48); err != nil {
		return err
	}

	rows := [][2]any{
		{"Session", meta.SessionID},
		{"Generated At", meta.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Ranking Source", meta.Source},
		{"Recommendations", len(items)},
	}
	if meta.User != nil {
		rows = append(rows,
			[2]any{"Skills", strings.Join(meta.User.Skills, ", ")},
			[2]any{"Region", meta.User.Region},
			[2]any{"Role", meta.User.Role},
		)
		if meta.User.Years != nil {
			rows = append(rows, [2]any{"Years", *meta.User.Years})
		}
	}

	for i, r := range rows {
		label := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(SummarySheet, label, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, label, label, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", i+1), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeRecommendations(f *excelize.File, items []types.Recommendation) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	boostedStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	widths := []float64{6, 24, 32, 18, 14, 32, 10, 11, 60}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(RecommendationsSheet, col, col, width); err != nil {
			return err
		}
	}

	header := make([]any, len(recommendationHeaders))
	for i, h := range recommendationHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(RecommendationsSheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(RecommendationsSheet, "A1", "I1", headerStyle); err != nil {
		return err
	}

	for i, item := range items {
		row := i + 2
		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{
			i + 1,
			item.JobID,
			item.Title,
			item.CompanyID,
			item.Region,
			strings.Join(item.Skills, ", "),
			item.ScoreV1,
			item.FinalScore,
			item.Reason,
		}
		if err := f.SetSheetRow(RecommendationsSheet, start, &values); err != nil {
			return err
		}

		// Rows lifted by feedback are highlighted.
		if item.FinalScore > item.ScoreV1 {
			end, err := excelize.CoordinatesToCellName(len(values), row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(RecommendationsSheet, start, end, boostedStyle); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(RecommendationsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Filename builds the download name of an export.
func Filename(sessionID string, at time.Time) string {
	id := sessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("recommendations_%s_%s.xlsx", id, at.UTC().Format("20060102_150405"))
}
