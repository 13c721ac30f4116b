package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const rankingSheet = "Ranking"

var rankingHeader = []interface{}{"rank", "username", "user_id", "score", "correct", "total_time_sec", "submitted_at"}

// WriteLeaderboard renders a ranking workbook: a title row, a header row,
// then one row per entry.
func WriteLeaderboard(w io.Writer, q quiz.Quiz, entries []quiz.LeaderboardEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rankingSheet); err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%s)", q.Title, q.ID)
	if err := f.SetSheetRow(rankingSheet, "A1", &[]interface{}{title, "generated", time.Now().UTC().Format(time.RFC3339)}); err != nil {
		return err
	}
	if err := f.SetSheetRow(rankingSheet, "A2", &rankingHeader); err != nil {
		return err
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(rankingSheet, 2, 2, bold)
	}

	for i, e := range entries {
		row := []interface{}{e.Rank, e.Username, e.UserID, e.Score, e.CorrectCount, e.TotalTimeSec, e.SubmittedAt.Format(time.RFC3339)}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(rankingSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(rankingSheet, "B", "C", 24)
	_ = f.SetColWidth(rankingSheet, "G", "G", 22)

	_, err := f.WriteTo(w)
	return err
}
