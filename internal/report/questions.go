package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ReadQuestions loads questions from the first sheet of a workbook. The
// first row names the columns: text, correct and marks are required, every
// column whose name starts with "option" is an option in sheet order.
// correct is 1-based or a letter (A, B, ...).
func ReadQuestions(r io.Reader) ([]quiz.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no question rows", sheets[0])
	}

	col := map[string]int{}
	var optionCols []int
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if strings.HasPrefix(h, "option") {
			optionCols = append(optionCols, i)
			continue
		}
		col[h] = i
	}
	for _, req := range []string{"text", "correct", "marks"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("missing %q column", req)
		}
	}
	if len(optionCols) < 2 {
		return nil, fmt.Errorf("need at least two option columns")
	}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []quiz.Question
	for n, row := range rows[1:] {
		line := n + 2
		text := cell(row, "text")
		if text == "" {
			continue
		}
		q := quiz.Question{
			ID:          cell(row, "id"),
			Text:        text,
			ImageLink:   cell(row, "image_link"),
			Category:    cell(row, "category"),
			Chapter:     cell(row, "chapter"),
			Explanation: cell(row, "explanation"),
		}
		if q.ID == "" {
			q.ID = "q" + strconv.Itoa(len(out)+1)
		}
		for _, i := range optionCols {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				q.Options = append(q.Options, strings.TrimSpace(row[i]))
			}
		}
		if q.CorrectOption, err = parseCorrect(cell(row, "correct"), len(q.Options)); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if q.Marks, err = strconv.ParseFloat(cell(row, "marks"), 64); err != nil || q.Marks <= 0 {
			return nil, fmt.Errorf("row %d: bad marks %q", line, cell(row, "marks"))
		}
		out = append(out, q)
	}
	return out, nil
}

func parseCorrect(v string, options int) (int, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	idx := -1
	if n, err := strconv.Atoi(v); err == nil {
		idx = n - 1
	} else if len(v) == 1 && v[0] >= 'A' && v[0] <= 'Z' {
		idx = int(v[0] - 'A')
	}
	if idx < 0 || idx >= options {
		return 0, fmt.Errorf("correct option %q out of range", v)
	}
	return idx, nil
}
