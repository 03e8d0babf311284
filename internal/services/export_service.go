package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/repositories"
)

// ExportService produces downloadable result sheets for a test.
type ExportService interface {
	ExportResultsToExcel(ctx context.Context, testID uint) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, testID uint) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) ExportResultsToExcel(ctx context.Context, testID uint) ([]byte, error) {
	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	submissions, _, err := s.repo.Submission().ListByTest(ctx, testID, repositories.SubmissionFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Submission ID", "User ID", "Submitted At", "Grading Status",
		"Correct Count", "Score /10", "Score %", "Passed",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, submission := range submissions {
		row := []interface{}{
			submission.ID,
			submission.UserID,
			submission.SubmittedAt.Format("2006-01-02 15:04:05"),
			string(submission.GradingStatus),
			submission.CorrectCount,
			submission.ScoreOutOf10,
			submission.ScorePercentage,
		}
		if submission.GradingStatus == models.AutoGraded || submission.GradingStatus == models.FullyGraded {
			if submission.IsPassed {
				row = append(row, "Pass")
			} else {
				row = append(row, "Fail")
			}
		} else {
			// Score is withheld while essay grading is outstanding.
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Results exported", "test_id", testID, "title", test.Title, "submission_count", len(submissions))
	return buf.Bytes(), nil
}

func (s *exportService) ExportQuestionsToExcel(ctx context.Context, testID uint) ([]byte, error) {
	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	questions := test.Questions.Data()
	if len(questions) == 0 {
		return nil, ErrTestHasNoQuestions
	}

	f := excelize.NewFile()
	sheetName := "Questions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Question ID", "Type", "Text", "Max Points", "Explanation"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, q := range questions {
		row := []interface{}{
			q.QuestionID,
			string(q.Type),
			q.Text,
			q.MaxPoints,
			q.Explanation,
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
