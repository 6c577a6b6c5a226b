package catalog

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/suhailxyz/aipacdle/internal/database"
	"github.com/suhailxyz/aipacdle/internal/engine"
	"github.com/suhailxyz/aipacdle/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel, CSV or JSON file
	DateColumn        string // Column with the puzzle date (YYYY-MM-DD)
	TitleColumn       string // Column with the title
	SubjectColumn     string // Column with the subject line
	DescriptionColumn string // Column with the description
	AmountColumn      string // Column with the true dollar amount
	RangeMinColumn    string // Column with the slider minimum
	RangeMaxColumn    string // Column with the slider maximum
	ImageURLColumn    string // Column with the photo URL
	SourceURLColumn   string // Column with the source link
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		DateColumn:        "A",
		TitleColumn:       "B",
		SubjectColumn:     "C",
		DescriptionColumn: "D",
		AmountColumn:      "E",
		RangeMinColumn:    "F",
		RangeMaxColumn:    "G",
		ImageURLColumn:    "H",
		SourceURLColumn:   "I",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Summary renders the result as a short human-readable report
func (r *ImportResult) Summary() string {
	s := fmt.Sprintf("processed %d rows: %d created, %d updated, %d skipped",
		r.TotalProcessed, r.Created, r.Updated, r.Skipped)
	if len(r.Errors) > 0 {
		s += fmt.Sprintf(", %d errors", len(r.Errors))
	}
	return s
}

// ImportPuzzles imports puzzles from an Excel, CSV or JSON file,
// upserting by puzzle date
func ImportPuzzles(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	switch ext {
	case ".csv":
		return importFromCSV(config)
	case ".json":
		return importFromJSON(config)
	default:
		return importFromExcel(config)
	}
}

// importFromExcel imports puzzles from an Excel file
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	repo := database.NewPuzzleRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlankRow(row) {
			result.Skipped++
			continue
		}

		result.TotalProcessed++

		if err := processRow(row, config, repo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports puzzles from a CSV file laid out in the same
// column order as the Excel format
func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	repo := database.NewPuzzleRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		if isBlankRow(row) {
			result.Skipped++
			continue
		}

		result.TotalProcessed++

		if err := processRow(row, config, repo, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// puzzleRecord mirrors the JSON puzzle file format
type puzzleRecord struct {
	Date        string       `json:"date"`
	Title       string       `json:"title"`
	Subject     string       `json:"subject"`
	Description string       `json:"description"`
	Amount      int64        `json:"amount"`
	Range       engine.Range `json:"range"`
	ImageURL    string       `json:"image_url"`
	SourceURL   string       `json:"source_url"`
}

// importFromJSON imports puzzles from a JSON catalog: either an array
// of records, or an object keyed by date
func importFromJSON(config ImportConfig) (*ImportResult, error) {
	data, err := os.ReadFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSON file: %v", err)
	}

	records, err := decodeJSONCatalog(data)
	if err != nil {
		return nil, err
	}

	repo := database.NewPuzzleRepository()
	result := &ImportResult{Errors: make([]string, 0)}

	for i, rec := range records {
		result.TotalProcessed++

		puzzle := &models.Puzzle{
			PuzzleDate:  strings.TrimSpace(rec.Date),
			Title:       strings.TrimSpace(rec.Title),
			Subject:     strings.TrimSpace(rec.Subject),
			Description: strings.TrimSpace(rec.Description),
			ImageURL:    strings.TrimSpace(rec.ImageURL),
			SourceURL:   strings.TrimSpace(rec.SourceURL),
			Amount:      rec.Amount,
			RangeMin:    rec.Range.Min,
			RangeMax:    rec.Range.Max,
		}
		if err := upsertPuzzle(repo, puzzle, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Record %d: %v", i+1, err))
		}
	}

	return result, nil
}

// decodeJSONCatalog reads both catalog shapes. The original static
// puzzle files were an object keyed by date; exports are usually flat
// arrays. In the keyed form the key wins over an empty date field.
func decodeJSONCatalog(data []byte) ([]puzzleRecord, error) {
	var records []puzzleRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var byDate map[string]puzzleRecord
	if err := json.Unmarshal(data, &byDate); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %v", err)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		rec := byDate[date]
		if rec.Date == "" {
			rec.Date = date
		}
		records = append(records, rec)
	}
	return records, nil
}

// processRow converts one spreadsheet row into a puzzle and upserts it
func processRow(row []string, config ImportConfig, repo *database.PuzzleRepository, result *ImportResult) error {
	cell := func(column string) string {
		if colIdx := columnToIndex(column); colIdx >= 0 && colIdx < len(row) {
			return strings.TrimSpace(row[colIdx])
		}
		return ""
	}

	amount, err := parseDollars(cell(config.AmountColumn))
	if err != nil {
		return fmt.Errorf("bad amount: %v", err)
	}

	puzzle := &models.Puzzle{
		PuzzleDate:  cell(config.DateColumn),
		Title:       cell(config.TitleColumn),
		Subject:     cell(config.SubjectColumn),
		Description: cell(config.DescriptionColumn),
		ImageURL:    cell(config.ImageURLColumn),
		SourceURL:   cell(config.SourceURLColumn),
		Amount:      amount,
	}

	// Пустые границы диапазона получают значения по умолчанию
	if raw := cell(config.RangeMinColumn); raw != "" {
		if puzzle.RangeMin, err = parseDollars(raw); err != nil {
			return fmt.Errorf("bad range min: %v", err)
		}
	}
	if raw := cell(config.RangeMaxColumn); raw != "" {
		if puzzle.RangeMax, err = parseDollars(raw); err != nil {
			return fmt.Errorf("bad range max: %v", err)
		}
	} else {
		puzzle.RangeMax = amount * 5
	}

	return upsertPuzzle(repo, puzzle, result)
}

// ValidatePuzzle checks a puzzle row before it reaches the database
func ValidatePuzzle(puzzle *models.Puzzle) error {
	if _, err := time.Parse("2006-01-02", puzzle.PuzzleDate); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD, got %q", puzzle.PuzzleDate)
	}
	if puzzle.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if puzzle.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", puzzle.Amount)
	}
	if puzzle.RangeMin < 0 {
		return fmt.Errorf("range min cannot be negative, got %d", puzzle.RangeMin)
	}
	if puzzle.RangeMin >= puzzle.RangeMax {
		return fmt.Errorf("range min %d must be below range max %d", puzzle.RangeMin, puzzle.RangeMax)
	}
	if puzzle.Amount < puzzle.RangeMin || puzzle.Amount > puzzle.RangeMax {
		return fmt.Errorf("amount %d outside range [%d, %d]", puzzle.Amount, puzzle.RangeMin, puzzle.RangeMax)
	}
	return nil
}

// upsertPuzzle validates the puzzle and creates or updates the row
// for its date
func upsertPuzzle(repo *database.PuzzleRepository, puzzle *models.Puzzle, result *ImportResult) error {
	if err := ValidatePuzzle(puzzle); err != nil {
		return err
	}

	existing, err := repo.GetByDate(puzzle.PuzzleDate)
	if err == sql.ErrNoRows {
		if err := repo.Create(puzzle); err != nil {
			return fmt.Errorf("failed to create puzzle: %v", err)
		}
		result.Created++
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing puzzle: %v", err)
	}

	puzzle.ID = existing.ID
	if err := repo.Update(puzzle); err != nil {
		return fmt.Errorf("failed to update puzzle: %v", err)
	}
	result.Updated++
	return nil
}

// parseDollars reads a dollar amount that may carry a currency sign
// and thousands separators
func parseDollars(s string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '_':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return 0, fmt.Errorf("empty value")
	}
	val, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a whole dollar amount: %q", s)
	}
	return val, nil
}

// isBlankRow reports whether every cell in the row is empty
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
