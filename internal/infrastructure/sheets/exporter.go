package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/cashflow/backend/internal/infrastructure/config"
)

// Exporter mirrors report tables into a Google Spreadsheet. Each export
// replaces the named sheet's contents wholesale, so a re-run after a partial
// failure leaves a consistent sheet.
type Exporter struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewExporter creates an Exporter authenticated with a service account
// credentials file.
func NewExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &Exporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// Export replaces sheetName's contents with a header row followed by the
// given rows, then formats the header and auto-sizes the columns.
func (e *Exporter) Export(ctx context.Context, sheetName string, headers []string, rows [][]any) error {
	sheetID, err := e.ensureSheet(ctx, sheetName)
	if err != nil {
		return err
	}

	if _, err := e.service.Spreadsheets.Values.Clear(
		e.spreadsheetID, sheetName, &sheets.ClearValuesRequest{},
	).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: failed to clear sheet %s: %w", sheetName, err)
	}

	values := make([][]any, 0, len(rows)+1)
	headerRow := make([]any, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	values = append(values, headerRow)
	values = append(values, rows...)

	if _, err := e.service.Spreadsheets.Values.Update(
		e.spreadsheetID,
		fmt.Sprintf("%s!A1", sheetName),
		&sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("sheets: failed to write sheet %s: %w", sheetName, err)
	}

	if err := e.formatHeader(ctx, sheetID, len(headers)); err != nil {
		// Formatting is cosmetic; the data landed
		e.logger.Warn("Failed to format sheet header",
			zap.String("sheet", sheetName), zap.Error(err))
	}

	e.logger.Info("Report exported to Google Sheets",
		zap.String("sheet", sheetName),
		zap.Int("rows", len(rows)))
	return nil
}

// ensureSheet returns the sheet's ID, creating the sheet when missing
func (e *Exporter) ensureSheet(ctx context.Context, sheetName string) (int64, error) {
	spreadsheet, err := e.service.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: failed to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	resp, err := e.service.Spreadsheets.BatchUpdate(e.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: failed to create sheet %s: %w", sheetName, err)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (e *Exporter) formatHeader(ctx context.Context, sheetID int64, columns int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
						BackgroundColor: &sheets.Color{
							Red:   0.85,
							Green: 0.88,
							Blue:  0.95,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
	}

	_, err := e.service.Spreadsheets.BatchUpdate(e.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
