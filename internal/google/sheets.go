// Package google mirrors accumulated statistics into a Google spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"lernecken/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var statisticsHeaders = []interface{}{"Jahr", "KW", "Lernecke", "Buchungen"}

type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	facilityNames map[string]string
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, facilities []models.Facility) (*SheetsService, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newSheetsService(srv, spreadsheetID, sheetName, facilities), nil
}

func newSheetsService(srv *sheets.Service, spreadsheetID, sheetName string, facilities []models.Facility) *SheetsService {
	names := make(map[string]string, len(facilities))
	for _, f := range facilities {
		names[f.Code] = f.Name
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		facilityNames: names,
	}
}

// TestConnection проверяет подключение к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail возвращает email сервисного аккаунта
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

func (s *SheetsService) statisticRowValues(stat *models.Statistic) []interface{} {
	name := s.facilityNames[stat.Facility]
	if name == "" {
		name = stat.Facility
	}
	return []interface{}{stat.Year, stat.CalendarWeek, name, stat.Bookings}
}

// ReplaceStatistics полностью перезаписывает лист со статистикой
func (s *SheetsService) ReplaceStatistics(ctx context.Context, stats []*models.Statistic) error {
	clearRange := s.sheetName + "!A1:Z"
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear statistics sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(stats)+1)
	values = append(values, statisticsHeaders)
	for _, stat := range stats {
		values = append(values, s.statisticRowValues(stat))
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update statistics sheet: %w", err)
	}
	return nil
}
