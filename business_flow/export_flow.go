package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
	"github.com/xuri/excelize/v2"
)

// Export format constants
const (
	ExportFormatCSV   = "csv"
	ExportFormatExcel = "excel"
	ExportFormatXLSX  = "xlsx"
)

// Export content types
const (
	contentTypeCSV  = "text/csv"
	contentTypeXLS  = "application/vnd.ms-excel"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportFlow defines saved list export operations
type ExportFlow interface {
	ExportSavedList(ctx context.Context, req *dto.ExportSavedListRequest, metadata *ClientMetadata) (*dto.ExportFileDTO, error)
}

// ExportFlowImpl implements ExportFlow
type ExportFlowImpl struct {
	shopRepo      repository.ShopRepository
	savedListRepo repository.SavedListRepository
	segmentClient services.SegmentClient
	auditRepo     repository.AuditLogRepository
}

// NewExportFlow creates a new export flow
func NewExportFlow(
	shopRepo repository.ShopRepository,
	savedListRepo repository.SavedListRepository,
	segmentClient services.SegmentClient,
	auditRepo repository.AuditLogRepository,
) ExportFlow {
	return &ExportFlowImpl{
		shopRepo:      shopRepo,
		savedListRepo: savedListRepo,
		segmentClient: segmentClient,
		auditRepo:     auditRepo,
	}
}

func (f *ExportFlowImpl) ExportSavedList(ctx context.Context, req *dto.ExportSavedListRequest, metadata *ClientMetadata) (*dto.ExportFileDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}

	format := req.Format
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatExcel && format != ExportFormatXLSX {
		return nil, ErrUnsupportedExportFormat
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	list, err := f.savedListRepo.ByUUID(ctx, shop.ID, req.UUID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrSavedListNotFound
	}

	result, err := querySavedListMembership(ctx, f.segmentClient, shop, list.Source, list.Criteria)
	if err != nil {
		recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionListExported, metadata, false, utils.ToPtr(err.Error()), nil)
		return nil, err
	}

	header, rows := exportRows(list.Source, result.Customers)

	var file *dto.ExportFileDTO
	switch format {
	case ExportFormatXLSX:
		file, err = buildXLSX(list.Name, header, rows)
	case ExportFormatExcel:
		// Excel-as-CSV: CSV content served with the spreadsheet content type
		file, err = buildCSV(list.Name, header, rows)
		if err == nil {
			file.ContentType = contentTypeXLS
			file.FileName = list.Name + ".xls"
		}
	default:
		file, err = buildCSV(list.Name, header, rows)
	}
	if err != nil {
		return nil, err
	}
	file.RowCount = len(rows)

	recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionListExported, metadata, true, nil, map[string]any{
		"list_uuid": list.UUID.String(),
		"format":    format,
		"rows":      len(rows),
	})
	return file, nil
}

// exportRows renders customers into the per-source column layout. Lists built
// from the filter audience carry a Country and signup date column; AI search
// lists carry the last purchase date instead.
func exportRows(source string, customers []services.SegmentCustomer) ([]string, [][]string) {
	if source == models.SavedListSourceAISearch {
		header := []string{"Name", "Email", "LastPurchase", "Orders", "TotalSpent"}
		rows := make([][]string, 0, len(customers))
		for _, c := range customers {
			rows = append(rows, []string{
				c.Name,
				c.Email,
				c.LastPurchase,
				strconv.Itoa(c.Orders),
				formatAmount(c.TotalSpent),
			})
		}
		return header, rows
	}

	header := []string{"Name", "Email", "Country", "CreatedDate", "Orders", "TotalSpent"}
	rows := make([][]string, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []string{
			c.Name,
			c.Email,
			c.Country,
			c.CreatedDate,
			strconv.Itoa(c.Orders),
			formatAmount(c.TotalSpent),
		})
	}
	return header, rows
}

func buildCSV(name string, header []string, rows [][]string) (*dto.ExportFileDTO, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	return &dto.ExportFileDTO{
		FileName:    name + ".csv",
		ContentType: contentTypeCSV,
		Content:     buf.Bytes(),
	}, nil
}

func buildXLSX(name string, header []string, rows [][]string) (*dto.ExportFileDTO, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	for col, value := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for rowIdx, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return &dto.ExportFileDTO{
		FileName:    name + ".xlsx",
		ContentType: contentTypeXLSX,
		Content:     buf.Bytes(),
	}, nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
