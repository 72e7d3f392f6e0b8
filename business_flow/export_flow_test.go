package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type exportFlowHarness struct {
	flow   ExportFlow
	shop   *models.Shop
	lists  *fakeSavedListRepo
	client *fakeSegmentClient
	audit  *fakeAuditRepo
}

func newExportFlowHarness(result *services.SegmentMatchResult) *exportFlowHarness {
	shop := activeTestShop(1)
	lists := newFakeSavedListRepo()
	client := &fakeSegmentClient{result: result}
	audit := &fakeAuditRepo{}
	return &exportFlowHarness{
		flow:   NewExportFlow(newFakeShopRepo(shop), lists, client, audit),
		shop:   shop,
		lists:  lists,
		client: client,
		audit:  audit,
	}
}

func (h *exportFlowHarness) seedList(t *testing.T, name, source string) *models.SavedList {
	t.Helper()
	criteria := json.RawMessage(`{"location":["us"]}`)
	if source == models.SavedListSourceAISearch {
		criteria = json.RawMessage(`{"minOrders":3}`)
	}
	row := &models.SavedList{
		UUID:        uuid.New(),
		ShopID:      h.shop.ID,
		Name:        name,
		Source:      source,
		Criteria:    criteria,
		Status:      models.SavedListStatusActive,
		CreatedAt:   utils.UTCNow(),
		LastUpdated: utils.UTCNow(),
	}
	require.NoError(t, h.lists.Save(context.Background(), row))
	return row
}

func exportCustomers() *services.SegmentMatchResult {
	return &services.SegmentMatchResult{
		MatchCount: 2,
		Customers: []services.SegmentCustomer{
			{ID: "c1", Name: "Ada Lovelace", Email: "ada@example.com", Country: "GB", CreatedDate: "2024-01-15", LastPurchase: "2025-02-01", Orders: 4, TotalSpent: 310.5},
			{ID: "c2", Name: "Grace Hopper", Email: "grace@example.com", Country: "US", CreatedDate: "2023-11-02", LastPurchase: "2025-01-20", Orders: 9, TotalSpent: 1204},
		},
	}
}

func parseCSV(t *testing.T, content []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportFilterAudienceCSV(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	file, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
		Format: "csv",
	}, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	assert.Equal(t, "US buyers.csv", file.FileName)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, 2, file.RowCount)

	rows := parseCSV(t, file.Content)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Email", "Country", "CreatedDate", "Orders", "TotalSpent"}, rows[0])
	assert.Equal(t, []string{"Ada Lovelace", "ada@example.com", "GB", "2024-01-15", "4", "310.50"}, rows[1])
	assert.Equal(t, []string{"Grace Hopper", "grace@example.com", "US", "2023-11-02", "9", "1204.00"}, rows[2])

	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, models.AuditActionListExported, h.audit.entries[0].Action)
}

func TestExportAISearchColumns(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "Frequent buyers", models.SavedListSourceAISearch)

	file, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
	}, nil)
	require.NoError(t, err)

	rows := parseCSV(t, file.Content)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Email", "LastPurchase", "Orders", "TotalSpent"}, rows[0])
	assert.Equal(t, []string{"Ada Lovelace", "ada@example.com", "2025-02-01", "4", "310.50"}, rows[1])
}

func TestExportDefaultsToCSV(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	file, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "US buyers.csv", file.FileName)
}

func TestExportExcelServesCSVWithSpreadsheetType(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	file, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
		Format: "excel",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.ms-excel", file.ContentType)
	assert.Equal(t, "US buyers.xls", file.FileName)

	// Body is still CSV
	rows := parseCSV(t, file.Content)
	assert.Equal(t, []string{"Name", "Email", "Country", "CreatedDate", "Orders", "TotalSpent"}, rows[0])
}

func TestExportXLSXWorkbook(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	file, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
		Format: "xlsx",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", file.ContentType)
	assert.Equal(t, "US buyers.xlsx", file.FileName)

	workbook, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer workbook.Close()

	sheet := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Name", "Email", "Country", "CreatedDate", "Orders", "TotalSpent"}, rows[0])
	assert.Equal(t, "Ada Lovelace", rows[1][0])
}

func TestExportUnsupportedFormat(t *testing.T) {
	h := newExportFlowHarness(exportCustomers())
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	_, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
		Format: "pdf",
	}, nil)

	assert.True(t, IsUnsupportedExportFormat(err))
	assert.Equal(t, 0, h.client.calls)
}

func TestExportListNotFound(t *testing.T) {
	h := newExportFlowHarness(nil)

	_, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   uuid.NewString(),
		ShopID: h.shop.ID,
	}, nil)

	assert.True(t, IsSavedListNotFound(err))
}

func TestExportProtectedDataDenialIsAudited(t *testing.T) {
	h := newExportFlowHarness(nil)
	h.client.matchErr = &services.ProtectedDataError{Kind: services.ProtectedCustomerData, Message: "not approved"}
	row := h.seedList(t, "US buyers", models.SavedListSourceFilterAudience)

	_, err := h.flow.ExportSavedList(context.Background(), &dto.ExportSavedListRequest{
		UUID:   row.UUID.String(),
		ShopID: h.shop.ID,
	}, NewClientMetadata("127.0.0.1", "test"))

	require.Error(t, err)
	assert.True(t, IsProtectedDataError(err))

	require.Len(t, h.audit.entries, 1)
	assert.True(t, h.audit.entries[0].IsFailed())
}
