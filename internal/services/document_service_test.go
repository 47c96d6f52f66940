package services

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testStore() StoreInfo {
	return StoreInfo{
		Name:         "Test Store",
		AddressLine1: "12 Market Street",
		Phone:        "+1 555 0100",
	}
}

func testBill() *models.Bill {
	label := "M"
	variantID := int64(7)
	return &models.Bill{
		ID:            1234567,
		Status:        BillStatusCompleted,
		UserID:        1,
		CustomerName:  strPtr("Jane Doe"),
		CustomerPhone: strPtr("+1 (555) 010-0199"),
		PaymentMethod: "cash",
		Subtotal:      210,
		Tax:           10,
		Total:         220,
		CreatedAt:     time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC),
		Items: []models.BillItem{
			{ProductName: "Sneaker", ProductPrice: 100, Quantity: 2, Total: 200},
			{ProductName: "Shirt", ProductPrice: 10, Quantity: 1, Total: 10, VariantID: &variantID, VariantLabel: &label},
		},
	}
}

func TestFormatBillNumber(t *testing.T) {
	assert.Equal(t, "000001", FormatBillNumber(1))
	assert.Equal(t, "001234", FormatBillNumber(1234))
	assert.Equal(t, "234567", FormatBillNumber(1234567))
	assert.Equal(t, "000000", FormatBillNumber(1000000))
}

func TestRenderReceiptPDF(t *testing.T) {
	svc := NewDocumentService(testStore())
	pdfBytes, err := svc.RenderReceiptPDF(testBill())
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.True(t, strings.HasPrefix(string(pdfBytes[:5]), "%PDF-"))
}

func TestRenderReceiptPDFWalkInCustomer(t *testing.T) {
	svc := NewDocumentService(testStore())
	bill := testBill()
	bill.CustomerName = nil
	bill.CustomerPhone = nil

	pdfBytes, err := svc.RenderReceiptPDF(bill)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
}

func TestRenderReportPDF(t *testing.T) {
	svc := NewDocumentService(testStore())
	report := &models.SalesReport{
		From:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		GrandTotal: 425,
		Daily:      []models.DailySales{{Date: "2026-03-01", TotalSales: 425, BillCount: 3}},
		Categories: []models.CategorySales{{Category: "Shoes", TotalSales: 300, Percentage: 70.6}},
		Brands:     []models.BrandSales{{Brand: "Acme", TotalSales: 300, Percentage: 70.6}},
		Products: []models.ProductSalesData{
			{ProductID: 1, Name: "Sneaker", Category: "Shoes", Brand: "Acme", QuantitySold: 3, Revenue: 300, Profit: 120},
		},
	}

	pdfBytes, err := svc.RenderReportPDF(report)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.True(t, strings.HasPrefix(string(pdfBytes[:5]), "%PDF-"))
}

func TestRenderReportCSV(t *testing.T) {
	svc := NewDocumentService(testStore())
	report := &models.SalesReport{
		Daily:      []models.DailySales{{Date: "2026-03-01", TotalSales: 425, BillCount: 3}},
		Categories: []models.CategorySales{{Category: "Shoes", TotalSales: 300}},
		Brands:     []models.BrandSales{{Brand: "Acme", TotalSales: 300}},
		Products: []models.ProductSalesData{
			{Name: "Sneaker", Category: "Shoes", Brand: "Acme", QuantitySold: 3, BuyingPrice: 60, SellingPrice: 100, Revenue: 300, Profit: 120},
		},
	}

	csvBytes, err := svc.RenderReportCSV(report)
	require.NoError(t, err)

	// Blank lines separate the four sections.
	sections := strings.Split(strings.TrimRight(string(csvBytes), "\n"), "\n\n")
	require.Len(t, sections, 4)

	daily, err := csv.NewReader(strings.NewReader(sections[0])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Total Sales", "Number of Bills"}, daily[0])
	assert.Equal(t, []string{"2026-03-01", "425.00", "3"}, daily[1])

	categories, err := csv.NewReader(strings.NewReader(sections[1])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Category", "Total Sales"}, categories[0])

	brands, err := csv.NewReader(strings.NewReader(sections[2])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand", "Total Sales"}, brands[0])

	products, err := csv.NewReader(strings.NewReader(sections[3])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Product", "Category", "Brand", "Quantity Sold", "Buying Price", "Selling Price", "Revenue", "Profit"}, products[0])
	assert.Equal(t, []string{"Sneaker", "Shoes", "Acme", "3", "60.00", "100.00", "300.00", "120.00"}, products[1])
}

func TestWhatsAppShareLink(t *testing.T) {
	svc := NewDocumentService(testStore())
	bill := testBill()

	link, err := svc.WhatsAppShareLink(bill)
	require.NoError(t, err)
	// Phone is stripped to digits and the message is URL encoded.
	assert.True(t, strings.HasPrefix(link, "https://wa.me/15550100199?text="), link)
	assert.Contains(t, link, "234567") // printed bill number
	assert.NotContains(t, link, " ")
}

func TestWhatsAppShareLinkRequiresPhone(t *testing.T) {
	svc := NewDocumentService(testStore())
	bill := testBill()
	bill.CustomerPhone = nil

	_, err := svc.WhatsAppShareLink(bill)
	assert.ErrorIs(t, err, ErrMissingPhoneNumber)

	bill.CustomerPhone = strPtr("no digits here")
	_, err = svc.WhatsAppShareLink(bill)
	assert.ErrorIs(t, err, ErrMissingPhoneNumber)
}
