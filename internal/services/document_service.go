package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"retail_pos_backend/internal/models"
)

// Custom Errors
var (
	ErrMissingPhoneNumber = errors.New("customer phone number is required for sharing")
)

// StoreInfo is the letterhead printed on receipts and report exports.
type StoreInfo struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	Phone        string
}

// FormatBillNumber renders the printed bill number: the last six decimal
// digits of the bill ID, zero padded. Collisions past a million bills are
// accepted; the printed number is a customer-facing label, the ID stays the key.
func FormatBillNumber(billID int64) string {
	return fmt.Sprintf("%06d", billID%1000000)
}

// --- DocumentService Interface ---
type DocumentService interface {
	RenderReceiptPDF(bill *models.Bill) ([]byte, error)
	RenderReportPDF(report *models.SalesReport) ([]byte, error)
	RenderReportCSV(report *models.SalesReport) ([]byte, error)
	WhatsAppShareLink(bill *models.Bill) (string, error)
}

type documentService struct {
	store StoreInfo
}

// NewDocumentService creates a new instance of DocumentService.
func NewDocumentService(store StoreInfo) DocumentService {
	return &documentService{store: store}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderReceiptPDF produces the thermal-style receipt for a bill: store
// letterhead, bill metadata, one row per item and the totals block.
func (s *documentService) RenderReceiptPDF(bill *models.Bill) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Letterhead
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, s.store.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if s.store.AddressLine1 != "" {
		pdf.CellFormat(0, 5, s.store.AddressLine1, "", 1, "C", false, 0, "")
	}
	if s.store.AddressLine2 != "" {
		pdf.CellFormat(0, 5, s.store.AddressLine2, "", 1, "C", false, 0, "")
	}
	if s.store.Phone != "" {
		pdf.CellFormat(0, 5, "Phone: "+s.store.Phone, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Bill metadata
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill No: "+FormatBillNumber(bill.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, "Date: "+bill.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Time: "+bill.CreatedAt.Format("3:04 PM"), "", 1, "L", false, 0, "")

	customerName := "Walk-in Customer"
	if bill.CustomerName != nil && *bill.CustomerName != "" {
		customerName = *bill.CustomerName
	}
	customerPhone := "N/A"
	if bill.CustomerPhone != nil && *bill.CustomerPhone != "" {
		customerPhone = *bill.CustomerPhone
	}
	pdf.CellFormat(0, 5, "Customer: "+customerName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Phone: "+customerPhone, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Payment: "+bill.PaymentMethod, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Item table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(90, 7, "Particulars", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "MRP", "1", 0, "R", true, 0, "")
	pdf.CellFormat(45, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for i := range bill.Items {
		item := &bill.Items[i]
		name := item.ProductName
		if item.VariantLabel != nil && *item.VariantLabel != "" {
			name = fmt.Sprintf("%s (%s)", name, *item.VariantLabel)
		}
		pdf.CellFormat(90, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, money(item.ProductPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, money(item.Total), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals block
	writeTotal := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(145, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, value, "", 1, "R", false, 0, "")
	}
	writeTotal("MRP Total:", money(bill.Subtotal), false)
	if bill.DiscountAmount > 0 {
		writeTotal("Discount:", "-"+money(bill.DiscountAmount), false)
	}
	if bill.Tax > 0 {
		writeTotal("Tax:", money(bill.Tax), false)
	}
	writeTotal("Total:", money(bill.Total), true)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 5, "Thank you for shopping with us!", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Visit again.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderReportPDF lays out the four report sections in order: daily sales,
// category sales, brand sales and per-product performance.
func (s *documentService) RenderReportPDF(report *models.SalesReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, s.store.Name+" - Sales Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	period := fmt.Sprintf("Period: %s to %s",
		report.From.Format("02/01/2006"), report.To.Format("02/01/2006"))
	pdf.CellFormat(0, 5, period, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, "Grand Total: "+money(report.GrandTotal), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	sectionHeader := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	}
	tableHeader := func(widths []float64, labels []string) {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(240, 240, 240)
		for i, label := range labels {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, label, "1", 0, align, true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}

	sectionHeader("Daily Sales")
	tableHeader([]float64{70, 60, 60}, []string{"Date", "Total Sales", "Number of Bills"})
	for _, day := range report.Daily {
		pdf.CellFormat(70, 6, day.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, money(day.TotalSales), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, strconv.Itoa(day.BillCount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	sectionHeader("Category Sales")
	tableHeader([]float64{90, 50, 50}, []string{"Category", "Total Sales", "Share %"})
	for _, cs := range report.Categories {
		pdf.CellFormat(90, 6, cs.Category, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money(cs.TotalSales), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, money(cs.Percentage), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	sectionHeader("Brand Sales")
	tableHeader([]float64{90, 50, 50}, []string{"Brand", "Total Sales", "Share %"})
	for _, bs := range report.Brands {
		pdf.CellFormat(90, 6, bs.Brand, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, money(bs.TotalSales), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, money(bs.Percentage), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	sectionHeader("Product Performance")
	tableHeader([]float64{60, 35, 25, 35, 35}, []string{"Product", "Category", "Qty", "Revenue", "Profit"})
	for _, pd := range report.Products {
		pdf.CellFormat(60, 6, pd.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, pd.Category, "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, strconv.Itoa(pd.QuantitySold), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, money(pd.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, money(pd.Profit), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderReportCSV writes the same four sections as the PDF, separated by blank
// lines, each with its own header row.
func (s *documentService) RenderReportCSV(report *models.SalesReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(record []string) error {
		return w.Write(record)
	}

	if err := write([]string{"Date", "Total Sales", "Number of Bills"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	for _, day := range report.Daily {
		if err := write([]string{day.Date, money(day.TotalSales), strconv.Itoa(day.BillCount)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV: %w", err)
		}
	}
	write([]string{})

	write([]string{"Category", "Total Sales"})
	for _, cs := range report.Categories {
		write([]string{cs.Category, money(cs.TotalSales)})
	}
	write([]string{})

	write([]string{"Brand", "Total Sales"})
	for _, bs := range report.Brands {
		write([]string{bs.Brand, money(bs.TotalSales)})
	}
	write([]string{})

	write([]string{"Product", "Category", "Brand", "Quantity Sold", "Buying Price", "Selling Price", "Revenue", "Profit"})
	for _, pd := range report.Products {
		write([]string{
			pd.Name, pd.Category, pd.Brand,
			strconv.Itoa(pd.QuantitySold),
			money(pd.BuyingPrice), money(pd.SellingPrice),
			money(pd.Revenue), money(pd.Profit),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// WhatsAppShareLink builds a wa.me URL that opens a chat with the bill's
// customer, prefilled with a short receipt summary.
func (s *documentService) WhatsAppShareLink(bill *models.Bill) (string, error) {
	if bill.CustomerPhone == nil || *bill.CustomerPhone == "" {
		return "", ErrMissingPhoneNumber
	}

	phone := ""
	for _, r := range *bill.CustomerPhone {
		if r >= '0' && r <= '9' {
			phone += string(r)
		}
	}
	if phone == "" {
		return "", fmt.Errorf("%w: '%s' contains no digits", ErrMissingPhoneNumber, *bill.CustomerPhone)
	}

	message := fmt.Sprintf("Thank you for shopping at %s! Bill No: %s, Total: %s. We look forward to seeing you again.",
		s.store.Name, FormatBillNumber(bill.ID), money(bill.Total))

	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(message), nil
}
