// internal/workers/report.go
package workers

import (
	"fmt"
	"sort"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	salesHeaders   = []string{"Sale ID", "Time", "Payment Method", "Items", "Total", "Cash Received", "Change"}
	itemHeaders    = []string{"Sale ID", "Code", "Product", "Quantity", "Unit Price", "Subtotal"}
	summaryHeaders = []string{"Payment Method", "Sales", "Total"}
)

// BuildDailyReport renders one day of sales as a workbook with Summary,
// Sales and Items sheets. Amounts are whole pesos.
func BuildDailyReport(day string, sales []domain.Sale) (*xlsx.File, error) {
	file := xlsx.NewFile()

	summary, err := addSheet(file, "Summary", summaryHeaders)
	if err != nil {
		return nil, err
	}
	salesSheet, err := addSheet(file, "Sales", salesHeaders)
	if err != nil {
		return nil, err
	}
	items, err := addSheet(file, "Items", itemHeaders)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count int
		total int64
	}
	byMethod := make(map[domain.PaymentMethod]*bucket)
	var grand bucket

	for _, sale := range sales {
		row := salesSheet.AddRow()
		row.AddCell().SetString(sale.ID.String())
		row.AddCell().SetString(sale.CreatedAt.Format("15:04:05"))
		row.AddCell().SetString(string(sale.PaymentMethod))
		row.AddCell().SetInt(sale.ItemCount())
		row.AddCell().SetInt64(sale.Total)
		row.AddCell().SetInt64(sale.CashReceived)
		row.AddCell().SetInt64(sale.ChangeDue)

		for _, it := range sale.Items {
			r := items.AddRow()
			r.AddCell().SetString(sale.ID.String())
			r.AddCell().SetString(it.ProductCode)
			r.AddCell().SetString(it.ProductName)
			r.AddCell().SetInt(it.Quantity)
			r.AddCell().SetInt64(it.UnitPrice)
			r.AddCell().SetInt64(it.Subtotal)
		}

		b, ok := byMethod[sale.PaymentMethod]
		if !ok {
			b = &bucket{}
			byMethod[sale.PaymentMethod] = b
		}
		b.count++
		b.total += sale.Total
		grand.count++
		grand.total += sale.Total
	}

	methods := make([]string, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)

	for _, m := range methods {
		b := byMethod[domain.PaymentMethod(m)]
		row := summary.AddRow()
		row.AddCell().SetString(m)
		row.AddCell().SetInt(b.count)
		row.AddCell().SetInt64(b.total)
	}
	totalRow := summary.AddRow()
	label := totalRow.AddCell()
	label.SetString("Total " + day)
	label.GetStyle().Font.Bold = true
	totalRow.AddCell().SetInt(grand.count)
	totalRow.AddCell().SetInt64(grand.total)

	return file, nil
}

func addSheet(file *xlsx.File, name string, headers []string) (*xlsx.Sheet, error) {
	sheet, err := file.AddSheet(name)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s sheet: %w", name, err)
	}

	header := sheet.AddRow()
	for _, h := range headers {
		cell := header.AddCell()
		cell.Value = h
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 18)
	}
	return sheet, nil
}
