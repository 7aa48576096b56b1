package reporting

import (
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"pharmacy_backend/internal/models"
	"pharmacy_backend/pkg/utils"
)

// CSVRow is one transaction flattened for spreadsheet export.
type CSVRow struct {
	TransactionID string `csv:"transaction_id"`
	Date          string `csv:"date"`
	Customer      string `csv:"customer"`
	Cashier       string `csv:"cashier"`
	PaymentMethod string `csv:"payment_method"`
	Status        string `csv:"status"`
	Items         int    `csv:"items"`
	Products      string `csv:"products"`
	TotalAmount   string `csv:"total_amount"`
}

// Rows flattens txns for export.
func Rows(txns []models.Transaction) []*CSVRow {
	rows := make([]*CSVRow, 0, len(txns))
	for _, t := range txns {
		names := make([]string, 0, len(t.Items))
		for _, it := range t.Items {
			name := it.ProductName
			if name == "" {
				name = "#" + utils.Int64ToStr(it.ProductID)
			}
			names = append(names, name+" x"+utils.Int64ToStr(int64(it.Quantity)))
		}
		rows = append(rows, &CSVRow{
			TransactionID: t.TransactionID,
			Date:          t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			Customer:      utils.DerefString(t.CustomerName),
			Cashier:       utils.DerefString(t.CashierName),
			PaymentMethod: utils.DerefString(t.PaymentMethod),
			Status:        string(t.Status),
			Items:         t.ItemCount(),
			Products:      strings.Join(names, "; "),
			TotalAmount:   t.TotalAmount.StringFixed(2),
		})
	}
	return rows
}

// WriteCSV writes txns with a header row.
func WriteCSV(w io.Writer, txns []models.Transaction) error {
	return gocsv.Marshal(Rows(txns), w)
}
