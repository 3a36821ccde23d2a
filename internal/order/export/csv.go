// Package export renders operator-facing order reports. The CSV dialect is
// fixed by the downstream spreadsheet tooling: semicolon delimiter, UTF-8 BOM
// and every field double-quoted, totals with a comma decimal separator.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/abarbosa/loja-virtual/internal/order/domain"
)

const bom = "\xEF\xBB\xBF"

var header = []string{"Pedido", "Cliente", "Telefone", "Status", "Total", "Data", "Rastreio"}

func WriteOrdersCSV(w io.Writer, orders []*domain.Order) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	if err := writeRecord(w, header); err != nil {
		return err
	}

	for _, order := range orders {
		record := []string{
			order.ID.String(),
			order.CustomerName,
			order.CustomerPhone,
			order.Status.Label(),
			formatDecimal(order.Total),
			order.CreatedAt.Format("02/01/2006 15:04"),
			order.TrackingCode,
		}
		if err := writeRecord(w, record); err != nil {
			return err
		}
	}
	return nil
}

// writeRecord quotes every field unconditionally; encoding/csv only quotes
// when forced, which the downstream importer does not accept.
func writeRecord(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv record: %w", err)
	}
	return nil
}

func formatDecimal(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}
