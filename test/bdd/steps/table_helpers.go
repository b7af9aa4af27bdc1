package steps

import (
	"github.com/cucumber/godog"
	"github.com/cucumber/messages/go/v21"
)

// cellValue reads one cell from a table row by column name, using the first
// row as the header. Missing columns and short rows read as "".
func cellValue(table *godog.Table, row *messages.PickleTableRow, columnName string) string {
	if len(table.Rows) == 0 {
		return ""
	}
	for i, header := range table.Rows[0].Cells {
		if header.Value != columnName {
			continue
		}
		if i < len(row.Cells) {
			return row.Cells[i].Value
		}
		return ""
	}
	return ""
}
