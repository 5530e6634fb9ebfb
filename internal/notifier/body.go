package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/MysteriousLoner/stock-monitoring-cloudflare/internal/models"
)

// BuildAlertBody renders the HTML email body for one location's
// out-of-stock items.
func BuildAlertBody(summary *models.InventorySummary) string {
	var sb strings.Builder

	sb.WriteString("<h2>Out of Stock Alert</h2>")
	sb.WriteString(fmt.Sprintf(
		"<p>%d of %d items at location <strong>%s</strong> are out of stock:</p>",
		summary.ItemsOutOfStock,
		summary.TotalItems,
		html.EscapeString(summary.LocationID),
	))

	sb.WriteString("<ul>")
	for _, name := range summary.OutOfStockNames {
		sb.WriteString("<li>")
		sb.WriteString(html.EscapeString(name))
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")

	sb.WriteString("<p>Please restock these items to avoid missed orders.</p>")

	return sb.String()
}
