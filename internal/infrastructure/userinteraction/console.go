package userinteraction

import (
	"fmt"
	"io"

	"shopping-agent/internal/domain/entity"

	"github.com/fatih/color"
)

// Console renders operation results for a terminal.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = color.Output
	}
	return &Console{out: out}
}

func (c *Console) Greeting() {
	color.New(color.FgMagenta, color.Bold).Fprintln(c.out, "👋 Hello! I'm Alice, your AI shopping assistant!")
	fmt.Fprintln(c.out, "I can search products, compare prices, and even complete purchases for you.")
	fmt.Fprintln(c.out)
}

func (c *Console) Section(title string) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\n━━━ %s ━━━\n", title)
}

func (c *Console) Warn(msg string) {
	color.New(color.FgYellow).Fprintf(c.out, "⚠️  %s\n", msg)
}

func (c *Console) SearchResult(result *entity.SearchResult) {
	if len(result.Products) == 0 {
		color.New(color.FgRed).Fprintln(c.out, "❌ No products found")
		return
	}

	color.New(color.FgGreen).Fprintf(c.out, "\n✅ Found %d products in %.2f seconds:\n",
		len(result.Products), result.SearchTime.Seconds())

	for i, p := range result.Products {
		color.New(color.Bold).Fprintf(c.out, "\n%d. %s\n", i+1, p.Name)
		fmt.Fprintf(c.out, "   Price: $%.2f\n", p.Price)
		if p.Rating != nil {
			fmt.Fprintf(c.out, "   Rating: %.1f/5\n", *p.Rating)
		} else {
			fmt.Fprintln(c.out, "   Rating: N/A/5")
		}
		fmt.Fprintf(c.out, "   In Stock: %s\n", yesNo(p.InStock))
		if p.URL != "" {
			color.New(color.Faint).Fprintf(c.out, "   %s\n", p.URL)
		}
	}
}

func (c *Console) Comparison(productName string, products []entity.Product) {
	if len(products) == 0 {
		color.New(color.FgRed).Fprintf(c.out, "❌ No prices found for '%s'\n", productName)
		return
	}

	color.New(color.FgGreen).Fprintf(c.out, "\n💰 Price comparison for '%s':\n", productName)
	for _, p := range products {
		fmt.Fprintf(c.out, "  %s: $%.2f\n", p.Description, p.Price)
	}
}

func (c *Console) Purchase(result *entity.PurchaseResult) {
	if !result.Success {
		color.New(color.FgRed).Fprintf(c.out, "❌ Purchase failed: %s\n", result.ErrorMessage)
		return
	}

	color.New(color.FgGreen).Fprintf(c.out, "✅ Order placed: %s\n", result.OrderID)
	if result.TotalPaid != nil {
		fmt.Fprintf(c.out, "   Total paid: $%.2f\n", *result.TotalPaid)
	}
	if result.DeliveryDate != "" {
		fmt.Fprintf(c.out, "   Delivery: %s\n", result.DeliveryDate)
	}
}

func (c *Console) Tracking(orderID string, info *entity.TrackingInfo) {
	if info.Error != "" {
		color.New(color.FgRed).Fprintf(c.out, "❌ %s\n", info.Error)
		return
	}

	color.New(color.FgGreen).Fprintf(c.out, "📦 Order %s\n", orderID)
	printField(c.out, "Status", info.Status)
	printField(c.out, "Location", info.Location)
	printField(c.out, "Estimated delivery", info.EstimatedDelivery)
	printField(c.out, "Tracking number", info.TrackingNumber)
}

func (c *Console) Summary(summary entity.ShoppingSummary) {
	color.New(color.FgCyan, color.Bold).Fprintln(c.out, "\n📊 Shopping Summary:")
	fmt.Fprintf(c.out, "  Searches performed: %d\n", summary.SearchesPerformed)
	fmt.Fprintf(c.out, "  Purchases made: %d\n", summary.PurchasesMade)
	fmt.Fprintf(c.out, "  Total spent: $%.2f\n", summary.TotalSpent)
}

func printField(out io.Writer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(out, "   %s: %s\n", name, value)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
