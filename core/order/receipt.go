package order

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Business details printed on every receipt header.
const (
	shopName    = "AapKiDukaan"
	shopStreet  = "M-12, Ana Sagar Link Road"
	shopCity    = "Ajmer"
	shopContact = "Ashish - 9664002789"
	shopEmail   = "cfbakvo@gmail.com"
)

// Receipt renders the order into a fixed-layout A4 PDF: business
// header, shipping block, order summary, line-item table, footer. The
// output is byte-identical across calls for the same order.
func Receipt(ord Order, username string) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(ord.CreatedAt)
	pdf.AddPage()

	header(pdf)
	shipping(pdf, ord, username)
	summary(pdf, ord)
	table(pdf, ord)
	footer(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func header(pdf *gofpdf.Fpdf) {
	pdf.SetTextColor(0x44, 0x44, 0x44)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(50, 70, shopName)

	pdf.SetFont("Helvetica", "", 10)
	right := func(y float64, s string) {
		w := pdf.GetStringWidth(s)
		pdf.Text(545-w, y, s)
	}
	right(60, shopName)
	right(75, shopStreet)
	right(90, shopCity)
	right(110, shopContact)
	right(130, shopEmail)
}

func shipping(pdf *gofpdf.Fpdf, ord Order, username string) {
	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(50, 160, "Shipping Information")

	pdf.SetTextColor(0x88, 0x88, 0x88)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(50, 180, fmt.Sprintf("Username: %s", username))
	pdf.Text(50, 200, fmt.Sprintf("Street: %s", ord.Street))
	pdf.Text(50, 220, fmt.Sprintf("City: %s", ord.City))
	pdf.Text(50, 240, fmt.Sprintf("Phone No: %s", ord.PhoneNo))
	pdf.Text(50, 260, fmt.Sprintf("Pin Code: %s", ord.PinCode))
}

func summary(pdf *gofpdf.Fpdf, ord Order) {
	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(50, 320, "Order Summary")

	pdf.SetTextColor(0x88, 0x88, 0x88)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(240, 320, fmt.Sprintf("Total Amount: Rs %d", ord.TotalAmount))
	pdf.Text(400, 320, fmt.Sprintf("Ordered On: %s", ord.CreatedAt.Format("02/01/06")))
}

func table(pdf *gofpdf.Fpdf, ord Order) {
	const top = 380.0

	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(50, top, "Order Items")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(50, top+30, "Product")
	pdf.Text(200, top+30, "Quantity")
	pdf.Text(300, top+30, "Price")
	pdf.Text(400, top+30, "Sub Total")

	pdf.SetTextColor(0x88, 0x88, 0x88)
	pdf.SetFont("Helvetica", "", 12)

	y := top + 60
	for _, it := range ord.Items {
		pdf.Text(50, y, it.Title)
		pdf.Text(200, y, fmt.Sprintf("%d", it.Qty))
		pdf.Text(300, y, fmt.Sprintf("Rs %d", it.Price/max(it.Qty, 1)))
		pdf.Text(400, y, fmt.Sprintf("Rs %d", it.Price))
		y += 20
	}
}

func footer(pdf *gofpdf.Fpdf) {
	pdf.SetTextColor(0x44, 0x44, 0x44)
	pdf.SetFont("Helvetica", "", 10)
	msg := "Payment is due within 15 days. Thank you for your business."
	w := pdf.GetStringWidth(msg)
	pdf.Text((595-w)/2, 780, msg)
}
