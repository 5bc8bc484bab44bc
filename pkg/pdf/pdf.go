// Package pdf renders proposals, booking confirmations and commission invoices.
package pdf

import (
	"fmt"
	"time"

	"venue-crm-backend/pkg/models"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

const dateLayout = "2 Jan 2006"

var (
	titleStyle   = props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left}
	headingStyle = props.Text{Size: 11, Style: fontstyle.Bold, Top: 2}
	labelStyle   = props.Text{Size: 9, Style: fontstyle.Bold}
	bodyStyle    = props.Text{Size: 9}
	amountStyle  = props.Text{Size: 9, Align: align.Right}
	totalStyle   = props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
)

// Issuer is printed in the document header.
type Issuer struct {
	Name    string
	Address string
	Email   string
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	return maroto.New(cfg)
}

func header(m core.Maroto, issuer Issuer, title, reference string) {
	m.AddRow(10,
		text.NewCol(8, title, titleStyle),
		text.NewCol(4, reference, props.Text{Size: 10, Align: align.Right, Top: 3}),
	)
	if issuer.Name != "" {
		m.AddRow(5, text.NewCol(12, issuer.Name, labelStyle))
	}
	if issuer.Address != "" {
		m.AddRow(5, text.NewCol(12, issuer.Address, bodyStyle))
	}
	if issuer.Email != "" {
		m.AddRow(5, text.NewCol(12, issuer.Email, bodyStyle))
	}
	m.AddRow(4, line.NewCol(12))
}

func field(m core.Maroto, label, value string) {
	if value == "" {
		return
	}
	m.AddRow(5,
		text.NewCol(4, label, labelStyle),
		text.NewCol(8, value, bodyStyle),
	)
}

func render(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RenderProposal lists every venue option with its charge lines and totals.
func RenderProposal(issuer Issuer, p *models.Proposal) ([]byte, error) {
	m := newDocument()
	header(m, issuer, "Venue Proposal", p.Title)

	if p.Client != nil {
		field(m, "Client", p.Client.Name)
		field(m, "Company", str(p.Client.Company))
		field(m, "Contact", str(p.Client.ContactName))
	}
	field(m, "Event date", date(p.EventDate))
	if p.GuestCount != nil {
		field(m, "Guests", fmt.Sprintf("%d", *p.GuestCount))
	}

	for i, v := range p.Venues {
		name := v.VenueID
		location := ""
		if v.Venue != nil {
			name = v.Venue.Name
			location = str(v.Venue.Location)
		}
		m.AddRow(10, text.NewCol(12, fmt.Sprintf("Option %d: %s", i+1, name), headingStyle))
		if location != "" {
			m.AddRow(5, text.NewCol(12, location, bodyStyle))
		}
		m.AddRow(6,
			text.NewCol(6, "Description", labelStyle),
			text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, "Unit price", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
			text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		)
		for _, l := range v.ChargeLines {
			m.AddRow(5,
				text.NewCol(6, l.Description, bodyStyle),
				text.NewCol(2, l.Quantity.String(), amountStyle),
				text.NewCol(2, money(l.UnitPrice), amountStyle),
				text.NewCol(2, money(l.LineTotal), amountStyle),
			)
		}
		m.AddRow(7,
			text.NewCol(10, "Option total", totalStyle),
			text.NewCol(2, money(v.Subtotal), totalStyle),
		)
		if v.Notes != nil {
			m.AddRow(6, text.NewCol(12, *v.Notes, props.Text{Size: 8, Style: fontstyle.Italic}))
		}
	}

	if p.Notes != nil {
		m.AddRow(4, line.NewCol(12))
		m.AddRow(10, text.NewCol(12, *p.Notes, bodyStyle))
	}
	return render(m)
}

// RenderBookingConfirmation is the confirmation sent once a venue is booked.
func RenderBookingConfirmation(issuer Issuer, b *models.Booking) ([]byte, error) {
	m := newDocument()
	header(m, issuer, "Booking Confirmation", string(b.Status))

	if b.Client != nil {
		field(m, "Client", b.Client.Name)
		field(m, "Company", str(b.Client.Company))
	}
	if b.Venue != nil {
		field(m, "Venue", b.Venue.Name)
		field(m, "Location", str(b.Venue.Location))
	}
	if b.Proposal != nil {
		field(m, "Proposal", b.Proposal.Title)
	}
	field(m, "Event date", date(b.EventDate))
	field(m, "Option expires", date(b.OptionExpiry))
	field(m, "Confirmed", date(b.ConfirmedAt))
	m.AddRow(4, line.NewCol(12))
	m.AddRow(7,
		text.NewCol(10, "Total value", totalStyle),
		text.NewCol(2, money(b.TotalValue), totalStyle),
	)
	if b.Notes != nil {
		m.AddRow(10, text.NewCol(12, *b.Notes, bodyStyle))
	}
	return render(m)
}

// RenderClaimInvoice is the commission invoice addressed to the venue.
func RenderClaimInvoice(issuer Issuer, c *models.CommissionClaim) ([]byte, error) {
	m := newDocument()
	header(m, issuer, "Commission Invoice", str(c.InvoiceNumber))

	if c.Booking != nil {
		if c.Booking.Venue != nil {
			field(m, "Bill to", c.Booking.Venue.Name)
			field(m, "Contact", str(c.Booking.Venue.ContactName))
			field(m, "Email", str(c.Booking.Venue.Email))
		}
		if c.Booking.Client != nil {
			field(m, "Booking for", c.Booking.Client.Name)
		}
		field(m, "Event date", date(c.Booking.EventDate))
		field(m, "Booking value", money(c.Booking.TotalValue))
	}
	field(m, "Issued", date(c.SentDate))
	field(m, "Due", date(c.DueDate))
	field(m, "Paid", date(c.PaidDate))
	m.AddRow(4, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(10, "Commission due", totalStyle),
		text.NewCol(2, money(c.Amount), totalStyle),
	)
	if c.Notes != nil {
		m.AddRow(10, text.NewCol(12, *c.Notes, bodyStyle))
	}
	return render(m)
}
