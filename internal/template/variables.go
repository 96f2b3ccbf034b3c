package template

import (
	"fmt"
	"time"
)

// BaseVariables are the merge fields available to every template.
// Custom entries are a caller-supplied escape hatch and take precedence
// over the named fields when keys collide.
type BaseVariables struct {
	ClientName    string
	MatterTitle   string
	MatterNumber  string
	FirmName      string
	FirmAddress   string
	FirmPhone     string
	FirmEmail     string
	AttorneyName  string
	AttorneyEmail string
	Date          string
	Time          string
	Custom        map[string]string
}

// NewBaseVariables stamps the current date and time onto a variable set.
func NewBaseVariables(now time.Time) BaseVariables {
	return BaseVariables{
		Date: now.Format("January 2, 2006"),
		Time: now.Format("3:04 PM"),
	}
}

// Map flattens the variable set into renderer input.
func (v BaseVariables) Map() map[string]string {
	m := map[string]string{
		"client_name":    v.ClientName,
		"matter_title":   v.MatterTitle,
		"matter_number":  v.MatterNumber,
		"firm_name":      v.FirmName,
		"firm_address":   v.FirmAddress,
		"firm_phone":     v.FirmPhone,
		"firm_email":     v.FirmEmail,
		"attorney_name":  v.AttorneyName,
		"attorney_email": v.AttorneyEmail,
		"date":           v.Date,
		"time":           v.Time,
	}
	for k, val := range v.Custom {
		m[k] = val
	}
	return m
}

// InvoiceVariables are the merge fields of an invoice email.
type InvoiceVariables struct {
	Base          BaseVariables
	InvoiceNumber string
	AmountDue     float64
	DueDate       string
	PDFURL        string
}

// Map flattens the variable set into renderer input. Custom overrides
// from the base set win over the invoice fields as well.
func (v InvoiceVariables) Map() map[string]string {
	m := v.Base.Map()
	setUnlessCustom(m, v.Base.Custom, "invoice_number", v.InvoiceNumber)
	setUnlessCustom(m, v.Base.Custom, "amount_due", fmt.Sprintf("%.2f", v.AmountDue))
	setUnlessCustom(m, v.Base.Custom, "due_date", v.DueDate)
	setUnlessCustom(m, v.Base.Custom, "invoice_pdf_url", v.PDFURL)
	return m
}

// CommunicationVariables are the merge fields of a client communication.
type CommunicationVariables struct {
	Base    BaseVariables
	Message string
}

// Map flattens the variable set into renderer input.
func (v CommunicationVariables) Map() map[string]string {
	m := v.Base.Map()
	setUnlessCustom(m, v.Base.Custom, "message", v.Message)
	return m
}

func setUnlessCustom(m, custom map[string]string, key, value string) {
	if _, ok := custom[key]; ok {
		return
	}
	m[key] = value
}
