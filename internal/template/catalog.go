package template

import "github.com/praxislegal/praxis/internal/domain"

// Default holds an in-code fallback template used when no stored template
// matches a request.
type Default struct {
	Subject string
	HTML    string
}

const baseFooter = `
    <div style="margin-top:24px;padding-top:16px;border-top:1px solid #e2e8f0;color:#718096;font-size:12px;">
      <p>{{firm_name}}{{#firm_address}} &middot; {{firm_address}}{{/firm_address}}{{#firm_phone}} &middot; {{firm_phone}}{{/firm_phone}}</p>
      <p>This message was sent by {{attorney_name}} on {{date}}.</p>
    </div>`

var communicationDefaults = map[domain.CommunicationType]Default{
	domain.CommunicationStatusUpdate: {
		Subject: "Case Status Update{{#matter_title}}: {{matter_title}}{{/matter_title}}",
		HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#2b6cb0;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">Case Status Update</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      {{#matter_title}}<p>This update concerns your matter <strong>{{matter_title}}</strong>.</p>{{/matter_title}}
      {{#matter_number}}<p>Matter number: {{matter_number}}</p>{{/matter_number}}
      <p>{{message}}</p>
      <p>Please contact our office with any questions.</p>
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
	},
	domain.CommunicationMeetingConfirmation: {
		Subject: "Meeting Confirmation - {{firm_name}}",
		HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#2f855a;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">Meeting Confirmation</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      <p>This confirms your upcoming meeting with {{attorney_name}}.</p>
      {{#meeting_date}}<p><strong>Date:</strong> {{meeting_date}}</p>{{/meeting_date}}
      {{#meeting_time}}<p><strong>Time:</strong> {{meeting_time}}</p>{{/meeting_time}}
      {{#meeting_location}}<p><strong>Location:</strong> {{meeting_location}}</p>{{/meeting_location}}
      <p>{{message}}</p>
      <p>If you need to reschedule, please reply to this email or call our office.</p>
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
	},
	domain.CommunicationDocumentRequest: {
		Subject: "Document Request{{#matter_title}}: {{matter_title}}{{/matter_title}}",
		HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#c05621;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">Document Request</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      <p>To continue work on your matter{{#matter_title}} <strong>{{matter_title}}</strong>{{/matter_title}}, we need the following from you:</p>
      <p>{{message}}</p>
      {{#deadline}}<p><strong>Please provide these documents by {{deadline}}.</strong></p>{{/deadline}}
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
	},
	domain.CommunicationGeneral: {
		Subject: "Message from {{attorney_name}}",
		HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#4a5568;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">{{firm_name}}</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      <p>{{message}}</p>
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
	},
	domain.CommunicationBilling: {
		Subject: "Billing Update - {{firm_name}}",
		HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#6b46c1;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">Billing Update</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      <p>{{message}}</p>
      {{#amount_due}}<p><strong>Current balance:</strong> ${{amount_due}}</p>{{/amount_due}}
      <p>Please contact our billing department with any questions.</p>
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
	},
}

var invoiceDefault = Default{
	Subject: "Invoice {{invoice_number}} from {{firm_name}}",
	HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#1a365d;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">{{firm_name}}</h2>
      <p style="margin:4px 0 0;">Invoice {{invoice_number}}</p>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>Dear {{client_name}},</p>
      <p>Please find below the details of your invoice{{#matter_title}} for <strong>{{matter_title}}</strong>{{/matter_title}}.</p>
      <div style="background:#f7fafc;border:1px solid #e2e8f0;padding:16px;margin:16px 0;">
        <p style="margin:0;"><strong>Invoice number:</strong> {{invoice_number}}</p>
        <p style="margin:8px 0 0;"><strong>Amount due:</strong> ${{amount_due}}</p>
        <p style="margin:8px 0 0;"><strong>Due date:</strong> {{due_date}}</p>
      </div>
      {{#invoice_pdf_url}}<p><a href="{{invoice_pdf_url}}" style="color:#2b6cb0;">Download invoice (PDF)</a></p>{{/invoice_pdf_url}}
      <p>Thank you for your business.</p>
      <p>Sincerely,<br>{{attorney_name}}</p>` + baseFooter + `
    </div>
  </div>`,
}

var notificationDefault = Default{
	Subject: "Notification from {{firm_name}}",
	HTML: `<div style="font-family:Georgia,serif;max-width:600px;margin:0 auto;">
    <div style="background:#4a5568;color:#ffffff;padding:20px 24px;">
      <h2 style="margin:0;">{{firm_name}}</h2>
    </div>
    <div style="padding:24px;color:#2d3748;">
      <p>{{message}}</p>` + baseFooter + `
    </div>
  </div>`,
}

// CommunicationDefault returns the built-in template for a communication
// type, falling back to the general template for unknown values.
func CommunicationDefault(t domain.CommunicationType) Default {
	if d, ok := communicationDefaults[t]; ok {
		return d
	}
	return communicationDefaults[domain.CommunicationGeneral]
}

// InvoiceDefault returns the built-in invoice template.
func InvoiceDefault() Default {
	return invoiceDefault
}

// NotificationDefault returns the built-in generic notification template.
func NotificationDefault() Default {
	return notificationDefault
}
