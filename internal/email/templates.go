package email

// notificationTemplates holds every notification body as a named
// sub-template so the service stays deployable as a single binary.
const notificationTemplates = `
{{define "application_reviewed"}}
<html>
<body style="font-family: sans-serif; color: #1f2933;">
  <p>Hi {{.FullName}},</p>
  {{if .Approved}}
  <p>Good news: your application to become an event admin has been approved.
  You can now create and manage events.</p>
  {{else}}
  <p>Thank you for applying to become an event admin. After review, your
  application was not approved this time. You are welcome to apply again
  later.</p>
  {{end}}
  <p style="color: #6b7280; font-size: 12px;">&copy; {{.CurrentYear}} EventHall</p>
</body>
</html>
{{end}}

{{define "event_moderated"}}
<html>
<body style="font-family: sans-serif; color: #1f2933;">
  <p>Hi {{.FullName}},</p>
  {{if .Published}}
  <p>Your event <strong>{{.EventTitle}}</strong> has been approved and is now
  visible to everyone.</p>
  {{else}}
  <p>Your event <strong>{{.EventTitle}}</strong> was not approved.</p>
  {{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
  <p>You can edit the event and resubmit it for review.</p>
  {{end}}
  <p style="color: #6b7280; font-size: 12px;">&copy; {{.CurrentYear}} EventHall</p>
</body>
</html>
{{end}}
`
