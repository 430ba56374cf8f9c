package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "notify.generic.subject", "Notification")
	message.SetString(lang, "notify.generic.body", "You have a new notification.")
	message.SetString(lang, "notify.invite_sent.subject", "Invitation to join %s")
	message.SetString(lang, "notify.invite_sent.body", "You have been invited to join %s on Talio. Use the link in your email to accept.")
	message.SetString(lang, "notify.leave_approved.subject", "Time off approved")
	message.SetString(lang, "notify.leave_approved.body", "The request by %s for %d day(s) has been approved.")
	message.SetString(lang, "notify.status_changed.subject", "Employee status updated")
	message.SetString(lang, "notify.status_changed.body", "%s is now %s.")
	message.SetString(lang, "notify.evaluation_submitted.subject", "Evaluation submitted")
	message.SetString(lang, "notify.evaluation_submitted.body", "The evaluation of %s for %s has been submitted.")
	message.SetString(lang, "notify.compliance_overdue.subject", "Compliance item overdue")
	message.SetString(lang, "notify.compliance_overdue.body", "The item \"%s\" is past its due date.")
}
