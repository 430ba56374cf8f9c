package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.French

	message.SetString(lang, "notify.generic.subject", "Notification")
	message.SetString(lang, "notify.generic.body", "Vous avez une nouvelle notification.")
	message.SetString(lang, "notify.invite_sent.subject", "Invitation à rejoindre %s")
	message.SetString(lang, "notify.invite_sent.body", "Vous avez été invité à rejoindre %s sur Talio. Utilisez le lien reçu par courriel pour accepter.")
	message.SetString(lang, "notify.leave_approved.subject", "Congé approuvé")
	message.SetString(lang, "notify.leave_approved.body", "La demande de %s pour %d jour(s) a été approuvée.")
	message.SetString(lang, "notify.status_changed.subject", "Statut d'employé mis à jour")
	message.SetString(lang, "notify.status_changed.body", "%s est désormais %s.")
	message.SetString(lang, "notify.evaluation_submitted.subject", "Évaluation soumise")
	message.SetString(lang, "notify.evaluation_submitted.body", "L'évaluation de %s pour %s a été soumise.")
	message.SetString(lang, "notify.compliance_overdue.subject", "Obligation en retard")
	message.SetString(lang, "notify.compliance_overdue.body", "L'élément « %s » a dépassé son échéance.")
}
