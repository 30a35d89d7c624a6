package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/repository"
	"cra-manager/internal/service"
	"cra-manager/internal/workflow"
)

const (
	callbackConfirmDay = "confirm_day:"
	callbackCancelDay  = "cancel_day"
)

const helpText = `📋 Commandes disponibles :

🔗 Compte :
/start - Afficher l'identifiant du chat à lier dans l'application
/whoami - Mon profil

🗓 CRA :
/mycra [MM.AAAA] - Mon CRA du mois (mois courant par défaut)
/day JJ.MM.AAAA 1|0.5|off|clear - Saisir une journée
    Exemple : /day 10.03.2025 1
/fill [MM.AAAA] - Remplir tous les jours ouvrés
/submit [MM.AAAA] - Soumettre le CRA
/sign [MM.AAAA] Nom - Signer le CRA

🏖 Absences :
/absence JJ.MM.AAAA JJ.MM.AAAA type [motif] - Demander une absence
    Exemple : /absence 01.07.2025 14.07.2025 Vacances
/myabsences - Mes demandes d'absence

🛠 Managers :
/remind - Relancer les CRA du mois courant`

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()
	args := strings.TrimSpace(message.CommandArguments())
	chatID := message.Chat.ID

	switch command {
	case "start":
		h.sendStartMessage(ctx, chatID)
		return
	case "help":
		h.reply(chatID, helpText)
		return
	}

	profile, err := h.profiles.GetByChatID(ctx, chatID)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("❌ Ce chat n'est lié à aucun profil.\nIdentifiant du chat : %d", chatID))
		return
	}
	actor := profile.Actor()

	switch command {
	case "whoami":
		h.showProfile(ctx, chatID, profile)
	case "mycra":
		h.showMyCRA(ctx, chatID, actor, args)
	case "day":
		h.setDay(ctx, chatID, actor, args)
	case "fill":
		h.fillMonth(ctx, chatID, actor, args)
	case "submit":
		h.submitMonth(ctx, chatID, actor, args)
	case "sign":
		h.signMonth(ctx, chatID, actor, args)
	case "absence":
		h.requestAbsence(ctx, chatID, actor, args)
	case "myabsences":
		h.showMyAbsences(ctx, chatID, actor)
	case "remind":
		h.sendReminders(ctx, chatID, actor)
	default:
		h.reply(chatID, "❌ Commande inconnue. Utilisez /help pour la liste des commandes.")
	}
}

func (h *Handler) sendStartMessage(ctx context.Context, chatID int64) {
	if profile, err := h.profiles.GetByChatID(ctx, chatID); err == nil {
		h.reply(chatID, fmt.Sprintf("👋 Bonjour %s !\n\n%s", profile.Name, helpText))
		return
	}
	h.reply(chatID, fmt.Sprintf(
		"👋 Bienvenue !\n\nPour recevoir les relances CRA, liez ce chat à votre profil dans l'application.\nIdentifiant du chat : %d", chatID))
}

func (h *Handler) showProfile(ctx context.Context, chatID int64, profile *models.Profile) {
	clientName := ""
	if profile.ClientID != nil {
		clients, err := h.profiles.Clients(ctx)
		if err != nil {
			h.logger.WithError(err).Warn("Failed to load clients")
		}
		for _, c := range clients {
			if c.ID == *profile.ClientID {
				clientName = c.Name
			}
		}
	}
	h.reply(chatID, service.FormatProfile(profile, clientName))
}

func (h *Handler) showMyCRA(ctx context.Context, chatID int64, actor models.Actor, args string) {
	month, err := parseMonthArg(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}

	view, err := h.cra.MonthView(ctx, actor, actor.ID, month)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, formatMonthView(view, month))
}

func (h *Handler) setDay(ctx context.Context, chatID int64, actor models.Actor, args string) {
	date, status, err := parseDayArgs(args)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nFormat : /day JJ.MM.AAAA 1|0.5|off|clear")
		return
	}
	h.applyDay(ctx, chatID, actor, date, status, false)
}

func (h *Handler) confirmHolidayDay(ctx context.Context, chatID int64, payload string) {
	profile, err := h.profiles.GetByChatID(ctx, chatID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 {
		return
	}
	date, err := models.ParseDate(parts[0])
	if err != nil {
		return
	}
	status, err := models.ParseDayStatus(parts[1])
	if err != nil {
		return
	}
	h.applyDay(ctx, chatID, profile.Actor(), date, &status, true)
}

func (h *Handler) applyDay(ctx context.Context, chatID int64, actor models.Actor, date time.Time, status *models.DayStatus, confirm bool) {
	month := models.MonthStart(date)
	updated, err := h.cra.SetDay(ctx, actor, month, date, status, confirm)
	if models.ErrorCode(err) == models.ErrorCodeConfirmHoliday {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚠️ Le %s est un jour férié. Confirmer la saisie ?", date.Format("02.01.2006")))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Confirmer", callbackConfirmDay+models.DateKey(date)+":"+string(*status)),
				tgbotapi.NewInlineKeyboardButtonData("❌ Annuler", callbackCancelDay),
			),
		)
		h.send(msg)
		return
	}
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	h.reply(chatID, fmt.Sprintf("✅ %s : %s\nTotal du mois : %s jour(s)",
		date.Format("02.01.2006"), dayStatusLabel(status), formatDays(updated.TotalDays())))
}

func (h *Handler) fillMonth(ctx context.Context, chatID int64, actor models.Actor, args string) {
	month, err := parseMonthArg(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	updated, err := h.cra.Fill(ctx, actor, month)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Jours ouvrés de %s remplis. Total : %s jour(s)",
		report.MonthLabel(month), formatDays(updated.TotalDays())))
}

func (h *Handler) submitMonth(ctx context.Context, chatID int64, actor models.Actor, args string) {
	month, err := parseMonthArg(args, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	h.transitionMonth(ctx, chatID, actor, month, workflow.ActionSubmit, workflow.TransitionInput{})
}

func (h *Handler) signMonth(ctx context.Context, chatID int64, actor models.Actor, args string) {
	monthArg, signature := splitMonthPrefix(args)
	month, err := parseMonthArg(monthArg, h.now())
	if err != nil {
		h.reply(chatID, "❌ "+err.Error())
		return
	}
	h.transitionMonth(ctx, chatID, actor, month, workflow.ActionSign, workflow.TransitionInput{SignatureText: signature})
}

func (h *Handler) transitionMonth(ctx context.Context, chatID int64, actor models.Actor, month time.Time, action workflow.Action, in workflow.TransitionInput) {
	view, err := h.cra.MonthView(ctx, actor, actor.ID, month)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if view.Report == nil {
		h.reply(chatID, fmt.Sprintf("❌ Aucun CRA pour %s.", report.MonthLabel(month)))
		return
	}

	updated, err := h.cra.Transition(ctx, actor, view.Report.ID, action, in)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ CRA de %s : %s", report.MonthLabel(month), updated.Status.Label()))
}

func (h *Handler) requestAbsence(ctx context.Context, chatID int64, actor models.Actor, args string) {
	draft, err := parseAbsenceArgs(args)
	if err != nil {
		h.reply(chatID, "❌ "+err.Error()+"\nFormat : /absence JJ.MM.AAAA JJ.MM.AAAA type [motif]")
		return
	}

	req, err := h.absences.Create(ctx, actor, draft)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, fmt.Sprintf("✅ Demande enregistrée : %s\nStatut : %s", formatAbsencePeriod(req), req.Status.Label()))
}

func (h *Handler) showMyAbsences(ctx context.Context, chatID int64, actor models.Actor) {
	reqs, err := h.absences.List(ctx, actor, repository.AbsenceFilter{ConsultantID: actor.ID})
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, formatAbsences(reqs))
}

func (h *Handler) sendReminders(ctx context.Context, chatID int64, actor models.Actor) {
	if !actor.Role.IsManagerial() {
		h.reply(chatID, "⛔ Commande réservée aux managers.")
		return
	}

	result, err := h.reminders.Send(ctx, actor, report.MonthRange(h.now()), report.ReminderAll, nil)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.reply(chatID, fmt.Sprintf("📨 Relances : %d envoyée(s), %d sans canal, %d en échec.",
		result.Sent, result.Skipped, result.Failed))
}

// replyError переводит доменную ошибку в сообщение пользователю
func (h *Handler) replyError(chatID int64, err error) {
	var prefix string
	switch models.ErrorCode(err) {
	case models.ErrorCodeForbidden:
		prefix = "⛔ Action non autorisée"
	case models.ErrorCodeInvalidTransition:
		prefix = "🔒 Action impossible dans l'état actuel"
	case models.ErrorCodeValidation:
		prefix = "❌ Données invalides"
	case models.ErrorCodeOverlappingAbsence:
		prefix = "❌ Chevauchement avec une absence approuvée"
	case models.ErrorCodeNotFound:
		prefix = "❌ Introuvable"
	default:
		h.logger.WithError(err).WithField("chat_id", chatID).Error("Bot command failed")
		h.reply(chatID, "❌ Erreur interne, réessayez plus tard.")
		return
	}
	h.reply(chatID, prefix+" : "+err.Error())
}
