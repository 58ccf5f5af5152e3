package service

import (
	"answerhub.dev/scribe/core/config"
	"answerhub.dev/scribe/internal/directory"
	"answerhub.dev/scribe/internal/docstore"
	"answerhub.dev/scribe/internal/messaging"
	"answerhub.dev/scribe/internal/oracle"
	"answerhub.dev/scribe/internal/store"
)

// Services bundles the lifecycle services with their shared collaborators.
type Services struct {
	synthesis    *SynthesisService
	correction   *CorrectionService
	conversation *ConversationService
	responses    *ResponseService
	intake       *IntakeService
}

func New(
	cfg config.Config,
	stores *store.Stores,
	messenger messaging.Messenger,
	orc oracle.Oracle,
	docs docstore.Store,
	dir directory.Directory,
) *Services {
	approval := NewApprovalService(
		stores.PendingActions(), stores.Corrections(), messenger, orc, docs,
		cfg.Sweep.PendingActionTTL,
	)
	domainFlow := NewDomainFlowService(
		stores.PendingActions(), messenger, docs, dir,
		cfg.Sweep.PendingActionTTL,
	)

	return &Services{
		synthesis: NewSynthesisService(
			stores.Escalations(), messenger, orc, docs, dir,
			cfg.Directory.GeneralDomainID,
		),
		correction: NewCorrectionService(
			stores.TrackedAnswers(), stores.PendingActions(), messenger, orc, docs, dir,
			cfg.Directory.FallbackApproverIDs, cfg.Sweep.PendingActionTTL,
		),
		conversation: NewConversationService(
			stores.PendingActions(), messenger, approval, domainFlow,
			cfg.Messaging.BotUserID,
		),
		responses: NewResponseService(
			stores.Escalations(), stores.TrackedAnswers(),
			cfg.Sweep.EscalationDelay, cfg.Sweep.CorrectionDelay,
			cfg.Messaging.BotUserID,
		),
		intake: NewIntakeService(stores.Escalations(), stores.TrackedAnswers(), dir),
	}
}

func (s *Services) Synthesis() *SynthesisService       { return s.synthesis }
func (s *Services) Correction() *CorrectionService     { return s.correction }
func (s *Services) Conversation() *ConversationService { return s.conversation }
func (s *Services) Responses() *ResponseService        { return s.responses }
func (s *Services) Intake() *IntakeService             { return s.intake }
