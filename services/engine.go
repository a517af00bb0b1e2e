package services

import (
	"time"

	"venuematch_server/store"
)

// Dependencies are the collaborators the engine is built on.
type Dependencies struct {
	Store      store.Store
	CheckIns   CheckInProvider
	Blocks     BlockList
	Typing     TypingStore
	Validator  TextValidator
	Publishers []Publisher
	Clock      Clock
}

// Settings are the engine's tunables.
type Settings struct {
	MatchWindow       time.Duration
	InterestTTL       time.Duration
	MessageCap        int
	TypingTTL         time.Duration
	DependencyTimeout time.Duration
}

// Engine wires the ledger, match store, gate and rematch controller together.
type Engine struct {
	Notify       *NotificationService
	Matches      *MatchService
	Interactions *InteractionService
	Chat         *ChatService
	Rematch      *RematchService
}

func NewEngine(deps Dependencies, settings Settings) *Engine {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	validator := deps.Validator
	if validator == nil {
		validator = BasicTextValidator{}
	}
	checkIns := &CheckInGate{Provider: deps.CheckIns, Timeout: settings.DependencyTimeout}
	notify := NewNotificationService(clock, settings.DependencyTimeout, deps.Publishers...)
	matches := NewMatchService(deps.Store, clock, notify, settings.MatchWindow)

	return &Engine{
		Notify:       notify,
		Matches:      matches,
		Interactions: NewInteractionService(deps.Store, matches, checkIns, clock, settings.InterestTTL),
		Chat: &ChatService{
			Store:      deps.Store,
			Matches:    matches,
			Blocks:     deps.Blocks,
			Validator:  validator,
			Typing:     deps.Typing,
			Notify:     notify,
			Clock:      clock,
			MessageCap: settings.MessageCap,
			TypingTTL:  settings.TypingTTL,
			Timeout:    settings.DependencyTimeout,
		},
		Rematch: NewRematchService(matches, checkIns, clock),
	}
}
