package auth

import "context"

// Capabilities carried by an actor. Handlers check these once at the
// boundary; the core never inspects roles.
const (
	CapOrdersWrite    = "orders:write"
	CapOrdersSettle   = "orders:settle"
	CapCashWrite      = "cash:write"
	CapPayoutGenerate = "payouts:generate"
	CapPayoutSubmit   = "payouts:submit"
	CapPayoutApprove  = "payouts:approve"
	CapPayoutConfirm  = "payouts:confirm"
	CapPayoutReject   = "payouts:reject"
	CapPayoutCancel   = "payouts:cancel"
)

// Actor identifies who performs a mutating action. Authentication and role
// resolution happen outside this service; the actor arrives pre-resolved.
type Actor struct {
	UserID          uint
	ExchangeHouseID uint
	Capabilities    []string
}

// Can reports whether the actor holds the given capability.
func (a *Actor) Can(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type contextKey string

const ActorKey contextKey = "actor"

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActorFromContext extracts the actor placed by the boundary middleware.
func GetActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(*Actor)
	return actor, ok
}
