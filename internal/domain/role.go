package domain

// TicketRole is the relationship of an actor to a ticket.
type TicketRole string

const (
	RoleCreator  TicketRole = "CREATOR"
	RoleReceiver TicketRole = "RECEIVER"
)

// ActorKind tags the three kinds of acting identities.
type ActorKind string

const (
	ActorOperator ActorKind = "OPERATOR"
	ActorMain     ActorKind = "MAIN"
	ActorSub      ActorKind = "SUB"
)

// Actor identifies who is evaluating or mutating a ticket. Email is empty
// for the operator; Label is the human-readable name recorded in history.
type Actor struct {
	Kind  ActorKind
	Email string
	Label string
}

// OperatorActor builds the platform operator acting identity.
func OperatorActor(label string) Actor {
	return Actor{Kind: ActorOperator, Label: label}
}

// AccountActor builds an acting identity from an account.
func AccountActor(account *Account) Actor {
	kind := ActorMain
	if account.Kind == AccountKindSub {
		kind = ActorSub
	}
	return Actor{Kind: kind, Email: account.Email, Label: account.Name}
}
