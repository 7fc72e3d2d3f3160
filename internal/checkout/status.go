package checkout

// Status trace la progression d'une tentative de checkout. La séquence
// nominale est Pending → Validating → Reserving → Writing → Clearing →
// Committed ; tout échec avant Committed bascule en RolledBack.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusValidating Status = "VALIDATING"
	StatusReserving  Status = "RESERVING"
	StatusWriting    Status = "WRITING"
	StatusClearing   Status = "CLEARING"
	StatusCommitted  Status = "COMMITTED"
	StatusRolledBack Status = "ROLLED_BACK"
)

var transitions = map[Status]Status{
	StatusPending:    StatusValidating,
	StatusValidating: StatusReserving,
	StatusReserving:  StatusWriting,
	StatusWriting:    StatusClearing,
	StatusClearing:   StatusCommitted,
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal indique si l'état ne peut plus évoluer.
func (s Status) IsTerminal() bool {
	return s == StatusCommitted || s == StatusRolledBack
}

// CanTransitionTo autorise soit le pas suivant de la séquence nominale,
// soit le rollback depuis n'importe quel état non terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusRolledBack {
		return true
	}
	return transitions[s] == next
}

// attempt porte l'état d'une tentative en cours et refuse les sauts d'état.
type attempt struct {
	userID string
	status Status
}

func newAttempt(userID string) *attempt {
	return &attempt{userID: userID, status: StatusPending}
}

func (a *attempt) to(next Status) error {
	if !a.status.CanTransitionTo(next) {
		return errIllegalTransition
	}
	a.status = next
	return nil
}

func (a *attempt) fail() {
	if !a.status.IsTerminal() {
		a.status = StatusRolledBack
	}
}
