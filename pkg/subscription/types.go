package subscription

// Status represents the current lifecycle state of a subscription.
type Status string

const (
	StatusTrial          Status = "trial"
	StatusActive         Status = "active"
	StatusExpiring       Status = "expiring"
	StatusExpired        Status = "expired"
	StatusBlocked        Status = "blocked"
	StatusPendingPayment Status = "pending_payment"
)

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusExpiring, StatusExpired, StatusBlocked, StatusPendingPayment:
		return true
	}
	return false
}
