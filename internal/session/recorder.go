package session

// Recorder recibe los eventos de auth para métricas. internal/metrics tiene la
// implementación Prometheus.
type Recorder interface {
	LoginOutcome(outcome string)
	SecondFactorResult(result string)
	CodeDelivery(channel string, delivered bool)
	GuardRejection(guard, reason string)
}

type nopRecorder struct{}

func (nopRecorder) LoginOutcome(string)           {}
func (nopRecorder) SecondFactorResult(string)     {}
func (nopRecorder) CodeDelivery(string, bool)     {}
func (nopRecorder) GuardRejection(string, string) {}

// Valores de outcome/result/reason que emite el Machine.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomePending       = "pending_second_factor"
	OutcomeInvalid       = "invalid_credentials"
	OutcomeDeactivated   = "deactivated"
	OutcomeError         = "error"

	ResultOK       = "ok"
	ResultMismatch = "mismatch"

	GuardSession = "session"
	GuardAdmin   = "admin"

	ReasonUnauthenticated = "unauthenticated"
	ReasonDeactivated     = "deactivated"
	ReasonRevoked         = "revoked"
	ReasonNotAdmin        = "not_admin"
	ReasonError           = "error"
)
