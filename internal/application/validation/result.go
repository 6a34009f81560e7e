package validation

import "fmt"

const (
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeTeamNotFound        = "TEAM_NOT_FOUND"
	CodeTeamInactive        = "TEAM_INACTIVE"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeAmountLimit         = "AMOUNT_LIMIT_EXCEEDED"
	CodeCurrencyUnsupported = "CURRENCY_UNSUPPORTED"
	CodeDailyAmountLimit    = "DAILY_AMOUNT_LIMIT_EXCEEDED"
	CodeDailyCountLimit     = "DAILY_COUNT_LIMIT_EXCEEDED"
	CodeActiveLimit         = "ACTIVE_PAYMENT_LIMIT_EXCEEDED"
	CodeProcessingLimit     = "PROCESSING_LIMIT_EXCEEDED"
	CodeDuplicateOrder      = "DUPLICATE_ORDER_ID"
	CodePaymentExpired      = "PAYMENT_EXPIRED"
	CodeStaleStatus         = "STALE_STATUS"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeRepositoryFailure   = "REPOSITORY_FAILURE"
	CodeMissingDescription  = "MISSING_DESCRIPTION"
)

type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Code, i.Message)
}

// Result carries every violation found, never just the first one. Failures
// are data, not errors.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

func (r *Result) addError(code, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addWarning(code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) ErrorMessages() []string {
	msgs := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		msgs = append(msgs, issue.String())
	}
	return msgs
}
