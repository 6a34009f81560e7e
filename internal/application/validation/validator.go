package validation

import (
	"context"
	"errors"
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/team"
)

// Validator is pure decision logic: it reads, never mutates. Every check
// runs even after earlier ones fail so callers see all violations at once.
type Validator struct {
	Payments payment.Repository
	Teams    team.Repository
	Timeouts *Timeouts
	Now      func() time.Time
}

// Request describes a requested transition. ExpectedVersion is optional;
// zero skips the version check.
type Request struct {
	PaymentID       string
	From            payment.Status
	To              payment.Status
	ExpectedVersion int64
}

func (v *Validator) ValidateTransition(ctx context.Context, paymentID string, from, to payment.Status) Result {
	return v.Validate(ctx, Request{PaymentID: paymentID, From: from, To: to})
}

func (v *Validator) Validate(ctx context.Context, req Request) Result {
	var res Result
	now := v.now()

	// 1. matrix membership
	if !req.From.CanTransitionTo(req.To) {
		res.addError(CodeInvalidTransition, "transition %s -> %s is not allowed", req.From, req.To)
	}

	p, err := v.Payments.FindByID(ctx, req.PaymentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			res.addError(CodePaymentNotFound, "payment %s not found", req.PaymentID)
		} else {
			res.addError(CodeRepositoryFailure, "loading payment %s: %v", req.PaymentID, err)
		}
		res.Valid = len(res.Errors) == 0
		return res
	}

	t, err := v.Teams.FindByID(ctx, p.TeamID)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			res.addError(CodeTeamNotFound, "team %s not found", p.TeamID)
		} else {
			res.addError(CodeRepositoryFailure, "loading team %s: %v", p.TeamID, err)
		}
		t = nil
	}

	v.checkBusinessRules(&res, p, t, req.To)
	if t != nil {
		v.checkTeamLimits(ctx, &res, p, t, now)
	}
	v.checkExpiration(&res, p, now)
	v.checkConcurrency(ctx, &res, p, req)

	res.Valid = len(res.Errors) == 0
	return res
}

// 2. business rules. Soft requirements become warnings, never errors.
func (v *Validator) checkBusinessRules(res *Result, p *payment.Payment, t *team.Team, to payment.Status) {
	if p.Amount <= 0 {
		res.addError(CodeInvalidAmount, "amount must be positive, got %d", p.Amount)
	}

	if t != nil {
		if !t.Active {
			res.addError(CodeTeamInactive, "team %s is not active", t.ID)
		}
		if t.MaxPaymentAmount > 0 && p.Amount > t.MaxPaymentAmount {
			res.addError(CodeAmountLimit, "amount %d exceeds team maximum %d", p.Amount, t.MaxPaymentAmount)
		}
		if len(t.Currencies) > 0 && !t.SupportsCurrency(p.Currency) {
			res.addError(CodeCurrencyUnsupported, "currency %s is not supported by team %s", p.Currency, t.ID)
		}
	}

	if to == payment.StatusProcessing && p.Description == "" {
		res.addWarning(CodeMissingDescription, "description is recommended before processing")
	}
}

// 3. team limits, each checked against the requested operation's
// contribution. Every check follows the same convention: counts and sums
// exclude the payment under validation, then add its own contribution back,
// so a team sitting exactly at a cap still passes.
func (v *Validator) checkTeamLimits(ctx context.Context, res *Result, p *payment.Payment, t *team.Team, now time.Time) {
	dayStart := now.Truncate(24 * time.Hour)

	totals, err := v.Payments.DailyTotalsByTeam(ctx, t.ID, dayStart)
	if err != nil {
		res.addError(CodeRepositoryFailure, "loading daily totals for team %s: %v", t.ID, err)
		return
	}

	count := totals.Count
	amount := totals.Amount
	if !p.CreatedAt.Before(dayStart) {
		count--
		amount -= p.Amount
	}

	if t.DailyTransactionLimit > 0 && count+1 > t.DailyTransactionLimit {
		res.addError(CodeDailyCountLimit, "team %s daily transaction limit %d reached", t.ID, t.DailyTransactionLimit)
	}
	if t.DailyAmountLimit > 0 && amount+p.Amount > t.DailyAmountLimit {
		res.addError(CodeDailyAmountLimit, "team %s daily amount limit %d exceeded", t.ID, t.DailyAmountLimit)
	}

	if t.MaxActivePayments > 0 {
		active, err := v.Payments.CountActiveByTeam(ctx, t.ID)
		if err != nil {
			res.addError(CodeRepositoryFailure, "counting active payments for team %s: %v", t.ID, err)
			return
		}
		if !p.Status.IsTerminal() {
			active--
		}
		if active+1 > t.MaxActivePayments {
			res.addError(CodeActiveLimit, "team %s has %d active payments, limit is %d", t.ID, active, t.MaxActivePayments)
		}
	}
}

// 4. expiration. Terminal payments are exempt.
func (v *Validator) checkExpiration(res *Result, p *payment.Payment, now time.Time) {
	if p.Status.IsTerminal() {
		return
	}

	timeout := v.Timeouts.For(p.TeamID, p.Status)
	if p.Age(now) > timeout {
		res.addError(CodePaymentExpired, "payment %s exceeded its %s window of %s", p.ID, p.Status, timeout)
	}
}

// 5. concurrency: stale view, version conflict, duplicate order and the
// per-team PROCESSING cap.
func (v *Validator) checkConcurrency(ctx context.Context, res *Result, p *payment.Payment, req Request) {
	if p.Status != req.From {
		res.addError(CodeStaleStatus, "payment %s is %s, caller expected %s", p.ID, p.Status, req.From)
	}
	if req.ExpectedVersion > 0 && p.Version != req.ExpectedVersion {
		res.addError(CodeVersionConflict, "payment %s is at version %d, caller expected %d", p.ID, p.Version, req.ExpectedVersion)
	}

	if req.To != payment.StatusProcessing {
		return
	}

	siblings, err := v.Payments.FindByOrderID(ctx, p.TeamID, p.OrderID)
	if err != nil {
		res.addError(CodeRepositoryFailure, "loading payments for order %s: %v", p.OrderID, err)
		return
	}
	for _, sibling := range siblings {
		if sibling.ID != p.ID && !sibling.Status.IsTerminal() {
			res.addError(CodeDuplicateOrder, "order %s already has active payment %s", p.OrderID, sibling.ID)
			break
		}
	}

	t, err := v.Teams.FindByID(ctx, p.TeamID)
	if err != nil || t == nil || t.MaxProcessingPayments <= 0 {
		return
	}
	processing, err := v.Payments.CountByTeamAndStatus(ctx, p.TeamID, payment.StatusProcessing)
	if err != nil {
		res.addError(CodeRepositoryFailure, "counting processing payments for team %s: %v", p.TeamID, err)
		return
	}
	if processing >= t.MaxProcessingPayments {
		res.addError(CodeProcessingLimit, "team %s already has %d payments in processing, limit is %d", p.TeamID, processing, t.MaxProcessingPayments)
	}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
