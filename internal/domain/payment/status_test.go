package payment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

func TestStatus_Matrix_ShouldAllowOnlyListedTransitions(t *testing.T) {
	allowed := map[payment.Status][]payment.Status{
		payment.StatusInit:       {payment.StatusNew},
		payment.StatusNew:        {payment.StatusProcessing, payment.StatusCancelled, payment.StatusExpired},
		payment.StatusProcessing: {payment.StatusAuthorized, payment.StatusCancelled, payment.StatusExpired},
		payment.StatusAuthorized: {payment.StatusConfirmed, payment.StatusCancelled, payment.StatusRefunded, payment.StatusExpired},
		payment.StatusConfirmed:  {payment.StatusRefunded},
		payment.StatusCancelled:  {},
		payment.StatusRefunded:   {},
		payment.StatusExpired:    {},
	}

	for _, from := range payment.Statuses() {
		for _, to := range payment.Statuses() {
			want := false
			for _, target := range allowed[from] {
				if target == to {
					want = true
				}
			}
			require.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_IsTerminal_ShouldMatchRestingStatuses(t *testing.T) {
	terminal := map[payment.Status]bool{
		payment.StatusConfirmed: true,
		payment.StatusCancelled: true,
		payment.StatusRefunded:  true,
		payment.StatusExpired:   true,
	}

	for _, s := range payment.Statuses() {
		require.Equal(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestStatus_IsValid_ShouldRejectUnknownStatus(t *testing.T) {
	require.False(t, payment.Status("SETTLED").IsValid())
	require.True(t, payment.StatusNew.IsValid())
}
