package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/application/validation"
	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

func TestTimeouts_For_ShouldReturnStatusDefaults(t *testing.T) {
	timeouts := validation.NewTimeouts()

	require.Equal(t, 15*time.Minute, timeouts.For("team-1", payment.StatusNew))
	require.Equal(t, 30*time.Minute, timeouts.For("team-1", payment.StatusProcessing))
	require.Equal(t, 24*time.Hour, timeouts.For("team-1", payment.StatusAuthorized))
}

func TestTimeouts_For_WhenStatusHasNoDefault_ShouldFallBack(t *testing.T) {
	timeouts := validation.NewTimeouts()

	require.Equal(t, validation.FallbackTimeout, timeouts.For("team-1", payment.StatusInit))
}

func TestTimeouts_SetTeamTimeout_ShouldOverrideOnlyThatTeam(t *testing.T) {
	timeouts := validation.NewTimeouts()

	err := timeouts.SetTeamTimeout("team-1", payment.StatusNew, 5*time.Minute)
	require.NoError(t, err)

	require.Equal(t, 5*time.Minute, timeouts.For("team-1", payment.StatusNew))
	require.Equal(t, 15*time.Minute, timeouts.For("team-2", payment.StatusNew))
}

func TestTimeouts_SetTeamTimeout_WhenOutsideBounds_ShouldRejectAtConfigurationTime(t *testing.T) {
	timeouts := validation.NewTimeoutsWithBounds(time.Minute, time.Hour)

	err := timeouts.SetTeamTimeout("team-1", payment.StatusNew, 2*time.Hour)
	require.ErrorIs(t, err, validation.ErrTimeoutOutOfBounds)

	err = timeouts.SetTeamTimeout("team-1", payment.StatusNew, time.Second)
	require.ErrorIs(t, err, validation.ErrTimeoutOutOfBounds)

	// The rejected value must not leak into resolution.
	require.Equal(t, 15*time.Minute, timeouts.For("team-1", payment.StatusNew))
}

func TestTimeouts_SetDefault_WhenOutsideBounds_ShouldReject(t *testing.T) {
	timeouts := validation.NewTimeoutsWithBounds(time.Minute, time.Hour)

	err := timeouts.SetDefault(payment.StatusNew, 3*time.Hour)
	require.ErrorIs(t, err, validation.ErrTimeoutOutOfBounds)
}

func TestTimeouts_ClearTeam_ShouldRestoreDefaults(t *testing.T) {
	timeouts := validation.NewTimeouts()
	require.NoError(t, timeouts.SetTeamTimeout("team-1", payment.StatusNew, 5*time.Minute))

	timeouts.ClearTeam("team-1")

	require.Equal(t, 15*time.Minute, timeouts.For("team-1", payment.StatusNew))
}
