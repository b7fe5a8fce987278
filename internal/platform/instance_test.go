package platform

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressIsStable(t *testing.T) {
	assert.Equal(t, Address("com.rangetimer.app"), Address("com.rangetimer.app"))
	assert.Regexp(t, `^127\.0\.0\.1:[23]\d{4}$`, Address("com.rangetimer.app"))
}

func TestSecondAcquireFails(t *testing.T) {
	appID := fmt.Sprintf("rangetimer.test.%d", time.Now().UnixNano())

	first, err := Acquire(appID, nil)
	require.NoError(t, err)

	_, err = Acquire(appID, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, first.Release())
	second, err := Acquire(appID, nil)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestActivateReachesRunningInstance(t *testing.T) {
	appID := fmt.Sprintf("rangetimer.test.activate.%d", time.Now().UnixNano())
	instance, err := Acquire(appID, nil)
	require.NoError(t, err)

	activated := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		instance.Serve(func() { activated <- struct{}{} })
		close(done)
	}()

	require.NoError(t, Activate(appID))
	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not activated")
	}

	require.NoError(t, instance.Release())
	<-done
}
