package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifier_FallsBackToLog(t *testing.T) {
	notifier, err := NewNotifier(&config.Config{})
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, notifier)

	assert.NoError(t, notifier.SendVerificationCode(context.Background(), "a@b.ec", "123456"))
	assert.NoError(t, notifier.SendOrderAccepted(context.Background(), "a@b.ec", 3, time.Now()))
}

func TestSMTPNotifier_BuildMessages(t *testing.T) {
	notifier, err := NewSMTPNotifier(&config.Config{
		MailHost: "smtp.example.com",
		MailPort: 587,
		MailFrom: "biblioteca@example.com",
	})
	require.NoError(t, err)

	t.Run("verification code", func(t *testing.T) {
		msg, err := notifier.buildMessage("lector@example.com", verificationSubject, notifier.templates.verification, verificationData("482913"))
		require.NoError(t, err)
		assert.Equal(t, []string{"<lector@example.com>"}, msg.GetToString())

		var body bytes.Buffer
		require.NoError(t, notifier.templates.verification.Execute(&body, verificationData("482913")))
		assert.Contains(t, body.String(), "482913")
		assert.Contains(t, body.String(), libraryName)
	})

	t.Run("order accepted", func(t *testing.T) {
		deadline := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
		_, err := notifier.buildMessage("lector@example.com", orderAcceptedSubject, notifier.templates.orderAccepted, orderAcceptedData(77, deadline))
		require.NoError(t, err)

		var body bytes.Buffer
		require.NoError(t, notifier.templates.orderAccepted.Execute(&body, orderAcceptedData(77, deadline)))
		assert.Contains(t, body.String(), "#77")
		assert.Contains(t, body.String(), "10/05/2024 14:30")
	})

	t.Run("invalid recipient", func(t *testing.T) {
		_, err := notifier.buildMessage("not an address", verificationSubject, notifier.templates.verification, verificationData("1"))
		assert.Error(t, err)
	})
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()
	ctx := context.Background()

	require.NoError(t, m.SendVerificationCode(ctx, "a@b.ec", "111111"))
	require.NoError(t, m.SendVerificationCode(ctx, "a@b.ec", "222222"))
	require.NoError(t, m.SendOrderAccepted(ctx, "a@b.ec", 1, time.Now()))

	code, ok := m.LastVerificationCode("a@b.ec")
	assert.True(t, ok)
	assert.Equal(t, "222222", code)

	_, ok = m.LastVerificationCode("x@y.ec")
	assert.False(t, ok)
	assert.Equal(t, 1, m.AcceptedCount())
}
