package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/testutil"
)

func TestNew(t *testing.T) {
	assert.IsType(t, &LogMailer{}, New(config.SMTP{}, testutil.MakeNoopLogger()))
	assert.IsType(t, &SMTPMailer{}, New(config.SMTP{Host: "smtp.example.com", Port: 25}, testutil.MakeNoopLogger()))
}

func TestLogMailer_SendVerification(t *testing.T) {
	log, buf := testutil.MakeCapturingLogger()
	m := NewLogMailer(log)

	err := m.SendVerification(context.Background(), "jane@example.com", "jane", "http://localhost:8000/verify-email?token=abc")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "token=abc")
	assert.Contains(t, buf.String(), "jane@example.com")
}

func TestSMTPMailer_SendVerification(t *testing.T) {
	cfg := config.SMTP{Host: "smtp.example.com", Port: 2525, Username: "user", Password: "pass", From: "no-reply@userhub.local"}

	t.Run("sends message", func(t *testing.T) {
		m := NewSMTPMailer(cfg, testutil.MakeNoopLogger())

		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg []byte
		m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		}

		err := m.SendVerification(context.Background(), "jane@example.com", "jane", "http://x/verify-email?token=abc")
		require.NoError(t, err)
		assert.Equal(t, "smtp.example.com:2525", gotAddr)
		assert.Equal(t, "no-reply@userhub.local", gotFrom)
		assert.Equal(t, []string{"jane@example.com"}, gotTo)
		assert.Contains(t, string(gotMsg), "Subject: Verify your email")
		assert.Contains(t, string(gotMsg), "http://x/verify-email?token=abc")
		assert.NotNil(t, m.auth)
	})

	t.Run("send failure is wrapped", func(t *testing.T) {
		m := NewSMTPMailer(cfg, testutil.MakeNoopLogger())
		sendErr := errors.New("relay denied")
		m.send = func(string, smtp.Auth, string, []string, []byte) error { return sendErr }

		err := m.SendVerification(context.Background(), "jane@example.com", "jane", "link")
		require.Error(t, err)
		assert.ErrorIs(t, err, sendErr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		m := NewSMTPMailer(config.SMTP{Host: "smtp.example.com", Port: 25}, testutil.MakeNoopLogger())
		m.send = func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send must not be called")
			return nil
		}
		assert.Nil(t, m.auth)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, m.SendVerification(ctx, "a@b.c", "n", "l"), context.Canceled)
	})
}
