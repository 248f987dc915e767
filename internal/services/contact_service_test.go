package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clothingloop/server/internal/database/testutil"
	"github.com/clothingloop/server/internal/mailqueue"
	"github.com/clothingloop/server/internal/models"
)

func newContactService(t *testing.T, contactEmails ...string) (*ContactService, *harness) {
	t.Helper()
	h := newHarness(t)
	svc, err := NewContactService(h.db, h.queue, contactEmails)
	require.NoError(t, err)
	return svc, h
}

func TestContactServiceSendContactMail(t *testing.T) {
	svc, h := newContactService(t, "team@example.com", " board@example.com ", "team@example.com")

	require.NoError(t, svc.SendContactMail(context.Background(), "Ann", "ann@example.com", "Can I start a loop?"))

	team := h.mails(t, mailqueue.KindContactTeam)
	require.Len(t, team, 1)
	require.Equal(t, []string{"team@example.com", "board@example.com"}, models.DecodeStrings(team[0].To))
	require.Equal(t, "ClothingLoop Contact Form - Ann", team[0].Subject)
	require.Equal(t, "ann@example.com", team[0].ReplyTo)
	require.Contains(t, team[0].HTML, "Can I start a loop?")

	confirmation := h.mails(t, mailqueue.KindContactConfirm)
	require.Len(t, confirmation, 1)
	require.Equal(t, []string{"ann@example.com"}, models.DecodeStrings(confirmation[0].To))
}

func TestContactServiceWithoutContactEmails(t *testing.T) {
	svc, h := newContactService(t)

	require.NoError(t, svc.SendContactMail(context.Background(), "Ann", "ann@example.com", "Hello"))
	require.Empty(t, h.mails(t, mailqueue.KindContactTeam))
	require.Len(t, h.mails(t, mailqueue.KindContactConfirm), 1)
}

func TestContactServiceSubscribeToNewsletter(t *testing.T) {
	svc, h := newContactService(t)

	require.NoError(t, svc.SubscribeToNewsletter(context.Background(), " Ann ", "Ann@Example.com"))

	var interested []models.InterestedUser
	require.NoError(t, h.db.Find(&interested).Error)
	require.Len(t, interested, 1)
	require.Equal(t, "Ann", interested[0].Name)
	require.Equal(t, "ann@example.com", interested[0].Email)

	mails := h.mails(t, mailqueue.KindNewsletterConfirm)
	require.Len(t, mails, 1)
	require.Equal(t, "Thank you for subscribing to Clothing Loop", mails[0].Subject)
}

func TestNewContactServiceRequiresDependencies(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	_, err := NewContactService(db, nil, nil)
	require.Error(t, err)
	_, err = NewContactService(nil, nil, nil)
	require.Error(t, err)
}
