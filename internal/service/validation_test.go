package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mindhaven/mindhaven/internal/service"
	"github.com/stretchr/testify/assert"
)

// Input validation runs before any transaction begins, so these cases need no
// database at all.

func TestTransferRejectsBadInputBeforeTx(t *testing.T) {
	svc := service.NewTransferService(nil)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, _, err := svc.Transfer(ctx, a, b, 0, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)

	_, _, err = svc.Transfer(ctx, a, b, -1, "", "")
	assert.ErrorIs(t, err, service.ErrInvalidAmount)

	_, _, err = svc.Transfer(ctx, a, a, 10, "", "")
	assert.ErrorIs(t, err, service.ErrSelfTransfer)
}

func TestSendRequestRejectsSelfBeforeTx(t *testing.T) {
	svc := service.NewFriendService(nil)
	a := uuid.New()

	assert.ErrorIs(t, svc.SendRequest(context.Background(), a, a), service.ErrSelfRequest)
}

func TestAppendRejectsBadInputBeforeTx(t *testing.T) {
	svc := service.NewChatService(nil)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	assert.ErrorIs(t, svc.Append(ctx, a, a, "note to self"), service.ErrSelfMessage)
	assert.ErrorIs(t, svc.Append(ctx, a, b, ""), service.ErrEmptyMessage)
	assert.ErrorIs(t, svc.Append(ctx, a, b, " \t "), service.ErrEmptyMessage)
}
