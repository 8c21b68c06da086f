package businessflow

import (
	"context"
	"testing"

	"github.com/amirphl/inventory-asn/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceCursorManagerLoadOrInit(t *testing.T) {
	env := newTestEnv(t, 3)

	var first, second *models.ASNCursor
	err := env.txManager.WithTransaction(context.Background(), func(ctx context.Context) error {
		var err error
		first, err = env.cursors.LoadOrInit(ctx, models.ASNCursorTypeASN, "alice")
		if err != nil {
			return err
		}
		second, err = env.cursors.LoadOrInit(ctx, models.ASNCursorTypeASN, "bob")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "a second call reuses the singleton")
	assert.Equal(t, "ASN0000001", first.CurrentNumber)
	assert.Equal(t, "ASN0000002", first.NextNumber)
	require.NotNil(t, second.CreatedUsername)
	assert.Equal(t, "alice", *second.CreatedUsername)
}

func TestSequenceCursorManagerResolve(t *testing.T) {
	env := newTestEnv(t, 3)

	n, stale, err := env.cursors.Resolve(&models.ASNCursor{Prefix: "ASN", CurrentNumber: "ASN0000009"})
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, "ASN0000009", n.String())

	n, stale, err = env.cursors.Resolve(&models.ASNCursor{Prefix: "RCV", CurrentNumber: "RCV0000009"})
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, "ASN0000010", n.String())

	// Prefix column updated but the stored number still carries the old prefix
	n, stale, err = env.cursors.Resolve(&models.ASNCursor{Prefix: "ASN", CurrentNumber: "RCV0000009"})
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, "ASN0000010", n.String())

	_, _, err = env.cursors.Resolve(&models.ASNCursor{Prefix: "ASN", CurrentNumber: ""})
	assert.True(t, IsCursorCorrupted(err))
}

func TestSequenceCursorManagerAdvance(t *testing.T) {
	env := newTestEnv(t, 3)
	env.seedCursor(t, "ASN", 1, 3, "ASN0000010")
	ctx := context.Background()

	cursor := env.store.cursor(models.ASNCursorTypeASN)
	require.NoError(t, env.cursors.Advance(ctx, cursor, 10, "carol"))

	stored := env.store.cursor(models.ASNCursorTypeASN)
	assert.Equal(t, "ASN0000010", stored.CurrentNumber)
	assert.Equal(t, "ASN0000011", stored.NextNumber)
	require.NotNil(t, stored.UpdatedUsername)
	assert.Equal(t, "carol", *stored.UpdatedUsername)
	assert.False(t, stored.UpdatedAt.IsZero())

	err := env.cursors.Advance(ctx, cursor, 11, "carol")
	assert.True(t, IsCursorRangeExhausted(err))
	assert.Equal(t, "ASN0000010", env.store.cursor(models.ASNCursorTypeASN).CurrentNumber)

	env.store.failCursorUpdate = true
	err = env.cursors.Advance(ctx, cursor, 5, "carol")
	assert.True(t, IsPersistence(err))
}

func TestSequenceCursorManagerStatus(t *testing.T) {
	env := newTestEnv(t, 3)

	_, err := env.cursors.Status(context.Background(), models.ASNCursorTypeASN)
	assert.True(t, IsCursorNotFound(err))

	env.seedCursor(t, "ASN", 7, 3, "ASN9999999")
	status, err := env.cursors.Status(context.Background(), models.ASNCursorTypeASN)
	require.NoError(t, err)
	assert.Equal(t, "ASN0000007", status.CurrentNumber)
	assert.Equal(t, "ASN0000008", status.NextNumber)
	assert.Equal(t, models.ASNCursorTypeASN, status.Type)
}
