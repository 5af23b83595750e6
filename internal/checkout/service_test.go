package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/internal/cart"
	"github.com/angelmondragon/memberclub-backend/internal/catalog"
	"github.com/angelmondragon/memberclub-backend/internal/members"
	"github.com/angelmondragon/memberclub-backend/internal/tiers"
	"github.com/angelmondragon/memberclub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox"
	"github.com/angelmondragon/memberclub-backend/pkg/outbox/payloads"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	conn     *gorm.DB
	cart     cart.Service
	checkout Service
}

func newFixture(t *testing.T, validity time.Duration) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := dbtest.Client(conn)
	entries := cart.NewRepository(conn)
	tierRepo := tiers.NewRepository(conn)
	memberRepo := members.NewRepository(conn)

	cartSvc, err := cart.NewService(cart.ServiceParams{
		TX:      client,
		Entries: entries,
		Catalog: catalog.NewRepository(conn),
		Tiers:   tierRepo,
		Members: memberRepo,
	})
	require.NoError(t, err)

	checkoutSvc, err := NewService(ServiceParams{
		TX:               client,
		Entries:          entries,
		Tiers:            tierRepo,
		Members:          memberRepo,
		Outbox:           outbox.NewService(outbox.NewRepository(conn), nil),
		CashbackValidity: validity,
		Now:              func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{conn: conn, cart: cartSvc, checkout: checkoutSvc}
}

func principal(m *models.Member) cart.Member {
	return cart.Member{ID: m.ID, TierID: m.TierID}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func loadMember(t *testing.T, conn *gorm.DB, m *models.Member) models.Member {
	t.Helper()
	var out models.Member
	require.NoError(t, conn.First(&out, "id = ?", m.ID).Error)
	return out
}

func outboxRows(t *testing.T, conn *gorm.DB) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	return rows
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	conn := dbtest.Open(t)
	_, err = NewService(ServiceParams{
		TX:               dbtest.Client(conn),
		Entries:          cart.NewRepository(conn),
		Tiers:            tiers.NewRepository(conn),
		Members:          members.NewRepository(conn),
		Outbox:           outbox.NewService(outbox.NewRepository(conn), nil),
		CashbackValidity: -time.Hour,
	})
	assert.Error(t, err)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t, 24*time.Hour)
	member := dbtest.MustCreateMember(t, f.conn, nil)

	_, err := f.checkout.Checkout(context.Background(), principal(member))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeEmptyCart), "got %v", err)

	stored := loadMember(t, f.conn, member)
	assert.True(t, stored.CashbackBalance.IsZero())
	assert.Empty(t, outboxRows(t, f.conn))
}

func TestCheckoutCreditsTierCashback(t *testing.T) {
	f := newFixture(t, 30*24*time.Hour)
	tier := dbtest.MustCreateTier(t, f.conn, "gold", "0", "0.05")
	item := dbtest.MustCreateItem(t, f.conn, "Season pass", "50.00", "0", 10)
	member := dbtest.MustCreateMember(t, f.conn, &tier.ID)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, principal(member), item.ID, 2)
	require.NoError(t, err)

	result, err := f.checkout.Checkout(ctx, principal(member))
	require.NoError(t, err)
	assert.True(t, result.TotalAmount.Equal(dec("100.00")), "total %s", result.TotalAmount)
	assert.True(t, result.Cashback.Equal(dec("5.00")), "cashback %s", result.Cashback)
	assert.Equal(t, 1, result.EntryCount)
	assert.True(t, result.CashbackBalance.Equal(dec("5.00")))
	require.NotNil(t, result.CashbackExpires)
	assert.WithinDuration(t, fixedNow.Add(30*24*time.Hour), *result.CashbackExpires, time.Second)

	assert.Zero(t, dbtest.CountEntries(t, f.conn, member.ID))
	assert.Equal(t, 8, dbtest.Stock(t, f.conn, item.ID))

	stored := loadMember(t, f.conn, member)
	assert.True(t, stored.CashbackBalance.Equal(dec("5.00")))

	rows := outboxRows(t, f.conn)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventCheckoutCompleted, rows[0].EventType)
	assert.Equal(t, member.ID, rows[0].AggregateID)

	var envelope outbox.Envelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.NotNil(t, envelope.ActorID)
	assert.Equal(t, member.ID, *envelope.ActorID)
	var event payloads.CheckoutCompletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &event))
	assert.Equal(t, 1, event.EntryCount)
	assert.True(t, event.TotalAmount.Equal(dec("100.00")))
	assert.True(t, event.Cashback.Equal(dec("5.00")))
}

func TestCheckoutUsesFrozenTotalsAfterPriceChange(t *testing.T) {
	f := newFixture(t, 0)
	first := dbtest.MustCreateItem(t, f.conn, "Hoodie", "40.00", "5.00", 3)
	second := dbtest.MustCreateItem(t, f.conn, "Socks", "3.00", "0", 3)
	member := dbtest.MustCreateMember(t, f.conn, nil)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, principal(member), first.ID, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, principal(member), second.ID, 3)
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.CatalogItem{}).Where("id = ?", first.ID).
		Update("price", dec("99.00")).Error)

	result, err := f.checkout.Checkout(ctx, principal(member))
	require.NoError(t, err)
	assert.True(t, result.TotalAmount.Equal(dec("44.00")), "total %s", result.TotalAmount)
	assert.Equal(t, 2, result.EntryCount)
}

func TestCheckoutWithoutTierEarnsNoCashback(t *testing.T) {
	f := newFixture(t, 24*time.Hour)
	item := dbtest.MustCreateItem(t, f.conn, "Ticket", "25.00", "0", 1)
	member := dbtest.MustCreateMember(t, f.conn, nil)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, principal(member), item.ID, 1)
	require.NoError(t, err)

	result, err := f.checkout.Checkout(ctx, principal(member))
	require.NoError(t, err)
	assert.True(t, result.Cashback.IsZero())
	assert.True(t, result.CashbackBalance.IsZero())
	assert.Nil(t, result.CashbackExpires)
}

func TestCheckoutAccumulatesBalanceAndSkipsExpiryWhenDisabled(t *testing.T) {
	f := newFixture(t, 0)
	tier := dbtest.MustCreateTier(t, f.conn, "silver", "0", "0.10")
	item := dbtest.MustCreateItem(t, f.conn, "Program", "10.00", "0", 5)
	member := dbtest.MustCreateMember(t, f.conn, &tier.ID)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.cart.Add(ctx, principal(member), item.ID, 1)
		require.NoError(t, err)
		_, err = f.checkout.Checkout(ctx, principal(member))
		require.NoError(t, err)
	}

	stored := loadMember(t, f.conn, member)
	assert.True(t, stored.CashbackBalance.Equal(dec("2.00")), "balance %s", stored.CashbackBalance)
	assert.Nil(t, stored.CashbackExpiresAt)
	assert.Len(t, outboxRows(t, f.conn), 2)
}

func TestCheckoutUsesStoredTierOverToken(t *testing.T) {
	f := newFixture(t, 0)
	tier := dbtest.MustCreateTier(t, f.conn, "gold", "0", "0.05")
	item := dbtest.MustCreateItem(t, f.conn, "Print", "20.00", "0", 5)
	member := dbtest.MustCreateMember(t, f.conn, nil)
	ctx := context.Background()

	_, err := f.cart.Add(ctx, principal(member), item.ID, 1)
	require.NoError(t, err)

	claimed := principal(member)
	claimed.TierID = &tier.ID
	result, err := f.checkout.Checkout(ctx, claimed)
	require.NoError(t, err)
	assert.True(t, result.Cashback.IsZero())
}

type failingOutbox struct{}

func (failingOutbox) Emit(context.Context, *gorm.DB, outbox.Payload, ...outbox.EmitOption) error {
	return errors.New("outbox unavailable")
}

func TestCheckoutRollsBackWhenEventCannotBeQueued(t *testing.T) {
	conn := dbtest.Open(t)
	tier := dbtest.MustCreateTier(t, conn, "gold", "0", "0.05")
	item := dbtest.MustCreateItem(t, conn, "Banner", "10.00", "0", 5)
	member := dbtest.MustCreateMember(t, conn, &tier.ID)
	entry := &models.CartEntry{
		MemberID:    member.ID,
		ItemID:      item.ID,
		Quantity:    1,
		UnitPrice:   dec("10.00"),
		TotalAmount: dec("10.00"),
		CreatedAt:   fixedNow,
	}
	require.NoError(t, conn.Create(entry).Error)

	svc, err := NewService(ServiceParams{
		TX:      dbtest.Client(conn),
		Entries: cart.NewRepository(conn),
		Tiers:   tiers.NewRepository(conn),
		Members: members.NewRepository(conn),
		Outbox:  failingOutbox{},
	})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), principal(member))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, int64(1), dbtest.CountEntries(t, conn, member.ID))
	assert.True(t, loadMember(t, conn, member).CashbackBalance.IsZero())
}
