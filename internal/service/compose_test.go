package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evanperkins/frontdesk/internal/billing"
	"github.com/evanperkins/frontdesk/internal/domain"
)

// TestParseQuotedPrice exercises the strict currency parser. Ambiguous inputs
// fail closed to zero instead of guessing.
func TestParseQuotedPrice(t *testing.T) {
	tests := []struct {
		name   string
		quoted string
		want   string
		ok     bool
	}{
		{name: "dollar sign", quoted: "$150", want: "150", ok: true},
		{name: "plain number", quoted: "150", want: "150", ok: true},
		{name: "cents", quoted: "$25.50", want: "25.50", ok: true},
		{name: "thousands separator", quoted: "1,200.50", want: "1200.50", ok: true},
		{name: "space after dollar sign", quoted: "$ 150", want: "150", ok: true},
		{name: "surrounding whitespace", quoted: "  150.00  ", want: "150", ok: true},
		{name: "free text", quoted: "about 200 dollars", ok: false},
		{name: "range", quoted: "150-200", ok: false},
		{name: "trailing unit", quoted: "150/hr", ok: false},
		{name: "too many decimals", quoted: "10.005", ok: false},
		{name: "two decimal points", quoted: "1.2.3", ok: false},
		{name: "empty", quoted: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseQuotedPrice(tt.quoted)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			} else {
				assert.True(t, got.IsZero(), "failed parse must yield zero, got %s", got)
			}
		})
	}
}

// TestSeedFromAppointment verifies customer fields and the default line item
// are taken from the appointment, with the quoted price parsed strictly.
func TestSeedFromAppointment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name        string
		appointment domain.Appointment
		wantDesc    string
		wantAmount  string
	}{
		{
			name: "parses quoted price",
			appointment: domain.Appointment{
				CustomerName:       "Test Client",
				CustomerEmail:      "client@example.com",
				ServiceDescription: "Water heater replacement",
				QuotedPrice:        "$450",
			},
			wantDesc:   "Water heater replacement",
			wantAmount: "450",
		},
		{
			name: "ambiguous quote seeds zero",
			appointment: domain.Appointment{
				CustomerName: "Test Client",
				ServiceType:  "plumbing",
				QuotedPrice:  "around 300 bucks",
			},
			wantDesc:   "plumbing",
			wantAmount: "0",
		},
		{
			name: "no service fields",
			appointment: domain.Appointment{
				CustomerName: "Test Client",
			},
			wantDesc:   "Service",
			wantAmount: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockQuerier()
			appt := tt.appointment
			appt.ID = uuid.New()
			appt.UserID = userID
			appt.CreatedAt = time.Now()
			repo.appointments[appt.ID] = &appt

			composer := NewComposer(repo, NewInvoiceService(repo, billing.NewMockProvider(), testLogger()), testLogger())
			seed, err := composer.SeedFromAppointment(ctx, userID, appt.ID)
			require.NoError(t, err)

			assert.Equal(t, appt.CustomerName, seed.CustomerName)
			assert.Equal(t, appt.CustomerEmail, seed.CustomerEmail)
			require.NotNil(t, seed.AppointmentID)
			assert.Equal(t, appt.ID, *seed.AppointmentID)

			require.Len(t, seed.LineItems, 1)
			assert.Equal(t, tt.wantDesc, seed.LineItems[0].Description)
			assert.Equal(t, int32(1), seed.LineItems[0].Quantity)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(seed.LineItems[0].UnitAmount))
		})
	}

	t.Run("other users' appointments stay hidden", func(t *testing.T) {
		repo := newMockQuerier()
		appt := &domain.Appointment{ID: uuid.New(), UserID: uuid.New(), CustomerName: "Someone Else"}
		repo.appointments[appt.ID] = appt

		composer := NewComposer(repo, NewInvoiceService(repo, billing.NewMockProvider(), testLogger()), testLogger())
		_, err := composer.SeedFromAppointment(ctx, userID, appt.ID)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

// TestSeedFromInquiry verifies inquiry seeding: description carried over,
// amount left at zero for the user to fill in.
func TestSeedFromInquiry(t *testing.T) {
	ctx := context.Background()
	repo := newMockQuerier()
	userID := uuid.New()

	inq := &domain.Inquiry{
		ID:            uuid.New(),
		UserID:        userID,
		CustomerName:  "Test Client",
		CustomerEmail: "client@example.com",
		CustomerPhone: "+15555550100",
		Description:   "Leaky faucet in the kitchen",
		Status:        "new",
		CreatedAt:     time.Now(),
	}
	repo.inquiries[inq.ID] = inq

	composer := NewComposer(repo, NewInvoiceService(repo, billing.NewMockProvider(), testLogger()), testLogger())
	seed, err := composer.SeedFromInquiry(ctx, userID, inq.ID)
	require.NoError(t, err)

	assert.Equal(t, "Test Client", seed.CustomerName)
	assert.Equal(t, "client@example.com", seed.CustomerEmail)
	assert.Equal(t, "+15555550100", seed.CustomerPhone)
	require.NotNil(t, seed.InquiryID)
	assert.Equal(t, inq.ID, *seed.InquiryID)

	require.Len(t, seed.LineItems, 1)
	assert.Equal(t, "Leaky faucet in the kitchen", seed.LineItems[0].Description)
	assert.True(t, seed.LineItems[0].UnitAmount.IsZero())

	_, err = composer.SeedFromInquiry(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, ErrInquiryNotFound)
}

// TestComposer_Validate verifies the first violation surfaces as a single
// error before any platform call.
func TestComposer_Validate(t *testing.T) {
	composer := NewComposer(newMockQuerier(), nil, testLogger())

	tests := []struct {
		name    string
		params  domain.CreateInvoiceParams
		wantMsg string
	}{
		{
			name: "missing customer",
			params: domain.CreateInvoiceParams{
				LineItems: repairPartsItems(),
			},
			wantMsg: "Customer name and email are required",
		},
		{
			name: "no line items",
			params: domain.CreateInvoiceParams{
				CustomerName:  "Test Client",
				CustomerEmail: "client@example.com",
			},
			wantMsg: "At least one line item is required",
		},
		{
			name: "first violation wins",
			params: domain.CreateInvoiceParams{
				CustomerName:  "Test Client",
				CustomerEmail: "client@example.com",
				LineItems: []domain.LineItem{
					{Description: "", Quantity: 1, UnitAmount: decimal.NewFromInt(10)},
					{Description: "Also broken", Quantity: 0, UnitAmount: decimal.Zero},
				},
			},
			wantMsg: "Line item 1 is missing a description",
		},
		{
			name: "zero unit amount",
			params: domain.CreateInvoiceParams{
				CustomerName:  "Test Client",
				CustomerEmail: "client@example.com",
				LineItems: []domain.LineItem{
					{Description: "Repair", Quantity: 1, UnitAmount: decimal.Zero},
				},
			},
			wantMsg: "Line item 1 must have a unit amount greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := composer.Validate(tt.params)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Equal(t, tt.wantMsg, domain.ErrorMessage(err))
		})
	}

	t.Run("valid params pass", func(t *testing.T) {
		err := composer.Validate(domain.CreateInvoiceParams{
			CustomerName:  "Test Client",
			CustomerEmail: "client@example.com",
			LineItems:     repairPartsItems(),
		})
		assert.NoError(t, err)
	})
}

// TestCreateAndSend verifies the two-step sequencing: send only after a
// successful create, and a persisted draft when send fails.
func TestCreateAndSend(t *testing.T) {
	ctx := context.Background()

	t.Run("sends after successful create", func(t *testing.T) {
		repo := newMockQuerier()
		provider := billing.NewMockProvider()
		userID := uuid.New()
		repo.connectedAccountFixture(userID)

		composer := NewComposer(repo, NewInvoiceService(repo, provider, testLogger()), testLogger())
		inv, err := composer.CreateAndSend(ctx, domain.CreateInvoiceParams{
			UserID:        userID,
			CustomerEmail: "client@example.com",
			CustomerName:  "Test Client",
			LineItems:     repairPartsItems(),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusSent, inv.Status)
		assert.NotNil(t, inv.SentAt)
	})

	t.Run("draft persists when send fails", func(t *testing.T) {
		repo := newMockQuerier()
		provider := billing.NewMockProvider()
		userID := uuid.New()
		repo.connectedAccountFixture(userID)

		provider.SendInvoiceFunc = func(ctx context.Context, params billing.SendInvoiceParams) (*billing.SentInvoice, error) {
			return nil, &billing.StripeError{Message: "Rate limited."}
		}

		composer := NewComposer(repo, NewInvoiceService(repo, provider, testLogger()), testLogger())
		inv, err := composer.CreateAndSend(ctx, domain.CreateInvoiceParams{
			UserID:        userID,
			CustomerEmail: "client@example.com",
			CustomerName:  "Test Client",
			LineItems:     repairPartsItems(),
		})

		require.Error(t, err)
		require.NotNil(t, inv, "the created draft comes back with the send error")
		assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)

		stored := repo.invoices[inv.StripeInvoiceID]
		require.NotNil(t, stored)
		assert.Equal(t, domain.InvoiceStatusDraft, stored.Status)
	})

	t.Run("create failure sends nothing", func(t *testing.T) {
		repo := newMockQuerier()
		provider := billing.NewMockProvider()
		userID := uuid.New()

		composer := NewComposer(repo, NewInvoiceService(repo, provider, testLogger()), testLogger())
		inv, err := composer.CreateAndSend(ctx, domain.CreateInvoiceParams{
			UserID:        userID,
			CustomerEmail: "client@example.com",
			CustomerName:  "Test Client",
			LineItems:     repairPartsItems(),
		})

		assert.ErrorIs(t, err, domain.ErrAccountNotConnected)
		assert.Nil(t, inv)
		assert.Empty(t, provider.CallLog)
	})
}
