package numbering_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	appnumbering "github.com/andrescamacho/stockcore-go/internal/application/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/numbering"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/domain/shared"
	"github.com/andrescamacho/stockcore-go/test/helpers"
)

type numberingEnv struct {
	repos   ports.Repos
	service *appnumbering.NumberingService
	clock   *shared.MockClock
}

func newNumberingEnv(t *testing.T) *numberingEnv {
	t.Helper()

	db := helpers.NewTestDB(t)
	repos := persistence.NewRepos(db)
	uow := persistence.NewGormUnitOfWork(db)
	clock := shared.NewMockClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	service := appnumbering.NewNumberingService(uow, zap.NewNop(), clock)

	return &numberingEnv{repos: repos, service: service, clock: clock}
}

func saveConfig(t *testing.T, env *numberingEnv, config *numbering.Config) *numbering.Config {
	t.Helper()
	require.NoError(t, env.repos.Numbering.Save(context.Background(), config))
	return config
}

func TestNextNumber_SequentialAllocation(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-",
		DigitsCount:   6,
	})
	ctx := context.Background()

	first, err := env.service.NextNumber(ctx, "purchase_order", nil, "")
	require.NoError(t, err)
	second, err := env.service.NextNumber(ctx, "purchase_order", nil, "")
	require.NoError(t, err)

	assert.Equal(t, "PO-000001", first)
	assert.Equal(t, "PO-000002", second)
}

func TestNextNumber_FiscalFormat(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "receipt",
		NumberingType: numbering.NumberingTypeFiscal,
		CurrentNumber: 6,
	})

	number, err := env.service.NextNumber(context.Background(), "receipt", nil, "")
	require.NoError(t, err)

	assert.Equal(t, "0000000007", number)
}

func TestNextNumber_ScopePrecedence(t *testing.T) {
	env := newNumberingEnv(t)
	ctx := context.Background()

	location := helpers.SeedLocation(t, env.repos, "MAIN")
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-", DigitsCount: 4,
	})
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-MAIN-", DigitsCount: 4,
		LocationID: &location.ID,
	})
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-ANNA-", DigitsCount: 4,
		UserName: "anna",
	})

	// User preference wins over everything
	number, err := env.service.NextNumber(ctx, "purchase_order", &location.ID, "anna")
	require.NoError(t, err)
	assert.Equal(t, "PO-ANNA-0001", number)

	// Location assignment wins over the type default
	number, err = env.service.NextNumber(ctx, "purchase_order", &location.ID, "boris")
	require.NoError(t, err)
	assert.Equal(t, "PO-MAIN-0001", number)

	// Neither scope matches: the type default
	number, err = env.service.NextNumber(ctx, "purchase_order", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "PO-0001", number)
}

func TestNextNumber_UnknownDocumentType(t *testing.T) {
	env := newNumberingEnv(t)

	_, err := env.service.NextNumber(context.Background(), "ghost", nil, "")

	var notFound *numbering.ErrConfigNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestNextNumber_YearlyReset(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "invoice",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "INV-", DigitsCount: 5,
		CurrentNumber: 940,
		ResetYearly:   true,
		LastResetYear: 2025,
	})
	ctx := context.Background()

	number, err := env.service.NextNumber(ctx, "invoice", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "INV-00001", number, "new year restarts the sequence")

	number, err = env.service.NextNumber(ctx, "invoice", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "INV-00002", number, "same year keeps counting")
}

func TestNextNumber_SequenceExhausted(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "voucher",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "V-", DigitsCount: 3,
		CurrentNumber: 2,
		MaxNumber:     3,
	})
	ctx := context.Background()

	number, err := env.service.NextNumber(ctx, "voucher", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "V-003", number)

	_, err = env.service.NextNumber(ctx, "voucher", nil, "")
	var exhausted *numbering.ErrSequenceExhausted
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, int64(3), exhausted.MaxNumber)
}

func TestNextNumber_OverflowWidensFormat(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "ORD-", DigitsCount: 3,
		CurrentNumber: 999,
	})

	number, err := env.service.NextNumber(context.Background(), "order", nil, "")
	require.NoError(t, err)

	assert.Equal(t, "ORD-1000", number)
}

func TestPeek_DoesNotAdvance(t *testing.T) {
	env := newNumberingEnv(t)
	saveConfig(t, env, &numbering.Config{
		DocumentType:  "purchase_order",
		NumberingType: numbering.NumberingTypeInternal,
		Prefix:        "PO-", DigitsCount: 6,
		CurrentNumber: 41,
	})
	ctx := context.Background()

	peeked, err := env.service.Peek(ctx, "purchase_order", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "PO-000042", peeked)

	allocated, err := env.service.NextNumber(ctx, "purchase_order", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "PO-000042", allocated, "peek must not consume the number")
}
