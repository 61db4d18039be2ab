package seed_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdesk/taxi/internal/auth"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/internal/seed"
	"github.com/fleetdesk/taxi/internal/storage/storagetest"
)

func TestDefaultFixtures(t *testing.T) {
	t.Parallel()

	fx, err := seed.Default()
	require.NoError(t, err)
	assert.Len(t, fx.Manufacturers, 3)
	assert.Len(t, fx.Drivers, 3)
	assert.Len(t, fx.Cars, 4)
	for _, d := range fx.Drivers {
		assert.NoError(t, auth.ValidateLicense(d.LicenseNumber), d.Username)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "empty document", doc: ""},
		{
			name: "valid",
			doc:  "manufacturers:\n  - name: Lada\n    country: Russia\n",
		},
		{
			name:    "unknown key",
			doc:     "manufacturers:\n  - name: Lada\n    country: Russia\n    founded: 1966\n",
			wantErr: "parse fixtures",
		},
		{
			name:    "missing country",
			doc:     "manufacturers:\n  - name: Lada\n",
			wantErr: "manufacturers[0]: name and country are required",
		},
		{
			name:    "car without manufacturer",
			doc:     "cars:\n  - model: Niva\n",
			wantErr: "cars[0]: model and manufacturer are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := seed.Parse(strings.NewReader(tt.doc))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDefaultIsIdempotent(t *testing.T) {
	t.Parallel()
	db := storagetest.New(t)
	ctx := t.Context()

	fx, err := seed.Default()
	require.NoError(t, err)

	res, err := seed.Load(ctx, db, fx)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{Manufacturers: 3, Drivers: 3, Cars: 4}, res)

	res, err = seed.Load(ctx, db, fx)
	require.NoError(t, err)
	assert.Equal(t, seed.Result{}, res)

	drivers := repo.NewDriverRepository(db)
	hopper, err := drivers.FindByUsername(ctx, "jim.hopper")
	require.NoError(t, err)
	got, err := drivers.FindDetail(ctx, hopper.ID)
	require.NoError(t, err)
	require.Len(t, got.Cars, 2)
	assert.Equal(t, "Town Car (Lincoln)", got.Cars[0].String())
	assert.Equal(t, "Navigator (Lincoln)", got.Cars[1].String())

	_, err = auth.Authenticate(ctx, drivers, "jim.hopper", "taxi-pass-123")
	assert.NoError(t, err, "seeded passwords are hashed and usable")
}

func TestLoadRollsBackOnUnknownReference(t *testing.T) {
	t.Parallel()
	db := storagetest.New(t)
	ctx := t.Context()

	fx, err := seed.Parse(strings.NewReader(`
manufacturers:
  - name: Lada
    country: Russia
cars:
  - model: Niva
    manufacturer: Lada
    drivers: [ghost]
`))
	require.NoError(t, err)

	_, err = seed.Load(ctx, db, fx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "ghost"`)

	n, err := repo.NewManufacturerRepository(db).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "the whole file is one transaction")
}

func TestLoadRejectsBadLicense(t *testing.T) {
	t.Parallel()
	db := storagetest.New(t)

	fx, err := seed.Parse(strings.NewReader(`
drivers:
  - username: bad
    password: pw
    license_number: abc12345
`))
	require.NoError(t, err)

	_, err = seed.Load(t.Context(), db, fx)
	assert.ErrorIs(t, err, auth.ErrInvalidLicense)
}
