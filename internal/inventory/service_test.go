package inventory

import (
	"context"
	"testing"

	"github.com/internalize/internalize/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClientRepo struct {
	mock.Mock
}

func (m *mockClientRepo) Create(ctx context.Context, c *Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *mockClientRepo) GetByName(ctx context.Context, name string) (*Client, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *mockClientRepo) List(ctx context.Context) ([]*Client, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*Client), args.Error(1)
}

type mockPlaceRepo struct {
	mock.Mock
}

func (m *mockPlaceRepo) Create(ctx context.Context, p *Place) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPlaceRepo) Update(ctx context.Context, p *Place) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id int64) (*Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Place), args.Error(1)
}

func (m *mockPlaceRepo) List(ctx context.Context, scope Scope) ([]*Place, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]*Place), args.Error(1)
}

type mockManufacturerRepo struct {
	mock.Mock
}

func (m *mockManufacturerRepo) GetByID(ctx context.Context, id int64) (*Manufacturer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Manufacturer), args.Error(1)
}

func (m *mockManufacturerRepo) CountAppliances(ctx context.Context, id int64, scope Scope) (int, error) {
	args := m.Called(ctx, id, scope)
	return args.Int(0), args.Error(1)
}

type mockContractRepo struct {
	mock.Mock
}

func (m *mockContractRepo) GetByID(ctx context.Context, id int64) (*Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Contract), args.Error(1)
}

type mockApplianceRepo struct {
	mock.Mock
}

func (m *mockApplianceRepo) Create(ctx context.Context, a *Appliance) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockApplianceRepo) Update(ctx context.Context, a *Appliance) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockApplianceRepo) GetByID(ctx context.Context, id int64) (*Appliance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appliance), args.Error(1)
}

func (m *mockApplianceRepo) List(ctx context.Context, scope Scope) ([]*Appliance, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).([]*Appliance), args.Error(1)
}

func (m *mockApplianceRepo) ListByCI(ctx context.Context, ciID int64) ([]*Appliance, error) {
	args := m.Called(ctx, ciID)
	return args.Get(0).([]*Appliance), args.Error(1)
}

type mockCIRepo struct {
	mock.Mock
}

func (m *mockCIRepo) Create(ctx context.Context, ci *CI, applianceIDs []int64) error {
	args := m.Called(ctx, ci, applianceIDs)
	return args.Error(0)
}

func (m *mockCIRepo) GetByID(ctx context.Context, id int64) (*CI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CI), args.Error(1)
}

func (m *mockCIRepo) List(ctx context.Context, scope Scope, status Status) ([]*CI, error) {
	args := m.Called(ctx, scope, status)
	return args.Get(0).([]*CI), args.Error(1)
}

type mocks struct {
	clients       *mockClientRepo
	places        *mockPlaceRepo
	manufacturers *mockManufacturerRepo
	contracts     *mockContractRepo
	appliances    *mockApplianceRepo
	cis           *mockCIRepo
}

func newTestService() (*Service, *mocks) {
	m := &mocks{
		clients:       new(mockClientRepo),
		places:        new(mockPlaceRepo),
		manufacturers: new(mockManufacturerRepo),
		contracts:     new(mockContractRepo),
		appliances:    new(mockApplianceRepo),
		cis:           new(mockCIRepo),
	}
	svc := NewService(Repositories{
		Clients:       m.clients,
		Places:        m.places,
		Manufacturers: m.manufacturers,
		Contracts:     m.contracts,
		Appliances:    m.appliances,
		CIs:           m.cis,
	}, audit.NewSlogLogger())
	return svc, m
}

// TestPurpose: Validates that a client-bound caller always writes places into its own client.
// Scope: Unit Test
// Expected: The place is created with the scope's client; naming another client fails with ErrClientNotFound.
// Test Case ID: INV-01
func TestService_CreatePlace_TenantBound(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.places.On("Create", ctx, mock.MatchedBy(func(p *Place) bool {
		return p.ClientID == 7 && p.Name == "SP" && p.Description == "Center"
	})).Return(nil).Once()

	place, err := svc.CreatePlace(ctx, ClientScope(7), 1, PlaceInput{Name: " SP ", Description: "Center"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), place.ClientID)

	_, err = svc.CreatePlace(ctx, ClientScope(7), 1, PlaceInput{ClientID: 8, Name: "BH"})
	assert.ErrorIs(t, err, ErrClientNotFound)

	_, err = svc.CreatePlace(ctx, AllClients(), 1, PlaceInput{Name: "BH"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m.places.AssertExpectations(t)
}

// TestPurpose: Validates that places of another client cannot be updated.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: ErrPlaceNotFound and no Update call.
// Test Case ID: INV-02
func TestService_UpdatePlace_CrossTenant(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.places.On("GetByID", ctx, int64(3)).Return(&Place{ID: 3, ClientID: 2, Name: "NY1"}, nil)

	_, err := svc.UpdatePlace(ctx, ClientScope(1), 10, 3, PlaceInput{Name: "Hijacked"})
	assert.ErrorIs(t, err, ErrPlaceNotFound)
	m.places.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestPurpose: Validates that CI detail hides CIs of other clients and loads relations for own CIs.
// Scope: Unit Test
// Security: Tenant isolation (cross-tenant detail is a 404)
// Expected: ErrCINotFound for a foreign CI; place, contract and appliances populated otherwise.
// Test Case ID: INV-03
func TestService_GetCI(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()
	contractID := int64(4)

	m.cis.On("GetByID", ctx, int64(1)).Return(&CI{ID: 1, ClientID: 2, PlaceID: 5}, nil)
	m.cis.On("GetByID", ctx, int64(9)).Return(&CI{ID: 9, ClientID: 1, PlaceID: 5, ContractID: &contractID}, nil)
	m.places.On("GetByID", ctx, int64(5)).Return(&Place{ID: 5, ClientID: 1, Name: "SP"}, nil)
	m.contracts.On("GetByID", ctx, contractID).Return(&Contract{ID: 4, ClientID: 1, Name: "SP-001"}, nil)
	m.appliances.On("ListByCI", ctx, int64(9)).Return([]*Appliance{{ID: 11, SerialNumber: "TYF987"}}, nil)
	m.appliances.On("ListByCI", ctx, int64(1)).Return([]*Appliance{}, nil)

	_, err := svc.GetCI(ctx, ClientScope(1), 1)
	assert.ErrorIs(t, err, ErrCINotFound)

	ci, err := svc.GetCI(ctx, ClientScope(1), 9)
	require.NoError(t, err)
	assert.Equal(t, "SP", ci.Place.Name)
	assert.Equal(t, "SP-001", ci.Contract.Name)
	require.Len(t, ci.Appliances, 1)
	assert.Equal(t, "TYF987", ci.Appliances[0].SerialNumber)

	// Superusers see every client.
	_, err = svc.GetCI(ctx, AllClients(), 1)
	assert.NoError(t, err)
}

// TestPurpose: Validates that a hand-made CI cannot reference appliances of another client.
// Scope: Unit Test
// Security: Tenant isolation
// Expected: ErrApplianceNotFound and no Create call.
// Test Case ID: INV-04
func TestService_CreateCI_ForeignAppliance(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.places.On("GetByID", ctx, int64(5)).Return(&Place{ID: 5, ClientID: 1}, nil)
	m.appliances.On("GetByID", ctx, int64(20)).Return(&Appliance{ID: 20, ClientID: 2}, nil)

	_, err := svc.CreateCI(ctx, ClientScope(1), 10, CIInput{
		PlaceID:        5,
		ApplianceIDs:   []int64{20},
		Hostname:       "NEW_HOST",
		IP:             "10.10.10.254",
		BusinessImpact: ImpactHigh,
	})
	assert.ErrorIs(t, err, ErrApplianceNotFound)
	m.cis.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates hand-made CI creation with deduplicated appliance links.
// Scope: Unit Test
// Expected: CI stored with status CREATED, normalized IP and each appliance linked once.
// Test Case ID: INV-05
func TestService_CreateCI_Success(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.places.On("GetByID", ctx, int64(5)).Return(&Place{ID: 5, ClientID: 1, Name: "A"}, nil)
	m.appliances.On("GetByID", ctx, int64(20)).Return(&Appliance{ID: 20, ClientID: 1}, nil)
	m.cis.On("Create", ctx, mock.MatchedBy(func(ci *CI) bool {
		return ci.ClientID == 1 && ci.Status == StatusCreated && ci.IP == "10.10.10.254"
	}), []int64{20}).Return(nil)

	ci, err := svc.CreateCI(ctx, ClientScope(1), 10, CIInput{
		PlaceID:        5,
		ApplianceIDs:   []int64{20, 20},
		Hostname:       "NEW_HOST",
		IP:             " 10.10.10.254 ",
		Description:    "New Configuration Item",
		Deployed:       true,
		BusinessImpact: ImpactHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW_HOST", ci.Hostname)
	assert.Len(t, ci.Appliances, 1)

	_, err = svc.CreateCI(ctx, ClientScope(1), 10, CIInput{PlaceID: 5, Hostname: "h", IP: "not-an-ip"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// TestPurpose: Validates the tenant-scoped appliance count on the manufacturer detail.
// Scope: Unit Test
// Expected: The count is requested with the caller's scope.
// Test Case ID: INV-06
func TestService_GetManufacturer(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.manufacturers.On("GetByID", ctx, int64(3)).Return(&Manufacturer{ID: 3, Name: "Cisco"}, nil)
	m.manufacturers.On("CountAppliances", ctx, int64(3), ClientScope(1)).Return(5, nil)
	m.manufacturers.On("CountAppliances", ctx, int64(3), AllClients()).Return(12, nil)

	detail, err := svc.GetManufacturer(ctx, ClientScope(1), 3)
	require.NoError(t, err)
	assert.Equal(t, "Cisco", detail.Name)
	assert.Equal(t, 5, detail.ApplianceCount)

	detail, err = svc.GetManufacturer(ctx, AllClients(), 3)
	require.NoError(t, err)
	assert.Equal(t, 12, detail.ApplianceCount)
}

// TestPurpose: Validates that client-bound callers only list their own client.
// Scope: Unit Test
// Expected: A single client for client scopes; the repository listing for superusers.
// Test Case ID: INV-07
func TestService_ListClients(t *testing.T) {
	svc, m := newTestService()
	ctx := context.Background()

	m.clients.On("GetByID", ctx, int64(1)).Return(&Client{ID: 1, Name: "ACME"}, nil)
	m.clients.On("List", ctx).Return([]*Client{{ID: 1, Name: "ACME"}, {ID: 2, Name: "Globex"}}, nil)

	own, err := svc.ListClients(ctx, ClientScope(1))
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := svc.ListClients(ctx, AllClients())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
