package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"cadastre/internal/database"
	"cadastre/internal/logger"
	"cadastre/internal/models"
	"cadastre/internal/repository"
)

// fakeTxRunner runs the transaction body directly, with no real database
// underneath. The repositories are mocked, so the Querier can be nil.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) InTx(ctx context.Context, fn func(q database.Querier) error) error {
	f.calls++
	return fn(nil)
}

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, q database.Querier, p *models.Property) (int64, error) {
	args := m.Called(ctx, q, p)
	id, _ := args.Get(0).(int64)
	if args.Error(1) == nil {
		p.ID = id
	}
	return id, args.Error(1)
}

func (m *MockPropertyRepository) Get(ctx context.Context, q database.Querier, id int64) (*models.Property, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) GetForUpdate(ctx context.Context, q database.Querier, id int64) (*models.Property, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) UpdateStatus(ctx context.Context, q database.Querier, id int64, status models.PropertyStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

// MockRecordRepository is a mock implementation of RecordRepository for testing
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Insert(ctx context.Context, q database.Querier, rec *models.ValuationRecord) (int64, error) {
	args := m.Called(ctx, q, rec)
	id, _ := args.Get(0).(int64)
	if args.Error(1) == nil {
		rec.ID = id
		rec.DocumentNo = models.DocumentNo(id)
	}
	return id, args.Error(1)
}

func (m *MockRecordRepository) GetByID(ctx context.Context, q database.Querier, id int64) (*models.ValuationRecord, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ValuationRecord), args.Error(1)
}

func (m *MockRecordRepository) GetActiveByProperty(ctx context.Context, q database.Querier, propertyID int64) (*models.ValuationRecord, error) {
	args := m.Called(ctx, q, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ValuationRecord), args.Error(1)
}

func (m *MockRecordRepository) SetStatus(ctx context.Context, q database.Querier, id int64, status models.RecordStatus) error {
	args := m.Called(ctx, q, id, status)
	return args.Error(0)
}

func (m *MockRecordRepository) ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.ValuationRecord, error) {
	args := m.Called(ctx, q, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ValuationRecord), args.Error(1)
}

func (m *MockRecordRepository) InsertDetail(ctx context.Context, q database.Querier, recordID int64, d models.Detail) error {
	args := m.Called(ctx, q, recordID, d)
	return args.Error(0)
}

func (m *MockRecordRepository) GetDetail(ctx context.Context, q database.Querier, recordID int64, kind models.PropertyKind) (models.Detail, error) {
	args := m.Called(ctx, q, recordID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Detail), args.Error(1)
}

// MockOwnerRepository is a mock implementation of OwnerRepository for testing
type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) GetOwner(ctx context.Context, q database.Querier, id int64) (*models.Owner, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Owner), args.Error(1)
}

func (m *MockOwnerRepository) ReplaceLinks(ctx context.Context, q database.Querier, propertyID int64, ownerIDs []int64) error {
	args := m.Called(ctx, q, propertyID, ownerIDs)
	return args.Error(0)
}

func (m *MockOwnerRepository) ListLinkedOwners(ctx context.Context, q database.Querier, propertyID int64) ([]models.Owner, error) {
	args := m.Called(ctx, q, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Owner), args.Error(1)
}

func (m *MockOwnerRepository) InsertSnapshots(ctx context.Context, q database.Querier, snaps []models.OwnerSnapshot) error {
	args := m.Called(ctx, q, snaps)
	return args.Error(0)
}

func (m *MockOwnerRepository) ListSnapshots(ctx context.Context, q database.Querier, recordID int64) ([]models.OwnerSnapshot, error) {
	args := m.Called(ctx, q, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OwnerSnapshot), args.Error(1)
}

// MockHistoryRepository is a mock implementation of HistoryRepository for testing
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) InsertEntry(ctx context.Context, q database.Querier, entry *models.HistoryEntry,
	changes []models.HistoryChange, edges []models.LineageEdge) (int64, error) {
	args := m.Called(ctx, q, entry, changes, edges)
	id, _ := args.Get(0).(int64)
	if args.Error(1) == nil {
		entry.ID = id
	}
	return id, args.Error(1)
}

func (m *MockHistoryRepository) ListByProperty(ctx context.Context, q database.Querier, propertyID int64) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, q, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) GetDetail(ctx context.Context, q database.Querier, historyID int64) (*models.HistoryDetail, error) {
	args := m.Called(ctx, q, historyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryDetail), args.Error(1)
}

// MockReferenceRepository is a mock implementation of ReferenceRepository for testing
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) Exists(ctx context.Context, q database.Querier, table repository.ReferenceTable, id int64) (bool, error) {
	args := m.Called(ctx, q, table, id)
	return args.Bool(0), args.Error(1)
}

type engineMocks struct {
	tx      *fakeTxRunner
	props   *MockPropertyRepository
	records *MockRecordRepository
	owners  *MockOwnerRepository
	history *MockHistoryRepository
	refs    *MockReferenceRepository
}

func (m *engineMocks) assertExpectations(t mock.TestingT) {
	m.props.AssertExpectations(t)
	m.records.AssertExpectations(t)
	m.owners.AssertExpectations(t)
	m.history.AssertExpectations(t)
	m.refs.AssertExpectations(t)
}

// newTestEngine wires an Engine over mocked repositories with a 20%
// machinery residual floor.
func newTestEngine() (*Engine, *engineMocks) {
	m := &engineMocks{
		tx:      &fakeTxRunner{},
		props:   new(MockPropertyRepository),
		records: new(MockRecordRepository),
		owners:  new(MockOwnerRepository),
		history: new(MockHistoryRepository),
		refs:    new(MockReferenceRepository),
	}
	e := NewEngine(m.tx, m.props, m.records, m.owners, m.history, m.refs,
		decimal.NewFromInt(20), logger.New("test"))
	return e, m
}
