package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chaintrack/backend/internal/hashing"
	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/repository"
	"github.com/chaintrack/backend/internal/service"
	"github.com/chaintrack/backend/internal/store"
)

// MockLedgerClient is a mock implementation of service.LedgerClient
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) CreateProduct(ctx context.Context, name, manufacturer, origin, description, dataHash string) (*ledger.CreateResult, error) {
	args := m.Called(ctx, name, manufacturer, origin, description, dataHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CreateResult), args.Error(1)
}

func (m *MockLedgerClient) GetProduct(ctx context.Context, id string) (*ledger.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Record), args.Error(1)
}

func (m *MockLedgerClient) TransferProduct(ctx context.Context, to, id string) (string, error) {
	args := m.Called(ctx, to, id)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) UpdateProductHash(ctx context.Context, id, newHash string) (string, error) {
	args := m.Called(ctx, id, newHash)
	return args.String(0), args.Error(1)
}

// MockDocumentStore is a mock implementation of service.DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Create(ctx context.Context, product *model.Product) (uuid.UUID, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockDocumentStore) GetByLedgerID(ctx context.Context, ledgerID string) (*model.Product, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockDocumentStore) Update(ctx context.Context, documentID uuid.UUID, partial store.Partial) error {
	args := m.Called(ctx, documentID, partial)
	return args.Error(0)
}

func (m *MockDocumentStore) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

// MockTaskStore is a mock implementation of service.TaskStore
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.ReconcileTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func testFields() hashing.ProductFields {
	return hashing.ProductFields{
		Name:         "Arabica Beans",
		Manufacturer: "Finca El Paraiso",
		Origin:       "Colombia",
		Description:  "Single-origin lot 42",
	}
}

func storedProduct(fields hashing.ProductFields) *model.Product {
	product := &model.Product{
		LedgerID:     "7",
		Name:         fields.Name,
		Manufacturer: fields.Manufacturer,
		Origin:       fields.Origin,
		Description:  fields.Description,
		OwnerAddress: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		DataHash:     hashing.ComputeHash(fields),
	}
	product.InitMeta()
	return product
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	fields := testFields()
	wantHash := hashing.ComputeHash(fields)

	t.Run("ledger write then mirror", func(t *testing.T) {
		// given
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockLedger.On("CreateProduct", ctx, fields.Name, fields.Manufacturer, fields.Origin, fields.Description, wantHash).
			Return(&ledger.CreateResult{
				TxHash:      "0xabc",
				LedgerID:    "7",
				Owner:       "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
				BlockNumber: 120,
				GasUsed:     90000,
			}, nil)
		mockDocs.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(uuid.New(), nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Register(ctx, service.RegisterInput{
			Name:         fields.Name,
			Manufacturer: fields.Manufacturer,
			Origin:       fields.Origin,
			Description:  fields.Description,
		})

		// then
		require.NoError(t, err)
		assert.True(t, result.Mirrored)
		assert.Equal(t, "7", result.Product.LedgerID)
		assert.Equal(t, wantHash, result.Product.DataHash)
		assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", result.Product.OwnerAddress)
		assert.Equal(t, "0xabc", result.TxHash)

		mockLedger.AssertExpectations(t)
		mockDocs.AssertExpectations(t)
		mockTasks.AssertNotCalled(t, "Create")
	})

	t.Run("ledger failure aborts with no document write", func(t *testing.T) {
		// given
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockLedger.On("CreateProduct", ctx, fields.Name, fields.Manufacturer, fields.Origin, fields.Description, wantHash).
			Return(nil, ledger.ErrUnavailable)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Register(ctx, service.RegisterInput{
			Name:         fields.Name,
			Manufacturer: fields.Manufacturer,
			Origin:       fields.Origin,
			Description:  fields.Description,
		})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrUnavailable)
		assert.Nil(t, result)
		mockDocs.AssertNotCalled(t, "Create")
		mockTasks.AssertNotCalled(t, "Create")
	})

	t.Run("mirror failure records a reconcile task and keeps the identity", func(t *testing.T) {
		// given
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockLedger.On("CreateProduct", ctx, fields.Name, fields.Manufacturer, fields.Origin, fields.Description, wantHash).
			Return(&ledger.CreateResult{TxHash: "0xabc", LedgerID: "7", Owner: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}, nil)
		mockDocs.On("Create", ctx, mock.AnythingOfType("*model.Product")).Return(uuid.Nil, errors.New("store down"))
		mockTasks.On("Create", ctx, mock.MatchedBy(func(task *model.ReconcileTask) bool {
			return task.Action == model.TaskMirrorCreate && task.LedgerID == "7"
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Register(ctx, service.RegisterInput{
			Name:         fields.Name,
			Manufacturer: fields.Manufacturer,
			Origin:       fields.Origin,
			Description:  fields.Description,
		})

		// then
		require.NoError(t, err)
		assert.False(t, result.Mirrored)
		assert.Equal(t, "7", result.Product.LedgerID)
		mockTasks.AssertExpectations(t)
	})

	t.Run("missing required fields", func(t *testing.T) {
		// given
		productService := service.NewProductService(new(MockLedgerClient), new(MockDocumentStore), new(MockTaskStore))

		// when
		result, err := productService.Register(ctx, service.RegisterInput{Name: "Arabica Beans"})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrValidation)
		assert.Nil(t, result)
	})
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	fields := testFields()

	t.Run("verified view when hashes agree", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("GetProduct", ctx, "7").Return(&ledger.Record{
			ID:         "7",
			Name:       fields.Name,
			DataHash:   doc.DataHash,
			Owner:      "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
			CreateTime: "1700000000",
			UpdateTime: "1700000100",
			Status:     "Active",
		}, nil)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		view, err := productService.Fetch(ctx, "7")

		// then
		require.NoError(t, err)
		assert.True(t, view.BlockchainDataAvailable)
		assert.True(t, view.IsVerified)
		assert.Equal(t, doc.DataHash, view.LedgerDataHash)
		assert.Equal(t, "1700000000", view.CreateTime)
		// ownership comes from the ledger, not the mirror
		assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", view.OwnerAddress)
	})

	t.Run("tampered description fails verification", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		doc.Description = "Single-origin lot 42 (edited in the store)"

		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("GetProduct", ctx, "7").Return(&ledger.Record{ID: "7", DataHash: hashing.ComputeHash(fields)}, nil)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		view, err := productService.Fetch(ctx, "7")

		// then
		require.NoError(t, err)
		assert.True(t, view.BlockchainDataAvailable)
		assert.False(t, view.IsVerified)
		assert.NotEqual(t, view.ComputedHash, view.LedgerDataHash)
	})

	t.Run("unreachable ledger degrades instead of failing", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("GetProduct", ctx, "7").Return(nil, ledger.ErrUnavailable)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		view, err := productService.Fetch(ctx, "7")

		// then
		require.NoError(t, err)
		assert.False(t, view.BlockchainDataAvailable)
		assert.False(t, view.IsVerified)
		assert.Empty(t, view.LedgerDataHash)
		assert.NotEmpty(t, view.ComputedHash)
		// the mirror still serves its own data
		assert.Equal(t, fields.Name, view.Name)
	})

	t.Run("missing document is a hard failure", func(t *testing.T) {
		// given
		mockDocs := new(MockDocumentStore)
		mockDocs.On("GetByLedgerID", ctx, "404").Return(nil, store.ErrNotFound)

		productService := service.NewProductService(new(MockLedgerClient), mockDocs, new(MockTaskStore))

		// when
		view, err := productService.Fetch(ctx, "404")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Nil(t, view)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	fields := testFields()
	recipient := "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

	t.Run("successful transfer mirrors owner and status", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("TransferProduct", ctx, recipient, "7").Return("0xdef", nil)
		mockDocs.On("Update", ctx, doc.DocumentID, mock.MatchedBy(func(partial store.Partial) bool {
			return partial.OwnerAddress != nil && *partial.OwnerAddress == recipient &&
				partial.Status != nil && *partial.Status == string(model.StatusTransferred)
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Transfer(ctx, "7", recipient)

		// then
		require.NoError(t, err)
		assert.True(t, result.Mirrored)
		assert.Equal(t, "0xdef", result.TxHash)
		assert.Equal(t, recipient, result.NewOwner)
		mockTasks.AssertNotCalled(t, "Create")
	})

	t.Run("invalid recipient address", func(t *testing.T) {
		// given
		productService := service.NewProductService(new(MockLedgerClient), new(MockDocumentStore), new(MockTaskStore))

		// when
		result, err := productService.Transfer(ctx, "7", "not-an-address")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrValidation)
		assert.Nil(t, result)
	})

	t.Run("mirror failure records a reconcile task", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("TransferProduct", ctx, recipient, "7").Return("0xdef", nil)
		mockDocs.On("Update", ctx, doc.DocumentID, mock.AnythingOfType("store.Partial")).Return(errors.New("store down"))
		mockTasks.On("Create", ctx, mock.MatchedBy(func(task *model.ReconcileTask) bool {
			return task.Action == model.TaskMirrorTransfer && task.LedgerID == "7"
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Transfer(ctx, "7", recipient)

		// then
		require.NoError(t, err)
		assert.False(t, result.Mirrored)
		mockTasks.AssertExpectations(t)
	})

	t.Run("ledger failure aborts with no document write", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("TransferProduct", ctx, recipient, "7").Return("", ledger.ErrUnavailable)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		result, err := productService.Transfer(ctx, "7", recipient)

		// then
		require.Error(t, err)
		assert.Nil(t, result)
		mockDocs.AssertNotCalled(t, "Update")
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	fields := testFields()

	t.Run("descriptive edit anchors the new hash before the document write", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		newDescription := "Single-origin lot 43"
		changed := fields
		changed.Description = newDescription
		newHash := hashing.ComputeHash(changed)

		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("UpdateProductHash", ctx, "7", newHash).Return("0xfee", nil)
		mockDocs.On("Update", ctx, doc.DocumentID, mock.MatchedBy(func(partial store.Partial) bool {
			return partial.Description != nil && *partial.Description == newDescription &&
				partial.DataHash != nil && *partial.DataHash == newHash
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Update(ctx, "7", service.UpdateInput{Description: &newDescription})

		// then
		require.NoError(t, err)
		assert.True(t, result.Mirrored)
		assert.Equal(t, "0xfee", result.TxHash)
		assert.Equal(t, newHash, result.DataHash)
		mockLedger.AssertExpectations(t)
		mockDocs.AssertExpectations(t)
	})

	t.Run("ledger failure aborts with the store untouched", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		newName := "Robusta Beans"

		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("UpdateProductHash", ctx, "7", mock.AnythingOfType("string")).Return("", ledger.ErrUnavailable)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		result, err := productService.Update(ctx, "7", service.UpdateInput{Name: &newName})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrUnavailable)
		assert.Nil(t, result)
		mockDocs.AssertNotCalled(t, "Update")
	})

	t.Run("status-only edit skips the ledger", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		status := string(model.StatusInTransit)

		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockDocs.On("Update", ctx, doc.DocumentID, mock.MatchedBy(func(partial store.Partial) bool {
			return partial.Status != nil && *partial.Status == status && partial.DataHash == nil
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		result, err := productService.Update(ctx, "7", service.UpdateInput{Status: &status})

		// then
		require.NoError(t, err)
		assert.Empty(t, result.TxHash)
		mockLedger.AssertNotCalled(t, "UpdateProductHash")
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		// given
		productService := service.NewProductService(new(MockLedgerClient), new(MockDocumentStore), new(MockTaskStore))

		// when
		result, err := productService.Update(ctx, "7", service.UpdateInput{})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrValidation)
		assert.Nil(t, result)
	})

	t.Run("mirror failure records a reconcile task", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		newOrigin := "Brazil"

		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)
		mockTasks := new(MockTaskStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("UpdateProductHash", ctx, "7", mock.AnythingOfType("string")).Return("0xfee", nil)
		mockDocs.On("Update", ctx, doc.DocumentID, mock.AnythingOfType("store.Partial")).Return(errors.New("store down"))
		mockTasks.On("Create", ctx, mock.MatchedBy(func(task *model.ReconcileTask) bool {
			return task.Action == model.TaskMirrorUpdate && task.LedgerID == "7"
		})).Return(nil)

		productService := service.NewProductService(mockLedger, mockDocs, mockTasks)

		// when
		result, err := productService.Update(ctx, "7", service.UpdateInput{Origin: &newOrigin})

		// then
		require.NoError(t, err)
		assert.False(t, result.Mirrored)
		mockTasks.AssertExpectations(t)
	})
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	fields := testFields()

	t.Run("presented hash matches both sides", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("GetProduct", ctx, "7").Return(&ledger.Record{ID: "7", DataHash: doc.DataHash}, nil)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		result, err := productService.Verify(ctx, "7", doc.DataHash)

		// then
		require.NoError(t, err)
		assert.True(t, result.MatchesStore)
		assert.True(t, result.MatchesLedger)
		assert.True(t, result.BlockchainDataAvailable)
	})

	t.Run("stale hash matches nothing", func(t *testing.T) {
		// given
		doc := storedProduct(fields)
		mockLedger := new(MockLedgerClient)
		mockDocs := new(MockDocumentStore)

		mockDocs.On("GetByLedgerID", ctx, "7").Return(doc, nil)
		mockLedger.On("GetProduct", ctx, "7").Return(&ledger.Record{ID: "7", DataHash: doc.DataHash}, nil)

		productService := service.NewProductService(mockLedger, mockDocs, new(MockTaskStore))

		// when
		result, err := productService.Verify(ctx, "7", "0xdeadbeef")

		// then
		require.NoError(t, err)
		assert.False(t, result.MatchesStore)
		assert.False(t, result.MatchesLedger)
	})

	t.Run("empty hash is rejected", func(t *testing.T) {
		// given
		productService := service.NewProductService(new(MockLedgerClient), new(MockDocumentStore), new(MockTaskStore))

		// when
		result, err := productService.Verify(ctx, "7", "")

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, service.ErrValidation)
		assert.Nil(t, result)
	})
}

func TestListProducts(t *testing.T) {
	ctx := context.Background()
	fields := testFields()

	// given
	mockDocs := new(MockDocumentStore)
	products := []*model.Product{storedProduct(fields), storedProduct(fields)}

	query := repository.NewQuery()
	mockDocs.On("List", ctx, *query).Return(products, nil)

	productService := service.NewProductService(new(MockLedgerClient), mockDocs, new(MockTaskStore))

	// when
	results, err := productService.List(ctx, *query)

	// then
	require.NoError(t, err)
	assert.Len(t, results, 2)
	mockDocs.AssertExpectations(t)
}
