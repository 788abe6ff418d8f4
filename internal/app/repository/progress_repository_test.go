package repository

import (
	"testing"
	"time"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/db"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRepository_Upsert(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	customer := &model.Customer{
		Document:    "12345678000199",
		AccountType: model.AccountTypeCNPJ,
		Status:      model.StatusInProgress,
		CurrentStep: 1,
	}
	require.NoError(t, NewCustomerRepository(testDB).Create(customer))

	repo := NewProgressRepository(testDB)

	first := &model.OnboardingProgress{
		CustomerID:    customer.ID,
		PendingFields: pq.StringArray{"cnae", "socios", "contrato_social"},
		FilledFields:  pq.StringArray{"name", "email"},
	}
	require.NoError(t, repo.Upsert(first))

	// Second upsert replaces the arrays; pending may shrink to empty
	now := time.Now()
	second := &model.OnboardingProgress{
		CustomerID:     customer.ID,
		PendingFields:  pq.StringArray{},
		FilledFields:   pq.StringArray{"name", "email", "cnae", "socios", "contrato_social"},
		LastSyncStatus: model.SyncResultSuccess,
		LastSyncAt:     &now,
	}
	require.NoError(t, repo.Upsert(second))
	assert.Equal(t, first.ID, second.ID)

	found, err := repo.FindByCustomerID(customer.ID)
	require.NoError(t, err)
	assert.Empty(t, found.PendingFields)
	assert.Len(t, found.FilledFields, 5)
	assert.Equal(t, model.SyncResultSuccess, found.LastSyncStatus)
	assert.NotNil(t, found.LastSyncAt)
}

func TestStateRepository_AppendOnly(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	customer := &model.Customer{
		Document:    "12345678901",
		AccountType: model.AccountTypeCPF,
		Status:      model.StatusInProgress,
		CurrentStep: 1,
	}
	require.NoError(t, NewCustomerRepository(testDB).Create(customer))

	repo := NewStateRepository(testDB)

	require.NoError(t, repo.Append(&model.OnboardingState{
		CustomerID: customer.ID,
		Status:     model.StatusInProgress,
		Step:       1,
		Message:    "cadastro iniciado",
	}))
	require.NoError(t, repo.Append(&model.OnboardingState{
		CustomerID: customer.ID,
		Status:     model.StatusComplete,
		Step:       8,
		Message:    "dados completos",
	}))

	states, err := repo.ListByCustomerID(customer.ID)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, model.StatusInProgress, states[0].Status)
	assert.Equal(t, model.StatusComplete, states[1].Status)

	latest, err := repo.Latest(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, latest.Status)
	assert.Equal(t, 8, latest.Step)
}
