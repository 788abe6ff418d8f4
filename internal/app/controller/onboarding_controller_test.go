package controller

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/contaleve/onboarding-backend/internal/app/model"
	"github.com/contaleve/onboarding-backend/internal/app/repository"
	"github.com/contaleve/onboarding-backend/internal/app/service"
	"github.com/contaleve/onboarding-backend/internal/db"
	"github.com/contaleve/onboarding-backend/pkg/cache"
	"github.com/contaleve/onboarding-backend/pkg/cronos"
)

// fakeCronos is an httptest server speaking the registration API:
// issues tokens and answers every registration call with a success
// envelope
func fakeCronos(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/application/token":
			json.NewEncoder(w).Encode(map[string]interface{}{"token": "app-token"})
		case "/v1/register/individual":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":       true,
				"individual_id": "ind-100",
				"status":        "em_cadastro",
				"current_step":  1,
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":       true,
				"individual_id": "ind-100",
			})
		}
	}))
}

type controllerFixture struct {
	db     *gorm.DB
	server *httptest.Server
	router *gin.Engine
}

func setupOnboardingControllerTest(t *testing.T) *controllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	server := fakeCronos(t)

	client, err := cronos.NewClient(cronos.Config{
		BaseURL:    server.URL,
		PublicKey:  "pub",
		PrivateKey: "priv",
		Timeout:    5 * time.Second,
	}, cache.NewMemoryTokenStore())
	require.NoError(t, err)

	locks := service.NewLocks()
	onboardingService := service.NewOnboardingService(
		repository.NewCustomerRepository(testDB),
		repository.NewIndividualDataRepository(testDB),
		repository.NewDocumentRepository(testDB),
		repository.NewProgressRepository(testDB),
		repository.NewStateRepository(testDB),
		client,
		nil,
		nil,
		cache.NewMemoryProfileCache(),
		locks,
	)
	businessService := service.NewBusinessService(
		repository.NewCustomerRepository(testDB),
		repository.NewBusinessDataRepository(testDB),
		repository.NewPartnerRepository(testDB),
		repository.NewDocumentRepository(testDB),
		repository.NewProgressRepository(testDB),
		repository.NewStateRepository(testDB),
		client,
		nil,
		nil,
		locks,
	)

	onboardingController := NewOnboardingController(onboardingService)
	businessController := NewBusinessController(businessService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/onboarding/start", onboardingController.Start)
	v1.POST("/onboarding/:id/personal-info", onboardingController.SubmitPersonalInfo)
	v1.POST("/onboarding/:id/documents", onboardingController.SubmitDocumentImage)
	v1.POST("/onboarding/:id/finalize", onboardingController.Finalize)
	v1.GET("/onboarding/:id/progress", onboardingController.Progress)
	v1.PUT("/business/:id/company", businessController.UpsertCompany)
	v1.POST("/business/:id/partners", businessController.UpsertPartner)
	v1.GET("/business/:id/validation", businessController.Validation)
	v1.POST("/business/:id/sync", businessController.Sync)

	return &controllerFixture{db: testDB, server: server, router: router}
}

func (f *controllerFixture) close() {
	f.server.Close()
	db.CleanupTestDB(f.db)
}

func (f *controllerFixture) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func (f *controllerFixture) start(t *testing.T, document string) service.OnboardingResult {
	w := f.postJSON(t, "/api/v1/onboarding/start", gin.H{"document": document})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.OnboardingResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestOnboardingController_Start(t *testing.T) {
	t.Run("Valid CPF", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()

		result := f.start(t, "123.456.789-01")
		assert.Equal(t, "12345678901", result.Document)
		assert.Equal(t, model.AccountTypeCPF, result.AccountType)
		assert.Equal(t, "ind-100", result.IndividualID)
	})

	t.Run("Invalid document", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()

		w := f.postJSON(t, "/api/v1/onboarding/start", gin.H{"document": "123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "CUSTOMER_INVALID_DOCUMENT")
	})

	t.Run("Missing body", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()

		w := f.postJSON(t, "/api/v1/onboarding/start", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOnboardingController_Steps(t *testing.T) {
	t.Run("Personal info advances the step", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()
		started := f.start(t, "12345678901")

		w := f.postJSON(t, "/api/v1/onboarding/"+started.CustomerID+"/personal-info", gin.H{
			"full_name": "João Souza",
			"username":  "joaosouza",
			"email":     "joao@gmail.com",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result service.OnboardingResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, 2, result.CurrentStep)
	})

	t.Run("Out-of-order step returns 422", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()
		started := f.start(t, "12345678901")

		w := f.postJSON(t, "/api/v1/onboarding/"+started.CustomerID+"/finalize", gin.H{
			"password": "senha-muito-forte",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ONBOARDING_STEP_ORDER")
	})

	t.Run("Unknown customer returns 404", func(t *testing.T) {
		f := setupOnboardingControllerTest(t)
		defer f.close()

		w := f.postJSON(t, "/api/v1/onboarding/desconhecido/personal-info", gin.H{
			"full_name": "João", "username": "joao", "email": "joao@gmail.com",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOnboardingController_DocumentUpload(t *testing.T) {
	f := setupOnboardingControllerTest(t)
	defer f.close()
	started := f.start(t, "12345678901")

	// Move the customer to the document step
	customers := repository.NewCustomerRepository(f.db)
	customer, err := customers.FindByID(started.CustomerID)
	require.NoError(t, err)
	customer.CurrentStep = 3
	require.NoError(t, customers.Update(customer))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("image_type", "frente"))
	require.NoError(t, writer.WriteField("document_type", "rg_frente"))
	part, err := writer.CreateFormFile("file", "rg.jpg")
	require.NoError(t, err)
	part.Write([]byte("imagem"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/onboarding/"+started.CustomerID+"/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	docs, err := repository.NewDocumentRepository(f.db).FindByCustomerID(started.CustomerID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocTypeRGFrente, docs[0].DocumentType)
	assert.True(t, docs[0].Uploaded)
	assert.EqualValues(t, len("imagem"), docs[0].FileSize)
}

func TestBusinessController_Flow(t *testing.T) {
	f := setupOnboardingControllerTest(t)
	defer f.close()
	started := f.start(t, "12345678000190")
	require.Equal(t, model.AccountTypeCNPJ, started.AccountType)

	w := httptest.NewRecorder()
	payload, _ := json.Marshal(gin.H{
		"razao_social": "ACME Comércio LTDA",
		"email":        "contato@acme.com.br",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/business/"+started.CustomerID+"/company", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w2 := f.postJSON(t, "/api/v1/business/"+started.CustomerID+"/partners", gin.H{
		"document": "12345678901",
		"name":     "Maria Silva",
	})
	require.Equal(t, http.StatusOK, w2.Code, w2.Body.String())

	// Incomplete registration cannot sync
	w3 := f.postJSON(t, "/api/v1/business/"+started.CustomerID+"/sync", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w3.Code)
	assert.Contains(t, w3.Body.String(), "ONBOARDING_INCOMPLETE")

	// Validation lists the missing fields
	w4 := httptest.NewRecorder()
	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/business/"+started.CustomerID+"/validation", nil)
	f.router.ServeHTTP(w4, req4)
	require.Equal(t, http.StatusOK, w4.Code)

	var validation service.ValidationResult
	require.NoError(t, json.Unmarshal(w4.Body.Bytes(), &validation))
	assert.False(t, validation.Valid)
	assert.Contains(t, validation.MissingFields, "cnae")
}
