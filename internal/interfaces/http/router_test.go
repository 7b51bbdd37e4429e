package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stocktake-api/internal/application/dto"
	"github.com/jhoicas/stocktake-api/internal/application/stocktake"
	"github.com/jhoicas/stocktake-api/internal/domain/entity"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/catalog"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/memory"
	"github.com/jhoicas/stocktake-api/internal/infrastructure/report"
	apphttp "github.com/jhoicas/stocktake-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stocktake-api/pkg/jwt"
)

const testAdminPassword = "clave-admin"

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.NewStore()
	store.PutProducts(
		entity.Product{ID: "p1", Name: "Arroz", Category: "Granos", StorageArea: "Bodega", UnitPrice: decimal.NewFromInt(10), StockQuantity: 10},
		entity.Product{ID: "p2", Name: "Frijol", Category: "Granos", StorageArea: "Estante", UnitPrice: decimal.NewFromInt(4), StockQuantity: 20},
	)

	countUC := stocktake.NewCountUseCase(store.Tasks(), store.Products(), nil, nil, nil)
	comparisonUC := stocktake.NewComparisonUseCase(store.Tasks(), store.Comparisons(), stocktake.ComparisonOptions{}, nil, nil)
	exportUC := stocktake.NewExportUseCase(comparisonUC, report.NewCSVRenderer(), report.NewMarkdownRenderer())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CountUC:      countUC,
		ComparisonUC: comparisonUC,
		ExportUC:     exportUC,
		Products:     store.Products(),
		Importer:     catalog.NewImporter(store.Products(), nil),
		Auth: apphttp.AuthConfig{
			AdminUsername:     "admin",
			AdminPasswordHash: string(hash),
			JWTSecret:         testJWTSecret,
			JWTIssuer:         testIssuer,
			JWTExpMinutes:     testExpMin,
		},
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

// completedCount crea un conteo con todo el catálogo y registra las cantidades dadas.
func (f *apiFixture) completedCount(t *testing.T, token string, qty map[string]int) string {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/stocktake/tasks", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var task dto.CountTaskResponse
	require.NoError(t, json.Unmarshal(body, &task))

	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/items/bulk", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	for id, q := range qty {
		resp, body = f.do(t, http.MethodPut, "/api/stocktake/tasks/"+task.CountID+"/items/"+id, token, map[string]any{"actual_quantity": q})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}
	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/complete", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	return task.CountID
}

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e
}

func TestLogin_CredencialesValidasYInvalidas(t *testing.T) {
	f := newAPI(t)

	resp, body := f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: testAdminPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Equal(t, testExpMin*60, out.ExpiresIn)

	userID, role, err := pkgjwt.Parse(testJWTSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", userID)
	assert.Equal(t, pkgjwt.RoleAdmin, role)

	resp, body = f.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, body).Code)

	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRutasProtegidas_SinToken_Retorna401(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.do(t, http.MethodGet, "/api/stocktake/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFlujoCompleto_ConteoComparacionYExportacion(t *testing.T) {
	f := newAPI(t)
	token := tokenForRole(t, pkgjwt.RoleOperator)

	previous := f.completedCount(t, token, map[string]int{"p1": 10, "p2": 20})
	current := f.completedCount(t, token, map[string]int{"p1": 4, "p2": 20})

	resp, body := f.do(t, http.MethodPost, "/api/stocktake/comparisons", token, dto.CompareRequest{
		CurrentCountID:  current,
		PreviousCountID: previous,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var cmp dto.ComparisonResponse
	require.NoError(t, json.Unmarshal(body, &cmp))
	assert.Equal(t, "manual", cmp.ComparisonType)
	require.Len(t, cmp.ChangeRecords, 2)
	assert.Equal(t, 1, cmp.Summary.SignificantChanges)

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/comparisons/"+cmp.ComparisonID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var again dto.ComparisonResponse
	require.NoError(t, json.Unmarshal(body, &again))
	assert.Equal(t, cmp.ComparisonID, again.ComparisonID)

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/comparisons", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ComparisonListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Count)
	assert.False(t, list.Page.HasMore)

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/comparisons/"+cmp.ComparisonID+"/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), ".csv")
	assert.Contains(t, string(body), "p1")

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/comparisons/"+cmp.ComparisonID+"/export?format=docx", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	exportErr := decodeError(t, body)
	assert.Equal(t, "VALIDATION", exportErr.Code)
	assert.Contains(t, exportErr.Message, "csv, md")

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/comparisons/"+cmp.ComparisonID+"/insight", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "AI_UNAVAILABLE", decodeError(t, body).Code)
}

func TestConteo_ErroresDeDominioMapeanAStatus(t *testing.T) {
	f := newAPI(t)
	token := tokenForRole(t, pkgjwt.RoleOperator)

	resp, body := f.do(t, http.MethodGet, "/api/stocktake/tasks/no-existe", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "TASK_NOT_FOUND", decodeError(t, body).Code)

	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks", token, dto.CreateCountTaskRequest{Note: "semanal"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var task dto.CountTaskResponse
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, testUserID, task.Operator)

	// Sin ítems no se puede completar.
	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/complete", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "EMPTY_TASK", decodeError(t, body).Code)

	resp, _ = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/items", token, dto.AddCountItemRequest{ProductID: "p1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/items", token, dto.AddCountItemRequest{ProductID: "p1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_ITEM", decodeError(t, body).Code)

	resp, body = f.do(t, http.MethodPut, "/api/stocktake/tasks/"+task.CountID+"/items/p1", token, map[string]any{"actual_quantity": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUANTITY", decodeError(t, body).Code)

	resp, body = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/complete", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INCOMPLETE_ITEMS", decodeError(t, body).Code)

	resp, _ = f.do(t, http.MethodPost, "/api/stocktake/tasks/"+task.CountID+"/cancel", token, dto.CancelCountTaskRequest{Reason: "error de carga"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, http.MethodPut, "/api/stocktake/tasks/"+task.CountID+"/items/p1", token, map[string]any{"actual_quantity": 3})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "TASK_NOT_ACTIVE", decodeError(t, body).Code)

	resp, body = f.do(t, http.MethodGet, "/api/stocktake/tasks?status=cancelled", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.CountTaskListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Count)

	resp, _ = f.do(t, http.MethodGet, "/api/stocktake/tasks?status=abierto", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestComparacionSemanal_SinBase_Retorna422(t *testing.T) {
	f := newAPI(t)
	token := tokenForRole(t, pkgjwt.RoleOperator)
	f.completedCount(t, token, map[string]int{"p1": 10, "p2": 20})

	resp, body := f.do(t, http.MethodPost, "/api/stocktake/comparisons/weekly", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "NO_BASELINE", decodeError(t, body).Code)
}

func TestImportarCatalogo_SoloAdmin(t *testing.T) {
	f := newAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "catalogo.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("id,name,category,storage_area,unit_price,stock_quantity\np3,Lenteja,Granos,Bodega,3.50,8\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	upload := func(token string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/catalog/import", bytes.NewReader(buf.Bytes()))
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", token)
		resp, err := f.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := upload(tokenForRole(t, pkgjwt.RoleOperator))
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = upload(tokenForRole(t, pkgjwt.RoleAdmin))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.PopulateCountResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Added)

	resp2, body := f.do(t, http.MethodGet, "/api/catalog/products?category=Granos", tokenForRole(t, pkgjwt.RoleOperator), nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(body, &products))
	assert.Len(t, products, 3)
}
