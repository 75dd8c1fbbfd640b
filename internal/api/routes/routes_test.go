package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/models"
	"github.com/princeprakhar/product-catalog/internal/repository"
	"github.com/princeprakhar/product-catalog/internal/services"
	"github.com/princeprakhar/product-catalog/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	publicDir string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		Environment:    "test",
		PublicDir:      t.TempDir(),
		PublicBaseURL:  "http://catalog.test",
		MaxUploadBytes: 1 << 20,
		CORSOrigins:    []string{"*"},
	}
	for _, m := range mutate {
		m(cfg)
	}

	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	images, err := services.NewLocalImageStore(cfg.PublicDir, cfg.PublicBaseURL, cfg.MaxUploadBytes)
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, cfg, Services{
		Products: services.NewProductService(store.Products, images),
		Reviews:  services.NewReviewService(store.Reviews, nil),
		Driver:   store.Driver,
	})
	return &testServer{router: router, publicDir: cfg.PublicDir}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []struct {
		Field    string `json:"field"`
		Message  string `json:"msg"`
		Location string `json:"location"`
	} `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

const productBody = `{"name":"A","description":"d","brand":"b","imageUrl":"u","price":10,"category":"c"}`

func (s *testServer) createProduct(t *testing.T, body string) models.Product {
	t.Helper()
	w := s.do(t, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Product
	env := decode(t, w, &p)
	assert.Equal(t, "Product with id "+p.ID+" was created", env.Message)
	return p
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := s.createProduct(t, productBody)
	require.NotEmpty(t, created.ID)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	w := s.do(t, http.MethodGet, "/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Product
	decode(t, w, &fetched)
	assert.Equal(t, "A", fetched.Name)
	assert.Equal(t, 10.0, fetched.Price)
	assert.Empty(t, fetched.Reviews)

	time.Sleep(2 * time.Millisecond)
	w = s.do(t, http.MethodPut, "/products/"+created.ID, `{"price":20}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Product
	decode(t, w, &updated)
	assert.Equal(t, 20.0, updated.Price)
	assert.Equal(t, "A", updated.Name)
	assert.Equal(t, "c", updated.Category)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	w = s.do(t, http.MethodDelete, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductNotFound(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(t, productBody)

	w := s.do(t, http.MethodDelete, "/products/nope", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "Product with id nope was not found", env.Message)
	assert.Equal(t, "NOT_FOUND", env.Error)

	w = s.do(t, http.MethodGet, "/products", "")
	var products []models.Product
	decode(t, w, &products)
	assert.Len(t, products, 1)

	w = s.do(t, http.MethodPut, "/products/nope", `{"price":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductCategoryFilter(t *testing.T) {
	s := newTestServer(t)
	first := s.createProduct(t, `{"name":"1","description":"d","brand":"b","imageUrl":"u","price":1,"category":"shoes"}`)
	s.createProduct(t, `{"name":"2","description":"d","brand":"b","imageUrl":"u","price":2,"category":"hats"}`)
	third := s.createProduct(t, `{"name":"3","description":"d","brand":"b","imageUrl":"u","price":3,"category":"shoes"}`)

	w := s.do(t, http.MethodGet, "/products?category=shoes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var products []models.Product
	decode(t, w, &products)
	require.Len(t, products, 2)
	assert.Equal(t, first.ID, products[0].ID)
	assert.Equal(t, third.ID, products[1].ID)

	w = s.do(t, http.MethodGet, "/products?category=Shoes", "")
	decode(t, w, &products)
	assert.Empty(t, products)

	w = s.do(t, http.MethodGet, "/products", "")
	decode(t, w, &products)
	assert.Len(t, products, 3)
}

func TestProductValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/products", `{"name":"A","price":-1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, "BAD_REQUEST", env.Error)
	assert.Equal(t, "Some error occurred when trying to validate the product", env.Message)

	fields := map[string]bool{}
	for _, v := range env.Errors {
		fields[v.Field] = true
		assert.Equal(t, "body", v.Location)
	}
	for _, f := range []string{"description", "brand", "imageUrl", "category", "price"} {
		assert.True(t, fields[f], f)
	}
	assert.False(t, fields["name"])

	w = s.do(t, http.MethodPost, "/products", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/products", "")
	var products []models.Product
	decode(t, w, &products)
	assert.Empty(t, products)
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)
	product := s.createProduct(t, productBody)
	reviewsPath := "/products/" + product.ID + "/reviews"

	w := s.do(t, http.MethodPost, reviewsPath, `{"comment":"nice","productId":"other"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product with id other was not found", decode(t, w, nil).Message)

	w = s.do(t, http.MethodPost, "/products/ghost/reviews", `{"comment":"nice"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, reviewsPath, `{"comment":"nice","productId":""}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product with id  was not found", decode(t, w, nil).Message)

	w = s.do(t, http.MethodPost, reviewsPath, `{"comment":"nice","rate":7}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, reviewsPath, `{"comment":"x","rate":3.0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "rate", env.Errors[0].Field)

	w = s.do(t, http.MethodPost, reviewsPath, `{"comment":"nice","productId":"`+product.ID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var review models.Review
	env = decode(t, w, &review)
	assert.Equal(t, "Review with id "+review.ID+" was created successfully", env.Message)
	assert.Equal(t, models.DefaultRate, review.Rate)
	assert.Equal(t, product.ID, review.ProductID)

	w = s.do(t, http.MethodGet, reviewsPath, "")
	require.Equal(t, http.StatusOK, w.Code)
	var reviews []models.Review
	decode(t, w, &reviews)
	require.Len(t, reviews, 1)

	w = s.do(t, http.MethodGet, "/products/"+product.ID, "")
	var withReviews models.Product
	decode(t, w, &withReviews)
	require.Len(t, withReviews.Reviews, 1)
	assert.Equal(t, review.ID, withReviews.Reviews[0].ID)

	reviewPath := reviewsPath + "/" + review.ID
	w = s.do(t, http.MethodPut, reviewPath, `{"rate":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Review
	decode(t, w, &updated)
	assert.Equal(t, 5, updated.Rate)
	assert.Equal(t, "nice", updated.Comment)

	w = s.do(t, http.MethodPut, reviewPath, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, reviewPath, `{"productId":"other"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodGet, reviewPath, "")
	var unchanged models.Review
	decode(t, w, &unchanged)
	assert.True(t, unchanged.UpdatedAt.Equal(updated.UpdatedAt))

	w = s.do(t, http.MethodGet, reviewsPath+"/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Review with id missing was not found", decode(t, w, nil).Message)

	w = s.do(t, http.MethodDelete, reviewPath, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, reviewPath, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletingProductRemovesReviews(t *testing.T) {
	s := newTestServer(t)
	product := s.createProduct(t, productBody)

	w := s.do(t, http.MethodPost, "/products/"+product.ID+"/reviews", `{"comment":"ok","rate":3}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodDelete, "/products/"+product.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/products/"+product.ID+"/reviews", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageUpload(t *testing.T) {
	s := newTestServer(t)
	product := s.createProduct(t, productBody)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/"+product.ID+"/image", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Product
	decode(t, w, &updated)
	require.True(t, strings.HasPrefix(updated.ImageURL, "http://catalog.test/public/products/"), updated.ImageURL)

	relative := strings.TrimPrefix(updated.ImageURL, "http://catalog.test")
	w = s.do(t, http.MethodGet, relative, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg bytes", w.Body.String())

	onDisk := filepath.Join(s.publicDir, filepath.FromSlash(strings.TrimPrefix(relative, "/public/")))
	_, err = os.Stat(onDisk)
	assert.NoError(t, err)

	w = s.do(t, http.MethodPost, "/products/"+product.ID+"/image", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationsRequireTokenWhenSecretSet(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.AuthJWTSecret = "secret" })

	w := s.do(t, http.MethodPost, "/products", productBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := utils.GenerateToken("ops", "secret", time.Minute)
	require.NoError(t, err)
	w = s.do(t, http.MethodPost, "/products", productBody, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"file"`)

	s.do(t, http.MethodGet, "/products", "")
	w = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "catalog_http_requests_total")
}

func TestPanicsAreCountedAndReported(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/explode", func(c *gin.Context) {
		panic("kaboom")
	})

	w := s.do(t, http.MethodGet, "/explode", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w, nil)
	assert.False(t, env.Success)
	assert.NotContains(t, w.Body.String(), "kaboom")

	w = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `catalog_http_requests_total{method="GET",path="/explode",status="500"} 1`)
}
