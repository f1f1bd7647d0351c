// Package e2e provides end-to-end tests for the catalog application.
// The actual application handler is run in an `httptest.Server` with the
// local image backend rooted in a temporary directory, so the full flow —
// upload, WebP re-encoding, sequential numbering, product CRUD and static
// image serving — is exercised over real HTTP without external services.
package e2e

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abgdnv/gocatalog/internal/app"
	"github.com/abgdnv/gocatalog/internal/imagestore"
	"github.com/abgdnv/gocatalog/internal/imaging"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const webpQuality = 90

// CatalogE2ESuite is a test suite for end-to-end tests of the catalog service.
type CatalogE2ESuite struct {
	suite.Suite
	server     *httptest.Server
	httpClient *http.Client
	uploadsDir string
	logger     *slog.Logger
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
	ID       int64  `json:"id"`
}

type productResponse struct {
	Message string             `json:"message"`
	Success bool               `json:"success"`
	Product service.ProductDto `json:"product"`
}

type listResponse struct {
	Success  bool                 `json:"success"`
	Products []service.ProductDto `json:"products"`
}

// SetupTest builds a fresh application for each test: in-memory record store,
// local image store in a temporary directory, real WebP encoder and allocator.
func (s *CatalogE2ESuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s.uploadsDir = s.T().TempDir()

	images, err := imagestore.NewLocal(s.uploadsDir, "/uploads")
	require.NoError(s.T(), err, "Failed to set up local image store")

	deps := &app.Dependencies{
		CatalogService: service.NewService(
			store.NewInMemoryStore(),
			images,
			imaging.NewWebPEncoder(webpQuality),
			imagestore.NewAllocator(images, s.logger),
			nil,
			s.logger,
		),
		MaxUpload: 5 << 20,
		StaticDir: s.uploadsDir,
		StaticURL: "/uploads",
		Logger:    s.logger,
	}

	s.server = httptest.NewServer(app.SetupHttpHandler(deps))
	s.httpClient = s.server.Client()
}

func (s *CatalogE2ESuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func TestCatalogE2E(t *testing.T) {
	suite.Run(t, new(CatalogE2ESuite))
}

// --------------------------------------------------------------------------
// ---------- Payload helpers -----------------------------------------------
// --------------------------------------------------------------------------

// pngBytes renders a small solid-color PNG to feed through the encoder.
func (s *CatalogE2ESuite) pngBytes() []byte {
	s.T().Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(s.T(), png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartForm builds a multipart body from text fields plus an optional
// file part under fileField.
func (s *CatalogE2ESuite) multipartForm(fields map[string]string, fileField string, fileContent []byte) (*bytes.Buffer, string) {
	s.T().Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(s.T(), writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, "photo.png")
		require.NoError(s.T(), err)
		_, err = part.Write(fileContent)
		require.NoError(s.T(), err)
	}
	require.NoError(s.T(), writer.Close())
	return body, writer.FormDataContentType()
}

// doMultipart posts a multipart form and decodes the JSON response into out.
func (s *CatalogE2ESuite) doMultipart(method, url string, fields map[string]string, fileField string, fileContent []byte, out any) int {
	s.T().Helper()
	body, contentType := s.multipartForm(fields, fileField, fileContent)
	req, err := http.NewRequest(method, url, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	if out != nil {
		require.NoError(s.T(), json.Unmarshal(bodyBytes, out), "Failed to decode response: %s", bodyBytes)
	}
	return resp.StatusCode
}

// uploadImage uploads a generated PNG and returns the upload response.
func (s *CatalogE2ESuite) uploadImage() uploadResponse {
	s.T().Helper()
	var uploaded uploadResponse
	statusCode := s.doMultipart(http.MethodPost, s.server.URL+"/api/upload", nil, "imagen", s.pngBytes(), &uploaded)
	require.Equal(s.T(), http.StatusOK, statusCode)
	require.True(s.T(), uploaded.Success)
	return uploaded
}

// createProduct submits a save-product form with an inline image file.
func (s *CatalogE2ESuite) createProduct(fields map[string]string) (productResponse, int) {
	s.T().Helper()
	var created productResponse
	statusCode := s.doMultipart(http.MethodPost, s.server.URL+"/api/save-product", fields, "imagen", s.pngBytes(), &created)
	return created, statusCode
}

// listProducts fetches the catalog listing.
func (s *CatalogE2ESuite) listProducts() listResponse {
	s.T().Helper()
	resp, err := s.httpClient.Get(s.server.URL + "/api/products")
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var list listResponse
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&list))
	require.True(s.T(), list.Success)
	return list
}

var productFields = map[string]string{
	"name":         "Oferta semanal",
	"description":  "Pack de prueba",
	"price":        "19.99",
	"category":     "ofertas",
	"availability": "5",
	"isNew":        "true",
}

// --------------------------------------------------------------
// ---------------------- E2E test methods ----------------------
// --------------------------------------------------------------

func (s *CatalogE2ESuite) TestUploadThenSaveProduct_E2E() {
	// given: a standalone upload reserving the first number
	uploaded := s.uploadImage()
	require.Equal(s.T(), int64(1), uploaded.ID)
	require.Equal(s.T(), "/uploads/producto1.webp", uploaded.ImageURL)

	// when: the product is saved referencing the uploaded image
	fields := map[string]string{
		"name":        "Oferta semanal",
		"description": "Pack de prueba",
		"price":       "19.99",
		"category":    "ofertas",
		"id":          "1",
		"image":       uploaded.ImageURL,
	}
	var created productResponse
	statusCode := s.doMultipart(http.MethodPost, s.server.URL+"/api/save-product", fields, "", nil, &created)

	// then
	require.Equal(s.T(), http.StatusCreated, statusCode)
	require.Equal(s.T(), "Product created successfully", created.Message)
	require.Equal(s.T(), int64(1), created.Product.ID)
	require.Equal(s.T(), "/uploads/producto1.webp", created.Product.Image)

	// and the stored file is a WebP image
	stored, err := os.ReadFile(filepath.Join(s.uploadsDir, "producto1.webp"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), "RIFF", string(stored[:4]))
}

func (s *CatalogE2ESuite) TestCreateWithInlineImage_E2E() {
	// when
	created, statusCode := s.createProduct(productFields)

	// then: the number is allocated and the image ingested in one request
	require.Equal(s.T(), http.StatusCreated, statusCode)
	require.Equal(s.T(), int64(1), created.Product.ID)
	require.Equal(s.T(), "/uploads/producto1.webp", created.Product.Image)
	require.Equal(s.T(), "Oferta semanal", created.Product.Name)
	require.True(s.T(), created.Product.IsNew)
	require.Equal(s.T(), int32(5), created.Product.Availability)

	// a second create takes the next number
	second, statusCode := s.createProduct(productFields)
	require.Equal(s.T(), http.StatusCreated, statusCode)
	require.Equal(s.T(), int64(2), second.Product.ID)
}

func (s *CatalogE2ESuite) TestCreateWithoutImage_E2E() {
	// when: no file and no prior upload reference
	var created productResponse
	statusCode := s.doMultipart(http.MethodPost, s.server.URL+"/api/save-product", productFields, "", nil, &created)

	// then
	require.Equal(s.T(), http.StatusBadRequest, statusCode)
}

func (s *CatalogE2ESuite) TestListSortedDescending_E2E() {
	// given
	for range 3 {
		_, statusCode := s.createProduct(productFields)
		require.Equal(s.T(), http.StatusCreated, statusCode)
	}

	// when
	list := s.listProducts()

	// then: newest first
	require.Len(s.T(), list.Products, 3)
	require.Equal(s.T(), int64(3), list.Products[0].ID)
	require.Equal(s.T(), int64(2), list.Products[1].ID)
	require.Equal(s.T(), int64(1), list.Products[2].ID)
}

func (s *CatalogE2ESuite) TestUpdateAvailabilityOnly_E2E() {
	// given
	created, statusCode := s.createProduct(productFields)
	require.Equal(s.T(), http.StatusCreated, statusCode)

	// when: only availability is submitted
	var updated productResponse
	statusCode = s.doMultipart(http.MethodPut, s.server.URL+"/api/products/1", map[string]string{
		"availability": "0",
	}, "", nil, &updated)

	// then: every other field is preserved
	require.Equal(s.T(), http.StatusOK, statusCode)
	require.True(s.T(), updated.Success)
	require.Equal(s.T(), int32(0), updated.Product.Availability)
	require.Equal(s.T(), created.Product.Name, updated.Product.Name)
	require.Equal(s.T(), created.Product.Price, updated.Product.Price)
	require.Equal(s.T(), created.Product.Image, updated.Product.Image)
}

func (s *CatalogE2ESuite) TestUpdateReplacesImageInPlace_E2E() {
	// given
	_, statusCode := s.createProduct(productFields)
	require.Equal(s.T(), http.StatusCreated, statusCode)
	before, err := os.Stat(filepath.Join(s.uploadsDir, "producto1.webp"))
	require.NoError(s.T(), err)

	// when: a replacement image is submitted under the same id
	var updated productResponse
	statusCode = s.doMultipart(http.MethodPut, s.server.URL+"/api/products/1", nil, "image", s.pngBytes(), &updated)

	// then: the reference and file name are unchanged
	require.Equal(s.T(), http.StatusOK, statusCode)
	require.Equal(s.T(), "/uploads/producto1.webp", updated.Product.Image)
	after, err := os.Stat(filepath.Join(s.uploadsDir, "producto1.webp"))
	require.NoError(s.T(), err)
	require.Equal(s.T(), before.Name(), after.Name())

	entries, err := os.ReadDir(s.uploadsDir)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1, "no second file should appear")
}

func (s *CatalogE2ESuite) TestUpdateNotFound_E2E() {
	var updated productResponse
	statusCode := s.doMultipart(http.MethodPut, s.server.URL+"/api/products/99", map[string]string{
		"name": "Missing",
	}, "", nil, &updated)

	require.Equal(s.T(), http.StatusNotFound, statusCode)
}

func (s *CatalogE2ESuite) TestDeleteKeepsStoredImage_E2E() {
	// given
	_, statusCode := s.createProduct(productFields)
	require.Equal(s.T(), http.StatusCreated, statusCode)

	// when
	req, err := http.NewRequest(http.MethodDelete, s.server.URL+"/api/delete-product/1", nil)
	require.NoError(s.T(), err)
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	// then: the record is gone but the image file survives
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.Empty(s.T(), s.listProducts().Products)
	_, err = os.Stat(filepath.Join(s.uploadsDir, "producto1.webp"))
	require.NoError(s.T(), err, "stored image should be retained after deletion")

	// and the next upload reuses numbering from the surviving files
	uploaded := s.uploadImage()
	require.Equal(s.T(), int64(2), uploaded.ID)
}

func (s *CatalogE2ESuite) TestStaticImageServing_E2E() {
	// given
	_, statusCode := s.createProduct(productFields)
	require.Equal(s.T(), http.StatusCreated, statusCode)

	// when
	resp, err := s.httpClient.Get(s.server.URL + "/uploads/producto1.webp")
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()

	// then
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "RIFF", string(body[:4]))
}

func (s *CatalogE2ESuite) TestHealthz_E2E() {
	resp, err := s.httpClient.Get(s.server.URL + "/healthz")
	require.NoError(s.T(), err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
}
