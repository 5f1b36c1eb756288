package orderproofs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/engraving-commerce/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func setupRouter(svc *Service) *gin.Engine {
	h := NewHandler(svc)
	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterStoreRoutes(api.Group("/store", middleware.AuthMiddleware(testSecret)))
	h.RegisterAdminRoutes(api.Group("/admin", middleware.AuthMiddleware(testSecret), middleware.RequireRole("admin")))
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type proofBody struct {
	OrderProof *OrderProof `json:"order_proof"`
}

func doRequest(t *testing.T, r *gin.Engine, method, path, auth string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func decodeProof(t *testing.T, env envelope) *OrderProof {
	t.Helper()
	var body proofBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	return body.OrderProof
}

// ============================================================
// Store Endpoints
// ============================================================

func TestHandler_StoreGet(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	_, err := svc.Upsert(context.Background(), UpsertInput{OrderID: "order_1", ProofImageURL: "https://cdn/p.png"})
	require.NoError(t, err)
	r := setupRouter(svc)

	w, env := doRequest(t, r, http.MethodGet, "/api/v1/store/order-proofs?order_id=order_1", bearer(t, "cus_1", "customer"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn/p.png", decodeProof(t, env).ProofImageURL)

	w, _ = doRequest(t, r, http.MethodGet, "/api/v1/store/order-proofs", bearer(t, "cus_1", "customer"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/api/v1/store/order-proofs?order_id=order_1", bearer(t, "cus_2", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/api/v1/store/order-proofs?order_id=missing", bearer(t, "cus_1", "customer"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/api/v1/store/order-proofs?order_id=order_1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_StoreAction(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	_, err := svc.Upsert(context.Background(), UpsertInput{OrderID: "order_1"})
	require.NoError(t, err)
	r := setupRouter(svc)
	auth := bearer(t, "cus_1", "customer")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/store/order-proofs", auth, gin.H{
		"order_id": "order_1", "action": "request_revision", "customer_notes": "bolder",
	})
	require.Equal(t, http.StatusOK, w.Code)
	proof := decodeProof(t, env)
	assert.Equal(t, ProofStatusRevisionRequested, proof.Status)
	assert.Equal(t, 1, proof.RevisionCount)
	assert.Equal(t, "bolder", *proof.CustomerNotes)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/store/order-proofs", auth, gin.H{"order_id": "order_1", "action": "approve"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ProofStatusApproved, decodeProof(t, env).Status)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/store/order-proofs", auth, gin.H{"order_id": "order_1", "action": "burn"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Invalid action. Use 'approve' or 'request_revision'", env.Error.Message)

	w, env = doRequest(t, r, http.MethodPost, "/api/v1/store/order-proofs", auth, gin.H{"order_id": "order_1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "order_id and action are required", env.Error.Message)
}

// ============================================================
// Admin Endpoints
// ============================================================

func TestHandler_AdminUpsertAndList(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	r := setupRouter(svc)
	auth := bearer(t, "admin_1", "admin")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/admin/order-proofs", auth, gin.H{
		"order_id": "order_1", "proof_image_url": "https://cdn.example.com/p1.png", "admin_notes": "first pass",
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decodeProof(t, env)
	assert.Equal(t, ProofStatusPending, created.Status)

	w, _ = doRequest(t, r, http.MethodPost, "/api/v1/admin/order-proofs", auth, gin.H{"order_id": "order_1", "status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodPost, "/api/v1/admin/order-proofs", auth, gin.H{"proof_image_url": "https://cdn.example.com/p1.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = doRequest(t, r, http.MethodGet, "/api/v1/admin/order-proofs?order_id=order_1", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeProof(t, env).ID)

	w, env = doRequest(t, r, http.MethodGet, "/api/v1/admin/order-proofs", auth, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		OrderProofs []*OrderProof `json:"order_proofs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.OrderProofs, 1)
}

func TestHandler_AdminPatch(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	proof, err := svc.Upsert(context.Background(), UpsertInput{OrderID: "order_1"})
	require.NoError(t, err)
	r := setupRouter(svc)
	auth := bearer(t, "admin_1", "admin")
	path := "/api/v1/admin/order-proofs/" + proof.ID.String()

	w, env := doRequest(t, r, http.MethodPatch, path, auth, gin.H{"status": "revision_requested", "customer_notes": "darker"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeProof(t, env)
	assert.Equal(t, 1, updated.RevisionCount)
	assert.Equal(t, "darker", *updated.CustomerNotes)

	w, _ = doRequest(t, r, http.MethodPatch, path, auth, gin.H{"status": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, r, http.MethodPatch, "/api/v1/admin/order-proofs/"+uuid.New().String(), auth, gin.H{"admin_notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doRequest(t, r, http.MethodPatch, "/api/v1/admin/order-proofs/not-a-uuid", auth, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AdminUploadURL(t *testing.T) {
	r := setupRouter(newTestService(newMemoryRepository()))
	auth := bearer(t, "admin_1", "admin")

	w, env := doRequest(t, r, http.MethodPost, "/api/v1/admin/order-proofs/upload-url", auth, gin.H{
		"order_id": "order_1", "filename": "proof.jpg", "content_type": "image/jpeg",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp UploadURLResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Contains(t, resp.UploadURL, "proofs/order_1/")
	assert.NotEmpty(t, resp.ProofImageURL)

	w, _ = doRequest(t, r, http.MethodPost, "/api/v1/admin/order-proofs/upload-url", auth, gin.H{"order_id": "order_1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AdminRequiresRole(t *testing.T) {
	r := setupRouter(newTestService(newMemoryRepository()))

	w, _ := doRequest(t, r, http.MethodGet, "/api/v1/admin/order-proofs", bearer(t, "cus_1", "customer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
