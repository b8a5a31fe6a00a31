package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	httpadapter "github.com/kazi-platform/delivery-access-service/internal/adapters/http"
	"github.com/kazi-platform/delivery-access-service/internal/application"
	"github.com/kazi-platform/delivery-access-service/internal/domain"
	"github.com/kazi-platform/delivery-access-service/internal/ports"
)

func TestDownloadHTTPContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	id := env.seedDelivery(func(d *domain.Delivery) {})

	statusRes := env.do(t, http.MethodGet, "/deliveries/v1/"+id.String(), nil)
	if statusRes.Code != http.StatusOK {
		t.Fatalf("expected 200 status response, got %d: %s", statusRes.Code, statusRes.Body.String())
	}
	var statusBody map[string]any
	decodeJSON(t, statusRes, &statusBody)
	if statusBody["can_download"] != true {
		t.Fatalf("expected can_download=true, got %v", statusBody)
	}
	if statusBody["requires_password"] != false {
		t.Fatalf("expected requires_password=false, got %v", statusBody)
	}

	downloadRes := env.do(t, http.MethodPost, "/deliveries/v1/"+id.String()+"/download", nil)
	if downloadRes.Code != http.StatusOK {
		t.Fatalf("expected 200 download response, got %d: %s", downloadRes.Code, downloadRes.Body.String())
	}
	var downloadBody map[string]any
	decodeJSON(t, downloadRes, &downloadBody)
	if downloadBody["success"] != true || downloadBody["download_url"] == "" {
		t.Fatalf("expected signed url in response, got %v", downloadBody)
	}
	if downloadBody["expires_in"] != float64(3600) {
		t.Fatalf("expected expires_in=3600, got %v", downloadBody["expires_in"])
	}
}

func TestDownloadErrorStatusContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	past := time.Now().UTC().Add(-time.Hour)
	one := 1
	amount := 50.0

	expiredID := env.seedDelivery(func(d *domain.Delivery) { d.ExpiresAt = &past })
	limitedID := env.seedDelivery(func(d *domain.Delivery) {
		d.MaxDownloads = &one
		d.DownloadCount = 1
	})
	protectedID := env.seedDelivery(func(d *domain.Delivery) { d.PasswordHash = "hash:secret" })
	unpaidID := env.seedDelivery(func(d *domain.Delivery) {
		d.RequiresPayment = true
		d.PaymentAmount = &amount
	})

	cases := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{name: "unknown delivery", path: "/deliveries/v1/" + uuid.NewString() + "/download", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "malformed id", path: "/deliveries/v1/not-a-uuid/download", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{name: "expired delivery", path: "/deliveries/v1/" + expiredID.String() + "/download", wantStatus: http.StatusGone, wantCode: "EXPIRED"},
		{name: "limit reached", path: "/deliveries/v1/" + limitedID.String() + "/download", wantStatus: http.StatusForbidden, wantCode: "LIMIT_REACHED"},
		{name: "password required", path: "/deliveries/v1/" + protectedID.String() + "/download", wantStatus: http.StatusUnauthorized, wantCode: "PASSWORD_REQUIRED"},
		{name: "invalid password", path: "/deliveries/v1/" + protectedID.String() + "/download", body: map[string]string{"password": "wrong"}, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_PASSWORD"},
		{name: "invalid token", path: "/deliveries/v1/" + protectedID.String() + "/download", body: map[string]string{"access_token": "garbage"}, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "payment required", path: "/deliveries/v1/" + unpaidID.String() + "/download", wantStatus: http.StatusPaymentRequired, wantCode: "PAYMENT_REQUIRED"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res := env.do(t, http.MethodPost, tc.path, tc.body)
			if res.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, res.Code, res.Body.String())
			}
			var body map[string]any
			decodeJSON(t, res, &body)
			if body["code"] != tc.wantCode {
				t.Fatalf("expected code %s, got %v", tc.wantCode, body["code"])
			}
			if body["status"] != "error" {
				t.Fatalf("expected error envelope, got %v", body)
			}
		})
	}
}

func TestDownloadDenialDetailsContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	amount := 75.0
	protectedID := env.seedDelivery(func(d *domain.Delivery) { d.PasswordHash = "hash:secret" })
	unpaidID := env.seedDelivery(func(d *domain.Delivery) {
		d.RequiresPayment = true
		d.PaymentAmount = &amount
	})

	res := env.do(t, http.MethodPost, "/deliveries/v1/"+protectedID.String()+"/download", map[string]string{"password": "wrong"})
	var body map[string]any
	decodeJSON(t, res, &body)
	details, ok := body["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details in password denial, got %v", body)
	}
	if details["remaining_attempts"] != float64(2) {
		t.Fatalf("expected 2 remaining attempts, got %v", details)
	}

	res = env.do(t, http.MethodPost, "/deliveries/v1/"+unpaidID.String()+"/download", nil)
	decodeJSON(t, res, &body)
	details, ok = body["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details in payment denial, got %v", body)
	}
	if details["payment_amount"] != amount || details["payment_status"] != domain.StatusActive {
		t.Fatalf("expected payment details, got %v", details)
	}
}

func TestLockoutHTTPContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	id := env.seedDelivery(func(d *domain.Delivery) { d.PasswordHash = "hash:secret" })
	path := "/deliveries/v1/" + id.String() + "/download"

	for i := 0; i < 2; i++ {
		res := env.do(t, http.MethodPost, path, map[string]string{"password": "wrong"})
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, res.Code)
		}
	}
	res := env.do(t, http.MethodPost, path, map[string]string{"password": "wrong"})
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 lockout, got %d: %s", res.Code, res.Body.String())
	}
	var body map[string]any
	decodeJSON(t, res, &body)
	if body["code"] != "TOO_MANY_ATTEMPTS" {
		t.Fatalf("expected TOO_MANY_ATTEMPTS, got %v", body["code"])
	}

	// Correct password is refused for the cool-down window too.
	res = env.do(t, http.MethodPost, path, map[string]string{"password": "secret"})
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for correct password during lockout, got %d", res.Code)
	}
}

func TestPasswordDownloadMintsTokenHTTPContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	id := env.seedDelivery(func(d *domain.Delivery) { d.PasswordHash = "hash:secret" })
	path := "/deliveries/v1/" + id.String() + "/download"

	res := env.do(t, http.MethodPost, path, map[string]string{"password": "secret"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body map[string]any
	decodeJSON(t, res, &body)
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected minted access token, got %v", body)
	}

	res = env.do(t, http.MethodPost, path, map[string]string{"access_token": token})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for token access, got %d: %s", res.Code, res.Body.String())
	}
	body = nil
	decodeJSON(t, res, &body)
	if _, minted := body["access_token"]; minted {
		t.Fatalf("token access must not mint a new token, got %v", body)
	}
}

func TestReleaseEscrowHTTPContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	escrowID := env.seedDelivery(func(d *domain.Delivery) {
		d.RequiresPayment = true
		d.EscrowEnabled = true
		d.Status = domain.StatusEscrowed
		d.PasswordHash = "hash:completion"
	})
	plainID := env.seedDelivery(func(d *domain.Delivery) {})

	res := env.do(t, http.MethodPost, "/deliveries/v1/"+plainID.String()+"/release", map[string]string{"password": "x"})
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 for non-escrow delivery, got %d", res.Code)
	}

	res = env.do(t, http.MethodPost, "/deliveries/v1/"+escrowID.String()+"/release", map[string]string{"password": "completion"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 release, got %d: %s", res.Code, res.Body.String())
	}
	var body map[string]any
	decodeJSON(t, res, &body)
	if body["status"] != "success" {
		t.Fatalf("expected success envelope, got %v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["status"] != domain.StatusReleased {
		t.Fatalf("expected released status in data, got %v", body)
	}

	// The formerly escrow-gated download now succeeds.
	res = env.do(t, http.MethodPost, "/deliveries/v1/"+escrowID.String()+"/download", map[string]string{"password": "completion"})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 download after release, got %d: %s", res.Code, res.Body.String())
	}
}

func TestPaymentWebhookHTTPContract(t *testing.T) {
	t.Parallel()

	env := newContractEnv()
	amount := 20.0
	id := env.seedDelivery(func(d *domain.Delivery) {
		d.RequiresPayment = true
		d.PaymentAmount = &amount
	})

	res := env.do(t, http.MethodPost, "/deliveries/v1/payments/webhook", map[string]any{
		"delivery_id":  id.String(),
		"provider_ref": "evt-http-1",
		"amount":       amount,
		"status":       "completed",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 webhook, got %d: %s", res.Code, res.Body.String())
	}
	var body map[string]any
	decodeJSON(t, res, &body)
	data, ok := body["data"].(map[string]any)
	if !ok || data["recorded"] != true || data["delivery_status"] != domain.StatusPaid {
		t.Fatalf("expected recorded paid delivery, got %v", body)
	}

	res = env.do(t, http.MethodPost, "/deliveries/v1/payments/webhook", map[string]any{
		"delivery_id":  id.String(),
		"provider_ref": "evt-http-2",
		"status":       "charged",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", res.Code)
	}

	// After the webhook the payment gate is satisfied.
	res = env.do(t, http.MethodPost, "/deliveries/v1/"+id.String()+"/download", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 download after payment, got %d: %s", res.Code, res.Body.String())
	}
}

type contractEnv struct {
	router     http.Handler
	service    *application.Service
	deliveries *contractDeliveries
}

func newContractEnv() *contractEnv {
	deliveries := &contractDeliveries{byID: map[uuid.UUID]domain.Delivery{}}
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			AccessTokenTTL:         time.Hour,
			SignedURLTTL:           time.Hour,
			FailedAttemptThreshold: 3,
			AttemptCoolDown:        15 * time.Minute,
		},
		Deliveries:   deliveries,
		Transactions: &contractTransactions{byRef: map[string]domain.Transaction{}},
		AuditLog:     noopAudit{},
		Outbox:       noopOutbox{},
		Attempts:     &contractAttempts{state: map[string]ports.AttemptState{}},
		Hasher:       contractHasher{},
		TokenSigner:  &contractSigner{tokens: map[string]ports.AccessClaims{}},
		URLSigner:    contractURLSigner{},
	})

	return &contractEnv{
		router:     httpadapter.NewRouter(httpadapter.NewHandler(svc)),
		service:    svc,
		deliveries: deliveries,
	}
}

func (e *contractEnv) seedDelivery(mutate func(*domain.Delivery)) uuid.UUID {
	now := time.Now().UTC()
	delivery := domain.Delivery{
		DeliveryID: uuid.New(),
		StorageKey: "projects/p1/final.zip",
		FileName:   "final.zip",
		FileSize:   2048,
		MimeType:   "application/zip",
		Status:     domain.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	mutate(&delivery)
	e.deliveries.put(delivery)
	return delivery.DeliveryID
}

func (e *contractEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "192.0.2.10:51000"
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)
	return res
}

func decodeJSON(t *testing.T, res *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(res.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
}

type contractDeliveries struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Delivery
}

func (c *contractDeliveries) put(d domain.Delivery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[d.DeliveryID] = d
}

func (c *contractDeliveries) GetByID(_ context.Context, id uuid.UUID) (domain.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	if !ok {
		return domain.Delivery{}, domain.ErrNotFound
	}
	return d, nil
}

func (c *contractDeliveries) MarkExpired(_ context.Context, id uuid.UUID, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status != domain.StatusExpired {
		d.Status = domain.StatusExpired
		d.UpdatedAt = at
		c.byID[id] = d
	}
	return nil
}

func (c *contractDeliveries) RecordDownload(_ context.Context, id uuid.UUID, at time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	d.DownloadCount++
	d.LastAccessedAt = &at
	c.byID[id] = d
	return d.DownloadCount, nil
}

func (c *contractDeliveries) ReleaseEscrow(_ context.Context, id uuid.UUID, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status == domain.StatusReleased {
		return nil
	}
	if d.Status != domain.StatusEscrowed {
		return fmt.Errorf("%w: delivery status is %s", domain.ErrConflict, d.Status)
	}
	d.Status = domain.StatusReleased
	d.UpdatedAt = at
	c.byID[id] = d
	return nil
}

func (c *contractDeliveries) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if d.Status == domain.StatusActive {
		d.Status = domain.StatusPaid
		d.UpdatedAt = at
		c.byID[id] = d
	}
	return nil
}

type contractTransactions struct {
	mu    sync.Mutex
	byRef map[string]domain.Transaction
}

func (c *contractTransactions) HasCompletedForDelivery(_ context.Context, deliveryID uuid.UUID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, txn := range c.byRef {
		if txn.DeliveryID == deliveryID && txn.Status == domain.TransactionStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (c *contractTransactions) UpsertByProviderRef(_ context.Context, txn domain.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byRef[txn.ProviderRef] = txn
	return nil
}

type noopAudit struct{}

func (noopAudit) Insert(context.Context, domain.AuditEntry) error { return nil }

func (noopAudit) ListByDelivery(context.Context, uuid.UUID, int, int) ([]domain.AuditEntry, error) {
	return nil, nil
}

type noopOutbox struct{}

func (noopOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }

func (noopOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (noopOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }

func (noopOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error { return nil }

func (noopOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type contractAttempts struct {
	mu    sync.Mutex
	state map[string]ports.AttemptState
}

func (c *contractAttempts) Get(_ context.Context, key string) (ports.AttemptState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state[key], nil
}

func (c *contractAttempts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, coolDown time.Duration) (ports.AttemptState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		lockedUntil := now.Add(coolDown)
		st.LockedUntil = &lockedUntil
	}
	c.state[key] = st
	return st, nil
}

func (c *contractAttempts) Clear(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.state, key)
	return nil
}

type contractHasher struct{}

func (contractHasher) Hash(password string) (string, error) { return "hash:" + password, nil }

func (contractHasher) Compare(hash, password string) error {
	if hash != "hash:"+password {
		return errors.New("hash mismatch")
	}
	return nil
}

type contractSigner struct {
	mu     sync.Mutex
	tokens map[string]ports.AccessClaims
}

func (c *contractSigner) Sign(claims ports.AccessClaims) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token := uuid.NewString()
	c.tokens[token] = claims
	return token, nil
}

func (c *contractSigner) ParseAndValidate(raw string) (ports.AccessClaims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	claims, ok := c.tokens[raw]
	if !ok {
		return ports.AccessClaims{}, errors.New("unknown token")
	}
	if claims.ExpiresAt.Before(time.Now().UTC()) {
		return ports.AccessClaims{}, errors.New("token expired")
	}
	return claims, nil
}

type contractURLSigner struct{}

func (contractURLSigner) SignDownloadURL(_ context.Context, storageKey string, validity time.Duration) (ports.SignedURL, error) {
	return ports.SignedURL{
		URL:       "https://files.test/object/sign/deliveries/" + storageKey + "?token=contract",
		ExpiresAt: time.Now().UTC().Add(validity),
	}, nil
}
