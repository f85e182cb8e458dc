package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/internal/service"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var (
	testOwner = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testTxID  = "0x" + strings.Repeat("ab", 32)
)

type fakeSession struct {
	status  fhevm.Status
	initErr error
}

func (s *fakeSession) Initialize(ctx context.Context) (fhevm.Engine, error) {
	if s.initErr != nil {
		s.status = fhevm.StatusError
		return nil, s.initErr
	}
	s.status = fhevm.StatusReady
	return nil, nil
}

func (s *fakeSession) Status() fhevm.Status { return s.status }

func (s *fakeSession) Err() error {
	if s.status == fhevm.StatusError {
		return s.initErr
	}
	return nil
}

func (s *fakeSession) ChainID() *big.Int {
	if s.status == fhevm.StatusReady {
		return big.NewInt(11155111)
	}
	return nil
}

type fakeWallet struct{ connected bool }

func (w *fakeWallet) IsConnected() bool       { return w.connected }
func (w *fakeWallet) Address() common.Address { return testOwner }
func (w *fakeWallet) ChainID() *big.Int       { return big.NewInt(11155111) }
func (w *fakeWallet) TargetChainID() *big.Int { return big.NewInt(11155111) }

type fakeAirdropSvc struct {
	err        error
	recipients []string
	amounts    []string
	awaited    string
}

func (s *fakeAirdropSvc) BatchAirdrop(ctx context.Context, recipients []string, amounts []string) (*service.Submission, error) {
	s.recipients, s.amounts = recipients, amounts
	if s.err != nil {
		return nil, s.err
	}

	return &service.Submission{Record: &airdrop.SubmissionRecord{TransactionID: testTxID, RecipientCount: len(recipients), Status: airdrop.TxSubmitted}}, nil
}

func (s *fakeAirdropSvc) AwaitSubmission(ctx context.Context, txID string) (*airdrop.SubmissionRecord, error) {
	s.awaited = txID
	if s.err != nil {
		return nil, s.err
	}

	return &airdrop.SubmissionRecord{TransactionID: txID, Status: airdrop.TxConfirmed, BlockNumber: 100}, nil
}

func (s *fakeAirdropSvc) ListSubmissions(limit int) ([]*airdrop.SubmissionRecord, error) {
	return []*airdrop.SubmissionRecord{}, nil
}

type fakeOwnerSvc struct {
	err error
}

func (s *fakeOwnerSvc) GetOwner(ctx context.Context) (common.Address, error) { return testOwner, s.err }

func (s *fakeOwnerSvc) IsOwner(ctx context.Context, addr common.Address) (bool, error) {
	return addr == testOwner, s.err
}

func (s *fakeOwnerSvc) TransferOwnership(ctx context.Context, newOwner string, wait bool) (*bcao.TransactionCreationInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &bcao.TransactionCreationInfo{TransactionID: testTxID}, nil
}

type fakeRecipientSvc struct {
	err error
}

func (s *fakeRecipientSvc) CheckAirdropStatus(ctx context.Context, addr string) (bool, error) {
	return true, s.err
}

func (s *fakeRecipientSvc) DecryptBalance(ctx context.Context) (*big.Int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return big.NewInt(500), nil
}

type testRouter struct {
	router    *gin.Engine
	session   *fakeSession
	airdrop   *fakeAirdropSvc
	owner     *fakeOwnerSvc
	recipient *fakeRecipientSvc
}

func newTestRouter(t *testing.T) *testRouter {
	gin.SetMode(gin.TestMode)
	tr := &testRouter{
		router:    gin.New(),
		session:   &fakeSession{status: fhevm.StatusIdle},
		airdrop:   &fakeAirdropSvc{},
		owner:     &fakeOwnerSvc{},
		recipient: &fakeRecipientSvc{},
	}
	w := &fakeWallet{connected: true}

	tr.router.Use(CORSMiddleware())
	apiv1Group := tr.router.Group("/api/v1")
	controllers := []Controller{
		&PingPongController{},
		&SessionController{GroupName: "/session", FHESession: tr.session},
		&WalletController{GroupName: "/wallet", Wallet: w},
		&OwnerController{GroupName: "/owner", Wallet: w, OwnerSvc: tr.owner},
		&AirdropController{GroupName: "/airdrop", AirdropSvc: tr.airdrop},
		&RecipientController{GroupName: "/recipient", Wallet: w, RecipientSvc: tr.recipient},
		&MetricsController{},
	}
	for _, c := range controllers {
		if isNoError := assert.NoError(t, RegisterHandlers(apiv1Group, c)); !isNoError {
			t.FailNow()
		}
	}

	return tr
}

func (tr *testRouter) do(method string, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = tr.do(http.MethodOptions, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = tr.do(http.MethodHead, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestSessionEndpoints(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/session", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"idle"}`, w.Body.String())

	w = tr.do(http.MethodPost, "/api/v1/session/init", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","chainId":"11155111"}`, w.Body.String())

	tr.session.initErr = errorcode.Classify(errorcode.ErrorEngineInitializationFailed, fmt.Errorf("no network key"))
	tr.session.status = fhevm.StatusIdle
	w = tr.do(http.MethodPost, "/api/v1/session/init", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "no network key")
}

func TestWalletEndpoint(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/wallet", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var info WalletInfo
	if isNoError := assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &info)); !isNoError {
		t.FailNow()
	}
	assert.True(t, info.Connected)
	assert.Equal(t, testOwner.Hex(), info.Address)
	assert.Equal(t, "11155111", info.TargetChainID)
}

func TestBatchAirdropEndpoint(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodPost, "/api/v1/airdrop/batch", url.Values{"amounts": {"1"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, tr.airdrop.recipients)

	form := url.Values{
		"recipients": {"0x0000000000000000000000000000000000000011\r\n0x0000000000000000000000000000000000000022"},
		"amounts":    {"100\n200"},
	}
	w = tr.do(http.MethodPost, "/api/v1/airdrop/batch", form)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, tr.airdrop.recipients, 2)
	assert.Equal(t, []string{"100", "200"}, tr.airdrop.amounts)

	var record airdrop.SubmissionRecord
	if isNoError := assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &record)); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, testTxID, record.TransactionID)
	assert.Equal(t, airdrop.TxSubmitted, record.Status)
}

func TestBatchAirdropEndpointJSON(t *testing.T) {
	tr := newTestRouter(t)

	body := `{"recipients":["0x0000000000000000000000000000000000000011"],"amounts":["7"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/airdrop/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"0x0000000000000000000000000000000000000011"}, tr.airdrop.recipients)
	assert.Equal(t, []string{"7"}, tr.airdrop.amounts)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/airdrop/batch", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchAirdropEndpointErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.Wrap(errorcode.ErrorInputMismatch, "接收者个数 2 与数量个数 1 不一致"), http.StatusBadRequest},
		{errors.Wrap(errorcode.ErrorForbidden, "不是合约所有者"), http.StatusForbidden},
		{errorcode.ErrorEngineNotReady, http.StatusPreconditionFailed},
		{&errorcode.EncryptionFailedError{RecipientIndex: 1, Err: fmt.Errorf("relayer down")}, http.StatusBadGateway},
		{errorcode.Classify(errorcode.ErrorTransactionFailed, fmt.Errorf("insufficient funds")), http.StatusBadGateway},
		{errorcode.ErrorProviderUnavailable, http.StatusServiceUnavailable},
		{errors.Wrap(errorcode.ErrorWrongNetwork, "当前网络 1"), http.StatusConflict},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tr := newTestRouter(t)
		tr.airdrop.err = tc.err

		w := tr.do(http.MethodPost, "/api/v1/airdrop/batch", url.Values{"recipients": {"a"}, "amounts": {"1"}})
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), "errors")
	}
}

func TestAwaitSubmissionEndpoint(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/airdrop/tx/0x1234/await", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/airdrop/tx/"+testTxID+"/await?timeout=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/airdrop/tx/"+strings.ToUpper(testTxID[2:])+"/await?timeout=5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodGet, "/api/v1/airdrop/tx/"+testTxID+"/await?timeout=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testTxID, tr.airdrop.awaited)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	tr.airdrop.err = errors.Wrap(errorcode.ErrorGatewayTimeout, "等待交易确认超时")
	w = tr.do(http.MethodGet, "/api/v1/airdrop/tx/"+testTxID+"/await", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestOwnerEndpoints(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/owner", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"owner":"%v","isOwner":true}`, testOwner.Hex()), w.Body.String())

	w = tr.do(http.MethodPost, "/api/v1/owner/transfer", url.Values{"newOwner": {" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/owner/transfer", url.Values{"newOwner": {"0x0000000000000000000000000000000000000011"}, "wait": {"maybe"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tr.do(http.MethodPost, "/api/v1/owner/transfer", url.Values{"newOwner": {"0x0000000000000000000000000000000000000011"}, "wait": {"false"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testTxID)

	tr.owner.err = errors.Wrap(errorcode.ErrorOwnershipCheckFailed, "execution reverted")
	w = tr.do(http.MethodGet, "/api/v1/owner", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRecipientEndpoints(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/recipient/0x0000000000000000000000000000000000000011/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"address":"0x0000000000000000000000000000000000000011","received":true}`, w.Body.String())

	w = tr.do(http.MethodPost, "/api/v1/recipient/balance/decrypt", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"address":"%v","balance":"500"}`, testOwner.Hex()), w.Body.String())

	tr.recipient.err = errors.Wrap(errorcode.ErrorUserRejectedSignature, "无法获得解密授权签名")
	w = tr.do(http.MethodPost, "/api/v1/recipient/balance/decrypt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tr.recipient.err = errors.Wrap(errorcode.ErrorHandleNotDecrypted, "句柄")
	w = tr.do(http.MethodPost, "/api/v1/recipient/balance/decrypt", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(http.MethodGet, "/api/v1/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

type badController struct{}

func (badController) GetGroupName() string { return "/bad" }

func (badController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"/ok", "get"}:     []gin.HandlerFunc{func(c *gin.Context) {}},
		urlMethodPair{"/nope", "TRACE"}: []gin.HandlerFunc{func(c *gin.Context) {}},
	}
}

func TestRegisterHandlersRejectsUnsupportedMethod(t *testing.T) {
	router := gin.New()
	err := RegisterHandlers(router.Group("/api/v1"), badController{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TRACE")
	assert.Empty(t, router.Routes())
}

func TestErrorResponseCarriesReason(t *testing.T) {
	tr := newTestRouter(t)
	tr.airdrop.err = errors.Wrap(errorcode.ErrorForbidden, "不是合约所有者")

	w := tr.do(http.MethodPost, "/api/v1/airdrop/batch", url.Values{"recipients": {"a"}, "amounts": {"1"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	if isNoError := assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, errorcode.ErrorForbidden.Error(), body["reason"])
	assert.Contains(t, body["msg"], "不是合约所有者")
}
