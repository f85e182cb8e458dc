package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SepoliaChainID is the default target network.
var SepoliaChainID = big.NewInt(11155111)

// Dialer opens a JSON-RPC connection to the provider.
type Dialer func(ctx context.Context, url string) (*rpc.Client, error)

// Approver models the wallet's confirmation prompt. Returning false refuses the signature.
type Approver func(ctx context.Context, typedData *apitypes.TypedData) bool

// Config describes the provider and the account a Session connects with.
type Config struct {
	RPCURL     string
	ChainID    *big.Int // 目标网络
	PrivateKey string   // 十六进制，可带 0x 前缀
	Approver   Approver
	Dialer     Dialer
}

// Session is the connected wallet: a JSON-RPC provider plus the active account's signer.
type Session struct {
	cfg    Config
	target *big.Int

	mu        sync.RWMutex
	rpcClient *rpc.Client
	client    *ethclient.Client
	key       *ecdsa.PrivateKey
	address   common.Address
	chainID   *big.Int

	subsMu    sync.Mutex
	subs      map[uint64]Handler
	nextSubID uint64
}

// NewSession creates a disconnected session. Call `Connect` before use.
func NewSession(cfg Config) *Session {
	if cfg.Dialer == nil {
		cfg.Dialer = rpc.DialContext
	}

	target := cfg.ChainID
	if target == nil {
		target = SepoliaChainID
	}

	return &Session{
		cfg:    cfg,
		target: new(big.Int).Set(target),
		subs:   make(map[uint64]Handler),
	}
}

// Connect dials the provider, makes sure it is on the target network and activates the configured account.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.RPCURL == "" {
		return errors.Wrap(errorcode.ErrorProviderUnavailable, "未配置 RPC 地址")
	}

	key, err := parsePrivateKey(s.cfg.PrivateKey)
	if err != nil {
		return err
	}

	rpcClient, err := s.cfg.Dialer(ctx, s.cfg.RPCURL)
	if err != nil {
		return errors.Wrap(errorcode.ErrorProviderUnavailable, err.Error())
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := s.ensureChain(ctx, rpcClient, client)
	if err != nil {
		rpcClient.Close()
		return err
	}

	address := crypto.PubkeyToAddress(key.PublicKey)

	s.mu.Lock()
	if s.rpcClient != nil {
		s.rpcClient.Close()
	}
	s.rpcClient = rpcClient
	s.client = client
	s.key = key
	s.address = address
	s.chainID = chainID
	s.mu.Unlock()

	log.Infof("钱包已连接，账户 %v，网络 %v。", address.Hex(), chainID)
	s.emit(Event{Kind: AccountChanged, Account: address, ChainID: chainID})
	s.emit(Event{Kind: ChainChanged, Account: address, ChainID: chainID})

	return nil
}

func (s *Session) ensureChain(ctx context.Context, rpcClient *rpc.Client, client *ethclient.Client) (*big.Int, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, err.Error())
	}
	if chainID.Cmp(s.target) == 0 {
		return chainID, nil
	}

	log.Infof("当前网络 %v 不是目标网络 %v，正在请求切换...", chainID, s.target)
	params := map[string]string{"chainId": hexutil.EncodeBig(s.target)}
	if err := rpcClient.CallContext(ctx, nil, "wallet_switchEthereumChain", params); err != nil {
		return nil, errors.Wrapf(errorcode.ErrorWrongNetwork, "无法切换到网络 %v: %v", s.target, err)
	}

	chainID, err = client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, err.Error())
	}
	if chainID.Cmp(s.target) != 0 {
		return nil, errors.Wrapf(errorcode.ErrorWrongNetwork, "当前网络 %v，目标网络 %v", chainID, s.target)
	}

	return chainID, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, "未配置账户私钥")
	}

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, "账户私钥格式不正确")
	}

	return key, nil
}

// Disconnect drops the provider connection and the active account.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.rpcClient != nil {
		s.rpcClient.Close()
	}
	s.rpcClient = nil
	s.client = nil
	s.key = nil
	s.address = common.Address{}
	s.chainID = nil
	s.mu.Unlock()

	log.Infoln("钱包已断开。")
	s.emit(Event{Kind: AccountChanged})
}

// IsConnected reports whether both the provider and an account are available.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil && s.key != nil
}

// Address returns the active account, or the zero address when disconnected.
func (s *Session) Address() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// ChainID returns the chain the provider is currently on, or nil when disconnected.
func (s *Session) ChainID() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.chainID == nil {
		return nil
	}

	return new(big.Int).Set(s.chainID)
}

// TargetChainID returns the network the session insists on.
func (s *Session) TargetChainID() *big.Int {
	return new(big.Int).Set(s.target)
}

// Client returns the provider client, or nil when disconnected.
func (s *Session) Client() *ethclient.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// SignTypedData signs an EIP-712 message with the active account. V is 27 or 28.
func (s *Session) SignTypedData(ctx context.Context, typedData *apitypes.TypedData) ([]byte, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	if key == nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, "钱包未连接")
	}
	if typedData == nil {
		return nil, errors.New("待签名消息不能为空")
	}

	if s.cfg.Approver != nil && !s.cfg.Approver(ctx, typedData) {
		return nil, errorcode.ErrorUserRejectedSignature
	}

	hash, _, err := apitypes.TypedDataAndHash(*typedData)
	if err != nil {
		return nil, errors.Wrap(err, "无法计算 EIP-712 摘要")
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, errors.Wrap(err, "无法签名")
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// TransactOpts returns transaction options for the active account on the target network.
func (s *Session) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()

	if key == nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, "钱包未连接")
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, s.target)
	if err != nil {
		return nil, errors.Wrap(err, "无法创建交易签名器")
	}
	opts.Context = ctx

	return opts, nil
}

// Watch polls the provider's chain id every `interval` until `ctx` is done and emits `ChainChanged` when it moves.
func (s *Session) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		client := s.Client()
		if client == nil {
			continue
		}

		chainID, err := client.ChainID(ctx)
		if err != nil {
			log.Debugf("无法获取当前网络: %v", err)
			continue
		}

		s.mu.Lock()
		changed := s.chainID != nil && s.chainID.Cmp(chainID) != 0
		if changed {
			s.chainID = chainID
		}
		address := s.address
		s.mu.Unlock()

		if changed {
			log.Infof("检测到网络切换至 %v。", chainID)
			s.emit(Event{Kind: ChainChanged, Account: address, ChainID: chainID})
		}
	}
}
