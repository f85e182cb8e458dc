package relayer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/nacl/box"
)

// Config locates the relayer and the network the engine gets bound to.
type Config struct {
	URL               string
	ChainID           *big.Int
	VerifyingContract common.Address // 解密授权的 EIP-712 验证合约
	Timeout           time.Duration
}

// Engine is an `fhevm.Engine` backed by a relayer service. Inputs are sealed locally to the network public key and
// only their ciphertexts reach the relayer. Decrypted plaintexts come back sealed to an ephemeral key pair only this
// process holds.
type Engine struct {
	cfg        Config
	client     *client
	keyInfo    KeyInfo
	networkKey *[32]byte
}

var _ fhevm.Engine = (*Engine)(nil)

// NewEngineFactory returns the bring-up routine of a relayer-backed engine. The bring-up fetches the network key
// material and fails if the relayer does not serve any.
func NewEngineFactory(cfg Config) fhevm.EngineFactory {
	return func(ctx context.Context) (fhevm.Engine, error) {
		if cfg.URL == "" {
			return nil, fmt.Errorf("未配置中继服务地址")
		}
		if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
			return nil, fmt.Errorf("链 ID 无效")
		}

		c := newClient(cfg.URL, cfg.Timeout)

		var keyInfo KeyInfo
		if err := c.get(ctx, pathKeyURL, &keyInfo); err != nil {
			return nil, errors.Wrap(err, "无法获取网络公钥")
		}
		if keyInfo.FHEPublicKey.DataID == "" {
			return nil, fmt.Errorf("中继服务未提供网络公钥")
		}

		networkKey, err := downloadNetworkKey(ctx, c, keyInfo.FHEPublicKey)
		if err != nil {
			return nil, err
		}
		log.Debugf("已获取网络公钥 '%v'。", keyInfo.FHEPublicKey.DataID)

		return &Engine{
			cfg:        cfg,
			client:     c,
			keyInfo:    keyInfo,
			networkKey: networkKey,
		}, nil
	}
}

// downloadNetworkKey tries the key URLs in order and returns the first usable key.
func downloadNetworkKey(ctx context.Context, c *client, material KeyMaterial) (*[32]byte, error) {
	if len(material.URLs) == 0 {
		return nil, fmt.Errorf("网络公钥 '%v' 没有下载地址", material.DataID)
	}

	var lastErr error
	for _, url := range material.URLs {
		blob, err := c.fetchBlob(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		key, err := parseNetworkKey(blob)
		if err != nil {
			lastErr = errors.Wrapf(err, "网络公钥 '%v'", url)
			continue
		}

		return key, nil
	}

	return nil, errors.Wrapf(lastErr, "无法获取网络公钥 '%v'", material.DataID)
}

// parseNetworkKey accepts the raw 32-byte key or its hex text form.
func parseNetworkKey(blob []byte) (*[32]byte, error) {
	raw := blob
	if len(blob) != 32 {
		text := strings.TrimPrefix(strings.TrimSpace(string(blob)), "0x")
		decoded, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("格式不受支持")
		}
		raw = decoded
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("长度 %v 不是 32 字节", len(raw))
	}

	key := new([32]byte)
	copy(key[:], raw)
	return key, nil
}

// PublicKeyID returns the id of the network public key the engine was brought up with.
func (e *Engine) PublicKeyID() string {
	return e.keyInfo.FHEPublicKey.DataID
}

func (e *Engine) CreateEncryptedInput(contract common.Address, user common.Address) fhevm.InputBuilder {
	return &inputBuilder{
		engine:   e,
		contract: contract,
		user:     user,
	}
}

func (e *Engine) GenerateKeypair() (*fhevm.Keypair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "无法生成临时密钥对")
	}

	return &fhevm.Keypair{
		PublicKey:  pub[:],
		PrivateKey: priv[:],
	}, nil
}

func (e *Engine) CreateEIP712(publicKey []byte, contracts []common.Address, startTimestamp int64, durationDays int) (*apitypes.TypedData, error) {
	if len(publicKey) == 0 {
		return nil, fmt.Errorf("公钥不能为空")
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("合约地址列表不能为空")
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("有效天数必须为正数")
	}

	return fhevm.NewUserDecryptTypedData(e.cfg.ChainID, e.cfg.VerifyingContract, publicKey, contracts, startTimestamp, durationDays), nil
}

func (e *Engine) UserDecrypt(ctx context.Context, req *fhevm.UserDecryptRequest) (map[string]*big.Int, error) {
	if req == nil || req.Keypair == nil {
		return nil, fmt.Errorf("解密请求不完整")
	}
	pub, priv, err := toBoxKeys(req.Keypair)
	if err != nil {
		return nil, err
	}

	wireReq := UserDecryptRequest{
		RequestValidity: RequestValidity{
			StartTimestamp: strconv.FormatInt(req.StartTimestamp, 10),
			DurationDays:   strconv.Itoa(req.DurationDays),
		},
		ContractsChainID: strconv.FormatInt(e.cfg.ChainID.Int64(), 10),
		UserAddress:      req.UserAddress.Hex(),
		Signature:        strings.TrimPrefix(hexutil.Encode(req.Signature), "0x"),
		PublicKey:        strings.TrimPrefix(hexutil.Encode(req.Keypair.PublicKey), "0x"),
		ExtraData:        "0x00",
	}
	for _, pair := range req.Handles {
		wireReq.HandleContractPairs = append(wireReq.HandleContractPairs, HandleContractPair{
			Handle:          pair.Handle,
			ContractAddress: pair.ContractAddress.Hex(),
		})
	}
	for _, c := range req.ContractAddresses {
		wireReq.ContractAddresses = append(wireReq.ContractAddresses, c.Hex())
	}

	var result UserDecryptResult
	if err := e.client.post(ctx, pathUserDecrypt, &wireReq, &result); err != nil {
		return nil, err
	}

	ret := make(map[string]*big.Int, len(result.Payloads))
	for handle, sealedHex := range result.Payloads {
		sealed, err := hexutil.Decode(sealedHex)
		if err != nil {
			return nil, errors.Wrapf(err, "句柄 '%v' 的密封明文格式不正确", handle)
		}

		plaintext, ok := box.OpenAnonymous(nil, sealed, pub, priv)
		if !ok {
			return nil, fmt.Errorf("无法打开句柄 '%v' 的密封明文", handle)
		}

		ret[strings.ToLower(handle)] = new(big.Int).SetBytes(plaintext)
	}

	return ret, nil
}

func toBoxKeys(keypair *fhevm.Keypair) (pub, priv *[32]byte, err error) {
	if len(keypair.PublicKey) != 32 || len(keypair.PrivateKey) != 32 {
		err = fmt.Errorf("临时密钥对长度不正确")
		return
	}

	pub, priv = new([32]byte), new([32]byte)
	copy(pub[:], keypair.PublicKey)
	copy(priv[:], keypair.PrivateKey)
	return
}

type inputBuilder struct {
	engine   *Engine
	contract common.Address
	user     common.Address
	widths   []fhevm.BitWidth
	values   []*big.Int // 仅保存在内存中，Encrypt 之后清空
	width    fhevm.BitWidth
}

func (b *inputBuilder) Add64(value *big.Int) error {
	return b.add(fhevm.Uint64, value)
}

func (b *inputBuilder) Add256(value *big.Int) error {
	return b.add(fhevm.Uint256, value)
}

func (b *inputBuilder) add(width fhevm.BitWidth, value *big.Int) error {
	if !width.Fits(value) {
		return errors.Wrapf(errorcode.ErrorInvalidInput, "值 '%v' 超出 %v 位无符号整数的范围", value, width)
	}

	b.widths = append(b.widths, width)
	b.values = append(b.values, new(big.Int).Set(value))
	if width > b.width {
		b.width = width
	}

	return nil
}

// sealInput encrypts one value to the network public key. The sealed message binds the value to the chain, the
// contract and the user:
//   chainID (32) | contract (20) | user (20) | value (width/8), all big-endian
func sealInput(networkKey *[32]byte, chainID *big.Int, contract, user common.Address, width fhevm.BitWidth, value *big.Int) ([]byte, error) {
	msg := make([]byte, 0, 72+int(width)/8)
	msg = append(msg, common.LeftPadBytes(chainID.Bytes(), 32)...)
	msg = append(msg, contract.Bytes()...)
	msg = append(msg, user.Bytes()...)
	msg = append(msg, common.LeftPadBytes(value.Bytes(), int(width)/8)...)

	sealed, err := box.SealAnonymous(nil, msg, networkKey, rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "无法加密输入")
	}

	return sealed, nil
}

func (b *inputBuilder) Encrypt(ctx context.Context) (*fhevm.EncryptedValue, error) {
	if len(b.values) == 0 {
		return nil, fmt.Errorf("没有待加密的值")
	}

	req := InputProofRequest{
		ContractAddress: b.contract.Hex(),
		UserAddress:     b.user.Hex(),
		ContractChainID: hexutil.EncodeBig(b.engine.cfg.ChainID),
		PublicKeyID:     b.engine.PublicKeyID(),
		ExtraData:       "0x00",
	}
	for i, value := range b.values {
		sealed, err := sealInput(b.engine.networkKey, b.engine.cfg.ChainID, b.contract, b.user, b.widths[i], value)
		if err != nil {
			return nil, err
		}
		req.Ciphertexts = append(req.Ciphertexts, TypedCiphertext{
			Bits:       int(b.widths[i]),
			Ciphertext: hexutil.Encode(sealed),
		})
	}
	count := len(b.values)
	b.values, b.widths = nil, nil

	var result InputProofResult
	if err := b.engine.client.post(ctx, pathInputProof, &req, &result); err != nil {
		return nil, err
	}

	if len(result.Handles) != count {
		return nil, fmt.Errorf("中继服务返回的句柄数 %v 与输入值数 %v 不一致", len(result.Handles), count)
	}

	handles := make([][32]byte, 0, len(result.Handles))
	for _, handleHex := range result.Handles {
		handleBytes, err := hexutil.Decode(handleHex)
		if err != nil {
			return nil, errors.Wrapf(err, "句柄 '%v' 格式不正确", handleHex)
		}
		if len(handleBytes) != 32 {
			return nil, fmt.Errorf("句柄 '%v' 长度不是 32 字节", handleHex)
		}

		var handle [32]byte
		copy(handle[:], handleBytes)
		handles = append(handles, handle)
	}

	proof, err := hexutil.Decode(result.InputProof)
	if err != nil {
		return nil, errors.Wrap(err, "输入证明格式不正确")
	}

	return &fhevm.EncryptedValue{
		Handles:         handles,
		InputProof:      proof,
		Width:           b.width,
		ContractAddress: b.contract,
		UserAddress:     b.user,
	}, nil
}
