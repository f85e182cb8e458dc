package appinit

import (
	"io/ioutil"
	"os"
	"strings"
	"time"

	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	errors "github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ErrContractAddressNotConfigured is returned when neither the config file nor the environment names the airdrop
// contract.
var ErrContractAddressNotConfigured = errorcode.ErrorContractAddressNotConfigured

// Environment variables that override the config file.
const (
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvPrivateKey      = "PRIVATE_KEY"
	EnvRPCURL          = "RPC_URL"
)

// ServerInfo is the Go struct for contents in serve.yaml.
type ServerInfo struct {
	Port            int             `yaml:"port"`
	Network         *NetworkInfo    `yaml:"network"`
	ContractAddress string          `yaml:"contractAddress"`
	Account         *AccountInfo    `yaml:"account"`
	Relayer         *RelayerInfo    `yaml:"relayer"`
	Decryption      *DecryptionInfo `yaml:"decryption"`
	Airdrop         *AirdropInfo    `yaml:"airdrop"`
	Database        *DatabaseInfo   `yaml:"database"`
	Log             *LogInfo        `yaml:"log"`
}

// NetworkInfo describes the JSON-RPC provider and the network the app insists on.
type NetworkInfo struct {
	RPCURL       string        `yaml:"rpcURL"`
	ChainID      int64         `yaml:"chainID"`
	PollInterval time.Duration `yaml:"pollInterval"` // 回执与网络状态的轮询间隔
}

// AccountInfo holds the signing account. The private key is usually given in `.env` instead.
type AccountInfo struct {
	PrivateKey string `yaml:"privateKey"`
}

type RelayerInfo struct {
	URL               string        `yaml:"url"`
	VerifyingContract string        `yaml:"verifyingContract"`
	Timeout           time.Duration `yaml:"timeout"`
}

type DecryptionInfo struct {
	DurationDays int  `yaml:"durationDays"`
	CacheGrants  bool `yaml:"cacheGrants"`
	AutoApprove  bool `yaml:"autoApprove"` // 服务模式下是否自动签名解密授权，默认拒绝
}

type AirdropInfo struct {
	EncryptionConcurrency int           `yaml:"encryptionConcurrency"`
	ConfirmTimeout        time.Duration `yaml:"confirmTimeout"`
}

// DatabaseInfo configures the submission history. An empty driver disables it.
type DatabaseInfo struct {
	Driver string `yaml:"driver"` // mysql 或 sqlite
	DSN    string `yaml:"dsn"`
}

type LogInfo struct {
	Level       string `yaml:"level"`
	JSON        bool   `yaml:"json"`
	ShowTimings bool   `yaml:"showTimings"`
}

// LoadServerInfo loads the server config file (in YAML) which contains info needed to start a server.
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the `ServerInfo` struct containing the info needed to start a server
func LoadServerInfo(configFilePath string) (ret ServerInfo, err error) {
	yamlStr, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		err = errors.Wrap(err, "读取服务器配置文件失败")
		return
	}

	err = yaml.Unmarshal(yamlStr, &ret)
	if err != nil {
		err = errors.Wrap(err, "解析 YAML 文件时出现错误")
		return
	}

	ret.fillDefaults()
	return
}

// LoadEnv loads the `.env` files (if they exist) into the process environment and applies the overrides to `info`.
// Variables already set in the environment take precedence over the files.
func LoadEnv(info *ServerInfo, envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "无法加载环境变量文件 '%v'", f)
		}
	}

	info.fillDefaults()
	if v := strings.TrimSpace(os.Getenv(EnvContractAddress)); v != "" {
		info.ContractAddress = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPrivateKey)); v != "" {
		info.Account.PrivateKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRPCURL)); v != "" {
		info.Network.RPCURL = v
	}

	return nil
}

// Validate checks the settings needed before anything touches the chain.
func (info *ServerInfo) Validate() error {
	contractAddress := strings.TrimSpace(info.ContractAddress)
	if contractAddress == "" {
		return errors.Wrapf(ErrContractAddressNotConfigured, "请在配置文件中设置 contractAddress 或设置环境变量 %v", EnvContractAddress)
	}
	if !common.IsHexAddress(contractAddress) {
		return errors.Errorf("合约地址 '%v' 不合法", contractAddress)
	}
	if info.Relayer.VerifyingContract != "" && !common.IsHexAddress(info.Relayer.VerifyingContract) {
		return errors.Errorf("解密授权验证合约地址 '%v' 不合法", info.Relayer.VerifyingContract)
	}

	return nil
}

// ContractAddr returns the parsed contract address. Call `Validate` first.
func (info *ServerInfo) ContractAddr() common.Address {
	return common.HexToAddress(strings.TrimSpace(info.ContractAddress))
}

func (info *ServerInfo) fillDefaults() {
	if info.Port == 0 {
		info.Port = 8081
	}
	if info.Network == nil {
		info.Network = &NetworkInfo{}
	}
	if info.Network.ChainID == 0 {
		info.Network.ChainID = 11155111
	}
	if info.Account == nil {
		info.Account = &AccountInfo{}
	}
	if info.Relayer == nil {
		info.Relayer = &RelayerInfo{}
	}
	if info.Decryption == nil {
		info.Decryption = &DecryptionInfo{}
	}
	if info.Airdrop == nil {
		info.Airdrop = &AirdropInfo{}
	}
	if info.Database == nil {
		info.Database = &DatabaseInfo{}
	}
	if info.Log == nil {
		info.Log = &LogInfo{}
	}
	if info.Log.Level == "" {
		info.Log.Level = "info"
	}
}
