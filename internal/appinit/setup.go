package appinit

import (
	"context"
	"math/big"
	"strings"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao/ethbcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/eventmgr/ethereventmgr"
	"gitee.com/czyczk/confidential-airdrop/internal/db"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm"
	"gitee.com/czyczk/confidential-airdrop/internal/fhevm/relayer"
	"gitee.com/czyczk/confidential-airdrop/internal/global"
	"gitee.com/czyczk/confidential-airdrop/internal/service"
	"gitee.com/czyczk/confidential-airdrop/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServeApprover returns the signature approver used in serve mode, where nobody is at the terminal to confirm. Unless
// `autoApprove` is set every decryption grant is refused, so HTTP callers get `UserRejectedSignature`.
func ServeApprover(info *DecryptionInfo) wallet.Approver {
	if info != nil && info.AutoApprove {
		log.Warnln("已开启 decryption.autoApprove，服务模式下的解密授权将被自动签名。")
		return func(ctx context.Context, typedData *apitypes.TypedData) bool { return true }
	}

	return func(ctx context.Context, typedData *apitypes.TypedData) bool {
		log.Warnln("服务模式未开启 decryption.autoApprove，已拒绝签名解密授权。")
		return false
	}
}

// SetupLogger applies the log settings.
func SetupLogger(info *LogInfo) error {
	if info == nil {
		info = &LogInfo{Level: "info"}
	}

	level, err := log.ParseLevel(info.Level)
	if err != nil {
		return errors.Wrapf(err, "日志级别 '%v' 不合法", info.Level)
	}
	log.SetLevel(level)

	if info.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	global.ShowTimingLogs = info.ShowTimings

	return nil
}

// App holds the connected wallet and everything built on top of it.
type App struct {
	Info         *ServerInfo
	Wallet       *wallet.Session
	FHESession   *fhevm.Session
	EventManager *ethereventmgr.EthereumEventManager
	DB           *gorm.DB
	ServiceInfo  *service.Info

	EncryptionSvc *service.EncryptionService
	DecryptionSvc *service.DecryptionService
	OwnerSvc      *service.OwnerService
	AirdropSvc    *service.AirdropService
	RecipientSvc  *service.RecipientService
}

// SetupApp validates the config, connects the wallet and creates the services. The confidential compute engine is
// not brought up here; call `App.FHESession.Initialize` when it is needed.
//
// Parameters:
//   the server info (with the environment overrides applied)
//   the confirmation prompt for signatures (nil approves every request)
//
// Returns:
//   the app
func SetupApp(ctx context.Context, info *ServerInfo, approver wallet.Approver) (*App, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	w := wallet.NewSession(wallet.Config{
		RPCURL:     info.Network.RPCURL,
		ChainID:    big.NewInt(info.Network.ChainID),
		PrivateKey: info.Account.PrivateKey,
		Approver:   approver,
	})
	if err := w.Connect(ctx); err != nil {
		return nil, errors.Wrap(err, "无法连接钱包")
	}

	app, err := newApp(info, w)
	if err != nil {
		w.Disconnect()
		return nil, err
	}

	return app, nil
}

func newApp(info *ServerInfo, w *wallet.Session) (*App, error) {
	contractABI, err := ethbcao.LoadContractABI()
	if err != nil {
		return nil, err
	}

	contractCtx := &chaincodectx.EthereumContractCtx{
		ContractAddress: info.ContractAddr(),
		ContractABI:     contractABI,
		Account:         w,
		GetBackend: func() chaincodectx.Backend {
			// 未连接时返回接口类型的 nil
			client := w.Client()
			if client == nil {
				return nil
			}
			return client
		},
	}

	verifyingContract := common.Address{}
	if info.Relayer.VerifyingContract != "" {
		verifyingContract = common.HexToAddress(strings.TrimSpace(info.Relayer.VerifyingContract))
	}
	fheSession := fhevm.NewSession(w, relayer.NewEngineFactory(relayer.Config{
		URL:               info.Relayer.URL,
		ChainID:           w.TargetChainID(),
		VerifyingContract: verifyingContract,
		Timeout:           info.Relayer.Timeout,
	}))

	var localDB *gorm.DB
	if info.Database.Driver != "" {
		localDB, err = db.OpenLocalDB(info.Database.Driver, info.Database.DSN)
		if err != nil {
			return nil, err
		}
	}

	eventManager := ethereventmgr.NewEthereumEventManager(contractCtx, info.Network.PollInterval)
	serviceInfo := &service.Info{
		ContractAddress: contractCtx.ContractAddress,
		Wallet:          w,
		FHESession:      fheSession,
		AirdropBCAO:     ethbcao.NewAirdropBCAOEthereumImpl(contractCtx),
		EventManager:    eventManager,
		DB:              localDB,
	}

	app := &App{
		Info:         info,
		Wallet:       w,
		FHESession:   fheSession,
		EventManager: eventManager,
		DB:           localDB,
		ServiceInfo:  serviceInfo,
	}
	app.EncryptionSvc = &service.EncryptionService{ServiceInfo: serviceInfo}
	app.DecryptionSvc = &service.DecryptionService{
		ServiceInfo:  serviceInfo,
		DurationDays: info.Decryption.DurationDays,
		CacheGrants:  info.Decryption.CacheGrants,
	}
	app.OwnerSvc = &service.OwnerService{ServiceInfo: serviceInfo}
	app.AirdropSvc = &service.AirdropService{
		ServiceInfo:           serviceInfo,
		EncryptionService:     app.EncryptionSvc,
		OwnerService:          app.OwnerSvc,
		EncryptionConcurrency: info.Airdrop.EncryptionConcurrency,
	}
	app.RecipientSvc = &service.RecipientService{
		ServiceInfo:       serviceInfo,
		DecryptionService: app.DecryptionSvc,
	}

	return app, nil
}

// ResetSession drops the engine and the cached decryption grants. It is called when the account or the network
// changes.
func (app *App) ResetSession() {
	app.FHESession.Reset()
	app.DecryptionSvc.ForgetGrants()
}

// Close disconnects the wallet and closes the database.
func (app *App) Close() {
	app.Wallet.Disconnect()

	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err != nil {
			log.Errorf("无法获取数据库连接: %v", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.Errorf("无法关闭数据库连接: %v", err)
		}
	}
}
