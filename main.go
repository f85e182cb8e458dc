package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/appinit"
	"gitee.com/czyczk/confidential-airdrop/internal/background"
	"gitee.com/czyczk/confidential-airdrop/internal/controller"
	"gitee.com/czyczk/confidential-airdrop/internal/utils/timingutils"
	"gitee.com/czyczk/confidential-airdrop/internal/wallet"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// cliOptions are the flags shared by every subcommand.
type cliOptions struct {
	configPath string
	envPath    string
	assumeYes  bool
}

func main() {
	opts := &cliOptions{}
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "conf",
			Aliases:     []string{"c"},
			Value:       "serve.yaml",
			EnvVars:     []string{"FCA_CONF"},
			Destination: &opts.configPath,
		},
		&cli.StringFlag{
			Name:        "env",
			Value:       ".env",
			EnvVars:     []string{"FCA_ENV"},
			Usage:       "file holding CONTRACT_ADDRESS, PRIVATE_KEY and RPC_URL",
			Destination: &opts.envPath,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "sign decryption grants without asking",
			Destination: &opts.assumeYes,
		},
	}

	app := &cli.App{
		Name:  "confidential-airdrop",
		Usage: "Distribute encrypted token amounts and let recipients decrypt their balances",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Start as server",
				Flags:   commonFlags,
				Action:  getServeFunc(opts),
			},
			{
				Name:  "airdrop",
				Usage: "Encrypt the amounts and submit a batch airdrop",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "recipients", Usage: "file with one recipient address per line", Required: true},
					&cli.StringFlag{Name: "amounts", Usage: "file with one amount per line", Required: true},
					&cli.BoolFlag{Name: "no-wait", Usage: "return once the transaction is broadcast"},
				}, commonFlags...),
				Action: getAirdropFunc(opts),
			},
			{
				Name:      "status",
				Usage:     "Check whether an address has received the airdrop",
				ArgsUsage: "ADDRESS",
				Flags:     commonFlags,
				Action:    getStatusFunc(opts),
			},
			{
				Name:   "balance",
				Usage:  "Decrypt the balance of the configured account",
				Flags:  commonFlags,
				Action: getBalanceFunc(opts),
			},
			{
				Name:   "owner",
				Usage:  "Show the contract owner",
				Flags:  commonFlags,
				Action: getOwnerFunc(opts),
			},
			{
				Name:      "transfer-ownership",
				Usage:     "Transfer the contract ownership",
				ArgsUsage: "ADDRESS",
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "no-wait", Usage: "return once the transaction is broadcast"},
				}, commonFlags...),
				Action: getTransferOwnershipFunc(opts),
			},
		},
	}

	// Run the cli helper
	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

// approverChooser picks the signature approver once the config is loaded.
type approverChooser func(info *appinit.ServerInfo) wallet.Approver

func fixedApprover(approver wallet.Approver) approverChooser {
	return func(info *appinit.ServerInfo) wallet.Approver { return approver }
}

func serveApprover(info *appinit.ServerInfo) wallet.Approver {
	return appinit.ServeApprover(info.Decryption)
}

// setupApp loads the config and the environment overrides and connects the wallet.
func setupApp(c *cli.Context, opts *cliOptions, chooseApprover approverChooser) (*appinit.App, error) {
	serverInfo, err := appinit.LoadServerInfo(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := appinit.LoadEnv(&serverInfo, opts.envPath); err != nil {
		return nil, err
	}
	if err := appinit.SetupLogger(serverInfo.Log); err != nil {
		return nil, err
	}

	return appinit.SetupApp(c.Context, &serverInfo, chooseApprover(&serverInfo))
}

// promptApprover asks on the terminal before a decryption grant is signed.
func promptApprover(opts *cliOptions) wallet.Approver {
	if opts.assumeYes {
		return nil
	}

	return func(ctx context.Context, typedData *apitypes.TypedData) bool {
		fmt.Printf("请求签名 %v（%v），有效期 %v 天。是否签名？[y/N] ", typedData.PrimaryType, typedData.Domain.Name, typedData.Message["durationDays"])
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}

func initializeEngine(ctx context.Context, app *appinit.App) error {
	log.Infoln("正在初始化机密计算引擎，这可能需要一些时间...")
	start := time.Now()
	if _, err := app.FHESession.Initialize(ctx); err != nil {
		return err
	}
	log.Infof("机密计算引擎已就绪，耗时 %v。", timingutils.SerializeDuration(time.Since(start)))

	return nil
}

func getAirdropFunc(opts *cliOptions) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		recipients, err := readLines(c.String("recipients"))
		if err != nil {
			return err
		}
		amounts, err := readLines(c.String("amounts"))
		if err != nil {
			return err
		}

		app, err := setupApp(c, opts, fixedApprover(promptApprover(opts)))
		if err != nil {
			return err
		}
		defer app.Close()

		if err := initializeEngine(c.Context, app); err != nil {
			return err
		}

		submission, err := app.AirdropSvc.BatchAirdrop(c.Context, recipients, amounts)
		if err != nil {
			return err
		}
		fmt.Printf("Transaction ID: %v\n", submission.Record.TransactionID)

		if c.Bool("no-wait") {
			return nil
		}

		ctx, cancel := context.WithTimeout(c.Context, confirmTimeout(app))
		defer cancel()
		record, err := submission.Wait(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Confirmed in block %v, %v recipients.\n", record.BlockNumber, record.RecipientCount)

		return nil
	}
}

func getStatusFunc(opts *cliOptions) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		address := c.Args().First()
		if address == "" {
			return fmt.Errorf("请指定要查询的地址")
		}

		app, err := setupApp(c, opts, fixedApprover(nil))
		if err != nil {
			return err
		}
		defer app.Close()

		received, err := app.RecipientSvc.CheckAirdropStatus(c.Context, address)
		if err != nil {
			return err
		}
		if received {
			fmt.Printf("%v 已收到空投。\n", address)
		} else {
			fmt.Printf("%v 尚未收到空投。\n", address)
		}

		return nil
	}
}

func getBalanceFunc(opts *cliOptions) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		app, err := setupApp(c, opts, fixedApprover(promptApprover(opts)))
		if err != nil {
			return err
		}
		defer app.Close()

		if err := initializeEngine(c.Context, app); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(c.Context, confirmTimeout(app))
		defer cancel()
		balance, err := app.RecipientSvc.DecryptBalance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Balance of %v: %v\n", app.Wallet.Address().Hex(), balance)

		return nil
	}
}

func getOwnerFunc(opts *cliOptions) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		app, err := setupApp(c, opts, fixedApprover(nil))
		if err != nil {
			return err
		}
		defer app.Close()

		owner, err := app.OwnerSvc.GetOwner(c.Context)
		if err != nil {
			return err
		}
		isOwner, err := app.OwnerSvc.IsOwner(c.Context, app.Wallet.Address())
		if err != nil {
			return err
		}
		fmt.Printf("Owner: %v\n", owner.Hex())
		fmt.Printf("Connected account %v is owner: %v\n", app.Wallet.Address().Hex(), isOwner)

		return nil
	}
}

func getTransferOwnershipFunc(opts *cliOptions) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		newOwner := c.Args().First()
		if newOwner == "" {
			return fmt.Errorf("请指定新所有者地址")
		}

		app, err := setupApp(c, opts, fixedApprover(nil))
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := context.WithTimeout(c.Context, confirmTimeout(app))
		defer cancel()
		info, err := app.OwnerSvc.TransferOwnership(ctx, newOwner, !c.Bool("no-wait"))
		if err != nil {
			return err
		}
		fmt.Printf("Transaction ID: %v\n", info.TransactionID)

		return nil
	}
}

func getServeFunc(opts *cliOptions) func(c *cli.Context) error {
	serveFunc := func(c *cli.Context) error {
		app, err := setupApp(c, opts, serveApprover)
		if err != nil {
			return err
		}
		defer app.Close()

		// Bring the engine up in the background. Requests made before it is ready get 412.
		go func() {
			if _, err := app.FHESession.Initialize(context.Background()); err != nil {
				log.Errorf("机密计算引擎初始化失败: %v", err)
			}
		}()

		// Drop the engine and the cached grants whenever the account or the network changes
		watchServer := background.NewNetworkWatchServer(app.Wallet, app.Info.Network.PollInterval, background.ResetFunc(app.ResetSession))
		if err := watchServer.Start(); err != nil {
			return err
		}

		// Instantiate controllers
		controllers := []controller.Controller{
			&controller.PingPongController{},
			&controller.MetricsController{},
			&controller.SessionController{
				GroupName:  "/session",
				FHESession: app.FHESession,
			},
			&controller.WalletController{
				GroupName: "/wallet",
				Wallet:    app.Wallet,
			},
			&controller.OwnerController{
				GroupName: "/owner",
				Wallet:    app.Wallet,
				OwnerSvc:  app.OwnerSvc,
			},
			&controller.AirdropController{
				GroupName:      "/airdrop",
				AirdropSvc:     app.AirdropSvc,
				ConfirmTimeout: app.Info.Airdrop.ConfirmTimeout,
			},
			&controller.RecipientController{
				GroupName:    "/recipient",
				Wallet:       app.Wallet,
				RecipientSvc: app.RecipientSvc,
			},
		}

		// Register controller handlers
		router := gin.Default()
		router.Use(controller.CORSMiddleware())
		apiv1Group := router.Group("/api/v1")
		for _, ctrl := range controllers {
			if err := controller.RegisterHandlers(apiv1Group, ctrl); err != nil {
				return err
			}
		}

		// Start the HTTP server
		httpServer := &http.Server{
			Addr:    fmt.Sprintf(":%v", app.Info.Port),
			Handler: router,
		}

		chanError := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				chanError <- errors.Wrap(err, "无法启动 HTTP 服务器")
			}
		}()
		log.Infof("HTTP 服务器已在端口 %v 上启动。", app.Info.Port)

		// Listen Ctrl+C signals. On receiving a signal stops the app elegantly
		chanQuit := make(chan os.Signal, 1)
		signal.Notify(chanQuit, os.Interrupt)
		select {
		case err := <-chanError:
			return err
		case <-chanQuit:
			log.Infoln("收到 Ctrl+C 信号，正在退出程序...")

			// Stop the HTTP server elegantly
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			log.Infoln("正在停止 HTTP 服务器...")
			if err := httpServer.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "无法正常停止 HTTP 服务器")
			}

			log.Infoln("正在停止网络监视服务器...")
			wg, err := watchServer.Stop()
			if err != nil {
				return err
			}
			wg.Wait()
		}

		return nil
	}

	return serveFunc
}

func confirmTimeout(app *appinit.App) time.Duration {
	if app.Info.Airdrop.ConfirmTimeout > 0 {
		return app.Info.Airdrop.ConfirmTimeout
	}

	return controller.DefaultConfirmTimeout
}

// readLines reads a newline separated list. Blank lines are dropped by the service.
func readLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "无法读取文件 '%v'", path)
	}

	return strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n"), nil
}
