package ethbcao

import (
	"context"
	_ "embed"
	"strings"

	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/bcao"
	"gitee.com/czyczk/confidential-airdrop/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/confidential-airdrop/pkg/errorcode"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed confidential_airdrop.abi.json
var contractABIJSON string

// LoadContractABI parses the ABI of the confidential airdrop contract.
func LoadContractABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABIJSON))
	if err != nil {
		return abi.ABI{}, errors.Wrap(err, "无法解析合约 ABI")
	}

	return parsed, nil
}

func boundContract(ctx *chaincodectx.EthereumContractCtx) (*bind.BoundContract, error) {
	backend := ctx.Backend()
	if backend == nil {
		return nil, errors.Wrap(errorcode.ErrorProviderUnavailable, "钱包未连接")
	}

	return bind.NewBoundContract(ctx.ContractAddress, ctx.ContractABI, backend, backend, backend), nil
}

func sendTx(c context.Context, ctx *chaincodectx.EthereumContractCtx, funcName string, funcArgs ...interface{}) (*bcao.TransactionCreationInfo, error) {
	contract, err := boundContract(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := ctx.Account.TransactOpts(c)
	if err != nil {
		return nil, err
	}

	tx, err := contract.Transact(opts, funcName, funcArgs...)
	if err != nil {
		return nil, bcao.GetClassifiedError(funcName, err)
	}
	log.Debugf("已发送交易 '%v'，合约函数 '%v'。", tx.Hash().Hex(), funcName)

	return &bcao.TransactionCreationInfo{
		TransactionID: tx.Hash().Hex(),
		From:          opts.From.Hex(),
		Nonce:         tx.Nonce(),
		ContractAddr:  ctx.ContractAddress.Hex(),
	}, nil
}

func sendQuery(c context.Context, ctx *chaincodectx.EthereumContractCtx, funcName string, funcArgs ...interface{}) ([]interface{}, error) {
	contract, err := boundContract(ctx)
	if err != nil {
		return nil, err
	}

	opts := &bind.CallOpts{Context: c}
	if ctx.Account != nil {
		opts.From = ctx.Account.Address()
	}

	var out []interface{}
	if err := contract.Call(opts, &out, funcName, funcArgs...); err != nil {
		return nil, bcao.GetClassifiedError(funcName, err)
	}

	return out, nil
}
