package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/compose-network/rollup-deployer/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrReverted is returned when a mined transaction has a failed receipt status.
var ErrReverted = errors.New("chain: transaction reverted")

type (
	// Backend is the network/account provider every deployment step goes through.
	// Each call blocks until the chain confirms it or the call fails.
	Backend interface {
		Deploy(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...any) (common.Address, error)
		Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) error
		Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error)
	}

	Options struct {
		GasLimit            uint64
		ConfirmationTimeout time.Duration
	}

	// Client sends transactions from a single deployer key over an ethclient connection
	Client struct {
		eth        *ethclient.Client
		privateKey *ecdsa.PrivateKey
		from       common.Address
		chainID    *big.Int
		opts       Options
		logger     *slog.Logger
	}
)

// Dial connects to rpcURL and prepares a transactor for privateKeyHex
func Dial(ctx context.Context, rpcURL, privateKeyHex string, opts Options) (*Client, error) {
	log := logger.Named("chain_client")

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	log.With("url", rpcURL).Info("dialing the RPC")
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	log.With("chain_id", chainID).With("deployer", from.Hex()).Info("chain client ready")

	return &Client{
		eth:        eth,
		privateKey: privateKey,
		from:       from,
		chainID:    chainID,
		opts:       opts,
		logger:     log,
	}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// From returns the deployer account address
func (c *Client) From() common.Address {
	return c.from
}

func (c *Client) Deploy(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...any) (common.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmationTimeout)
	defer cancel()

	auth, err := c.transactor(ctx)
	if err != nil {
		return common.Address{}, err
	}

	address, tx, _, err := bind.DeployContract(auth, contractABI, bytecode, c.eth, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy contract: %w", err)
	}

	c.logger.
		With("address", address).
		With("tx_hash", tx.Hash().Hex()).
		Info("contract deployment transaction sent")

	if err := c.waitMined(ctx, tx); err != nil {
		return common.Address{}, err
	}

	return address, nil
}

func (c *Client) Transact(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmationTimeout)
	defer cancel()

	auth, err := c.transactor(ctx)
	if err != nil {
		return err
	}

	contract := bind.NewBoundContract(to, contractABI, c.eth, c.eth, c.eth)
	tx, err := contract.Transact(auth, method, args...)
	if err != nil {
		return fmt.Errorf("failed to send %s transaction: %w", method, err)
	}

	c.logger.
		With("to", to).
		With("method", method).
		With("tx_hash", tx.Hash().Hex()).
		Info("transaction sent")

	return c.waitMined(ctx, tx)
}

func (c *Client) Call(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...any) ([]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmationTimeout)
	defer cancel()

	contract := bind.NewBoundContract(to, contractABI, c.eth, c.eth, c.eth)

	var out []any
	if err := contract.Call(&bind.CallOpts{Context: ctx, From: c.from}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	return out, nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	auth.Context = ctx
	auth.GasLimit = c.opts.GasLimit
	auth.GasPrice = gasPrice

	return auth, nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) error {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return fmt.Errorf("failed to wait for transaction %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: tx %s status %d", ErrReverted, tx.Hash().Hex(), receipt.Status)
	}

	return nil
}

// WaitForRPC polls url once per second until it serves eth_blockNumber
func WaitForRPC(ctx context.Context, url string, attempts int) error {
	for range attempts {
		client, err := ethclient.DialContext(ctx, url)
		if err == nil {
			_, err = client.BlockNumber(ctx)
			client.Close()
			if err == nil {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return fmt.Errorf("timed out waiting for RPC at %s", url)
}
