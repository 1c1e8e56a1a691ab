package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/chain"
	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/contract"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/rpc"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
	"github.com/Mohsinsiddi/rollupdash/internal/wallet"
)

// errChainMismatch means the selected RPC serves a different chain than the
// one configured.
var errChainMismatch = errors.New("RPC serves a different chain")

// connection is a live link to the base-layer chain plus the wallet acting
// on it. wallet is nil when no wallet is configured; signer is nil for
// watch-only wallets.
type connection struct {
	chain  *chain.Chain
	evm    *chain.EVMClient
	wallet *wallet.Wallet
	signer *wallet.Signer
}

func (c *connection) Close() { c.evm.Close() }

func (c *connection) chainID() *big.Int { return big.NewInt(c.chain.ChainID) }

func (c *connection) sender() (*contract.Sender, error) {
	if c.signer == nil {
		name := ""
		if c.wallet != nil {
			name = c.wallet.Name
		}
		return nil, fmt.Errorf(
			"wallet %q cannot sign transactions\n  Add a signing wallet: rollupdash wallet add <name> --key <private-key>", name)
	}
	return contract.NewSender(c.evm, c.signer, c.chainID(), logger), nil
}

// application binds the configured application. write needs a signing wallet.
func (c *connection) application(write bool) (*contract.Application, error) {
	app, err := appAddress()
	if err != nil {
		return nil, err
	}
	if !write {
		return contract.NewApplication(app, c.evm, nil), nil
	}
	s, err := c.sender()
	if err != nil {
		return nil, err
	}
	return contract.NewApplication(app, c.evm, s), nil
}

// inputBox binds the configured InputBox. write needs a signing wallet.
func (c *connection) inputBox(write bool) (*contract.InputBox, error) {
	if !common.IsHexAddress(cfg.InputBoxAddress) {
		return nil, fmt.Errorf("%w: input box %q", config.ErrInvalidAddress, cfg.InputBoxAddress)
	}
	addr := common.HexToAddress(cfg.InputBoxAddress)
	if !write {
		return contract.NewInputBox(addr, c.evm, nil), nil
	}
	s, err := c.sender()
	if err != nil {
		return nil, err
	}
	return contract.NewInputBox(addr, c.evm, s), nil
}

// appAddress returns the configured application as a contract address.
func appAddress() (common.Address, error) {
	if !common.IsHexAddress(cfg.AppAddress) {
		return common.Address{}, fmt.Errorf("%w: application %q\n  Set one with: rollupdash config set-app <address>",
			config.ErrInvalidAddress, cfg.AppAddress)
	}
	return common.HexToAddress(cfg.AppAddress), nil
}

func resolveChain() (*chain.Chain, error) {
	c, err := chain.NewRegistry().Resolve(cfg.DefaultNetwork)
	if err != nil {
		return nil, fmt.Errorf("%w\n  Run `rollupdash network list` to see supported chains", err)
	}
	return c, nil
}

// chainEndpoints lists custom RPCs first, then the built-in ones.
func chainEndpoints(c *chain.Chain) []string {
	urls := append([]string(nil), cfg.GetRPCs(c.Name)...)
	return append(urls, c.Endpoints(cfg.NodeURL)...)
}

// dialChain picks an RPC for the configured chain and checks that it really
// serves that chain.
func dialChain(ctx context.Context) (*chain.Chain, *chain.EVMClient, error) {
	c, err := resolveChain()
	if err != nil {
		return nil, nil, err
	}

	selCtx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	url, err := rpc.Select(selCtx, chainEndpoints(c), cfg.RPCAlgorithm)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", c.DisplayName, err)
	}
	logger.Debug("rpc selected", zap.String("chain", c.Name), zap.String("url", url))

	evm, err := chain.NewEVMClient(url)
	if err != nil {
		return nil, nil, err
	}
	id, err := evm.ChainID(selCtx)
	if err != nil {
		evm.Close()
		return nil, nil, fmt.Errorf("reading chain id from %s: %w", url, err)
	}
	if id != c.ChainID {
		evm.Close()
		return nil, nil, fmt.Errorf("%w: %s reports chain %d, expected %s (%d)",
			errChainMismatch, url, id, c.DisplayName, c.ChainID)
	}
	return c, evm, nil
}

// resolveWallet picks --wallet, then the configured default, then the
// manager's own default.
func resolveWallet(mgr *wallet.Manager) (*wallet.Wallet, error) {
	name := walletFlag
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name != "" {
		return mgr.Get(name)
	}
	if w := mgr.Default(); w != nil {
		return w, nil
	}
	return nil, fmt.Errorf("%w: none configured\n  Add one with: rollupdash wallet add <name> --key <private-key>",
		wallet.ErrWalletNotFound)
}

// connect dials the chain and resolves the wallet. needSigner fails early
// for watch-only wallets. A missing wallet is only an error with needSigner.
func connect(ctx context.Context, needSigner bool) (*connection, error) {
	c, evm, err := dialChain(ctx)
	if err != nil {
		return nil, err
	}
	conn := &connection{chain: c, evm: evm}

	mgr := newWalletManager()
	w, err := resolveWallet(mgr)
	switch {
	case err != nil && needSigner:
		evm.Close()
		return nil, err
	case err != nil:
		logger.Debug("no wallet", zap.Error(err))
		return conn, nil
	}
	conn.wallet = w
	if w.CanSign() {
		conn.signer, err = mgr.Signer(w.Name)
		if err != nil {
			evm.Close()
			return nil, err
		}
	}
	if needSigner {
		if _, err := conn.sender(); err != nil {
			evm.Close()
			return nil, err
		}
	}
	return conn, nil
}

func newWalletManager() *wallet.Manager {
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(wallet.DefaultKeystore(cfg.Dir())),
	)
}

// newNodeClient connects to the configured rollup node.
func newNodeClient(ctx context.Context) (*node.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return node.New(ctx, cfg.NodeURL, cfg.AppAddress,
		node.WithLogger(logger),
		node.WithTimeout(config.NodeRequestTimeout))
}

// updateConfig applies fn to the persisted config and to the in-memory one.
// Flag and environment overrides of this run are not written back.
func updateConfig(fn func(*config.Config) error) error {
	stored, err := config.Load(cfg.Dir())
	if err != nil {
		return err
	}
	if err := fn(stored); err != nil {
		return err
	}
	if err := stored.Save(); err != nil {
		return err
	}
	return fn(cfg)
}

// render prints v in the -o format; table builds the human view.
func render(cmd *cobra.Command, v any, table func() string) error {
	f, err := ui.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	return ui.Render(cmd.OutOrStdout(), f, v, table)
}

func isTable() bool {
	f, err := ui.ParseFormat(outputFlag)
	return err == nil && f == ui.FormatTable
}

// spin shows a spinner on stderr while fn runs, when stderr is a terminal
// and the output is a table.
func spin(msg string, fn func() error) error {
	if !isTable() || !isatty.IsTerminal(os.Stderr.Fd()) {
		return fn()
	}
	s := ui.NewSpinner(os.Stderr, msg)
	s.Start()
	defer s.Stop()
	return fn()
}

// uint64Flag returns the flag value only when the user set it, so an
// explicit 0 is still sent as a filter.
func uint64Flag(cmd *cobra.Command, name string) *uint64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetUint64(name)
	if err != nil {
		return nil
	}
	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}

func prompter(cmd *cobra.Command) *ui.Prompter {
	return ui.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

func errorLine(err error) string { return ui.Err(err.Error()) }
