package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/contract"
	"github.com/Mohsinsiddi/rollupdash/internal/node"
	"github.com/Mohsinsiddi/rollupdash/internal/session"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
	"github.com/Mohsinsiddi/rollupdash/internal/wallet"
)

var errWalletChanged = errors.New("wallet changed since the dashboard started: restart it to sign with the new key")

// dashboardSource feeds the dashboard from the node and the base layer.
type dashboardSource struct {
	node  *node.Client
	conn  *connection
	read  *contract.Application
	write *contract.Application // nil for watch-only wallets
	log   *zap.Logger
}

func (s *dashboardSource) ChainID(ctx context.Context) (int64, error) {
	return s.conn.evm.ChainID(ctx)
}

// Account re-reads the wallet file so removing or re-importing the connected
// wallet in another terminal shows up on the next refresh.
func (s *dashboardSource) Account(context.Context) (string, error) {
	if s.conn == nil || s.conn.wallet == nil {
		return "", nil
	}
	w, err := newWalletManager().Get(s.conn.wallet.Name)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return w.Address, nil
}

func (s *dashboardSource) Reports(ctx context.Context) ([]node.Report, error) {
	list, err := s.node.ListReports(ctx, node.ReportFilter{})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (s *dashboardSource) Outputs(ctx context.Context) (*node.Snapshot, error) {
	return s.node.FetchOutputs(ctx, node.OutputFilter{})
}

func (s *dashboardSource) Validate(ctx context.Context, o node.Output) (string, error) {
	v, err := s.read.ValidateOutput(ctx, &o)
	if err != nil {
		return "", err
	}
	if !v.Valid && v.Reason != "" {
		return v.Message() + " " + v.Reason, nil
	}
	return v.Message(), nil
}

func (s *dashboardSource) Execute(ctx context.Context, o node.Output) (string, error) {
	if s.write == nil {
		return "", contract.ErrReadOnly
	}
	addr, err := s.Account(ctx)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(addr, s.conn.signer.Address().Hex()) {
		return "", errWalletChanged
	}
	hash, err := s.write.ExecuteOutput(ctx, &o)
	if err != nil {
		return "", err
	}
	s.log.Info("executeOutput sent", zap.Uint64("index", o.Index.Uint64()), zap.Stringer("tx", hash))
	r, err := s.conn.evm.WaitForReceipt(ctx, hash, 2*time.Second, config.TxConfirmTimeout)
	if err != nil {
		return "", fmt.Errorf("tx %s: %w", hash.Hex(), err)
	}
	return fmt.Sprintf("Voucher %d executed in block %d", o.Index.Uint64(), r.BlockNumber), nil
}

func (s *dashboardSource) Inspect(ctx context.Context, payload []byte) (*node.InspectResult, error) {
	return s.node.Inspect(ctx, payload)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live dashboard of reports and outputs",
	Long: `Open a full-screen dashboard that reloads reports and outputs every
refresh_interval seconds. Select an output to validate a notice (v) or
execute a voucher (x), and send inspect requests (i). Logs go to
rollupdash.log in the config directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(cfg.LogPath())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		client, err := newNodeClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		conn, err := connect(ctx, false)
		if err != nil {
			return err
		}
		defer conn.Close()

		src := &dashboardSource{node: client, conn: conn, log: logger}
		if src.read, err = conn.application(false); err != nil {
			return err
		}
		if conn.signer != nil {
			if src.write, err = conn.application(true); err != nil {
				return err
			}
		}

		sess := session.New(cfg.AppAddress, cfg.NodeURL)
		if conn.wallet != nil {
			sess.Connect(conn.chain.ChainID, conn.wallet.Address)
		}
		logger.Info("dashboard started",
			zap.String("chain", conn.chain.Name),
			zap.String("rpc", conn.evm.URL()),
			zap.String("app", cfg.AppAddress))

		interval := time.Duration(cfg.RefreshInterval) * time.Second
		p := ui.NewDashboard(src, sess, interval,
			ui.WithDashboardLogger(logger),
			ui.WithNetworkName(conn.chain.Name))
		_, err = p.Run()
		return err
	},
}
