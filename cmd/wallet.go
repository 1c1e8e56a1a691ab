package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/rollupdash/internal/config"
	"github.com/Mohsinsiddi/rollupdash/internal/ui"
	"github.com/Mohsinsiddi/rollupdash/internal/wallet"
)

var (
	walletKeyFlag string
	walletYesFlag bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet with --key (the private key goes to the OS keychain)
or a watch-only wallet by address. Watch-only wallets can connect but cannot
send inputs or execute vouchers.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		out := cmd.OutOrStdout()

		if walletKeyFlag != "" {
			if err := mgr.AddWithKey(name, walletKeyFlag); err != nil {
				return err
			}
			w, err := mgr.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		} else {
			if len(args) < 2 {
				return fmt.Errorf("address required for watch-only wallet\n  Usage: rollupdash wallet add <name> <address>\n  Or for signing: rollupdash wallet add <name> --key <private-key>")
			}
			if err := mgr.Add(name, &wallet.Wallet{Address: args[1], Type: wallet.TypeWatchOnly}); err != nil {
				return err
			}
			w, err := mgr.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		}
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Set as default with: rollupdash wallet use %s", name)))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets := newWalletManager().List()
		if len(wallets) == 0 && isTable() {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Info("No wallets configured yet."))
			fmt.Fprintln(cmd.OutOrStdout(), ui.Hint("Add one with: rollupdash wallet add dev --key <private-key>"))
			return nil
		}
		return render(cmd, wallets, func() string {
			t := ui.NewTable([]ui.Column{
				{Title: "Name", Width: 16},
				{Title: "Address", Width: 44},
				{Title: "Type", Width: 12},
				{Title: "Default", Width: 8},
			})
			for _, w := range wallets {
				def := ""
				if w.IsDefault {
					def = ui.StyleSuccess.Render("✓")
				}
				t.AddRow(ui.Row{ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), def})
			}
			return t.Render() + ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))) + "\n"
		})
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYesFlag && !prompter(cmd).ConfirmDanger(fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			if err := updateConfig(func(c *config.Config) error {
				c.DefaultWallet = ""
				return nil
			}); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default wallet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			var items []ui.PickerItem
			for _, w := range mgr.List() {
				items = append(items, ui.PickerItem{
					Label:    w.Name,
					SubLabel: w.Address + " · " + w.Type,
					Value:    w.Name,
					Current:  w.IsDefault,
				})
			}
			picked, err := ui.PickItem("Select wallet", items)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Meta("Cancelled."))
				return nil
			}
			name = picked
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		if err := updateConfig(func(c *config.Config) error {
			c.DefaultWallet = name
			return nil
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key (hex) for a signing wallet")
	walletRemoveCmd.Flags().BoolVarP(&walletYesFlag, "yes", "y", false, "skip confirmation")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletRemoveCmd, walletUseCmd)
}

// walletLabel renders a wallet for one-line summaries.
func walletLabel(w *wallet.Wallet) string {
	if w == nil {
		return "none"
	}
	return strings.TrimSpace(w.Name + " " + w.Address)
}
