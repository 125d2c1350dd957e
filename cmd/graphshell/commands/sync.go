package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/graphshell/am"
	"github.com/teranos/graphshell/db"
	"github.com/teranos/graphshell/logger"
	"github.com/teranos/graphshell/persistence"
	"github.com/teranos/graphshell/verse"
)

// SyncCmd is the parent command for peer pairing and trust management.
// It operates directly on the trust store; a running `graphshell run`
// process picks up the change on its next sync exchange.
var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage peer pairing and workspace grants",
}

func openTrustStore() (*persistence.TrustStore, func(), error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	dataDir := cfg.Core.DataDir
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".graphshell")
	}
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "graphshell.db"
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataDir, dbPath)
	}

	conn, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	return persistence.NewTrustStore(conn), func() { conn.Close() }, nil
}

var syncTrustCmd = &cobra.Command{
	Use:   "trust <peer-id> <display-name>",
	Short: "Add a peer to the trust store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openTrustStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.AddTrustedPeer(verse.PeerID(args[0]), args[1]); err != nil {
			return fmt.Errorf("trust peer: %w", err)
		}
		pterm.Success.Printf("Trusted %s as %q\n", args[0], args[1])
		return nil
	},
}

var syncGrantCmd = &cobra.Command{
	Use:   "grant <peer-id> <workspace> <read-only|read-write>",
	Short: "Grant a trusted peer access to a workspace",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var access verse.Access
		switch args[2] {
		case "read-only":
			access = verse.AccessReadOnly
		case "read-write":
			access = verse.AccessReadWrite
		default:
			return fmt.Errorf("access must be read-only or read-write, got %q", args[2])
		}

		store, closeFn, err := openTrustStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if !store.IsTrusted(verse.PeerID(args[0])) {
			return fmt.Errorf("peer %s is not trusted — run 'sync trust' first", args[0])
		}

		grant := verse.Grant{Peer: verse.PeerID(args[0]), WorkspaceID: args[1], Access: access}
		if err := store.PutGrant(grant); err != nil {
			return fmt.Errorf("grant access: %w", err)
		}
		pterm.Success.Printf("Granted %s %s access to %q\n", args[0], args[2], args[1])
		return nil
	},
}

var syncRevokeCmd = &cobra.Command{
	Use:   "revoke <peer-id>",
	Short: "Revoke all workspace grants for a peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openTrustStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.RevokeAccess(verse.PeerID(args[0])); err != nil {
			return fmt.Errorf("revoke access: %w", err)
		}
		pterm.Success.Printf("Revoked all grants for %s\n", args[0])
		return nil
	},
}

var syncForgetCmd = &cobra.Command{
	Use:   "forget <peer-id>",
	Short: "Remove a peer from the trust store entirely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openTrustStore()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Forget(verse.PeerID(args[0])); err != nil {
			return fmt.Errorf("forget peer: %w", err)
		}
		pterm.Success.Printf("Forgot peer %s\n", args[0])
		return nil
	},
}

var syncListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeFn, err := openTrustStore()
		if err != nil {
			return err
		}
		defer closeFn()

		peers := store.Peers()
		if len(peers) == 0 {
			pterm.Info.Println("No trusted peers")
			return nil
		}
		for _, p := range peers {
			fmt.Printf("  %-24s %-20s last seen %s\n", p.ID, p.DisplayName, p.LastSeen.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	SyncCmd.AddCommand(syncTrustCmd)
	SyncCmd.AddCommand(syncGrantCmd)
	SyncCmd.AddCommand(syncRevokeCmd)
	SyncCmd.AddCommand(syncForgetCmd)
	SyncCmd.AddCommand(syncListCmd)
}
