package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/urfave/cli.v1"

	"example.com/anctoken/pkg/api"
	"example.com/anctoken/pkg/config"
	"example.com/anctoken/pkg/explorer"
	"example.com/anctoken/pkg/ledger"
	"example.com/anctoken/pkg/wallet"
)

func main() {
	app := cli.NewApp()
	app.Name = "anctoken"
	app.Usage = "single-asset token ledger node"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to the YAML configuration file",
		},
	}
	app.Commands = []cli.Command{
		createWalletCommand(),
		initCommand(),
		balanceCommand(),
		balancesCommand(),
		transferCommand(),
		historyCommand(),
		serveCommand(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return cfg, err
	}
	setupLogging(cfg.Log)
	return cfg, nil
}

// setupLogging routes the standard logger into a rotating file when
// one is configured, stderr otherwise.
func setupLogging(cfg config.LogConfig) {
	if cfg.File == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}

func createWalletCommand() cli.Command {
	return cli.Command{
		Name:  "createwallet",
		Usage: "generate a new key pair and print its address",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "out", Usage: "wallet backup file"},
		},
		Action: func(c *cli.Context) error {
			w, err := wallet.NewWallet()
			if err != nil {
				return err
			}

			address := w.GetAddress()
			out := c.String("out")
			if out == "" {
				out = fmt.Sprintf("wallet_%s.dat", address[:8])
			}
			if err := w.Backup(out); err != nil {
				return err
			}

			fmt.Printf("Address: %s\n", address)
			fmt.Printf("Wallet backup: %s\n", out)
			return nil
		},
	}
}

func initCommand() cli.Command {
	return cli.Command{
		Name:  "init",
		Usage: "create the ledger and credit the full supply to the creator",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "creator", Usage: "address that receives the initial supply"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			creator := c.String("creator")
			if ok, _ := wallet.ValidateAddress(creator); !ok {
				return errors.New("creator is not a valid address")
			}

			store, err := ledger.OpenStore(cfg.DB.File)
			if err != nil {
				return err
			}
			defer store.Close()

			// La inicialización ocurre exactamente una vez
			initialized, err := store.Initialized()
			if err != nil {
				return err
			}
			if initialized {
				return ledger.ErrLedgerExists
			}

			l := ledger.New(cfg.Token.Name, cfg.Token.Symbol, cfg.Token.TotalSupply, creator)
			if err := store.SaveLedger(l); err != nil {
				return err
			}

			fmt.Printf("Ledger initialized: %s (%s), supply %d credited to %s\n",
				l.Name(), l.Symbol(), l.TotalSupply(), creator)
			return nil
		},
	}
}

func balanceCommand() cli.Command {
	return cli.Command{
		Name:  "balance",
		Usage: "show the balance of one address",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "address", Usage: "address to query"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			address := c.String("address")
			if ok, _ := wallet.ValidateAddress(address); !ok {
				return errors.New("address is not valid")
			}

			store, l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Printf("%s: %d %s\n", address, l.BalanceOf(address), l.Symbol())
			return nil
		},
	}
}

func balancesCommand() cli.Command {
	return cli.Command{
		Name:  "balances",
		Usage: "show all balances and the total supply",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			store, l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			balances := l.Balances()
			addresses := make([]string, 0, len(balances))
			for addr := range balances {
				addresses = append(addresses, addr)
			}
			sort.Strings(addresses)

			for _, addr := range addresses {
				fmt.Printf("%s: %d\n", addr, balances[addr])
			}
			fmt.Printf("Total supply: %d %s\n", l.TotalSupply(), l.Symbol())
			return nil
		},
	}
}

func transferCommand() cli.Command {
	return cli.Command{
		Name:  "transfer",
		Usage: "move tokens between two addresses",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "from", Usage: "sender address"},
			cli.StringFlag{Name: "to", Usage: "recipient address"},
			cli.Uint64Flag{Name: "amount", Usage: "amount to move"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			from, to := c.String("from"), c.String("to")
			for _, address := range []string{from, to} {
				if ok, _ := wallet.ValidateAddress(address); !ok {
					return fmt.Errorf("address %q is not valid", address)
				}
			}
			amount := c.Uint64("amount")

			store, l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := l.Transfer(from, to, amount); err != nil {
				return err
			}
			if err := store.AppendTransfer(ledger.NewRecord(from, to, amount)); err != nil {
				return err
			}
			if err := store.SaveLedger(l); err != nil {
				return err
			}

			fmt.Printf("Transferred %d %s\n", amount, l.Symbol())
			fmt.Printf("%s: %d\n", from, l.BalanceOf(from))
			fmt.Printf("%s: %d\n", to, l.BalanceOf(to))
			return nil
		},
	}
}

func historyCommand() cli.Command {
	return cli.Command{
		Name:  "history",
		Usage: "show journaled transfers for an address",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "address", Usage: "address to filter by (optional)"},
			cli.IntFlag{Name: "limit", Usage: "maximum entries to show", Value: 20},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			store, _, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Transfers(c.String("address"), c.Int("limit"))
			if err != nil {
				return err
			}

			for _, rec := range records {
				fmt.Printf("%s  %s -> %s  %d\n",
					rec.Timestamp.Format("2006-01-02 15:04:05"), rec.From, rec.To, rec.Amount)
			}
			return nil
		},
	}
}

func serveCommand() cli.Command {
	return cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the explorer",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			store, l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			tlsConfig, err := cfg.API.TLSConfig()
			if err != nil {
				return err
			}

			srv := api.NewAPI(l, store, cfg.API.APIKey)
			exp := explorer.NewExplorer(l, store)
			return srv.Start(cfg.API.Listen, tlsConfig, exp)
		},
	}
}

func openLedger(cfg config.Config) (*ledger.Store, *ledger.Ledger, error) {
	store, err := ledger.OpenStore(cfg.DB.File)
	if err != nil {
		return nil, nil, err
	}

	l, err := store.LoadLedger()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, l, nil
}
