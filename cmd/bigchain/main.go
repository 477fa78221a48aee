package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	bigchain "github.com/alexdcox/bigchain-go"
)

var log = bigchain.Logger()

var (
	configPath string
	nodes      string
	timeout    time.Duration
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msgf("usage: bigchain (keygen | create --payload <json> | transfer --txid <id> [--to <key>]... | retrieve --txid <id> | status --txid <id>)")
	}

	var err error

	switch os.Args[1] {
	case "keygen":
		err = runKeygen()
	case "create":
		fs := commonFlags("create")
		payload := fs.String("payload", "", "asset payload as a json document")
		_ = fs.Parse(os.Args[2:])
		err = runCreate(*payload)
	case "transfer":
		fs := commonFlags("transfer")
		txid := fs.String("txid", "", "id of the transaction to spend")
		var to multiFlag
		fs.Var(&to, "to", "public key of a new owner, repeatable; omit to burn")
		_ = fs.Parse(os.Args[2:])
		err = runTransfer(*txid, to)
	case "retrieve":
		fs := commonFlags("retrieve")
		txid := fs.String("txid", "", "transaction id")
		_ = fs.Parse(os.Args[2:])
		err = runRetrieve(*txid)
	case "status":
		fs := commonFlags("status")
		txid := fs.String("txid", "", "transaction id")
		_ = fs.Parse(os.Args[2:])
		err = runStatus(*txid)
	default:
		log.Fatal().Msgf("invalid subcommand '%s'", os.Args[1])
	}

	if err != nil {
		log.Fatal().Msgf("%+v", err)
	}
}

type multiFlag []string

func (f *multiFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *multiFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func commonFlags(name string) (fs *flag.FlagSet) {
	// ExitOnError: Parse exits on bad input, its error is never returned
	fs = flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "path to a yaml config file")
	fs.StringVar(&nodes, "node", "", "comma separated federation node urls")
	fs.DurationVar(&timeout, "timeout", 0, "per-attempt request timeout")
	return
}

func makeDriver() (driver *bigchain.Driver, err error) {
	options := &bigchain.Options{}

	if configPath != "" {
		var config *bigchain.Config
		config, err = bigchain.LoadConfig(configPath)
		if err != nil {
			return
		}
		options = config.Options()
	}

	if nodes != "" {
		options.Nodes = strings.Split(nodes, ",")
	}
	if timeout != 0 {
		options.Timeout = timeout
	}

	return bigchain.New(options)
}

func runKeygen() (err error) {
	pair, err := bigchain.GenerateKeyPair()
	if err != nil {
		return
	}

	return printJson(map[string]string{
		"signingKey":   pair.SigningKey,
		"verifyingKey": pair.VerifyingKey,
	})
}

func runCreate(payload string) (err error) {
	driver, err := makeDriver()
	if err != nil {
		return
	}

	var raw json.RawMessage
	if payload != "" {
		if !json.Valid([]byte(payload)) {
			return errors.Errorf("payload is not valid json: %s", payload)
		}
		raw = json.RawMessage(payload)
	}

	out, err := driver.Transactions().Create(context.Background(), &bigchain.CreateIn{Payload: raw})
	if err != nil {
		return
	}

	return printJson(out)
}

func runTransfer(txid string, ownersAfter []string) (err error) {
	if txid == "" {
		return errors.New("--txid is required")
	}

	driver, err := makeDriver()
	if err != nil {
		return
	}

	prior, err := driver.Transactions().Retrieve(context.Background(), txid)
	if err != nil {
		return
	}

	out, err := driver.Transactions().Transfer(context.Background(), &bigchain.TransferIn{
		Transaction: prior,
		OwnersAfter: ownersAfter,
	})
	if err != nil {
		return
	}

	return printJson(out)
}

func runRetrieve(txid string) (err error) {
	if txid == "" {
		return errors.New("--txid is required")
	}

	driver, err := makeDriver()
	if err != nil {
		return
	}

	out, err := driver.Transactions().Retrieve(context.Background(), txid)
	if err != nil {
		return
	}

	return printJson(out)
}

func runStatus(txid string) (err error) {
	if txid == "" {
		return errors.New("--txid is required")
	}

	driver, err := makeDriver()
	if err != nil {
		return
	}

	out, err := driver.Transactions().TransactionStatus(context.Background(), txid)
	if err != nil {
		return
	}

	return printJson(out)
}

func printJson(v any) (err error) {
	jsn, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Println(string(jsn))
	return
}
