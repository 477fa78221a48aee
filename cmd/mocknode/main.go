package main

import (
	"flag"

	bigchain "github.com/alexdcox/bigchain-go"
	"github.com/alexdcox/bigchain-go/mocknode"
)

var log = bigchain.Logger()

func main() {
	listen := flag.String("listen", ":9984", "address to serve the mock federation node on")
	flag.Parse()

	node := mocknode.New()
	if err := node.Listen(*listen); err != nil {
		log.Fatal().Msgf("%+v", err)
	}
}
