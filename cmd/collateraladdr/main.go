// Command collateraladdr derives the P2WPKH address for a public key,
// the address format participants fund their collateral and mix
// outputs from. Adapted from the old p2wsh address-derivation tool's
// flag layout, dropped its EVM-bound witness script for a plain
// pay-to-witness-pubkey-hash one.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

func main() {
	var (
		pubKeyHex   = flag.String("pubkey", "", "Public key in hex format")
		networkType = flag.String("network", "mainnet", "Network type: mainnet, testnet3, regtest")
		help        = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		fmt.Println("Usage: collateraladdr [options]")
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *pubKeyHex == "" {
		log.Fatal("Public key is required. Use -pubkey flag.")
	}

	pubKey, err := hex.DecodeString(*pubKeyHex)
	if err != nil {
		log.Fatalf("Invalid public key hex: %v", err)
	}

	var net *chaincfg.Params
	switch *networkType {
	case "mainnet":
		net = &chaincfg.MainNetParams
	case "testnet3":
		net = &chaincfg.TestNet3Params
	case "regtest":
		net = &chaincfg.RegressionNetParams
	default:
		log.Fatalf("Invalid network type: %s", *networkType)
	}

	pkHash := btcutil.Hash160(pubKey)
	address, err := btcutil.NewAddressWitnessPubKeyHash(pkHash, net)
	if err != nil {
		log.Fatalf("Failed to derive address: %v", err)
	}

	fmt.Printf("P2WPKH Address: %s\n", address.String())
	fmt.Printf("Network: %s\n", *networkType)
	fmt.Printf("Public Key: %s\n", *pubKeyHex)
}
