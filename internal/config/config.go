package config

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var AppConfig Config

func InitConfig() {
	viper.AutomaticEnv()

	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("LIBP2P_PORT", 4001)
	viper.SetDefault("LIBP2P_BOOT_NODES", "")
	viper.SetDefault("BTC_RPC", "http://localhost:8332")
	viper.SetDefault("BTC_RPC_USER", "")
	viper.SetDefault("BTC_RPC_PASS", "")
	viper.SetDefault("BTC_NETWORK_TYPE", "")
	viper.SetDefault("OPERATOR_PRIVATE_KEY", "")
	viper.SetDefault("COORDINATOR_COLLATERAL_TXID", "")
	viper.SetDefault("COORDINATOR_COLLATERAL_VOUT", 0)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_DIR", "/app/db")
	viper.SetDefault("SESSION_TIMEOUT", "30s")
	viper.SetDefault("SIGNING_TIMEOUT", "15s")
	viper.SetDefault("MEMPOOL_FEE_URL", "")

	logLevel, err := logrus.ParseLevel(strings.ToLower(viper.GetString("LOG_LEVEL")))
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}

	AppConfig = Config{
		HTTPPort:            viper.GetString("HTTP_PORT"),
		Libp2pPort:          viper.GetInt("LIBP2P_PORT"),
		Libp2pBootNodes:     viper.GetString("LIBP2P_BOOT_NODES"),
		BTCRPC:              viper.GetString("BTC_RPC"),
		BTCRPCUser:          viper.GetString("BTC_RPC_USER"),
		BTCRPCPass:          viper.GetString("BTC_RPC_PASS"),
		BTCNetworkType:      viper.GetString("BTC_NETWORK_TYPE"),
		OperatorPrivateKey:  viper.GetString("OPERATOR_PRIVATE_KEY"),
		CoordinatorCollateralTxID: viper.GetString("COORDINATOR_COLLATERAL_TXID"),
		CoordinatorCollateralVout: viper.GetInt("COORDINATOR_COLLATERAL_VOUT"),
		DbDir:               viper.GetString("DB_DIR"),
		LogLevel:            logLevel,
		SessionTimeout:      viper.GetDuration("SESSION_TIMEOUT"),
		SigningTimeout:      viper.GetDuration("SIGNING_TIMEOUT"),
		MempoolFeeURL:       viper.GetString("MEMPOOL_FEE_URL"),
	}

	logrus.Infof("Init config, HTTPPort %s, BTCNetworkType %s, DbDir %s",
		AppConfig.HTTPPort, AppConfig.BTCNetworkType, AppConfig.DbDir)

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(AppConfig.LogLevel)
}

// Config holds the coordinator's runtime settings, sourced from the
// environment the way viper.AutomaticEnv does for every other service
// in this codebase.
type Config struct {
	HTTPPort            string
	Libp2pPort          int
	Libp2pBootNodes     string
	BTCRPC              string
	BTCRPCUser          string
	BTCRPCPass          string
	BTCNetworkType      string
	OperatorPrivateKey  string
	CoordinatorCollateralTxID string
	CoordinatorCollateralVout int
	DbDir               string
	LogLevel            logrus.Level
	SessionTimeout      time.Duration
	SigningTimeout      time.Duration
	MempoolFeeURL       string
}
