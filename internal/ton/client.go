package ton

import (
	"context"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/ton"
	"go.uber.org/zap"
)

const (
	mainnetConfigURL = "https://ton.org/global.config.json"
	testnetConfigURL = "https://ton.org/testnet-global.config.json"
)

// ConnectOptions описывает, куда подключаться. Если задан конкретный
// лайт-сервер — идём на него, иначе автообнаружение через глобальный конфиг.
type ConnectOptions struct {
	Network        string // mainnet | testnet
	LiteServerHost string
	LiteServerPort int
	LiteServerKey  string
}

// Connect устанавливает соединение с сетью TON и возвращает API-клиент
// с ретраями. На mainnet включается строгая проверка пруфов.
func Connect(ctx context.Context, opts ConnectOptions, log *zap.Logger) (ton.APIClientWrapped, error) {
	client := liteclient.NewConnectionPool()

	if opts.LiteServerHost != "" && opts.LiteServerKey != "" {
		addr := fmt.Sprintf("%s:%d", opts.LiteServerHost, opts.LiteServerPort)
		log.Info("connecting to lite server", zap.String("addr", addr))
		if err := client.AddConnection(ctx, addr, opts.LiteServerKey); err != nil {
			return nil, fmt.Errorf("connect to lite server %s: %w", addr, err)
		}
	} else {
		configURL := testnetConfigURL
		if strings.ToLower(opts.Network) == "mainnet" {
			configURL = mainnetConfigURL
		}
		log.Info("connecting via global config", zap.String("url", configURL), zap.String("network", opts.Network))
		if err := client.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
			return nil, fmt.Errorf("connect via config %s: %w", configURL, err)
		}
	}

	proofPolicy := ton.ProofCheckPolicyFast
	if strings.ToLower(opts.Network) == "mainnet" {
		proofPolicy = ton.ProofCheckPolicySecure
	}

	return ton.NewAPIClient(client, proofPolicy).WithRetry(), nil
}
