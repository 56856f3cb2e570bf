package config

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var colors = []string{"#FFD", "#DFF", "#DFD", "#DDF", "#FDD", "#DDD", "#FDF", "#FFF", "#DDD"}

// codeLengths are the transmitter code widths of the radio receivers a
// configuration can be generated for.
var codeLengths = map[string]int{
	"pac":        9,
	"petrainer":  16,
	"wodondog":   16,
	"wodondogb":  16,
	"patpett150": 16,
}

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate creates a configuration for the given receiver types with random
// transmitter codes and a random web token. Codes are unique within the
// configuration.
func Generate(sdr string, types []string) (*Config, error) {
	config := Default()
	config.Global.SDR = sdr

	token, err := randomString(tokenCharset, 8)
	if err != nil {
		return nil, err
	}
	config.Global.WebAuthenticationToken = token

	used := make(map[string]bool)
	for i, typ := range types {
		typ = strings.ToLower(strings.TrimSpace(typ))
		length, ok := codeLengths[typ]
		if !ok {
			return nil, fmt.Errorf("%w: cannot generate a %q receiver", ErrInvalidConfig, typ)
		}

		var code string
		for code == "" || used[code] {
			if code, err = randomString("01", length); err != nil {
				return nil, err
			}
		}
		used[code] = true

		config.Receivers = append(config.Receivers, ReceiverSection{
			Type:            typ,
			Name:            fmt.Sprintf("%s%d", displayName(typ), i+1),
			Color:           colors[i%len(colors)],
			TransmitterCode: code,
			Channel:         1,
		})
	}
	return config, nil
}

func displayName(typ string) string {
	switch typ {
	case "pac":
		return "PAC"
	case "patpett150":
		return "PatpetT150"
	case "wodondogb":
		return "WodondogB"
	}
	return strings.ToUpper(typ[:1]) + typ[1:]
}

func randomString(charset string, n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(charset)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b.WriteByte(charset[idx.Int64()])
	}
	return b.String(), nil
}
