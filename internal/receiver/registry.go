package receiver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
)

// Constructor builds a receiver from its configuration.
type Constructor func(props Properties, logger zerolog.Logger) Receiver

func radioType(newCodec func(codec.Config) codec.Codec) Constructor {
	return func(props Properties, logger zerolog.Logger) Receiver {
		c := newCodec(codec.Config{
			TransmitterCode:  props.TransmitterCode,
			Channel:          props.Channel,
			BeepShockDelayMs: props.BeepShockDelayMs,
		})
		return NewRadio(props, c, logger)
	}
}

func relayType(typ relay.ReceiverType) Constructor {
	return func(props Properties, logger zerolog.Logger) Receiver {
		return NewRelayed(props, typ, logger)
	}
}

var registry = map[string]Constructor{
	"pac":        radioType(func(c codec.Config) codec.Codec { return codec.NewPAC(c) }),
	"petrainer":  radioType(func(c codec.Config) codec.Codec { return codec.NewPetrainer(c) }),
	"wodondog":   radioType(func(c codec.Config) codec.Codec { return codec.NewWodondog(c) }),
	"wodondogb":  radioType(func(c codec.Config) codec.Codec { return codec.NewWodondogB(c) }),
	"patpett150": radioType(func(c codec.Config) codec.Codec { return codec.NewPatpetT150(c) }),
	"pawanti":    radioType(func(c codec.Config) codec.Codec { return codec.NewPawanti(c) }),
	"dogtra":     radioType(func(c codec.Config) codec.Codec { return codec.NewDogtra(c) }),

	"arduino_petrainer":                 relayType(relay.TypePetrainer),
	"arduino_optocoupler":               relayType(relay.TypeOptocoupler),
	"arduino_optocoupler_beep_modifier": relayType(relay.TypeOptocouplerBeepModifier),
}

// New builds the receiver for props.Type. Type names are case insensitive.
// The receiver is not validated.
func New(props Properties, logger zerolog.Logger) (Receiver, error) {
	ctor, ok := registry[strings.ToLower(props.Type)]
	if !ok {
		return nil, fmt.Errorf("%w %q, supported types: %s", ErrUnknownType, props.Type, strings.Join(Types(), ", "))
	}
	return ctor(props, logger), nil
}

// Types lists the supported type names.
func Types() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
