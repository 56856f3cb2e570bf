package codec

import (
	"fmt"
	"strings"
)

// Action is a command understood by receivers.
//
// The numeric values are shared with the serial relay protocol.
type Action int

const (
	ActionLight     Action = 10
	ActionBeep      Action = 11
	ActionVibrate   Action = 12
	ActionShock     Action = 13
	ActionKeepAwake Action = 98
	ActionBeepShock Action = 99
)

var actionNames = map[Action]string{
	ActionLight:     "LIGHT",
	ActionBeep:      "BEEP",
	ActionVibrate:   "VIBRATE",
	ActionShock:     "SHOCK",
	ActionKeepAwake: "KEEPAWAKE",
	ActionBeepShock: "BEEPSHOCK",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps an action name (case-insensitive) to its Action.
func ParseAction(name string) (Action, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for action, actionName := range actionNames {
		if actionName == upper {
			return action, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", name)
}

// Transmittable reports whether the action may be requested from outside.
// KEEPAWAKE is reserved for the keep-awake scheduler.
func (a Action) Transmittable() bool {
	switch a {
	case ActionLight, ActionBeep, ActionVibrate, ActionShock, ActionBeepShock:
		return true
	default:
		return false
	}
}

// InvolvesShock reports whether the action delivers a shock.
func (a Action) InvolvesShock() bool {
	return a == ActionShock || a == ActionBeepShock
}
