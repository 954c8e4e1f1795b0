package engine

import "slices"

// commandPhases lists the phases in which each command is accepted.
var commandPhases = map[CommandType][]Phase{
	CmdBuy:      {PhasePlacement},
	CmdSell:     {PhasePlacement},
	CmdPlace:    {PhasePlacement},
	CmdWithdraw: {PhasePlacement},
	CmdMove:     {PhasePlacement},
}

func Allowed(p Phase, t CommandType) bool {
	return slices.Contains(commandPhases[t], p)
}
